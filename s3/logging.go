package s3

import (
	"context"
	"net/http"

	"github.com/s3wire/s3wire/s3rest"
	"github.com/s3wire/s3wire/s3xml"
)

// LoggingStatus describes where the service delivers the access logs of a bucket.
type LoggingStatus struct {
	// TargetBucket receives the access logs, empty means logging is disabled.
	TargetBucket string

	// TargetPrefix is prepended to the key of each log object.
	TargetPrefix string

	bucket *Bucket
}

// NewLoggingStatus returns a logging status for the given bucket, with logging disabled.
func NewLoggingStatus(bucket *Bucket) *LoggingStatus {
	return &LoggingStatus{bucket: bucket}
}

// Enabled returns a boolean indicating whether access logging is enabled.
func (l *LoggingStatus) Enabled() bool {
	return l.TargetBucket != ""
}

// Load populates the logging status from the one stored by the service.
func (l *LoggingStatus) Load(ctx context.Context) error {
	resource := l.bucket.Ref()

	resp, err := l.bucket.Account.send(ctx, &s3rest.Request{
		Resource:    resource,
		SubResource: "?logging",
		Method:      http.MethodGet,
	})
	if err != nil {
		return err
	}

	var status s3xml.BucketLoggingStatus

	err = l.bucket.Account.decode(http.MethodGet, resource, resp, &status)
	if err != nil {
		return err
	}

	l.TargetBucket, l.TargetPrefix = "", ""

	if status.LoggingEnabled != nil {
		l.TargetBucket = status.LoggingEnabled.TargetBucket
		l.TargetPrefix = status.LoggingEnabled.TargetPrefix
	}

	return nil
}

// Save replaces the logging status stored by the service.
func (l *LoggingStatus) Save(ctx context.Context) error {
	status := s3xml.BucketLoggingStatus{Xmlns: s3xml.Namespace}

	if l.Enabled() {
		status.LoggingEnabled = &s3xml.LoggingEnabled{TargetBucket: l.TargetBucket, TargetPrefix: l.TargetPrefix}
	}

	body, err := s3xml.Encode(status)
	if err != nil {
		return err
	}

	_, err = l.bucket.Account.send(ctx, &s3rest.Request{
		Resource:    l.bucket.Ref(),
		SubResource: "?logging",
		Method:      http.MethodPut,
		Header:      http.Header{"Content-Type": {"application/xml"}},
		Body:        s3rest.NewBody(body),
	})

	return err
}
