// Package s3xml contains the XML documents exchanged with the object storage service.
//
// NOTE: Elements are matched by local name only, documents are accepted with or without the service namespace.
package s3xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

const (
	// Namespace is the XML namespace of all documents sent/received by the service.
	Namespace = "http://s3.amazonaws.com/doc/2006-03-01/"

	// XSINamespace is the XML schema instance namespace, used to type ACL grantees.
	XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"
)

// Decode parses the given document into v.
func Decode(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("empty document")
	}

	err := xml.Unmarshal(body, v)
	if err != nil {
		return fmt.Errorf("could not parse response XML: %w", err)
	}

	return nil
}

// Encode returns the given document, including the XML header.
func Encode(v any) ([]byte, error) {
	data, err := xml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	return append([]byte(xml.Header), data...), nil
}

// ParseTime parses a timestamp as found in listing documents e.g. "2009-10-12T17:50:30.000Z".
func ParseTime(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp '%s': %w", value, err)
	}

	return parsed, nil
}

// FormatTime formats a timestamp the same way the service does in listing documents.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Error is the document returned by the service to describe a failed request.
type Error struct {
	XMLName   xml.Name `xml:"Error"`
	Code      string   `xml:"Code"`
	Message   string   `xml:"Message"`
	Resource  string   `xml:"Resource,omitempty"`
	Endpoint  string   `xml:"Endpoint,omitempty"`
	RequestID string   `xml:"RequestId,omitempty"`
}

// Owner identifies the owner of a bucket/object.
type Owner struct {
	ID          string `xml:"ID"`
	DisplayName string `xml:"DisplayName,omitempty"`
}

// Bucket is an entry in the account's bucket list.
type Bucket struct {
	Name         string `xml:"Name"`
	CreationDate string `xml:"CreationDate,omitempty"`
}

// ListAllMyBucketsResult is the response to a GET on the service root.
type ListAllMyBucketsResult struct {
	XMLName xml.Name `xml:"ListAllMyBucketsResult"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	Owner   Owner    `xml:"Owner"`
	Buckets []Bucket `xml:"Buckets>Bucket"`
}

// CreateBucketConfiguration is sent when creating a bucket in a specific location.
type CreateBucketConfiguration struct {
	XMLName            xml.Name `xml:"CreateBucketConfiguration"`
	Xmlns              string   `xml:"xmlns,attr,omitempty"`
	LocationConstraint string   `xml:"LocationConstraint"`
}

// LocationConstraint is the response to a GET on '?location'.
type LocationConstraint struct {
	XMLName xml.Name `xml:"LocationConstraint"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	Value   string   `xml:",chardata"`
}

// LoggingEnabled describes where server access logs are delivered.
type LoggingEnabled struct {
	TargetBucket string `xml:"TargetBucket"`
	TargetPrefix string `xml:"TargetPrefix"`
}

// BucketLoggingStatus is the document read/written via '?logging', a <nil> 'LoggingEnabled' disables logging.
type BucketLoggingStatus struct {
	XMLName        xml.Name        `xml:"BucketLoggingStatus"`
	Xmlns          string          `xml:"xmlns,attr,omitempty"`
	LoggingEnabled *LoggingEnabled `xml:"LoggingEnabled,omitempty"`
}
