package s3

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/s3wire/s3wire/log"
	"github.com/s3wire/s3wire/s3err"
	"github.com/s3wire/s3wire/s3rest"
	"github.com/s3wire/s3wire/s3xml"
)

// Canned access control lists, which may be applied to a bucket/object using the 'x-amz-acl' header.
const (
	ACLPrivate           = "private"
	ACLPublicRead        = "public-read"
	ACLPublicReadWrite   = "public-read-write"
	ACLAuthenticatedRead = "authenticated-read"
)

// Bucket is a container of objects.
type Bucket struct {
	Account *Account
	Name    string

	// CreationDate is only populated for buckets returned by 'Account.Buckets'.
	CreationDate time.Time

	// LocationConstraint is the region in which the bucket is created, empty means the default region.
	LocationConstraint string

	// CannedACL is applied using the 'x-amz-acl' header when the bucket is saved.
	CannedACL string

	// ACL, when set, is saved after the bucket itself.
	ACL *AccessControlList

	// LoggingStatus, when set, is saved after the bucket itself.
	LoggingStatus *LoggingStatus

	names  s3rest.NamePolicy
	exists bool
}

// SetDNSStrict overrides the validation of the bucket name when using virtual host style requests; when disabled,
// underscores and a trailing dash are permitted.
func (b *Bucket) SetDNSStrict(strict bool) *Bucket {
	b.names = s3rest.DefaultNamePolicy{DNSStrict: strict}
	return b
}

// Ref returns the resource reference for this bucket.
func (b *Bucket) Ref() s3rest.BucketRef {
	return s3rest.BucketRef{Name: b.Name, Names: b.names}
}

// Exists returns a boolean indicating whether the bucket was found by the most recent load, or was saved.
func (b *Bucket) Exists() bool {
	return b.exists
}

// URL returns the URL of the bucket, it always has a trailing slash.
func (b *Bucket) URL() (string, error) {
	return b.Account.client.URL(b.Ref())
}

// SignedURL returns a URL which allows unauthenticated access to the bucket (or one of its sub-resources e.g. "?acl")
// until the TTL expires.
func (b *Bucket) SignedURL(ttl time.Duration, subResource string) (string, error) {
	return b.Account.client.SignedURL(b.Ref(), subResource, ttl)
}

// Object returns a handle to the object with the given key, no request is sent.
func (b *Bucket) Object(key string) *Object {
	return &Object{Bucket: b, Key: key}
}

// Objects returns an iterator over the objects in this bucket, no request is sent until it's rewound.
func (b *Bucket) Objects(options ObjectIteratorOptions) *ObjectIterator {
	return newObjectIterator(b, options)
}

// Load returns a boolean indicating whether the bucket exists; a missing bucket isn't an error.
func (b *Bucket) Load(ctx context.Context) (bool, error) {
	_, err := b.Account.send(ctx, &s3rest.Request{Resource: b.Ref(), Method: http.MethodHead})
	if s3err.IsNotFound(err) {
		b.exists = false
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to load bucket '%s': %w", b.Name, err)
	}

	b.exists = true

	return true, nil
}

// Save creates the bucket if it's not known to exist, otherwise applies the canned ACL (if any) to the existing
// bucket. The access control list and logging status are then saved, if set.
func (b *Bucket) Save(ctx context.Context) error {
	header := make(http.Header)
	if b.CannedACL != "" {
		header.Set("x-amz-acl", b.CannedACL)
	}

	switch {
	case !b.exists:
		err := b.create(ctx, header)
		if err != nil {
			return fmt.Errorf("failed to create bucket '%s': %w", b.Name, err)
		}
	case b.CannedACL != "":
		_, err := b.Account.send(ctx, &s3rest.Request{
			Resource:    b.Ref(),
			SubResource: "?acl",
			Method:      http.MethodPut,
			Header:      header,
		})
		if err != nil {
			return fmt.Errorf("failed to apply canned ACL to bucket '%s': %w", b.Name, err)
		}
	}

	if b.ACL != nil {
		err := b.ACL.withResource(b.Account, b.Ref()).Save(ctx)
		if err != nil {
			return fmt.Errorf("failed to save bucket '%s': %w", b.Name, err)
		}
	}

	if b.LoggingStatus != nil {
		err := b.LoggingStatus.Save(ctx)
		if err != nil {
			return fmt.Errorf("failed to save bucket '%s': %w", b.Name, err)
		}
	}

	return nil
}

func (b *Bucket) create(ctx context.Context, header http.Header) error {
	request := &s3rest.Request{Resource: b.Ref(), Method: http.MethodPut, Header: header}

	if b.LocationConstraint != "" {
		body, err := s3xml.Encode(s3xml.CreateBucketConfiguration{
			Xmlns:              s3xml.Namespace,
			LocationConstraint: b.LocationConstraint,
		})
		if err != nil {
			return err
		}

		request.Body = s3rest.NewBody(body)
	}

	_, err := b.Account.send(ctx, request)
	if err != nil {
		return err
	}

	b.exists = true

	b.Account.Logger().Debugf("Created bucket '%s'", log.UserData(b.Name))

	return nil
}

// Delete removes the bucket, the service refuses to delete a bucket which isn't empty.
func (b *Bucket) Delete(ctx context.Context) error {
	err := deleteResource(ctx, b.Account, b.Ref())
	if err != nil {
		return fmt.Errorf("failed to delete bucket '%s': %w", b.Name, err)
	}

	b.exists = false

	return nil
}

// LoadLocationConstraint populates the location constraint of the bucket, empty means the default region.
func (b *Bucket) LoadLocationConstraint(ctx context.Context) error {
	resp, err := b.Account.send(ctx, &s3rest.Request{Resource: b.Ref(), SubResource: "?location", Method: http.MethodGet})
	if err != nil {
		return fmt.Errorf("failed to load location of bucket '%s': %w", b.Name, err)
	}

	var location s3xml.LocationConstraint

	err = b.Account.decode(http.MethodGet, b.Ref(), resp, &location)
	if err != nil {
		return fmt.Errorf("failed to load location of bucket '%s': %w", b.Name, err)
	}

	b.LocationConstraint = location.Value

	return nil
}

// LoadACL populates the access control list of the bucket.
func (b *Bucket) LoadACL(ctx context.Context) error {
	acl := NewAccessControlList(b.Account, b.Ref())

	err := acl.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ACL of bucket '%s': %w", b.Name, err)
	}

	b.ACL = acl

	return nil
}

// LoadLoggingStatus populates the server access logging status of the bucket.
func (b *Bucket) LoadLoggingStatus(ctx context.Context) error {
	status := NewLoggingStatus(b)

	err := status.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load logging status of bucket '%s': %w", b.Name, err)
	}

	b.LoggingStatus = status

	return nil
}

// Walk iterates over all the objects (and common prefixes, when using a delimiter) in the bucket which start with the
// given prefix, calling the given function for each. Returning 'ErrStopWalking' ends the walk early without an error.
func (b *Bucket) Walk(ctx context.Context, prefix, delimiter string, fn WalkFunc) error {
	return walk(ctx, b.Objects(ObjectIteratorOptions{Prefix: prefix, Delimiter: delimiter}), fn)
}

// deleteResource deletes the given bucket/object, a successful delete always returns "204 No Content".
func deleteResource(ctx context.Context, account *Account, resource s3rest.Resource) error {
	resp, err := account.send(ctx, &s3rest.Request{Resource: resource, Method: http.MethodDelete})
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	url, _ := account.client.URL(resource)

	return s3err.NewUnexpectedStatusError(http.MethodDelete, url, resp.StatusCode, http.StatusNoContent)
}
