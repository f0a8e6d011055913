package s3rest

import (
	"fmt"

	"github.com/s3wire/s3wire/s3auth"
)

// Endpoint describes how the URL of a resource is built.
type Endpoint struct {
	Host       string
	DisableSSL bool
	Style      RequestStyle
	Names      NamePolicy
}

// Scheme returns the URL scheme used for requests.
func (e Endpoint) Scheme() string {
	if e.DisableSSL {
		return "http"
	}

	return "https"
}

// Resource is either the service root, a bucket or an object; each is able to produce the canonical path used when
// signing requests and the URL to which requests are sent.
type Resource interface {
	CanonicalPath() string
	URL(endpoint Endpoint) (string, error)
}

// ServiceRef refers to the service root, where the account's buckets are listed.
type ServiceRef struct{}

// CanonicalPath implements the 'Resource' interface.
func (ServiceRef) CanonicalPath() string {
	return s3auth.CanonicalPath("", "", false)
}

// URL implements the 'Resource' interface.
func (ServiceRef) URL(endpoint Endpoint) (string, error) {
	return endpoint.Scheme() + "://" + endpoint.Host + "/", nil
}

// BucketRef refers to a bucket.
type BucketRef struct {
	Name string

	// Names overrides the endpoint's name policy, for example to relax the DNS rules for a single bucket.
	Names NamePolicy
}

// CanonicalPath implements the 'Resource' interface.
func (b BucketRef) CanonicalPath() string {
	return s3auth.CanonicalPath(b.Name, "", false)
}

// URL implements the 'Resource' interface, the returned URL always has a trailing slash.
func (b BucketRef) URL(endpoint Endpoint) (string, error) {
	names := b.Names
	if names == nil {
		names = endpoint.Names
	}

	if names == nil {
		names = DefaultNamePolicy{DNSStrict: true}
	}

	err := names.Validate(b.Name, endpoint.Style)
	if err != nil {
		return "", err
	}

	prefix := endpoint.Scheme() + "://"

	switch endpoint.Style {
	case RequestStyleVirtualHost:
		return prefix + b.Name + "." + endpoint.Host + "/", nil
	case RequestStylePath:
		return prefix + endpoint.Host + "/" + s3auth.EscapeBucket(b.Name) + "/", nil
	case RequestStyleCNAME:
		return prefix + b.Name + "/", nil
	}

	return "", fmt.Errorf("invalid request style '%s'", endpoint.Style)
}

// ObjectRef refers to an object in a bucket.
type ObjectRef struct {
	Bucket BucketRef
	Key    string
}

// CanonicalPath implements the 'Resource' interface.
func (o ObjectRef) CanonicalPath() string {
	return s3auth.CanonicalPath(o.Bucket.Name, o.Key, true)
}

// URL implements the 'Resource' interface.
func (o ObjectRef) URL(endpoint Endpoint) (string, error) {
	base, err := o.Bucket.URL(endpoint)
	if err != nil {
		return "", err
	}

	return base + s3auth.EscapeKey(o.Key), nil
}

var (
	_ Resource = ServiceRef{}
	_ Resource = BucketRef{}
	_ Resource = ObjectRef{}
)
