// Package s3 exposes the buckets and objects of an account as resources which may be loaded, saved and deleted, along
// with lazily paginated object listings.
package s3

import (
	"context"
	"fmt"
	"net/http"

	"github.com/s3wire/s3wire/log"
	"github.com/s3wire/s3wire/s3auth"
	"github.com/s3wire/s3wire/s3err"
	"github.com/s3wire/s3wire/s3rest"
	"github.com/s3wire/s3wire/s3xml"
)

// Account is the entry point for accessing buckets, it's safe for concurrent use.
type Account struct {
	client  *s3rest.Client
	maxKeys int
}

// NewAccount returns an account which signs requests using the given credentials.
func NewAccount(creds s3auth.Credentials, options Options) *Account {
	options.defaults()

	return &Account{
		client:  s3rest.NewClient(creds, options.Options),
		maxKeys: options.MaxKeys,
	}
}

// Anonymous returns an account which sends unsigned requests, it may only access resources granted to all users.
func Anonymous(options Options) *Account {
	return NewAccount(s3auth.Credentials{}, options)
}

// Client returns the client used to dispatch requests.
func (a *Account) Client() *s3rest.Client {
	return a.client
}

// MaxKeys returns the default page size for object listings.
func (a *Account) MaxKeys() int {
	return a.maxKeys
}

// Logger returns the logger used by this account.
func (a *Account) Logger() log.WrappedLogger {
	return a.client.Logger()
}

// URL returns the URL of the service root.
func (a *Account) URL() (string, error) {
	return a.client.URL(s3rest.ServiceRef{})
}

// Bucket returns a handle to the bucket with the given name, no request is sent.
func (a *Account) Bucket(name string) *Bucket {
	return &Bucket{Account: a, Name: name}
}

// Buckets returns the buckets owned by this account, in the order returned by the service.
//
// NOTE: The account may be able to access buckets owned by other accounts, these aren't returned.
func (a *Account) Buckets(ctx context.Context) ([]*Bucket, error) {
	resp, err := a.send(ctx, &s3rest.Request{Resource: s3rest.ServiceRef{}, Method: http.MethodGet})
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	var result s3xml.ListAllMyBucketsResult

	err = a.decode(http.MethodGet, s3rest.ServiceRef{}, resp, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	buckets := make([]*Bucket, 0, len(result.Buckets))

	for _, b := range result.Buckets {
		bucket := a.Bucket(b.Name)
		bucket.exists = true

		if b.CreationDate != "" {
			bucket.CreationDate, _ = s3xml.ParseTime(b.CreationDate)
		}

		buckets = append(buckets, bucket)
	}

	return buckets, nil
}

func (a *Account) send(ctx context.Context, request *s3rest.Request) (*s3rest.Response, error) {
	return a.client.Send(ctx, request)
}

// decode parses the body of a successful response, a malformed document is reported as a server error.
func (a *Account) decode(method string, resource s3rest.Resource, resp *s3rest.Response, v any) error {
	err := s3xml.Decode(resp.Body, v)
	if err == nil {
		return nil
	}

	url, _ := a.client.URL(resource)

	return s3err.NewParseError(method, url, resp.StatusCode, err)
}
