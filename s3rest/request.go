package s3rest

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
)

// Request encapsulates the parameters for a single request to the service.
type Request struct {
	// Resource is the service root, bucket or object being requested.
	Resource Resource

	// SubResource is an optional marker including its leading '?' e.g. "?acl", "?location" or "?logging". Unlike the
	// query, it's included in the signature.
	SubResource string

	// Query contains additional parameters, they're not signed.
	Query url.Values

	// Method is the HTTP method e.g. "GET".
	Method string

	// Header contains additional request headers e.g. "Content-Type", "x-amz-acl" or "x-amz-meta-*".
	Header http.Header

	// Body is the request body, it's rewound before each attempt.
	Body io.ReadSeeker
}

// Response is a fully read response to a successful request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewBody returns a request body for the given data.
func NewBody(data []byte) io.ReadSeeker {
	return bytes.NewReader(data)
}

// buildURL returns the absolute URL for a request; the sub-resource takes the first '?' slot, any query parameters
// follow it.
func buildURL(base, subResource string, query url.Values) string {
	var (
		target  = base
		encoded = query.Encode()
	)

	switch {
	case subResource != "":
		target += subResource

		if encoded != "" {
			target += "&"
		}
	case encoded != "":
		target += "?"
	}

	return target + encoded
}

// bodySize returns the length of the given body, determined by seeking to its end.
func bodySize(body io.ReadSeeker) (int64, error) {
	if body == nil {
		return 0, nil
	}

	size, err := body.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}

	_, err = body.Seek(0, io.SeekStart)
	if err != nil {
		return 0, err
	}

	return size, nil
}
