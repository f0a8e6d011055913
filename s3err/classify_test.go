package s3err

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/stretchr/testify/require"
)

var (
	_ awserr.RequestFailure = (*EndpointError)(nil)
	_ awserr.RequestFailure = (*AccessDeniedError)(nil)
	_ awserr.RequestFailure = (*NotFoundError)(nil)
	_ awserr.RequestFailure = (*ServerError)(nil)
	_ awserr.RequestFailure = (*ServiceError)(nil)
)

func errorDocument(code, message string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>`+
		`<Error><Code>%s</Code><Message>%s</Message><RequestId>4442587FB7D0A2F9</RequestId></Error>`, code, message))
}

func TestHandleResponseError(t *testing.T) {
	type test struct {
		name    string
		method  string
		status  int
		body    []byte
		check   func(err error) bool
		code    string
		message string
	}

	tests := []*test{
		{
			name:   "PermanentRedirect",
			method: http.MethodGet,
			status: http.StatusMovedPermanently,
			body: []byte(`<Error><Code>PermanentRedirect</Code><Message>Use the endpoint.</Message>` +
				`<Endpoint>bucket.s3-eu-west-1.amazonaws.com</Endpoint></Error>`),
			check:   IsEndpointError,
			code:    "PermanentRedirect",
			message: "Use the endpoint. Endpoint: bucket.s3-eu-west-1.amazonaws.com",
		},
		{
			name:    "AccessDenied",
			method:  http.MethodGet,
			status:  http.StatusForbidden,
			body:    errorDocument("AccessDenied", "Access Denied"),
			check:   IsAccessDenied,
			code:    "AccessDenied",
			message: "Access Denied",
		},
		{
			name:    "ClockSkew",
			method:  http.MethodGet,
			status:  http.StatusForbidden,
			body:    errorDocument(CodeRequestTimeTooSkewed, "The difference is too large."),
			check:   IsServiceError,
			code:    CodeRequestTimeTooSkewed,
			message: "The difference is too large.",
		},
		{
			name:    "SignatureMismatch",
			method:  http.MethodGet,
			status:  http.StatusForbidden,
			body:    errorDocument(CodeSignatureDoesNotMatch, "Check your key."),
			check:   IsServiceError,
			code:    CodeSignatureDoesNotMatch,
			message: "Check your key.",
		},
		{
			name:    "ForbiddenUnparseableGet",
			method:  http.MethodGet,
			status:  http.StatusForbidden,
			body:    []byte("<html>nope</html>"),
			check:   IsServerError,
			message: "could not parse response XML: expected element type <Error> but have <html>",
		},
		{
			name:    "ForbiddenPut",
			method:  http.MethodPut,
			status:  http.StatusForbidden,
			body:    errorDocument("AccessDenied", "Access Denied"),
			check:   IsServiceError,
			code:    "AccessDenied",
			message: "Access Denied",
		},
		{
			name:    "NotFound",
			method:  http.MethodGet,
			status:  http.StatusNotFound,
			body:    errorDocument("NoSuchKey", "The specified key does not exist."),
			check:   IsNotFound,
			code:    "NoSuchKey",
			message: "The specified key does not exist.",
		},
		{
			name:    "NotFoundHead",
			method:  http.MethodHead,
			status:  http.StatusNotFound,
			check:   IsNotFound,
			message: "Not Found",
		},
		{
			name:    "InternalError",
			method:  http.MethodPut,
			status:  http.StatusInternalServerError,
			body:    errorDocument("InternalError", "We encountered an internal error."),
			check:   IsServerError,
			code:    "InternalError",
			message: "We encountered an internal error.",
		},
		{
			name:    "ServiceUnavailableGarbage",
			method:  http.MethodGet,
			status:  http.StatusServiceUnavailable,
			body:    []byte("garbage"),
			check:   IsServerError,
			message: "bad response from server",
		},
		{
			name:    "Conflict",
			method:  http.MethodDelete,
			status:  http.StatusConflict,
			body:    errorDocument("BucketNotEmpty", "The bucket you tried to delete is not empty."),
			check:   IsServiceError,
			code:    "BucketNotEmpty",
			message: "The bucket you tried to delete is not empty.",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := HandleResponseError(test.method, "http://localhost/bucket/key", test.status, http.Header{}, test.body)
			require.Error(t, err)
			require.True(t, test.check(err), "unexpected error type %T", err)
			require.Equal(t, test.code, Code(err))
			require.Equal(t, test.status, StatusCode(err))

			var failure awserr.RequestFailure

			require.ErrorAs(t, err, &failure)
			require.Equal(t, test.message, failure.Message())
		})
	}
}

func TestHandleResponseErrorRequestID(t *testing.T) {
	header := http.Header{}
	header.Set("x-amz-request-id", "from-header")

	err := HandleResponseError(http.MethodHead, "http://localhost/bucket", http.StatusNotFound, header, nil)

	var notFound *NotFoundError

	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "from-header", notFound.RequestID())

	err = HandleResponseError(http.MethodGet, "http://localhost/bucket", http.StatusNotFound, header,
		errorDocument("NoSuchBucket", "missing"))

	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "4442587FB7D0A2F9", notFound.RequestID())
	require.Equal(t, http.MethodGet, notFound.Method())
	require.Equal(t, "http://localhost/bucket", notFound.URL())
	require.Equal(t,
		"not found for 'GET' request to 'http://localhost/bucket' (status 404, code NoSuchBucket): missing",
		err.Error(),
	)
}

func TestHandleResponseErrorEndpoint(t *testing.T) {
	err := HandleResponseError(http.MethodGet, "http://localhost/bucket", http.StatusMovedPermanently, http.Header{},
		[]byte(`<Error><Code>PermanentRedirect</Code><Message>m</Message><Endpoint>e.example.com</Endpoint></Error>`))

	var endpointError *EndpointError

	require.ErrorAs(t, err, &endpointError)
	require.Equal(t, "e.example.com", endpointError.Endpoint)
}

func TestHandleRequestError(t *testing.T) {
	cause := errors.New("connection refused")

	err := HandleRequestError(http.MethodGet, "http://localhost", cause)
	require.True(t, IsTransportError(err))
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrEndpointResolutionFailed)
	require.Equal(t, "failed to perform 'GET' request to 'http://localhost': connection refused", err.Error())
}

func TestHandleRequestErrorDNSNotFound(t *testing.T) {
	cause := &net.DNSError{Err: "no such host", Name: "bucket.invalid", IsNotFound: true}

	err := HandleRequestError(http.MethodGet, "http://bucket.invalid", cause)
	require.True(t, IsTransportError(err))
	require.ErrorIs(t, err, ErrEndpointResolutionFailed)

	var dnsError *net.DNSError

	require.ErrorAs(t, err, &dnsError)
	require.Equal(t, "bucket.invalid", dnsError.Name)
}

func TestNewParseError(t *testing.T) {
	cause := errors.New("could not parse response XML: EOF")

	err := NewParseError(http.MethodGet, "http://localhost/bucket", http.StatusOK, cause)
	require.True(t, IsServerError(err))
	require.ErrorIs(t, err, cause)
	require.Equal(t, http.StatusOK, StatusCode(err))
}

func TestNewUnexpectedStatusError(t *testing.T) {
	err := NewUnexpectedStatusError(http.MethodDelete, "http://localhost/bucket/key", http.StatusOK, http.StatusNoContent)
	require.True(t, IsServiceError(err))
	require.Contains(t, err.Error(), "unexpected status code 200, expected 204")
}

func TestErrorHelpersNil(t *testing.T) {
	require.False(t, IsAuthError(nil))
	require.False(t, IsNotFound(nil))
	require.Empty(t, Code(nil))
	require.Zero(t, StatusCode(nil))
	require.True(t, IsAuthError(fmt.Errorf("wrapped: %w", &AuthError{Reason: "anonymous"})))
}
