// Package s3err contains the typed errors returned when talking to the object storage service, and the rules used to
// classify a failed exchange into one of them.
package s3err

import (
	"errors"
	"fmt"
)

// ErrEndpointResolutionFailed is returned (wrapped in a 'TransportError') if we've failed to resolve the endpoint for
// some reason.
var ErrEndpointResolutionFailed = errors.New("endpoint domain name resolution failed, this may be due to an incorrect " +
	"endpoint/bucket name or a network issue")

// AuthError is returned when a request/URL can't be signed, for example when using an anonymous account.
//
// NOTE: This error is returned before any network activity takes place.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication error: %s", e.Reason)
}

// TransportError is returned when a request could not be performed, or a response could not be read; for example due
// to a connection failure or timeout.
type TransportError struct {
	Method string
	URL    string
	err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to perform '%s' request to '%s': %s", e.Method, e.URL, e.err)
}

func (e *TransportError) Unwrap() error {
	return e.err
}

// ResponseError contains the information shared by all the errors created from a service response.
//
// NOTE: The accessor methods satisfy the 'awserr.RequestFailure' interface from the AWS SDK, allowing code written
// against the SDK error types to branch on these errors.
type ResponseError struct {
	method    string
	url       string
	status    int
	code      string
	message   string
	requestID string
	err       error
}

// Method returns the HTTP method of the failed request.
func (e *ResponseError) Method() string {
	return e.method
}

// URL returns the URL of the failed request.
func (e *ResponseError) URL() string {
	return e.url
}

// StatusCode returns the HTTP status code of the response.
func (e *ResponseError) StatusCode() int {
	return e.status
}

// Code returns the service error code e.g. "NoSuchKey", this will be empty if the response body didn't contain a valid
// error document.
func (e *ResponseError) Code() string {
	return e.code
}

// Message returns a human-readable description of the error.
func (e *ResponseError) Message() string {
	return e.message
}

// RequestID returns the request id assigned by the service, if any.
func (e *ResponseError) RequestID() string {
	return e.requestID
}

// OrigErr returns the underlying error, if any; for example the XML parse failure.
func (e *ResponseError) OrigErr() error {
	return e.err
}

func (e *ResponseError) Unwrap() error {
	return e.err
}

// describe renders the error using the given kind as a prefix.
func (e *ResponseError) describe(kind string) string {
	msg := fmt.Sprintf("%s for '%s' request to '%s' (status %d", kind, e.method, e.url, e.status)
	if e.code != "" {
		msg += fmt.Sprintf(", code %s", e.code)
	}

	msg += ")"

	if e.message != "" {
		msg += ": " + e.message
	}

	return msg
}

// EndpointError is returned when the request was sent to the wrong endpoint, the service replies with a permanent
// redirect without a usable location.
type EndpointError struct {
	*ResponseError

	// Endpoint is the endpoint suggested by the service, if any.
	Endpoint string
}

func (e *EndpointError) Error() string {
	return e.describe("wrong endpoint")
}

// AccessDeniedError is returned when a read is refused, for reasons other than clock skew or a signature mismatch.
type AccessDeniedError struct {
	*ResponseError
}

func (e *AccessDeniedError) Error() string {
	return e.describe("access denied")
}

// NotFoundError is returned when the bucket/object doesn't exist.
//
// NOTE: The 'Load' operations convert this error into a boolean, it should be considered an expected outcome.
type NotFoundError struct {
	*ResponseError
}

func (e *NotFoundError) Error() string {
	return e.describe("not found")
}

// ServerError is returned for any 5xx response, or when a response document couldn't be parsed.
type ServerError struct {
	*ResponseError
}

func (e *ServerError) Error() string {
	return e.describe("server error")
}

// ServiceError is a generic error returned for all other unsuccessful responses; this includes the clock skew/signature
// mismatch responses which may be resolved by the caller.
type ServiceError struct {
	*ResponseError
}

func (e *ServiceError) Error() string {
	return e.describe("service error")
}

// IsAuthError returns a boolean indicating whether the given error is an 'AuthError'.
func IsAuthError(err error) bool {
	var authError *AuthError
	return errors.As(err, &authError)
}

// IsTransportError returns a boolean indicating whether the given error is a 'TransportError'.
func IsTransportError(err error) bool {
	var transportError *TransportError
	return errors.As(err, &transportError)
}

// IsEndpointError returns a boolean indicating whether the given error is an 'EndpointError'.
func IsEndpointError(err error) bool {
	var endpointError *EndpointError
	return errors.As(err, &endpointError)
}

// IsAccessDenied returns a boolean indicating whether the given error is an 'AccessDeniedError'.
func IsAccessDenied(err error) bool {
	var accessDenied *AccessDeniedError
	return errors.As(err, &accessDenied)
}

// IsNotFound returns a boolean indicating whether the given error is a 'NotFoundError'.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsServerError returns a boolean indicating whether the given error is a 'ServerError'.
func IsServerError(err error) bool {
	var serverError *ServerError
	return errors.As(err, &serverError)
}

// IsServiceError returns a boolean indicating whether the given error is a 'ServiceError'.
func IsServiceError(err error) bool {
	var serviceError *ServiceError
	return errors.As(err, &serviceError)
}

// Code returns the service error code carried by the given error, or an empty string.
func Code(err error) string {
	var coder interface{ Code() string }
	if errors.As(err, &coder) {
		return coder.Code()
	}

	return ""
}

// StatusCode returns the HTTP status code carried by the given error, or zero.
func StatusCode(err error) int {
	var failure interface{ StatusCode() int }
	if errors.As(err, &failure) {
		return failure.StatusCode()
	}

	return 0
}
