package s3err

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/s3wire/s3wire/s3xml"
)

const (
	// CodeRequestTimeTooSkewed is returned when the local clock differs too much from the service's clock.
	CodeRequestTimeTooSkewed = "RequestTimeTooSkewed"

	// CodeSignatureDoesNotMatch is returned when the computed signature doesn't match the one computed by the service.
	CodeSignatureDoesNotMatch = "SignatureDoesNotMatch"
)

// HandleRequestError converts a failed request (hard failure as returned by the HTTP client) into a 'TransportError'.
func HandleRequestError(method, url string, err error) error {
	var dnsError *net.DNSError
	if errors.As(err, &dnsError) && dnsError.IsNotFound {
		err = fmt.Errorf("%w: %w", ErrEndpointResolutionFailed, err)
	}

	return &TransportError{Method: method, URL: url, err: err}
}

// HandleResponseError converts an unsuccessful response (soft failure i.e. the request itself was successful) into one
// of the typed errors; the rules are applied in the following order:
//
//  1. 301 returns an 'EndpointError'
//  2. 403 for a GET request returns a 'ServiceError' for clock skew/signature mismatch and 'AccessDeniedError' otherwise
//  3. 404 returns a 'NotFoundError'
//  4. 5xx returns a 'ServerError'
//  5. Anything else returns a 'ServiceError'
//
// NOTE: An error document which can't be parsed leaves the classification unchanged, except for a 403 response to a
// GET request where the error code is required; in that case a 'ServerError' is returned.
func HandleResponseError(method, url string, status int, header http.Header, body []byte) error {
	base := &ResponseError{method: method, url: url, status: status, requestID: header.Get("X-Amz-Request-Id")}

	var doc s3xml.Error

	parseErr := s3xml.Decode(body, &doc)
	if parseErr == nil {
		base.code, base.message = doc.Code, doc.Message

		if doc.RequestID != "" {
			base.requestID = doc.RequestID
		}
	} else {
		base.message = badResponseMessage(status, body)
	}

	switch {
	case status == http.StatusMovedPermanently:
		if parseErr == nil {
			base.message = doc.Message + " Endpoint: " + doc.Endpoint
		}

		return &EndpointError{ResponseError: base, Endpoint: doc.Endpoint}
	case status == http.StatusForbidden && method == http.MethodGet:
		if parseErr != nil {
			base.err = parseErr
			base.message = parseErr.Error()

			return &ServerError{ResponseError: base}
		}

		if doc.Code == CodeRequestTimeTooSkewed || doc.Code == CodeSignatureDoesNotMatch {
			return &ServiceError{ResponseError: base}
		}

		return &AccessDeniedError{ResponseError: base}
	case status == http.StatusNotFound:
		return &NotFoundError{ResponseError: base}
	case status >= http.StatusInternalServerError:
		return &ServerError{ResponseError: base}
	}

	return &ServiceError{ResponseError: base}
}

// NewParseError returns a 'ServerError' for a successful response whose document could not be parsed.
func NewParseError(method, url string, status int, err error) error {
	return &ServerError{ResponseError: &ResponseError{
		method:  method,
		url:     url,
		status:  status,
		message: err.Error(),
		err:     err,
	}}
}

// NewUnexpectedStatusError returns a 'ServiceError' for a successful response which didn't have the expected status
// code, for example a delete which didn't return '204 No Content'.
func NewUnexpectedStatusError(method, url string, status, expected int) error {
	return &ServiceError{ResponseError: &ResponseError{
		method:  method,
		url:     url,
		status:  status,
		message: fmt.Sprintf("unexpected status code %d, expected %d", status, expected),
	}}
}

// badResponseMessage returns the message used when the error document is missing or unreadable.
func badResponseMessage(status int, body []byte) string {
	if len(body) == 0 {
		return http.StatusText(status)
	}

	return "bad response from server"
}
