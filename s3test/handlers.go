package s3test

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// Handlers is a readability wrapper around the endpoint handlers for a test server.
type Handlers map[string]http.HandlerFunc

// Add a new handler to the endpoint handlers, note that the method is required to ensure unique handlers for each
// path.
func (h Handlers) Add(method, path string, handler http.HandlerFunc) {
	h[fmt.Sprintf("%s:%s", method, path)] = handler
}

// Handle the provided request using the registered handler, responding with '404 Not Found' if there isn't one.
func (h Handlers) Handle(writer http.ResponseWriter, request *http.Request) {
	handler, ok := h[fmt.Sprintf("%s:%s", request.Method, request.URL.Path)]
	if !ok {
		writer.WriteHeader(http.StatusNotFound)
		return
	}

	handler(writer, request)
}

// NewHandler creates the most basic type of handler which will respond with the provided status/body.
func NewHandler(t *testing.T, status int, body []byte) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		if len(body) != 0 {
			writer.Header().Set("Content-Type", "application/xml")
		}

		writer.WriteHeader(status)

		_, err := writer.Write(body)
		require.NoError(t, err)
	}
}

// NewHandlerWithRetries builds upon the basic handler by simulating a flaky/busy endpoint which forces retries a
// configurable number of times before providing a valid response.
func NewHandlerWithRetries(t *testing.T, numRetries, retryStatus, successStatus int, body []byte) http.HandlerFunc {
	var retries int

	return func(writer http.ResponseWriter, request *http.Request) {
		defer func() { retries++ }()

		status := retryStatus
		if retries >= numRetries {
			status = successStatus
		}

		writer.WriteHeader(status)

		_, err := writer.Write(body)
		require.NoError(t, err)
	}
}

// NewHandlerWithHijack creates a handler which will hijack the connection an immediately close it; this is simulating
// a socket closed in flight error.
func NewHandlerWithHijack(t *testing.T) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		hijacker, ok := writer.(http.Hijacker)
		require.True(t, ok)

		conn, _, err := hijacker.Hijack()
		require.NoError(t, err)
		require.NoError(t, conn.Close())
	}
}

// Captured is the request seen by a handler created with 'NewHandlerWithCapture'.
type Captured struct {
	Header   http.Header
	RawQuery string
	Body     []byte

	// ContentLength is the length declared by the client, or -1 if unknown.
	ContentLength int64
}

// NewHandlerWithCapture creates a handler which stores the request headers/body, allowing the test to validate what
// was sent.
func NewHandlerWithCapture(t *testing.T, status int, body []byte, captured *Captured) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		data, err := io.ReadAll(request.Body)
		require.NoError(t, err)

		*captured = Captured{
			Header:        request.Header.Clone(),
			RawQuery:      request.URL.RawQuery,
			Body:          data,
			ContentLength: request.ContentLength,
		}

		writer.WriteHeader(status)

		_, err = writer.Write(body)
		require.NoError(t, err)
	}
}
