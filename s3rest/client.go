// Package s3rest implements the signed REST exchange with the service; building the URL for a resource, dating and
// signing each request, retrying failed requests and classifying unsuccessful responses.
package s3rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/s3wire/s3wire/log"
	"github.com/s3wire/s3wire/ratelimit"
	"github.com/s3wire/s3wire/retry"
	"github.com/s3wire/s3wire/s3auth"
	"github.com/s3wire/s3wire/s3err"
)

// Client dispatches signed requests to the service, it's safe for concurrent use.
type Client struct {
	creds    s3auth.Credentials
	options  Options
	endpoint Endpoint
	logger   log.WrappedLogger
}

// NewClient creates a new client which signs requests using the given credentials; anonymous credentials result in
// unsigned requests.
func NewClient(creds s3auth.Credentials, options Options) *Client {
	options.defaults()

	return &Client{
		creds:    creds,
		options:  options,
		endpoint: options.endpoint(),
		logger:   log.NewWrappedLogger(options.Logger).WithComponent("S3"),
	}
}

// Credentials returns the credentials used to sign requests.
func (c *Client) Credentials() s3auth.Credentials {
	return c.creds
}

// Endpoint returns the endpoint used to build resource URLs.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Logger returns the logger used by the client, allowing higher level components to share it.
func (c *Client) Logger() log.WrappedLogger {
	return c.logger
}

// Now returns the current time, according to the client's clock.
func (c *Client) Now() time.Time {
	return c.options.Clock()
}

// URL returns the URL of the given resource.
func (c *Client) URL(resource Resource) (string, error) {
	return resource.URL(c.endpoint)
}

// SignedURL returns a URL for the given resource with the credentials included in the query string. It allows access
// to a private resource, without further authentication, until the TTL expires.
func (c *Client) SignedURL(resource Resource, subResource string, ttl time.Duration) (string, error) {
	base, err := resource.URL(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to build URL: %w", err)
	}

	expires := strconv.FormatInt(c.options.Clock().Add(ttl).Unix(), 10)

	signature, err := c.creds.Sign(
		s3auth.CanonicalString(http.MethodGet, subResource, resource.CanonicalPath(), http.Header{"Date": {expires}}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to sign URL: %w", err)
	}

	separator := "?"
	if subResource != "" {
		separator = subResource + "&"
	}

	return base + separator +
		"AWSAccessKeyId=" + s3auth.Escape(c.creds.AccessKeyID) +
		"&Signature=" + s3auth.Escape(signature) +
		"&Expires=" + expires, nil
}

// Send dispatches the given request, retrying transport failures and internal server errors. The response is only
// returned without an error when its status code is less than 300.
//
// NOTE: Unsuccessful responses are returned alongside the classified error, see 's3err.HandleResponseError'.
func (c *Client) Send(ctx context.Context, request *Request) (*Response, error) {
	resp, err := c.send(ctx, request)

	c.options.Metrics.observeError(err)

	return resp, err
}

func (c *Client) send(ctx context.Context, request *Request) (*Response, error) {
	base, err := request.Resource.URL(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	target := buildURL(base, request.SubResource, request.Query)

	header, err := c.prepareHeader(request)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	size, err := bodySize(request.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to determine request body size: %w", err)
	}

	if c.options.RequestTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.options.RequestTimeout)
		defer cancel()
	}

	retryer := retry.NewRetryer(retry.RetryerOptions[*Response]{
		MaxRetries: c.options.MaxRetries,
		ShouldRetry: func(ctx *retry.Context, resp *Response, err error) bool {
			// The request was aborted by the caller, don't try again
			if ctx.Err() != nil {
				return false
			}

			return err != nil || resp.StatusCode == http.StatusInternalServerError
		},
		Log: func(ctx *retry.Context, resp *Response, err error) {
			c.options.Metrics.observeRetry(request.Method)

			msg := fmt.Sprintf("(Attempt %d) (%s) Retrying request to '%s'", ctx.Attempt(), request.Method,
				log.UserData(target))

			if err != nil {
				msg = fmt.Sprintf("%s: which failed due to error: %s", msg, err)
			} else {
				msg = fmt.Sprintf("%s: which failed with status code %d", msg, resp.StatusCode)
			}

			// We don't log at error level because the failure may be resolved by the next attempt
			c.logger.Warnf("%s", msg)
		},
	})

	resp, err := retryer.DoWithContext(ctx, func(ctx *retry.Context) (*Response, error) {
		return c.perform(ctx, request.Method, target, header, request.Body, size)
	})

	err = c.unwrapRetryError(request.Method, target, err)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}

	return resp, s3err.HandleResponseError(request.Method, target, resp.StatusCode, resp.Header, resp.Body)
}

// prepareHeader returns a copy of the request headers, dated and signed.
func (c *Client) prepareHeader(request *Request) (http.Header, error) {
	header := request.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}

	header.Set("Date", c.options.Clock().UTC().Format(http.TimeFormat))

	if c.creds.SessionToken != "" {
		header.Set("X-Amz-Security-Token", c.creds.SessionToken)
	}

	// Anonymous requests are sent unsigned, they'll only succeed for resources granted to all users
	if c.creds.Anonymous() {
		return header, nil
	}

	signature, err := c.creds.Sign(
		s3auth.CanonicalString(request.Method, request.SubResource, request.Resource.CanonicalPath(), header),
	)
	if err != nil {
		return nil, err
	}

	header.Set("Authorization", "AWS "+c.creds.AccessKeyID+":"+signature)

	return header, nil
}

// unwrapRetryError converts the errors returned by the retryer so that the caller sees the error from the final
// attempt.
func (c *Client) unwrapRetryError(method, target string, err error) error {
	switch {
	case err == nil:
		return nil
	case retry.IsRetriesExhausted(err):
		// NOTE: This will be <nil> if the final attempt returned an internal server error
		return errors.Unwrap(err)
	case retry.IsRetriesAborted(err):
		cause := errors.Unwrap(err)

		if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
			return s3err.HandleRequestError(method, target, cause)
		}

		return cause
	}

	return err
}

// perform synchronously executes a single attempt, the response body is always fully read and closed.
func (c *Client) perform(
	ctx *retry.Context,
	method, target string,
	header http.Header,
	body io.ReadSeeker,
	size int64,
) (*Response, error) {
	if c.options.RateLimiter != nil {
		err := c.options.RateLimiter.Wait(ctx)
		if err != nil {
			return nil, s3err.HandleRequestError(method, target, fmt.Errorf("could not wait for limiter: %w", err))
		}
	}

	var reader io.Reader

	if body != nil && size > 0 {
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return nil, retry.NewAbortRetriesError(fmt.Errorf("failed to rewind request body: %w", err))
		}

		reader = body

		if c.options.BandwidthLimiter != nil {
			reader = ratelimit.NewReadSeeker(ctx, body, c.options.BandwidthLimiter)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, retry.NewAbortRetriesError(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header = header.Clone()

	// NOTE: A zero length is still sent for 'PUT' requests, some servers reject them otherwise
	req.ContentLength = size

	c.logger.Logf(c.options.ReqResLogLevel, "(Attempt %d) (%s) Dispatching request to '%s' (%s)", ctx.Attempt(),
		method, log.UserData(target), humanize.IBytes(uint64(size)))

	start := time.Now()

	resp, err := c.options.HTTPClient.Do(req)
	if err != nil {
		c.options.Metrics.observeAttempt(method, 0, size, 0, time.Since(start))

		c.logger.Errorf("(Attempt %d) (%s) Failed to perform request to '%s': %s", ctx.Attempt(), method,
			log.UserData(target), err)

		return nil, s3err.HandleRequestError(method, target, err)
	}

	defer c.cleanupResp(resp)

	var respBody io.Reader = resp.Body
	if c.options.BandwidthLimiter != nil {
		respBody = ratelimit.NewReader(ctx, resp.Body, c.options.BandwidthLimiter)
	}

	data, err := io.ReadAll(respBody)

	c.options.Metrics.observeAttempt(method, resp.StatusCode, size, int64(len(data)), time.Since(start))

	if err != nil {
		c.logger.Errorf("(Attempt %d) (%s) Failed to read response from '%s': %s", ctx.Attempt(), method,
			log.UserData(target), err)

		return nil, s3err.HandleRequestError(method, target, fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.Logf(c.options.ReqResLogLevel, "(Attempt %d) (%s) (%d) Received response from '%s' (%s)",
		ctx.Attempt(), method, resp.StatusCode, log.UserData(target), humanize.IBytes(uint64(len(data))))

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// cleanupResp drains the response body and ensures it's closed.
func (c *Client) cleanupResp(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}

	defer resp.Body.Close()

	_, err := io.Copy(io.Discard, resp.Body)
	if err == nil || errors.Is(err, http.ErrBodyReadAfterClose) {
		return
	}

	c.logger.Warnf("Failed to drain response body due to unexpected error: %s", err)
}
