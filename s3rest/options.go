package s3rest

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/s3wire/s3wire/envvar"
	"github.com/s3wire/s3wire/log"
)

const (
	// DefaultEndpoint is the endpoint used when none is provided.
	DefaultEndpoint = "s3.amazonaws.com"

	// DefaultMaxRetries is the number of times a request is retried after a transport failure or an internal server
	// error, meaning a request is attempted at most three times.
	DefaultMaxRetries = 2
)

// Environment variables which override the options provided in code; they allow tuning a deployed application without
// a rebuild.
const (
	EnvMaxRetries     = "S3WIRE_MAX_RETRIES"
	EnvRequestTimeout = "S3WIRE_REQUEST_TIMEOUT"
	EnvUseSSL         = "S3WIRE_USE_SSL"
	EnvEndpoint       = "S3WIRE_ENDPOINT"
)

// RequestStyle determines how bucket URLs are built.
type RequestStyle string

const (
	// RequestStyleVirtualHost uses the bucket name as a sub-domain of the endpoint e.g. "https://bucket.endpoint/", this
	// requires the bucket name to be a valid DNS label.
	RequestStyleVirtualHost RequestStyle = "virtualhost"

	// RequestStylePath uses the bucket name as the first path segment e.g. "https://endpoint/bucket/".
	RequestStylePath RequestStyle = "path"

	// RequestStyleCNAME uses the bucket name as the host name e.g. "https://bucket/", this requires a DNS CNAME record
	// pointing at the endpoint.
	RequestStyleCNAME RequestStyle = "cname"
)

// Doer is the subset of the 'http.Client' used to dispatch requests.
//
//go:generate mockery --name Doer --case underscore --inpackage
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options encapsulates the options available when creating a client.
type Options struct {
	// Endpoint is the host (and optional port) of the service.
	//
	// NOTE: Defaults to "s3.amazonaws.com".
	Endpoint string

	// DisableSSL sends requests using plain HTTP.
	DisableSSL bool

	// RequestStyle determines how bucket URLs are built, defaults to 'RequestStyleVirtualHost'.
	RequestStyle RequestStyle

	// NamePolicy validates bucket names before building their URLs, defaults to the strict 'DefaultNamePolicy'.
	NamePolicy NamePolicy

	// MaxRetries is the number of times a request is retried on transport failure or internal server error. Zero uses
	// 'DefaultMaxRetries', a negative value disables retries.
	MaxRetries int

	// RequestTimeout is the timeout for a request including its retries, zero means no timeout.
	RequestTimeout time.Duration

	// HTTPClient is used to dispatch requests, defaults to a client with no timeout.
	HTTPClient Doer

	// RateLimiter limits the number of requests (including retries) dispatched per second.
	RateLimiter *rate.Limiter

	// BandwidthLimiter limits the number of bytes per second uploaded in request bodies, and downloaded in response
	// bodies.
	BandwidthLimiter *rate.Limiter

	// Metrics collects statistics about dispatched requests.
	Metrics *Metrics

	// Logger is used to log dispatched requests, retries and failures.
	Logger log.Logger

	// ReqResLogLevel is the level at which each request/response is logged.
	//
	// NOTE: Defaults to 'LevelTrace'.
	ReqResLogLevel log.Level

	// Clock returns the time used to date requests and compute signed URL expiry, defaults to 'time.Now'.
	Clock func() time.Time
}

// defaults fills any missing attributes to a sane default, then applies the overrides from the environment.
func (o *Options) defaults() {
	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}

	if o.RequestStyle == "" {
		o.RequestStyle = RequestStyleVirtualHost
	}

	if o.NamePolicy == nil {
		o.NamePolicy = DefaultNamePolicy{DNSStrict: true}
	}

	switch {
	case o.MaxRetries == 0:
		o.MaxRetries = DefaultMaxRetries
	case o.MaxRetries < 0:
		o.MaxRetries = 0
	}

	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}

	if o.Clock == nil {
		o.Clock = time.Now
	}

	o.fromEnvironment()
}

// fromEnvironment overrides the options using any values set in the environment.
func (o *Options) fromEnvironment() {
	if retries, ok := envvar.GetInt(EnvMaxRetries); ok && retries >= 0 {
		o.MaxRetries = retries
	}

	if timeout, ok := envvar.GetDuration(EnvRequestTimeout); ok && timeout >= 0 {
		o.RequestTimeout = timeout
	}

	if useSSL, ok := envvar.GetBool(EnvUseSSL); ok {
		o.DisableSSL = !useSSL
	}

	if endpoint, ok := envvar.GetString(EnvEndpoint); ok {
		o.Endpoint = endpoint
	}
}

// endpoint returns the endpoint described by these options.
func (o Options) endpoint() Endpoint {
	return Endpoint{Host: o.Endpoint, DisableSSL: o.DisableSSL, Style: o.RequestStyle, Names: o.NamePolicy}
}
