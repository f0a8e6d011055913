package s3

import (
	"github.com/s3wire/s3wire/envvar"
	"github.com/s3wire/s3wire/s3rest"
)

// DefaultMaxKeys is the page size used when listing objects, it's also the largest page the service will return.
const DefaultMaxKeys = 1000

// EnvMaxKeys overrides the page size used when listing objects.
const EnvMaxKeys = "S3WIRE_MAX_KEYS"

// Options encapsulates the options available when creating an account.
type Options struct {
	s3rest.Options

	// MaxKeys is the default page size for object iterators, defaults to 'DefaultMaxKeys'.
	MaxKeys int
}

// defaults fills any missing attributes to a sane default, then applies the overrides from the environment.
func (o *Options) defaults() {
	if o.MaxKeys <= 0 {
		o.MaxKeys = DefaultMaxKeys
	}

	if maxKeys, ok := envvar.GetInt(EnvMaxKeys); ok && maxKeys > 0 {
		o.MaxKeys = maxKeys
	}
}
