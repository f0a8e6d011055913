package s3

import "context"

// Prefix is a group of keys sharing a common prefix, up to and including a delimiter e.g. "photos/".
type Prefix struct {
	Bucket *Bucket
	Prefix string

	// Delimiter is used when listing the contents of the prefix, empty lists every key below it.
	Delimiter string
}

// Objects returns an iterator over the contents of the prefix.
func (p *Prefix) Objects() *ObjectIterator {
	return p.Bucket.Objects(ObjectIteratorOptions{Prefix: p.Prefix, Delimiter: p.Delimiter})
}

// Walk iterates over the contents of the prefix, see 'Bucket.Walk'.
func (p *Prefix) Walk(ctx context.Context, fn WalkFunc) error {
	return walk(ctx, p.Objects(), fn)
}
