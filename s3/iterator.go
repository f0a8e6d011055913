package s3

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/s3wire/s3wire/log"
	"github.com/s3wire/s3wire/s3rest"
	"github.com/s3wire/s3wire/s3xml"
)

// ObjectIteratorOptions encapsulates the options available when listing objects.
type ObjectIteratorOptions struct {
	// Prefix limits the listing to keys which begin with it.
	Prefix string

	// Delimiter groups the keys which contain it (after the prefix) into a single 'Prefix' entry.
	Delimiter string

	// MaxKeys is the page size hint sent to the service, defaults to the account's page size.
	MaxKeys int
}

// Entry is a single entry in a listing, either an object or a common prefix.
type Entry struct {
	Object *Object
	Prefix *Prefix
}

// IsPrefix returns a boolean indicating whether this entry is a common prefix.
func (e Entry) IsPrefix() bool {
	return e.Prefix != nil
}

// Key returns the object key, or the common prefix.
func (e Entry) Key() string {
	switch {
	case e.Object != nil:
		return e.Object.Key
	case e.Prefix != nil:
		return e.Prefix.Prefix
	}

	return ""
}

// ObjectIterator lazily lists the objects in a bucket, one page at a time. Each page's objects and common prefixes are
// merged by key, so entries are returned in increasing key order.
//
// Usage:
//
//	for err := it.Rewind(ctx); it.Valid(); err = it.Next(ctx) { ... }
//
// NOTE: An iterator may not be used concurrently.
type ObjectIterator struct {
	bucket  *Bucket
	options ObjectIteratorOptions

	page       []s3xml.ListEntry
	index      int
	loaded     bool
	firstPage  bool
	truncated  bool
	nextMarker string
	current    Entry
	err        error
}

func newObjectIterator(bucket *Bucket, options ObjectIteratorOptions) *ObjectIterator {
	if options.MaxKeys <= 0 {
		options.MaxKeys = bucket.Account.maxKeys
	}

	return &ObjectIterator{bucket: bucket, options: options}
}

// Options returns the options used by the iterator.
func (it *ObjectIterator) Options() ObjectIteratorOptions {
	return it.options
}

// Rewind positions the iterator at the first entry; the first page is only requested again if a later page has since
// been loaded.
func (it *ObjectIterator) Rewind(ctx context.Context) error {
	it.err = nil

	if it.loaded && it.firstPage {
		it.index = -1
	} else {
		it.loaded = false
		it.truncated = false
		it.page = nil
	}

	return it.Next(ctx)
}

// Next advances the iterator to the next entry, requesting the next page once the current one has been consumed.
func (it *ObjectIterator) Next(ctx context.Context) error {
	if it.err != nil {
		return it.err
	}

	if it.loaded {
		it.index++
	}

	for !it.loaded || (it.index >= len(it.page) && it.truncated) {
		err := it.fetch(ctx)
		if err != nil {
			it.err = err
			it.current = Entry{}

			return err
		}
	}

	if it.index >= len(it.page) {
		it.current = Entry{}
		return nil
	}

	it.current = it.entry(it.page[it.index])

	return nil
}

// Valid returns a boolean indicating whether the iterator is positioned at an entry.
func (it *ObjectIterator) Valid() bool {
	return it.err == nil && it.loaded && it.index >= 0 && it.index < len(it.page)
}

// Current returns the entry at the current position.
func (it *ObjectIterator) Current() Entry {
	return it.current
}

// Key returns the key of the entry at the current position.
func (it *ObjectIterator) Key() string {
	return it.current.Key()
}

// HasChildren returns a boolean indicating whether the current entry is a common prefix.
func (it *ObjectIterator) HasChildren() bool {
	return it.current.IsPrefix()
}

// Children returns an iterator over the entries in the current common prefix, or <nil> if the current entry is an
// object.
func (it *ObjectIterator) Children() *ObjectIterator {
	if !it.current.IsPrefix() {
		return nil
	}

	return it.current.Prefix.Objects()
}

// Err returns the error which stopped the iteration, if any.
func (it *ObjectIterator) Err() error {
	return it.err
}

// fetch requests the next page of the listing, or the first page if the previous page wasn't truncated.
func (it *ObjectIterator) fetch(ctx context.Context) error {
	query := url.Values{}
	query.Set("max-keys", strconv.Itoa(it.options.MaxKeys))

	var marker string
	if it.truncated {
		marker = it.nextMarker
		query.Set("marker", marker)
	}

	if it.options.Delimiter != "" {
		query.Set("delimiter", it.options.Delimiter)
	}

	if it.options.Prefix != "" {
		query.Set("prefix", it.options.Prefix)
	}

	resource := it.bucket.Ref()

	resp, err := it.bucket.Account.send(ctx, &s3rest.Request{Resource: resource, Method: http.MethodGet, Query: query})
	if err != nil {
		return fmt.Errorf("failed to list objects in bucket '%s': %w", it.bucket.Name, err)
	}

	var result s3xml.ListBucketResult

	err = it.bucket.Account.decode(http.MethodGet, resource, resp, &result)
	if err != nil {
		return fmt.Errorf("failed to list objects in bucket '%s': %w", it.bucket.Name, err)
	}

	it.firstPage = !it.truncated
	it.page = result.Entries()
	it.index = 0
	it.loaded = true
	it.truncated = result.IsTruncated
	it.nextMarker = it.marker(result)

	it.bucket.Account.Logger().Tracef("Listed %d entries in bucket '%s' with prefix '%s' (truncated: %t)",
		len(it.page), log.UserData(it.bucket.Name), log.UserData(it.options.Prefix), result.IsTruncated)

	// A truncated page must move the listing forward, otherwise we'd request the same (or an earlier) page again
	if it.truncated && it.nextMarker <= marker {
		return fmt.Errorf("listing of bucket '%s' is truncated but didn't advance past marker '%s'", it.bucket.Name,
			marker)
	}

	return nil
}

// marker returns the marker used to request the page following the given one.
func (it *ObjectIterator) marker(result s3xml.ListBucketResult) string {
	// 'NextMarker' is only returned when using a delimiter
	if it.options.Delimiter != "" && result.NextMarker != "" {
		return result.NextMarker
	}

	return result.LastKey()
}

// entry converts a listing entry into an object or prefix, objects are populated with the attributes in the listing.
func (it *ObjectIterator) entry(listed s3xml.ListEntry) Entry {
	if listed.IsPrefix() {
		return Entry{Prefix: &Prefix{Bucket: it.bucket, Prefix: listed.Prefix, Delimiter: it.options.Delimiter}}
	}

	object := it.bucket.Object(listed.Contents.Key)
	object.exists = true
	object.ETag = listed.Contents.ETag
	object.Size = listed.Contents.Size
	object.LastModified, _ = s3xml.ParseTime(listed.Contents.LastModified)

	return Entry{Object: object}
}
