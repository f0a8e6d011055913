package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/s3wire/s3wire/log"
	"github.com/s3wire/s3wire/s3auth"
	"github.com/s3wire/s3wire/s3err"
	"github.com/s3wire/s3wire/s3rest"
)

// DefaultContentType is the content type sent for objects with data but no content type.
const DefaultContentType = "binary/octet-stream"

// MetadataPrefix is the prefix of the headers used to store user metadata.
const MetadataPrefix = s3auth.AmzPrefix + "meta-"

// AllowedHeaders are the HTTP headers which are stored with an object, and returned when it's loaded.
var AllowedHeaders = []string{"Cache-Control", "Content-MD5", "Content-Disposition", "Content-Encoding", "Expires"}

// ErrNoData is returned when saving a new object whose data hasn't been set.
var ErrNoData = errors.New("cannot save object when data has not been loaded or set")

// LoadMode determines what is fetched when loading an object.
type LoadMode int

const (
	// LoadData fetches the object's data along with its metadata.
	LoadData LoadMode = iota

	// LoadMetadataOnly fetches the object's metadata using a 'HEAD' request.
	LoadMetadataOnly
)

// Object is a key/data pair stored in a bucket, along with its metadata.
type Object struct {
	Bucket *Bucket
	Key    string

	// Data is only populated when loaded using 'LoadData', or set before saving.
	Data []byte

	// ContentType defaults to 'DefaultContentType' when saving an object with data.
	ContentType string

	ETag         string
	Size         int64
	LastModified time.Time

	// UserMetadata is stored using the 'x-amz-meta-' headers, names are lowercased when saved.
	UserMetadata map[string]string

	// HTTPHeaders may only contain the 'AllowedHeaders', others are ignored.
	HTTPHeaders http.Header

	// CannedACL is applied using the 'x-amz-acl' header when the object is saved.
	CannedACL string

	// ACL, when set, is saved after the object itself.
	ACL *AccessControlList

	exists bool
}

// Ref returns the resource reference for this object.
func (o *Object) Ref() s3rest.ObjectRef {
	return s3rest.ObjectRef{Bucket: o.Bucket.Ref(), Key: o.Key}
}

// Exists returns a boolean indicating whether the object was found by the most recent load/listing, or was saved.
func (o *Object) Exists() bool {
	return o.exists
}

// URL returns the URL of the object.
func (o *Object) URL() (string, error) {
	return o.Bucket.Account.client.URL(o.Ref())
}

// SignedURL returns a URL which allows unauthenticated access to the object (or one of its sub-resources) until the
// TTL expires.
func (o *Object) SignedURL(ttl time.Duration, subResource string) (string, error) {
	return o.Bucket.Account.client.SignedURL(o.Ref(), subResource, ttl)
}

// TorrentURL returns the URL from which the object may be downloaded using BitTorrent.
func (o *Object) TorrentURL() (string, error) {
	url, err := o.URL()
	if err != nil {
		return "", err
	}

	return url + "?torrent", nil
}

// Load fetches the object's metadata, and its data unless only loading metadata. Returns a boolean indicating whether
// the object exists; a missing object isn't an error.
func (o *Object) Load(ctx context.Context, mode LoadMode) (bool, error) {
	method := http.MethodGet
	if mode == LoadMetadataOnly {
		method = http.MethodHead
	}

	resp, err := o.Bucket.Account.send(ctx, &s3rest.Request{Resource: o.Ref(), Method: method})
	if s3err.IsNotFound(err) {
		o.exists = false
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to load object '%s': %w", o.Key, err)
	}

	o.exists = true
	o.ETag = resp.Header.Get("ETag")
	o.ContentType = resp.Header.Get("Content-Type")
	o.Size, _ = strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	o.LastModified, _ = http.ParseTime(resp.Header.Get("Last-Modified"))
	o.UserMetadata = make(map[string]string)
	o.HTTPHeaders = make(http.Header)

	for name, values := range resp.Header {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, MetadataPrefix) {
			o.UserMetadata[strings.TrimPrefix(lower, MetadataPrefix)] = strings.Join(values, ",")
		}
	}

	for _, name := range AllowedHeaders {
		if value := resp.Header.Get(name); value != "" {
			o.HTTPHeaders.Set(name, value)
		}
	}

	o.Data = nil

	if mode == LoadData {
		o.Data = resp.Body
		o.Size = int64(len(resp.Body))
	}

	return true, nil
}

// Save uploads the object's data and metadata, replacing any existing object. When replacing an object without
// specifying an ACL, the existing ACL is loaded first so that it's retained.
func (o *Object) Save(ctx context.Context) error {
	if !o.exists && o.Data == nil {
		return ErrNoData
	}

	if o.exists && o.ACL == nil && o.CannedACL == "" {
		err := o.LoadACL(ctx)
		if err != nil {
			return fmt.Errorf("failed to save object '%s': %w", o.Key, err)
		}
	}

	resp, err := o.Bucket.Account.send(ctx, &s3rest.Request{
		Resource: o.Ref(),
		Method:   http.MethodPut,
		Header:   o.header(),
		Body:     s3rest.NewBody(o.Data),
	})
	if err != nil {
		return fmt.Errorf("failed to save object '%s': %w", o.Key, err)
	}

	o.exists = true
	o.ETag = resp.Header.Get("ETag")
	o.Size = int64(len(o.Data))

	o.Bucket.Account.Logger().Debugf("Saved object '%s' (%s)", log.UserData(o.Key),
		humanize.IBytes(uint64(len(o.Data))))

	if o.ACL == nil {
		return nil
	}

	err = o.ACL.withResource(o.Bucket.Account, o.Ref()).Save(ctx)
	if err != nil {
		return fmt.Errorf("failed to save ACL of object '%s': %w", o.Key, err)
	}

	return nil
}

// header returns the headers sent when saving the object.
func (o *Object) header() http.Header {
	header := make(http.Header)

	// An empty object has no content type
	if len(o.Data) > 0 {
		contentType := o.ContentType
		if contentType == "" {
			contentType = DefaultContentType
		}

		header.Set("Content-Type", contentType)
	}

	for name, value := range o.UserMetadata {
		header.Set(MetadataPrefix+strings.ToLower(strings.TrimSpace(name)), strings.TrimSpace(value))
	}

	for _, name := range AllowedHeaders {
		if value := o.HTTPHeaders.Get(name); value != "" {
			header.Set(name, value)
		}
	}

	if o.CannedACL != "" {
		header.Set("x-amz-acl", o.CannedACL)
	}

	return header
}

// Delete removes the object, deleting an object which doesn't exist isn't an error.
func (o *Object) Delete(ctx context.Context) error {
	err := deleteResource(ctx, o.Bucket.Account, o.Ref())
	if err != nil {
		return fmt.Errorf("failed to delete object '%s': %w", o.Key, err)
	}

	o.exists = false

	return nil
}

// LoadACL populates the access control list of the object.
func (o *Object) LoadACL(ctx context.Context) error {
	acl := NewAccessControlList(o.Bucket.Account, o.Ref())

	err := acl.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ACL of object '%s': %w", o.Key, err)
	}

	o.ACL = acl

	return nil
}
