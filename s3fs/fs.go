// Package s3fs emulates a filesystem on top of an account's buckets; paths take the form "s3://bucket/key", buckets
// appear as directories of the root and directories are emulated using key prefixes and "_$folder$" placeholders.
package s3fs

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/s3wire/s3wire/log"
	"github.com/s3wire/s3wire/s3"
	"github.com/s3wire/s3wire/s3err"
)

// DefaultScheme is the path scheme used when none is provided.
const DefaultScheme = "s3"

// Options encapsulates the options available when creating a filesystem.
type Options struct {
	// Scheme is the expected path scheme, defaults to "s3".
	Scheme string

	// Strict enables additional consistency checks, at the cost of additional requests; for example, verifying that
	// the parent directory exists before creating a file/directory, or that a directory is empty before removing it.
	Strict bool

	// DNSStrict overrides the validation of bucket names when using virtual host style requests, <nil> uses the
	// account's name policy.
	DNSStrict *bool

	// ACL is the canned ACL applied to uploaded files e.g. "public-read".
	ACL string

	// HTTPHeaders are stored with uploaded files, only 's3.AllowedHeaders' are used.
	HTTPHeaders http.Header

	// UserMetadata is stored with uploaded files.
	UserMetadata map[string]string

	// ContentType is the content type of uploaded files, defaults to 's3.DefaultContentType'.
	ContentType string

	// Logger is used to log failures, defaults to the account's logger.
	Logger log.Logger
}

func (o *Options) defaults(account *s3.Account) {
	if o.Scheme == "" {
		o.Scheme = DefaultScheme
	}

	if o.Logger == nil {
		o.Logger = account.Logger()
	}
}

// FS emulates a filesystem over the buckets of an account, it's safe for concurrent use; the returned files and
// directories are not.
type FS struct {
	account *s3.Account
	options Options
	logger  log.WrappedLogger
}

// New returns a filesystem backed by the given account.
func New(account *s3.Account, options Options) *FS {
	options.defaults(account)

	return &FS{
		account: account,
		options: options,
		logger:  log.NewWrappedLogger(options.Logger).WithComponent("S3FS"),
	}
}

// Account returns the account backing the filesystem.
func (f *FS) Account() *s3.Account {
	return f.account
}

// parse parses the given path, which must use the configured scheme.
func (f *FS) parse(path string) (Path, error) {
	parsed, err := ParsePath(path)
	if err != nil {
		return Path{}, err
	}

	if parsed.Scheme != f.options.Scheme {
		return Path{}, &InvalidPathError{Path: path}
	}

	return parsed, nil
}

func (f *FS) bucket(p Path) *s3.Bucket {
	bucket := f.account.Bucket(p.Bucket)
	if f.options.DNSStrict != nil {
		bucket.SetDNSStrict(*f.options.DNSStrict)
	}

	return bucket
}

func (f *FS) object(p Path) *s3.Object {
	return f.bucket(p).Object(p.Key)
}

// Stat returns information about the given file or directory. Directories are reported if the path is the root, an
// existing bucket, a prefix of an existing key or has a placeholder object.
func (f *FS) Stat(ctx context.Context, path string) (*Stat, error) {
	p, err := f.parse(path)
	if err != nil {
		return nil, err
	}

	return f.stat(ctx, p)
}

func (f *FS) stat(ctx context.Context, p Path) (*Stat, error) {
	if p.IsRoot() {
		return newDirStat(p.Name()), nil
	}

	if p.Prefix() == "" {
		found, err := f.bucket(p).Load(ctx)
		if err != nil {
			return nil, err
		}

		if !found {
			return nil, ErrNotFound
		}

		return newDirStat(p.Name()), nil
	}

	if p.IsObject() {
		object := f.object(p)

		found, err := object.Load(ctx, s3.LoadMetadataOnly)
		if err != nil {
			return nil, err
		}

		if found {
			return newFileStat(p.Name(), object.Size, object.LastModified), nil
		}
	}

	prefix, err := f.isPrefix(ctx, p)
	if err != nil {
		return nil, err
	}

	if prefix {
		return newDirStat(p.Name()), nil
	}

	// A placeholder isn't itself a directory
	if p.IsPlaceholder() {
		return nil, ErrNotFound
	}

	found, err := f.bucket(p).Object(p.Placeholder()).Load(ctx, s3.LoadMetadataOnly)
	if err != nil {
		return nil, err
	}

	if found {
		return newDirStat(p.Name()), nil
	}

	return nil, ErrNotFound
}

// isDir returns a boolean indicating whether the given path is an existing directory.
func (f *FS) isDir(ctx context.Context, p Path) (bool, error) {
	stat, err := f.stat(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return stat.IsDir(), nil
}

// isPrefix returns a boolean indicating whether any key exists below the given directory, only a single key is
// requested.
func (f *FS) isPrefix(ctx context.Context, p Path) (bool, error) {
	it := f.bucket(p).Objects(s3.ObjectIteratorOptions{Prefix: p.Prefix(), Delimiter: "/", MaxKeys: 1})

	err := it.Rewind(ctx)
	if err != nil {
		return false, err
	}

	return it.Valid(), nil
}

// Mkdir creates a directory; a bucket when the path has no key, otherwise an empty placeholder object. In strict mode,
// the directory must not exist and, unless recursive, its parent must exist.
func (f *FS) Mkdir(ctx context.Context, path string, recursive bool) error {
	p, err := f.parse(path)
	if err != nil {
		return err
	}

	if p.IsRoot() {
		return ErrRoot
	}

	if f.options.Strict {
		err = f.checkMkdir(ctx, p, recursive)
		if err != nil {
			return err
		}
	}

	if p.Prefix() == "" {
		err = f.bucket(p).Save(ctx)

		// Creating a bucket we already own is idempotent, outside of strict mode
		if s3err.Code(err) == "BucketAlreadyOwnedByYou" {
			return nil
		}

		return err
	}

	placeholder := f.bucket(p).Object(p.Placeholder())
	placeholder.Data = []byte{}

	return placeholder.Save(ctx)
}

func (f *FS) checkMkdir(ctx context.Context, p Path, recursive bool) error {
	_, err := f.stat(ctx, p)
	if err == nil {
		return ErrAlreadyExists
	}

	if !errors.Is(err, ErrNotFound) {
		return err
	}

	if recursive {
		return nil
	}

	parent, err := f.isDir(ctx, p.Parent())
	if err != nil {
		return err
	}

	if !parent {
		return ErrParentNotFound
	}

	return nil
}

// Rmdir removes a directory; the bucket when the path has no key, otherwise its placeholder object. In strict mode,
// a directory containing any key isn't removed.
func (f *FS) Rmdir(ctx context.Context, path string) error {
	p, err := f.parse(path)
	if err != nil {
		return err
	}

	if p.IsRoot() {
		return ErrRoot
	}

	if p.Prefix() == "" {
		return f.bucket(p).Delete(ctx)
	}

	if f.options.Strict {
		prefix, err := f.isPrefix(ctx, p)
		if err != nil {
			return err
		}

		if prefix {
			return ErrNotEmpty
		}
	}

	return f.unlink(ctx, Path{Scheme: p.Scheme, Bucket: p.Bucket, Key: p.Placeholder(), HasKey: true})
}

// Unlink removes a file. Removing a file which doesn't exist is only an error in strict mode.
func (f *FS) Unlink(ctx context.Context, path string) error {
	p, err := f.parse(path)
	if err != nil {
		return err
	}

	return f.unlink(ctx, p)
}

func (f *FS) unlink(ctx context.Context, p Path) error {
	if !p.IsObject() {
		return ErrUnlinkDirectory
	}

	object := f.object(p)

	if f.options.Strict {
		found, err := object.Load(ctx, s3.LoadMetadataOnly)
		if err != nil {
			return err
		}

		if !found {
			return ErrNoSuchFile
		}
	}

	return object.Delete(ctx)
}

// Rename moves a file by copying its data, content type, metadata and ACL to the destination then deleting the source.
//
// NOTE: This isn't atomic, if the copy fails the source is left untouched but a concurrent change to the source may be
// lost.
func (f *FS) Rename(ctx context.Context, from, to string) error {
	src, err := f.parse(from)
	if err != nil {
		return err
	}

	dst, err := f.parse(to)
	if err != nil {
		return err
	}

	if !src.IsObject() || !dst.IsObject() {
		return ErrIsDirectory
	}

	source := f.object(src)

	found, err := source.Load(ctx, s3.LoadData)
	if err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}

	if !found {
		return ErrSourceNotFound
	}

	err = source.LoadACL(ctx)
	if err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}

	destination := f.object(dst)
	destination.Data = source.Data
	destination.ContentType = source.ContentType
	destination.UserMetadata = source.UserMetadata
	destination.HTTPHeaders = source.HTTPHeaders
	destination.ACL = source.ACL

	err = destination.Save(ctx)
	if err != nil {
		return fmt.Errorf("failed to copy to destination: %w", err)
	}

	err = source.Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	return nil
}
