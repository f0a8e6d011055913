package s3fs

import (
	"regexp"
	"strings"
)

// FolderSuffix is appended to a directory's key to create its placeholder object, it's a de facto standard used by
// other clients.
const FolderSuffix = "_$folder$"

var pathPattern = regexp.MustCompile(`^([^:]+)://([^/]*)(/(.*))?$`)

// Path is a parsed path of the form "scheme://bucket/key".
type Path struct {
	Scheme string
	Bucket string
	Key    string

	// HasKey indicates whether the path contained a slash following the bucket name; the key may still be empty.
	HasKey bool
}

// ParsePath parses the given path, returning an error if it's not of the form "scheme://bucket/key".
func ParsePath(path string) (Path, error) {
	matches := pathPattern.FindStringSubmatch(path)
	if matches == nil {
		return Path{}, &InvalidPathError{Path: path}
	}

	return Path{Scheme: matches[1], Bucket: matches[2], Key: matches[4], HasKey: matches[3] != ""}, nil
}

// String implements the 'fmt.Stringer' interface.
func (p Path) String() string {
	s := p.Scheme + "://" + p.Bucket
	if p.HasKey {
		s += "/" + p.Key
	}

	return s
}

// IsRoot returns a boolean indicating whether this path refers to the list of buckets e.g. "s3://".
func (p Path) IsRoot() bool {
	return p.Bucket == ""
}

// Prefix returns the listing prefix for the path; the key with a single trailing slash, or empty for a bucket.
func (p Path) Prefix() string {
	if p.Key == "" {
		return ""
	}

	return strings.TrimRight(p.Key, "/") + "/"
}

// IsObject returns a boolean indicating whether the path may refer to an object, a trailing slash marks a directory.
func (p Path) IsObject() bool {
	return p.Bucket != "" && p.Key != "" && !strings.HasSuffix(p.Key, "/")
}

// Placeholder returns the key of the object which marks this path as a directory, buckets and the root have none.
func (p Path) Placeholder() string {
	key := strings.TrimRight(p.Key, "/")
	if key == "" {
		return ""
	}

	return key + FolderSuffix
}

// IsPlaceholder returns a boolean indicating whether the path refers to a directory placeholder object.
func (p Path) IsPlaceholder() bool {
	return strings.HasSuffix(strings.TrimRight(p.Key, "/"), FolderSuffix)
}

// Name returns the last element of the path; the bucket name when there's no key.
func (p Path) Name() string {
	key := strings.TrimRight(p.Key, "/")
	if key == "" {
		return p.Bucket
	}

	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		return key[idx+1:]
	}

	return key
}

// Parent returns the directory containing this path; the parent of a bucket is the root.
func (p Path) Parent() Path {
	key := strings.TrimRight(p.Key, "/")

	switch {
	case key != "":
		idx := strings.LastIndex(key, "/")
		if idx < 0 {
			return Path{Scheme: p.Scheme, Bucket: p.Bucket}
		}

		return Path{Scheme: p.Scheme, Bucket: p.Bucket, Key: key[:idx], HasKey: true}
	case p.Bucket != "":
		return Path{Scheme: p.Scheme}
	}

	return p
}

// Join returns the path of the given child of this (directory) path.
func (p Path) Join(name string) Path {
	if p.Bucket == "" {
		return Path{Scheme: p.Scheme, Bucket: name}
	}

	return Path{Scheme: p.Scheme, Bucket: p.Bucket, Key: p.Prefix() + name, HasKey: true}
}
