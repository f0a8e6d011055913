package s3fs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"

	"github.com/s3wire/s3wire/s3"
)

// dirSet tracks the directories already returned while reading a directory; a directory may be listed twice, once as
// a placeholder object and once as a common prefix.
type dirSet map[string]struct{}

// add returns a boolean indicating whether the name wasn't already in the set.
func (d dirSet) add(name string) bool {
	if _, ok := d[name]; ok {
		return false
	}

	d[name] = struct{}{}

	return true
}

// OpenDir opens the given directory for reading. The root lists the account's buckets, any other path lists the keys
// (and common prefixes) directly below it.
func (f *FS) OpenDir(ctx context.Context, path string) (*Dir, error) {
	p, err := f.parse(path)
	if err != nil {
		return nil, err
	}

	dir := &Dir{fs: f, path: p, seen: make(dirSet)}

	if !p.IsRoot() {
		dir.objects = f.bucket(p).Objects(s3.ObjectIteratorOptions{Prefix: p.Prefix(), Delimiter: "/"})
	}

	err = dir.load(ctx)
	if err != nil {
		return nil, err
	}

	if !dir.empty() || !f.options.Strict {
		return dir, nil
	}

	// Nothing was listed, make sure this is in fact a directory
	exists, err := f.isDir(ctx, p)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, ErrNotFound
	}

	return dir, nil
}

// Dir is an open directory, a directory may not be used concurrently.
type Dir struct {
	fs      *FS
	path    Path
	objects *s3.ObjectIterator
	buckets []*s3.Bucket
	index   int
	dots    int
	seen    dirSet
	closed  bool
}

// load positions the directory at its first entry.
func (d *Dir) load(ctx context.Context) error {
	d.dots = 0
	d.index = 0
	d.seen = make(dirSet)

	if d.objects != nil {
		return d.objects.Rewind(ctx)
	}

	buckets, err := d.fs.account.Buckets(ctx)
	if err != nil {
		return err
	}

	d.buckets = buckets

	return nil
}

func (d *Dir) empty() bool {
	if d.objects != nil {
		return !d.objects.Valid()
	}

	return len(d.buckets) == 0
}

// Read returns the name of the next entry, starting with "." and "..", or 'io.EOF' once all the entries have been read.
// Directory names have any trailing slash or placeholder suffix removed.
func (d *Dir) Read(ctx context.Context) (string, error) {
	stat, err := d.ReadStat(ctx)
	if err != nil {
		return "", err
	}

	return stat.Name(), nil
}

// ReadStat returns the next entry, see 'Read'. The size and modification time of files are taken from the listing.
func (d *Dir) ReadStat(ctx context.Context) (*Stat, error) {
	if d.closed {
		return nil, fs.ErrClosed
	}

	if d.dots < 2 {
		d.dots++
		return newDirStat(strings.Repeat(".", d.dots)), nil
	}

	for {
		stat, err := d.next(ctx)
		if err != nil {
			return nil, err
		}

		if stat.Name() == "" || stat.IsDir() && !d.seen.add(stat.Name()) {
			continue
		}

		return stat, nil
	}
}

// next returns the next entry from the listing, with its name relative to the directory.
func (d *Dir) next(ctx context.Context) (*Stat, error) {
	if d.objects == nil {
		if d.index >= len(d.buckets) {
			return nil, io.EOF
		}

		d.index++

		return newDirStat(d.buckets[d.index-1].Name), nil
	}

	if !d.objects.Valid() {
		if err := d.objects.Err(); err != nil {
			return nil, err
		}

		return nil, io.EOF
	}

	entry := d.objects.Current()

	err := d.objects.Next(ctx)
	if err != nil {
		return nil, err
	}

	return entryStat(d.path.Prefix(), entry), nil
}

// entryStat normalizes a listing entry; placeholder objects and common prefixes both become directories.
func entryStat(prefix string, entry s3.Entry) *Stat {
	name := strings.TrimRight(strings.TrimPrefix(entry.Key(), prefix), "/")

	if strings.HasSuffix(name, FolderSuffix) {
		return newDirStat(strings.TrimSuffix(name, FolderSuffix))
	}

	if entry.IsPrefix() {
		return newDirStat(name)
	}

	return newFileStat(name, entry.Object.Size, entry.Object.LastModified)
}

// ReadAll returns the names of all the remaining entries.
func (d *Dir) ReadAll(ctx context.Context) ([]string, error) {
	var names []string

	for {
		name, err := d.Read(ctx)
		if errors.Is(err, io.EOF) {
			return names, nil
		}

		if err != nil {
			return nil, err
		}

		names = append(names, name)
	}
}

// Rewind positions the directory at its first entry again, the first page of a listing isn't requested again.
func (d *Dir) Rewind(ctx context.Context) error {
	if d.closed {
		return fs.ErrClosed
	}

	return d.load(ctx)
}

// Close releases the directory, subsequent reads return 'fs.ErrClosed'.
func (d *Dir) Close() error {
	d.closed = true
	d.buckets = nil

	return nil
}
