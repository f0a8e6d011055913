package s3fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
)

// BillyFS adapts a single bucket of the filesystem to the 'billy.Filesystem' interface, paths are relative to the
// bucket (or the chroot within it).
type BillyFS struct {
	fs     *FS
	bucket string
	root   string
	ctx    context.Context
}

// NewBillyFS returns an adapter exposing the given bucket.
func NewBillyFS(fs *FS, bucket string) *BillyFS {
	return &BillyFS{fs: fs, bucket: bucket, ctx: context.Background()}
}

// WithContext returns a copy of the adapter which uses the given context for its requests; the 'billy' interfaces
// don't accept one.
func (b *BillyFS) WithContext(ctx context.Context) *BillyFS {
	clone := *b
	clone.ctx = ctx

	return &clone
}

// path converts a relative filename into a filesystem path, the bucket itself is returned for the root.
func (b *BillyFS) path(filename string) string {
	key := strings.TrimPrefix(path.Join("/", b.root, path.Join("/", filename)), "/")
	if key == "" {
		return b.fs.options.Scheme + "://" + b.bucket
	}

	return b.fs.options.Scheme + "://" + b.bucket + "/" + key
}

// Create creates (or truncates) the named file.
func (b *BillyFS) Create(filename string) (billy.File, error) {
	return b.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

// Open opens the named file for reading.
func (b *BillyFS) Open(filename string) (billy.File, error) {
	return b.OpenFile(filename, os.O_RDONLY, 0)
}

// OpenFile opens the named file; files opened with any write flag are replaced when closed, the permissions are
// ignored.
func (b *BillyFS) OpenFile(filename string, flag int, _ os.FileMode) (billy.File, error) {
	mode := "r"

	switch {
	case flag&os.O_EXCL != 0:
		return nil, ErrExclusiveMode
	case flag&os.O_APPEND != 0:
		mode = "a"
	case flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC) != 0:
		mode = "w"
	}

	file, err := b.fs.Open(b.ctx, b.path(filename), mode)
	if err != nil {
		return nil, err
	}

	return file, nil
}

// Stat returns information about the named file or directory.
func (b *BillyFS) Stat(filename string) (os.FileInfo, error) {
	stat, err := b.fs.Stat(b.ctx, b.path(filename))
	if err != nil {
		return nil, err
	}

	return stat, nil
}

// Lstat is the same as 'Stat', there are no symbolic links.
func (b *BillyFS) Lstat(filename string) (os.FileInfo, error) {
	return b.Stat(filename)
}

// Rename moves a file, see 'FS.Rename'.
func (b *BillyFS) Rename(oldpath, newpath string) error {
	return b.fs.Rename(b.ctx, b.path(oldpath), b.path(newpath))
}

// Remove removes the named file or (empty, in strict mode) directory.
func (b *BillyFS) Remove(filename string) error {
	name := b.path(filename)

	stat, err := b.fs.Stat(b.ctx, name)
	if err != nil {
		return err
	}

	if stat.IsDir() {
		return b.fs.Rmdir(b.ctx, name)
	}

	return b.fs.Unlink(b.ctx, name)
}

// Join joins the given path elements using slashes.
func (b *BillyFS) Join(elem ...string) string {
	return path.Join(elem...)
}

// TempFile creates a uniquely named file in the given directory.
func (b *BillyFS) TempFile(dir, prefix string) (billy.File, error) {
	return b.Create(path.Join(dir, prefix+uuid.NewString()))
}

// ReadDir returns the entries of the named directory, in key order.
func (b *BillyFS) ReadDir(dirname string) ([]os.FileInfo, error) {
	dir, err := b.fs.OpenDir(b.ctx, b.path(dirname))
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	var infos []os.FileInfo

	for {
		stat, err := dir.ReadStat(b.ctx)
		if errors.Is(err, io.EOF) {
			return infos, nil
		}

		if err != nil {
			return nil, err
		}

		if stat.Name() == "." || stat.Name() == ".." {
			continue
		}

		infos = append(infos, stat)
	}
}

// MkdirAll creates the named directory, it's not an error if the directory already exists.
func (b *BillyFS) MkdirAll(filename string, _ os.FileMode) error {
	err := b.fs.Mkdir(b.ctx, b.path(filename), true)
	if errors.Is(err, ErrAlreadyExists) {
		return nil
	}

	return err
}

// Symlink is not supported.
func (b *BillyFS) Symlink(_, _ string) error {
	return billy.ErrNotSupported
}

// Readlink is not supported.
func (b *BillyFS) Readlink(_ string) (string, error) {
	return "", billy.ErrNotSupported
}

// Chroot returns an adapter rooted at the given directory.
func (b *BillyFS) Chroot(dirname string) (billy.Filesystem, error) {
	clone := *b
	clone.root = strings.TrimPrefix(path.Join("/", b.root, path.Join("/", dirname)), "/")

	return &clone, nil
}

// Root returns the directory the adapter is rooted at.
func (b *BillyFS) Root() string {
	return "/" + b.root
}

var (
	_ billy.Filesystem = (*BillyFS)(nil)
	_ billy.File       = (*File)(nil)
)
