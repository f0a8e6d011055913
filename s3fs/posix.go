package s3fs

import (
	"context"
	"errors"
	"io/fs"

	"github.com/s3wire/s3wire/log"
)

// Posix exposes the filesystem operations in the style of a stream wrapper; failures are logged as warnings and
// reported using a boolean (or <nil>) rather than an error.
type Posix struct {
	fs *FS
}

// Posix returns a wrapper which reports failures using booleans.
func (f *FS) Posix() Posix {
	return Posix{fs: f}
}

func (p Posix) warn(op, path string, err error) {
	p.fs.logger.Warnf("Failed to %s '%s': %s", op, log.UserData(path), err)
}

// Mkdir creates a directory, see 'FS.Mkdir'.
func (p Posix) Mkdir(ctx context.Context, path string, recursive bool) bool {
	err := p.fs.Mkdir(ctx, path, recursive)
	if err != nil {
		p.warn("create directory", path, err)
		return false
	}

	return true
}

// Rmdir removes a directory, see 'FS.Rmdir'.
func (p Posix) Rmdir(ctx context.Context, path string) bool {
	err := p.fs.Rmdir(ctx, path)
	if err != nil {
		p.warn("remove directory", path, err)
		return false
	}

	return true
}

// Unlink removes a file, see 'FS.Unlink'.
func (p Posix) Unlink(ctx context.Context, path string) bool {
	err := p.fs.Unlink(ctx, path)
	if err != nil {
		p.warn("unlink", path, err)
		return false
	}

	return true
}

// Rename moves a file, see 'FS.Rename'.
func (p Posix) Rename(ctx context.Context, from, to string) bool {
	err := p.fs.Rename(ctx, from, to)
	if err != nil {
		p.warn("rename", from, err)
		return false
	}

	return true
}

// Stat returns information about a file or directory, or <nil> if it doesn't exist. A missing path isn't logged.
func (p Posix) Stat(ctx context.Context, path string) *Stat {
	stat, err := p.fs.Stat(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		p.warn("stat", path, err)
		return nil
	}

	return stat
}

// Open opens a file, see 'FS.Open'.
func (p Posix) Open(ctx context.Context, path, mode string) *File {
	file, err := p.fs.Open(ctx, path, mode)
	if err != nil {
		p.warn("open", path, err)
		return nil
	}

	return file
}

// OpenDir opens a directory, see 'FS.OpenDir'.
func (p Posix) OpenDir(ctx context.Context, path string) *Dir {
	dir, err := p.fs.OpenDir(ctx, path)
	if err != nil {
		p.warn("open directory", path, err)
		return nil
	}

	return dir
}
