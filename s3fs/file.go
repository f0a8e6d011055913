package s3fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/s3wire/s3wire/log"
	"github.com/s3wire/s3wire/s3"
)

// Open opens the file at the given path using a mode of "r", "w" or "a" (a trailing "b" or "t" is ignored). Reading
// requires the file to exist; writes are staged in a local temporary file and only uploaded when the file is closed.
//
// NOTE: The context is retained and used by 'File.Close' to upload the staged data.
func (f *FS) Open(ctx context.Context, path, mode string) (*File, error) {
	p, err := f.parse(path)
	if err != nil {
		return nil, err
	}

	mode, err = parseMode(mode)
	if err != nil {
		return nil, err
	}

	if p.Prefix() == "" {
		return nil, ErrBucketRoot
	}

	if !p.IsObject() {
		return nil, ErrIsDirectory
	}

	object := f.object(p)

	var found bool

	if mode == "r" || mode == "a" {
		found, err = object.Load(ctx, s3.LoadData)
		if err != nil {
			return nil, err
		}
	}

	if mode == "r" && !found {
		return nil, ErrNoSuchFile
	}

	if !found && f.options.Strict {
		parent, err := f.isDir(ctx, p.Parent())
		if err != nil {
			return nil, err
		}

		if !parent {
			return nil, ErrNoSuchFile
		}
	}

	staging, err := os.CreateTemp("", "s3fs-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}

	file := &File{ctx: ctx, fs: f, path: p, object: object, mode: mode, staging: staging}

	if !found {
		return file, nil
	}

	_, err = staging.Write(object.Data)
	if err == nil && mode == "r" {
		_, err = staging.Seek(0, io.SeekStart)
	}

	if err != nil {
		_ = file.release()
		return nil, fmt.Errorf("failed to stage file: %w", err)
	}

	// The data now lives in the staging file
	object.Data = nil

	return file, nil
}

// parseMode returns the normalized mode, which is one of "r", "w" or "a".
func parseMode(mode string) (string, error) {
	mode = strings.TrimRight(mode, "bt")

	switch {
	case strings.HasPrefix(mode, "x"):
		return "", ErrExclusiveMode
	case mode == "" || !strings.ContainsAny(mode[:1], "rwa"):
		return "", ErrUnknownMode
	case strings.Contains(mode, "+"):
		return "", ErrReadWrite
	}

	return mode[:1], nil
}

// File is an open file, staged locally. A file may not be used concurrently.
type File struct {
	ctx     context.Context
	fs      *FS
	path    Path
	object  *s3.Object
	mode    string
	staging *os.File
	closed  bool
}

// Name returns the path of the file, as given to 'Open'.
func (f *File) Name() string {
	return f.path.String()
}

// Mode returns the mode in which the file was opened; "r", "w" or "a".
func (f *File) Mode() string {
	return f.mode
}

// Read implements the 'io.Reader' interface, reading from the staged data.
func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	return f.staging.Read(p)
}

// ReadAt implements the 'io.ReaderAt' interface.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	return f.staging.ReadAt(p, off)
}

// Write implements the 'io.Writer' interface, writes are uploaded when the file is closed.
func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	if f.mode == "r" {
		return 0, ErrNotWritable
	}

	return f.staging.Write(p)
}

// Seek implements the 'io.Seeker' interface.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	return f.staging.Seek(offset, whence)
}

// Truncate changes the size of the staged data.
func (f *File) Truncate(size int64) error {
	if f.closed {
		return os.ErrClosed
	}

	if f.mode == "r" {
		return ErrNotWritable
	}

	return f.staging.Truncate(size)
}

// Stat returns information about the staged file.
func (f *File) Stat() (*Stat, error) {
	info, err := f.staging.Stat()
	if err != nil {
		return nil, err
	}

	return newFileStat(f.path.Name(), info.Size(), info.ModTime()), nil
}

// Lock is a no-op, files are staged locally.
func (f *File) Lock() error {
	return nil
}

// Unlock is a no-op, files are staged locally.
func (f *File) Unlock() error {
	return nil
}

// Close uploads the staged data when the file was opened for writing, applying the filesystem's ACL, HTTP headers,
// user metadata and content type. The staging file is always removed, even if the upload fails.
func (f *File) Close() error {
	if f.closed {
		return nil
	}

	f.closed = true

	var uploadErr error
	if f.mode != "r" {
		uploadErr = f.upload()
	}

	return errors.Join(uploadErr, f.release())
}

func (f *File) upload() error {
	data, err := f.stagedData()
	if err != nil {
		f.fs.logger.Warnf("Failed to read staged data for '%s': %s", log.UserData(f.path), err)
		return err
	}

	options := f.fs.options

	f.object.Data = data

	if options.ACL != "" {
		f.object.CannedACL = options.ACL
	}

	if options.HTTPHeaders != nil {
		f.object.HTTPHeaders = options.HTTPHeaders.Clone()
	}

	if options.UserMetadata != nil {
		f.object.UserMetadata = options.UserMetadata
	}

	if options.ContentType != "" {
		f.object.ContentType = options.ContentType
	}

	err = f.object.Save(f.ctx)
	if err != nil {
		f.fs.logger.Warnf("Failed to upload '%s': %s", log.UserData(f.path), err)
		return err
	}

	return nil
}

func (f *File) stagedData() ([]byte, error) {
	_, err := f.staging.Seek(0, io.SeekStart)
	if err != nil {
		return nil, err
	}

	return io.ReadAll(f.staging)
}

// release closes and removes the staging file.
func (f *File) release() error {
	return errors.Join(f.staging.Close(), os.Remove(f.staging.Name()))
}
