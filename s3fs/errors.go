package s3fs

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrExclusiveMode is returned when opening a file using "x", which requires a conditional create.
	ErrExclusiveMode = errors.New(`"x" file open mode not supported`)

	// ErrUnknownMode is returned when opening a file with a mode other than "r", "w" or "a".
	ErrUnknownMode = errors.New("unknown file open mode")

	// ErrReadWrite is returned when opening a file for both reading and writing.
	ErrReadWrite = errors.New("S3 does not support simultaneous read/write connections")

	// ErrBucketRoot is returned when opening a bucket (or the root) as a file.
	ErrBucketRoot = errors.New("cannot open bucket root")

	// ErrIsDirectory is returned when opening a path with a trailing slash as a file.
	ErrIsDirectory = errors.New("cannot open directory")

	// ErrNoSuchFile is returned when opening a missing file for reading, or a file in a missing directory.
	ErrNoSuchFile = fmt.Errorf("no such file: %w", fs.ErrNotExist)

	// ErrNotFound is returned when the path is neither a file nor a directory.
	ErrNotFound = fmt.Errorf("file or directory not found: %w", fs.ErrNotExist)

	// ErrAlreadyExists is returned when creating a directory which already exists, in strict mode.
	ErrAlreadyExists = fmt.Errorf("already exists: %w", fs.ErrExist)

	// ErrParentNotFound is returned when creating a directory in a missing directory, in strict mode.
	ErrParentNotFound = fmt.Errorf("parent directory not found: %w", fs.ErrNotExist)

	// ErrNotEmpty is returned when removing a directory which isn't empty, in strict mode.
	ErrNotEmpty = errors.New("directory not empty")

	// ErrUnlinkDirectory is returned when unlinking a bucket, or a path with a trailing slash.
	ErrUnlinkDirectory = errors.New("cannot unlink directory")

	// ErrSourceNotFound is returned when renaming a missing file.
	ErrSourceNotFound = fmt.Errorf("source does not exist: %w", fs.ErrNotExist)

	// ErrRoot is returned for operations which may not be applied to the root.
	ErrRoot = errors.New("operation not supported on the root")

	// ErrNotWritable is returned when writing to a file opened for reading.
	ErrNotWritable = errors.New("file not open for writing")
)

// InvalidPathError is returned when a path isn't of the form "scheme://bucket/key".
type InvalidPathError struct {
	Path string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path '%s'", e.Path)
}

// Is allows the error to be matched against 'fs.ErrInvalid'.
func (e *InvalidPathError) Is(target error) bool {
	return target == fs.ErrInvalid
}
