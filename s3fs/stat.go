package s3fs

import (
	"io/fs"
	"time"
)

const (
	// ModeDirectory is the mode reported for buckets and directories.
	ModeDirectory = fs.ModeDir | 0o777

	// ModeFile is the mode reported for objects.
	ModeFile fs.FileMode = 0o777
)

// Stat describes a file or directory, it implements the 'fs.FileInfo' interface. Directories have no size or
// modification time.
type Stat struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func newDirStat(name string) *Stat {
	return &Stat{name: name, mode: ModeDirectory}
}

func newFileStat(name string, size int64, modTime time.Time) *Stat {
	return &Stat{name: name, size: size, mode: ModeFile, modTime: modTime}
}

func (s *Stat) Name() string       { return s.name }
func (s *Stat) Size() int64        { return s.size }
func (s *Stat) Mode() fs.FileMode  { return s.mode }
func (s *Stat) ModTime() time.Time { return s.modTime }
func (s *Stat) IsDir() bool        { return s.mode.IsDir() }
func (s *Stat) Sys() any           { return nil }

var _ fs.FileInfo = (*Stat)(nil)
