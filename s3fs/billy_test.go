package s3fs

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
)

func TestBillyFS(t *testing.T) {
	server, fsys := newTestFS(t, Options{})
	bfs := NewBillyFS(fsys, "bucket").WithContext(context.Background())

	require.NoError(t, util.WriteFile(bfs, "dir/file.txt", []byte("hello"), 0o644))

	stored, ok := server.Object("bucket", "dir/file.txt")
	require.True(t, ok)
	require.Equal(t, []byte("hello"), stored.Data)

	stat, err := bfs.Stat("dir/file.txt")
	require.NoError(t, err)
	require.Equal(t, "file.txt", stat.Name())
	require.EqualValues(t, 5, stat.Size())

	stat, err = bfs.Lstat("/dir")
	require.NoError(t, err)
	require.True(t, stat.IsDir())

	file, err := bfs.Open("dir/file.txt")
	require.NoError(t, err)

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
	require.NoError(t, file.Close())

	infos, err := bfs.ReadDir("dir")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "file.txt", infos[0].Name())

	infos, err = bfs.ReadDir("/")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "dir", infos[0].Name())
	require.True(t, infos[0].IsDir())

	require.NoError(t, bfs.Rename("dir/file.txt", "moved.txt"))
	require.Equal(t, []string{"moved.txt"}, server.Keys("bucket"))

	require.NoError(t, bfs.Remove("moved.txt"))
	require.Empty(t, server.Keys("bucket"))

	_, err = bfs.Open("moved.txt")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBillyFSDirectories(t *testing.T) {
	server, fsys := newTestFS(t, Options{})
	bfs := NewBillyFS(fsys, "bucket")

	require.NoError(t, bfs.MkdirAll("a/b", 0o755))
	require.NoError(t, bfs.MkdirAll("a/b", 0o755))
	require.Equal(t, []string{"a/b" + FolderSuffix}, server.Keys("bucket"))

	stat, err := bfs.Stat("a/b")
	require.NoError(t, err)
	require.True(t, stat.IsDir())

	require.NoError(t, bfs.Remove("a/b"))
	require.Empty(t, server.Keys("bucket"))
}

func TestBillyFSMkdirAllStrict(t *testing.T) {
	server, fsys := newTestFS(t, Options{Strict: true})
	bfs := NewBillyFS(fsys, "bucket")

	require.NoError(t, bfs.MkdirAll("a/b", 0o755))
	require.NoError(t, bfs.MkdirAll("a/b", 0o755))
	require.Equal(t, []string{"a/b" + FolderSuffix}, server.Keys("bucket"))
}

func TestBillyFSChroot(t *testing.T) {
	server, fsys := newTestFS(t, Options{})
	bfs := NewBillyFS(fsys, "bucket")
	require.Equal(t, "/", bfs.Root())

	chroot, err := bfs.Chroot("jail")
	require.NoError(t, err)
	require.Equal(t, "/jail", chroot.Root())

	file, err := chroot.Create("file")
	require.NoError(t, err)

	_, err = file.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, file.Close())

	require.Equal(t, []string{"jail/file"}, server.Keys("bucket"))

	// Paths may not escape the chroot
	stat, err := chroot.Stat("../file")
	require.NoError(t, err)
	require.EqualValues(t, 4, stat.Size())

	_, err = bfs.Stat("file")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestBillyFSTempFile(t *testing.T) {
	server, fsys := newTestFS(t, Options{})
	bfs := NewBillyFS(fsys, "bucket")

	file, err := bfs.TempFile("tmp", "prefix-")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(file.Name(), "s3://bucket/tmp/prefix-"))
	require.NoError(t, file.Close())

	keys := server.Keys("bucket")
	require.Len(t, keys, 1)
	require.True(t, strings.HasPrefix(keys[0], "tmp/prefix-"))
}

func TestBillyFSOpenFileFlags(t *testing.T) {
	server, fsys := newTestFS(t, Options{})
	server.PutObject("bucket", "file", []byte("first\n"))

	bfs := NewBillyFS(fsys, "bucket")

	_, err := bfs.OpenFile("file", os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	require.ErrorIs(t, err, ErrExclusiveMode)

	file, err := bfs.OpenFile("file", os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)

	_, err = io.WriteString(file, "second\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	stored, ok := server.Object("bucket", "file")
	require.True(t, ok)
	require.Equal(t, []byte("first\nsecond\n"), stored.Data)

	file, err = bfs.OpenFile("file", os.O_RDONLY, 0)
	require.NoError(t, err)

	_, err = file.Write([]byte("data"))
	require.ErrorIs(t, err, ErrNotWritable)
	require.NoError(t, file.Close())
}

func TestBillyFSSymlinks(t *testing.T) {
	_, fsys := newTestFS(t, Options{})
	bfs := NewBillyFS(fsys, "bucket")

	require.ErrorIs(t, bfs.Symlink("target", "link"), billy.ErrNotSupported)

	_, err := bfs.Readlink("link")
	require.ErrorIs(t, err, billy.ErrNotSupported)
}
