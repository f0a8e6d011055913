package s3fs

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	type test struct {
		name     string
		path     string
		expected Path
	}

	tests := []*test{
		{
			name:     "Root",
			path:     "s3://",
			expected: Path{Scheme: "s3"},
		},
		{
			name:     "Bucket",
			path:     "s3://bucket",
			expected: Path{Scheme: "s3", Bucket: "bucket"},
		},
		{
			name:     "BucketTrailingSlash",
			path:     "s3://bucket/",
			expected: Path{Scheme: "s3", Bucket: "bucket", HasKey: true},
		},
		{
			name:     "Key",
			path:     "s3://bucket/dir/file",
			expected: Path{Scheme: "s3", Bucket: "bucket", Key: "dir/file", HasKey: true},
		},
		{
			name:     "OtherScheme",
			path:     "archive://bucket/dir/",
			expected: Path{Scheme: "archive", Bucket: "bucket", Key: "dir/", HasKey: true},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual, err := ParsePath(test.path)
			require.NoError(t, err)
			require.Equal(t, test.expected, actual)
			require.Equal(t, test.path, actual.String())
		})
	}
}

func TestParsePathInvalid(t *testing.T) {
	for _, path := range []string{"", "bucket/key", "/bucket/key", "://bucket"} {
		_, err := ParsePath(path)
		require.ErrorIs(t, err, fs.ErrInvalid, path)

		var invalid *InvalidPathError

		require.ErrorAs(t, err, &invalid)
		require.Equal(t, path, invalid.Path)
	}
}

func TestPathHelpers(t *testing.T) {
	type test struct {
		name        string
		path        string
		prefix      string
		placeholder string
		base        string
		parent      string
		object      bool
	}

	tests := []*test{
		{
			name:   "Root",
			path:   "s3://",
			parent: "s3://",
		},
		{
			name:   "Bucket",
			path:   "s3://bucket",
			base:   "bucket",
			parent: "s3://",
		},
		{
			name:        "File",
			path:        "s3://bucket/dir/file",
			prefix:      "dir/file/",
			placeholder: "dir/file" + FolderSuffix,
			base:        "file",
			parent:      "s3://bucket/dir",
			object:      true,
		},
		{
			name:   "BucketTrailingSlash",
			path:   "s3://bucket/",
			base:   "bucket",
			parent: "s3://",
		},
		{
			name:        "Directory",
			path:        "s3://bucket/dir/",
			prefix:      "dir/",
			placeholder: "dir" + FolderSuffix,
			base:        "dir",
			parent:      "s3://bucket",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p, err := ParsePath(test.path)
			require.NoError(t, err)

			require.Equal(t, test.prefix, p.Prefix())
			require.Equal(t, test.placeholder, p.Placeholder())
			require.Equal(t, test.base, p.Name())
			require.Equal(t, test.parent, p.Parent().String())
			require.Equal(t, test.object, p.IsObject())
		})
	}
}

func TestPathIsPlaceholder(t *testing.T) {
	p, err := ParsePath("s3://bucket/dir" + FolderSuffix)
	require.NoError(t, err)
	require.True(t, p.IsPlaceholder())

	p, err = ParsePath("s3://bucket/dir")
	require.NoError(t, err)
	require.False(t, p.IsPlaceholder())
}

func TestPathJoin(t *testing.T) {
	root, err := ParsePath("s3://")
	require.NoError(t, err)
	require.Equal(t, "s3://bucket", root.Join("bucket").String())

	bucket := root.Join("bucket")
	require.Equal(t, "s3://bucket/dir", bucket.Join("dir").String())
	require.Equal(t, "s3://bucket/dir/file", bucket.Join("dir").Join("file").String())
}
