package envvar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetString(t *testing.T) {
	t.Setenv("S3WIRE_TEST_STRING", "  s3.example.com ")

	val, ok := GetString("S3WIRE_TEST_STRING")
	require.True(t, ok)
	require.Equal(t, "s3.example.com", val)

	t.Setenv("S3WIRE_TEST_STRING", "   ")

	_, ok = GetString("S3WIRE_TEST_STRING")
	require.False(t, ok)

	_, ok = GetString("S3WIRE_TEST_NOT_SET")
	require.False(t, ok)
}

func TestGetInt(t *testing.T) {
	type test struct {
		name          string
		value         string
		expected      int
		expectedFound bool
	}

	tests := []*test{
		{name: "Valid", value: "5", expected: 5, expectedFound: true},
		{name: "Negative", value: "-1", expected: -1, expectedFound: true},
		{name: "NotAnInt", value: "five"},
		{name: "Empty"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv("S3WIRE_TEST_INT", test.value)

			val, ok := GetInt("S3WIRE_TEST_INT")
			require.Equal(t, test.expectedFound, ok)
			require.Equal(t, test.expected, val)
		})
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("S3WIRE_TEST_BOOL", "false")

	val, ok := GetBool("S3WIRE_TEST_BOOL")
	require.True(t, ok)
	require.False(t, val)

	t.Setenv("S3WIRE_TEST_BOOL", "maybe")

	_, ok = GetBool("S3WIRE_TEST_BOOL")
	require.False(t, ok)
}

func TestGetDuration(t *testing.T) {
	t.Setenv("S3WIRE_TEST_DURATION", "1m30s")

	val, ok := GetDuration("S3WIRE_TEST_DURATION")
	require.True(t, ok)
	require.Equal(t, 90*time.Second, val)

	t.Setenv("S3WIRE_TEST_DURATION", "90")

	_, ok = GetDuration("S3WIRE_TEST_DURATION")
	require.False(t, ok)
}
