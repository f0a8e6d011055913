package s3auth

import (
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/private/protocol/rest"
	"golang.org/x/exp/slices"
)

// AmzPrefix is the prefix of vendor-extension headers, all of which are included in the canonical string.
const AmzPrefix = "x-amz-"

// Escape percent-encodes everything other than unreserved characters, this includes '/'.
func Escape(value string) string {
	return rest.EscapePath(value, true)
}

// EscapeBucket encodes the given bucket name for use in a URL path or canonical string.
func EscapeBucket(bucket string) string {
	return Escape(bucket)
}

// EscapeKey encodes the given object key for use in a URL path or canonical string, the '/' separators are kept as is.
func EscapeKey(key string) string {
	return rest.EscapePath(key, false)
}

// CanonicalPath returns the canonical resource path for the given bucket/key; an empty bucket refers to the service
// root, an empty key to the bucket itself.
func CanonicalPath(bucket, key string, hasKey bool) string {
	switch {
	case bucket == "":
		return "/"
	case !hasKey:
		return "/" + EscapeBucket(bucket) + "/"
	default:
		return "/" + EscapeBucket(bucket) + "/" + EscapeKey(key)
	}
}

// CanonicalString returns the string which must be signed to authenticate a request. The sub-resource marker (e.g.
// "?acl") is appended verbatim, including its leading separator.
//
// NOTE: Header names are matched case-insensitively; the result is independent of the order/case of the headers.
func CanonicalString(method, subResource, canonicalPath string, header http.Header) string {
	var builder strings.Builder

	builder.WriteString(method + "\n")
	builder.WriteString(headerValue(header, "content-md5") + "\n")
	builder.WriteString(headerValue(header, "content-type") + "\n")
	builder.WriteString(headerValue(header, "date") + "\n")

	raw := make([]string, 0, len(header))
	for name := range header {
		raw = append(raw, name)
	}

	// Sorted so that values of the same header set using different cases are always joined in the same order
	slices.Sort(raw)

	amz := make(map[string][]string)

	for _, name := range raw {
		lower := strings.TrimRight(strings.ToLower(name), " \t")
		if !strings.HasPrefix(lower, AmzPrefix) {
			continue
		}

		for _, value := range header[name] {
			amz[lower] = append(amz[lower], strings.TrimSpace(value))
		}
	}

	names := make([]string, 0, len(amz))
	for name := range amz {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		builder.WriteString(name + ":" + strings.Join(amz[name], ",") + "\n")
	}

	builder.WriteString(canonicalPath)
	builder.WriteString(subResource)

	return builder.String()
}

// headerValue returns the first value of the given header, matching the name case-insensitively.
func headerValue(header http.Header, name string) string {
	if value := header.Get(name); value != "" {
		return strings.TrimSpace(value)
	}

	// Headers set directly on the map may not be in canonical form
	for key, values := range header {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
	}

	return ""
}
