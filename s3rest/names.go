package s3rest

import (
	"errors"
	"fmt"
	"net"
)

// ErrInvalidBucketName is returned (wrapped) when a bucket name doesn't satisfy the active 'NamePolicy'.
var ErrInvalidBucketName = errors.New("invalid bucket name")

// NamePolicy validates bucket names before they're used to build a URL.
type NamePolicy interface {
	Validate(name string, style RequestStyle) error
}

// DefaultNamePolicy applies the following rules to all bucket names:
//   - Between 3 and 255 characters long
//   - Only letters, digits, periods, dashes and underscores
//   - Starts with a letter or digit, doesn't end with a dash
//   - Not an IPv4 address e.g. "192.168.5.4"
//
// When using 'RequestStyleVirtualHost' the name must also be usable as a DNS label:
//   - Between 3 and 63 characters long
//   - Only lower-case letters, digits, periods and dashes (and underscores when not 'DNSStrict')
//   - A period may not follow a dash or a period, a dash may not follow a period
//   - Doesn't end with a dash (only when 'DNSStrict')
type DefaultNamePolicy struct {
	DNSStrict bool
}

// Validate returns an error wrapping 'ErrInvalidBucketName' if the name may not be used with the given style.
func (p DefaultNamePolicy) Validate(name string, style RequestStyle) error {
	if !validName(name) {
		return fmt.Errorf("%w: %s", ErrInvalidBucketName, name)
	}

	if style == RequestStyleVirtualHost && !validDNSName(name, p.DNSStrict) {
		return fmt.Errorf("%w when request style is %s: %s", ErrInvalidBucketName, style, name)
	}

	return nil
}

// validName returns a boolean indicating whether the given name satisfies the rules applied regardless of style.
func validName(name string) bool {
	if len(name) < 3 || len(name) > 255 || !isAlphanumeric(name[0]) || name[len(name)-1] == '-' {
		return false
	}

	for i := 0; i < len(name); i++ {
		if c := name[i]; !isAlphanumeric(c) && c != '.' && c != '_' && c != '-' {
			return false
		}
	}

	ip := net.ParseIP(name)

	return ip == nil || ip.To4() == nil
}

// validDNSName returns a boolean indicating whether the given name may be used as a sub-domain of the endpoint.
func validDNSName(name string, strict bool) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}

	for i := 0; i < len(name); i++ {
		var prev byte
		if i > 0 {
			prev = name[i-1]
		}

		switch c := name[i]; {
		case isLowerAlphanumeric(c):
		case c == '_' && !strict:
		case c == '.' && prev != '-' && prev != '.':
		case c == '-' && prev != '.':
		default:
			return false
		}
	}

	return !strict || name[len(name)-1] != '-'
}

func isLowerAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func isAlphanumeric(c byte) bool {
	return isLowerAlphanumeric(c) || (c >= 'A' && c <= 'Z')
}
