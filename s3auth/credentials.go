// Package s3auth implements request authentication using signature version 2; building the canonical string for a
// request and signing it using the account's secret key.
package s3auth

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/credentials"

	"github.com/s3wire/s3wire/s3err"
)

// Credentials used to sign requests, an empty 'AccessKeyID' represents an anonymous account.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string

	// SessionToken is an optional temporary security token; when provided, it's sent (and therefore signed) using the
	// 'x-amz-security-token' header.
	SessionToken string
}

// Anonymous returns a boolean indicating whether these credentials represent an anonymous account, which can only access
// resources granted to all users.
func (c Credentials) Anonymous() bool {
	return c.AccessKeyID == ""
}

// Sign returns the base64 encoded HMAC-SHA1 digest of the given canonical string, keyed by the secret access key.
//
// NOTE: Returns an 's3err.AuthError' when the credentials are anonymous.
func (c Credentials) Sign(canonical string) (string, error) {
	if c.Anonymous() {
		return "", &s3err.AuthError{Reason: "anonymous account cannot sign strings"}
	}

	mac := hmac.New(sha1.New, []byte(c.SecretAccessKey))

	// NOTE: Writing to a hash never returns an error
	_, _ = mac.Write([]byte(canonical))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// FromProvider retrieves credentials from the given AWS SDK credentials provider, for example the environment or shared
// credentials file providers.
func FromProvider(provider credentials.Provider) (Credentials, error) {
	value, err := provider.Retrieve()
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to retrieve credentials: %w", err)
	}

	return Credentials{
		AccessKeyID:     value.AccessKeyID,
		SecretAccessKey: value.SecretAccessKey,
		SessionToken:    value.SessionToken,
	}, nil
}
