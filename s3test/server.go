// Package s3test provides an in-memory, path-style object storage server and handler helpers for use in tests.
package s3test

import (
	"crypto/md5" //nolint:gosec
	"encoding/base64"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/s3wire/s3wire/s3auth"
	"github.com/s3wire/s3wire/s3xml"
)

const (
	// DefaultOwnerID is the canonical user id of the owner of all buckets/objects.
	DefaultOwnerID = "75aa57f09aa0c8caeab4f8c24e99d10f8e7faeebf76c078efc7c6caea54ba06a"

	// MaxSkew is the maximum difference between the 'Date' header of a request and the server's clock.
	MaxSkew = 15 * time.Minute

	// DefaultContentType is the content type of objects uploaded without one.
	DefaultContentType = "binary/octet-stream"
)

// StoredHeaders are the request headers stored with an object, and returned when it's read.
var StoredHeaders = []string{"Cache-Control", "Content-Disposition", "Content-Encoding", "Expires"}

// RecordedRequest is a request received by the server.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// StoredObject is a copy of an object stored by the server.
type StoredObject struct {
	Data         []byte
	ContentType  string
	ETag         string
	LastModified time.Time
	Metadata     map[string]string
	Header       http.Header
	ACL          s3xml.AccessControlPolicy
}

type bucket struct {
	created  time.Time
	location string
	acl      s3xml.AccessControlPolicy
	logging  s3xml.BucketLoggingStatus
	objects  map[string]*StoredObject
}

type failure struct {
	method string
	status int
	code   string
}

// Server is an in-memory implementation of the object storage REST API, using path-style bucket URLs.
//
// NOTE: The exported fields must be set before sending any requests.
type Server struct {
	// Credentials, when set, are used to authenticate requests; unsigned requests may then only read resources granted
	// to all users.
	Credentials *s3auth.Credentials

	// Now returns the time used to detect clock skew and expired signed URLs.
	Now func() time.Time

	// Owner is the owner of all buckets/objects.
	Owner s3xml.Owner

	server *httptest.Server

	lock     sync.Mutex
	buckets  map[string]*bucket
	failures []failure
	requests []RecordedRequest
}

// NewServer starts a new server, which is closed once the test completes.
func NewServer(t testing.TB) *Server {
	s := &Server{
		Now:     time.Now,
		Owner:   s3xml.Owner{ID: DefaultOwnerID, DisplayName: "s3test"},
		buckets: make(map[string]*bucket),
	}

	s.server = httptest.NewServer(s)
	t.Cleanup(s.server.Close)

	return s
}

// URL returns the base URL of the server e.g. "http://127.0.0.1:1234".
func (s *Server) URL() string {
	return s.server.URL
}

// Endpoint returns the host/port of the server.
func (s *Server) Endpoint() string {
	return strings.TrimPrefix(s.server.URL, "http://")
}

// FailNext causes the next request using the given method (or any method when empty) to fail with the given
// status/error code. Failures are consumed in the order they were added.
func (s *Server) FailNext(method string, status int, code string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.failures = append(s.failures, failure{method: method, status: status, code: code})
}

// Requests returns all the requests received so far.
func (s *Server) Requests() []RecordedRequest {
	s.lock.Lock()
	defer s.lock.Unlock()

	return append([]RecordedRequest(nil), s.requests...)
}

// ResetRequests forgets the requests received so far.
func (s *Server) ResetRequests() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.requests = nil
}

// CreateBucket creates an empty bucket, if it doesn't already exist.
func (s *Server) CreateBucket(name string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.createBucket(name, "", s.defaultACL())
}

// HasBucket returns a boolean indicating whether the given bucket exists.
func (s *Server) HasBucket(name string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, ok := s.buckets[name]

	return ok
}

// PutObject stores an object, creating the bucket if required.
func (s *Server) PutObject(bucketName, key string, data []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()

	b := s.createBucket(bucketName, "", s.defaultACL())

	b.objects[key] = s.newObject(data, DefaultContentType, make(map[string]string), make(http.Header), s.defaultACL())
}

// Object returns a copy of the given object.
func (s *Server) Object(bucketName, key string) (StoredObject, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	b, ok := s.buckets[bucketName]
	if !ok {
		return StoredObject{}, false
	}

	obj, ok := b.objects[key]
	if !ok {
		return StoredObject{}, false
	}

	cpy := *obj
	cpy.Data = append([]byte(nil), obj.Data...)
	cpy.Header = obj.Header.Clone()

	cpy.Metadata = make(map[string]string, len(obj.Metadata))
	for name, value := range obj.Metadata {
		cpy.Metadata[name] = value
	}

	return cpy, true
}

// Keys returns the sorted keys of all the objects in the given bucket.
func (s *Server) Keys(bucketName string) []string {
	s.lock.Lock()
	defer s.lock.Unlock()

	b, ok := s.buckets[bucketName]
	if !ok {
		return nil
	}

	return sortedKeys(b.objects)
}

// BucketACL returns the access control policy of the given bucket.
func (s *Server) BucketACL(name string) (s3xml.AccessControlPolicy, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		return s3xml.AccessControlPolicy{}, false
	}

	return b.acl, true
}

// BucketLocation returns the location constraint of the given bucket.
func (s *Server) BucketLocation(name string) (string, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	b, ok := s.buckets[name]
	if !ok {
		return "", false
	}

	return b.location, true
}

// ServeHTTP implements the 'http.Handler' interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "IncompleteBody", "could not read request body")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.requests = append(s.requests, RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     body,
	})

	w.Header().Set("X-Amz-Request-Id", strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16]))

	if f, ok := s.popFailure(r.Method); ok {
		writeError(w, r, f.status, f.code, "Injected failure.")
		return
	}

	bucketName, key, hasKey := splitPath(r.URL.Path)

	if !s.authenticate(w, r, bucketName, key, hasKey) {
		return
	}

	switch {
	case bucketName == "":
		s.handleService(w, r)
	case !hasKey:
		s.handleBucket(w, r, bucketName, body)
	default:
		s.handleObject(w, r, bucketName, key, body)
	}
}

func (s *Server) popFailure(method string) (failure, bool) {
	for i, f := range s.failures {
		if f.method == "" || f.method == method {
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			return f, true
		}
	}

	return failure{}, false
}

// authenticate returns a boolean indicating whether the request may proceed, writing an error response if not.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, bucketName, key string, hasKey bool) bool {
	if date := r.Header.Get("Date"); date != "" {
		sent, err := http.ParseTime(date)
		if err == nil && (s.Now().Sub(sent) > MaxSkew || sent.Sub(s.Now()) > MaxSkew) {
			writeError(w, r, http.StatusForbidden, "RequestTimeTooSkewed",
				"The difference between the request time and the current time is too large.")

			return false
		}
	}

	if s.Credentials == nil {
		return true
	}

	var (
		query         = r.URL.Query()
		subResource   = subResourceOf(query)
		canonicalPath = r.URL.EscapedPath()
	)

	if auth := r.Header.Get("Authorization"); auth != "" {
		expected, _ := s.Credentials.Sign(s3auth.CanonicalString(r.Method, subResource, canonicalPath, r.Header))
		if auth == "AWS "+s.Credentials.AccessKeyID+":"+expected {
			return true
		}

		writeError(w, r, http.StatusForbidden, "SignatureDoesNotMatch",
			"The request signature we calculated does not match the signature you provided.")

		return false
	}

	if signature := query.Get("Signature"); signature != "" {
		expires, err := strconv.ParseInt(query.Get("Expires"), 10, 64)
		if err != nil || s.Now().Unix() > expires {
			writeError(w, r, http.StatusForbidden, "AccessDenied", "Request has expired")
			return false
		}

		expected, _ := s.Credentials.Sign(s3auth.CanonicalString(http.MethodGet, subResource, canonicalPath,
			http.Header{"Date": {query.Get("Expires")}}))

		if query.Get("AWSAccessKeyId") == s.Credentials.AccessKeyID && signature == expected {
			return true
		}

		writeError(w, r, http.StatusForbidden, "SignatureDoesNotMatch",
			"The request signature we calculated does not match the signature you provided.")

		return false
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && s.publicRead(bucketName, key, hasKey) {
		return true
	}

	writeError(w, r, http.StatusForbidden, "AccessDenied", "Access Denied")

	return false
}

// publicRead returns a boolean indicating whether the given bucket/object may be read by anonymous users.
func (s *Server) publicRead(bucketName, key string, hasKey bool) bool {
	b, ok := s.buckets[bucketName]
	if !ok {
		return false
	}

	acl := b.acl

	if hasKey {
		obj, ok := b.objects[key]
		if !ok {
			return false
		}

		acl = obj.ACL
	}

	for _, grant := range acl.Grants {
		if grant.Grantee.URI == s3xml.GroupAllUsers &&
			(grant.Permission == s3xml.PermissionRead || grant.Permission == s3xml.PermissionFullControl) {
			return true
		}
	}

	return false
}

func (s *Server) handleService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "MethodNotAllowed",
			"The specified method is not allowed against this resource.")

		return
	}

	result := s3xml.ListAllMyBucketsResult{Xmlns: s3xml.Namespace, Owner: s.Owner}

	for _, name := range sortedKeys(s.buckets) {
		result.Buckets = append(result.Buckets, s3xml.Bucket{
			Name:         name,
			CreationDate: s3xml.FormatTime(s.buckets[name].created),
		})
	}

	writeXML(w, r, http.StatusOK, result)
}

func (s *Server) handleBucket(w http.ResponseWriter, r *http.Request, name string, body []byte) {
	b, exists := s.buckets[name]

	if !exists && !(r.Method == http.MethodPut && subResourceOf(r.URL.Query()) == "") {
		writeError(w, r, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist")
		return
	}

	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		switch subResourceOf(r.URL.Query()) {
		case "?location":
			writeXML(w, r, http.StatusOK, s3xml.LocationConstraint{Xmlns: s3xml.Namespace, Value: b.location})
		case "?acl":
			writeXML(w, r, http.StatusOK, b.acl)
		case "?logging":
			writeXML(w, r, http.StatusOK, b.logging)
		default:
			s.list(w, r, name, b)
		}
	case http.MethodPut:
		s.putBucket(w, r, name, b, body)
	case http.MethodDelete:
		if len(b.objects) != 0 {
			writeError(w, r, http.StatusConflict, "BucketNotEmpty", "The bucket you tried to delete is not empty")
			return
		}

		delete(s.buckets, name)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, r, http.StatusMethodNotAllowed, "MethodNotAllowed",
			"The specified method is not allowed against this resource.")
	}
}

func (s *Server) putBucket(w http.ResponseWriter, r *http.Request, name string, b *bucket, body []byte) {
	switch subResourceOf(r.URL.Query()) {
	case "?acl":
		acl, ok := s.aclFromRequest(w, r, body)
		if !ok {
			return
		}

		b.acl = acl
	case "?logging":
		var status s3xml.BucketLoggingStatus
		if err := s3xml.Decode(body, &status); err != nil {
			writeError(w, r, http.StatusBadRequest, "MalformedXML", err.Error())
			return
		}

		status.Xmlns = s3xml.Namespace
		b.logging = status
	default:
		if b != nil {
			break
		}

		var config s3xml.CreateBucketConfiguration
		if len(body) != 0 {
			if err := s3xml.Decode(body, &config); err != nil {
				writeError(w, r, http.StatusBadRequest, "MalformedXML", err.Error())
				return
			}
		}

		acl, ok := s.aclFromRequest(w, r, nil)
		if !ok {
			return
		}

		s.createBucket(name, config.LocationConstraint, acl)
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleObject(w http.ResponseWriter, r *http.Request, bucketName, key string, body []byte) {
	b, ok := s.buckets[bucketName]
	if !ok {
		writeError(w, r, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist")
		return
	}

	obj, exists := b.objects[key]
	sub := subResourceOf(r.URL.Query())

	if !exists && !(r.Method == http.MethodPut && sub == "") && r.Method != http.MethodDelete {
		writeError(w, r, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.")
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if sub == "?acl" {
			writeXML(w, r, http.StatusOK, obj.ACL)
			return
		}

		writeObject(w, r, obj)
	case http.MethodPut:
		if sub == "?acl" {
			acl, ok := s.aclFromRequest(w, r, body)
			if !ok {
				return
			}

			obj.ACL = acl
			w.WriteHeader(http.StatusOK)

			return
		}

		s.putObject(w, r, b, key, body)
	case http.MethodDelete:
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, r, http.StatusMethodNotAllowed, "MethodNotAllowed",
			"The specified method is not allowed against this resource.")
	}
}

func (s *Server) putObject(w http.ResponseWriter, r *http.Request, b *bucket, key string, body []byte) {
	if r.ContentLength < 0 {
		writeError(w, r, http.StatusLengthRequired, "MissingContentLength",
			"You must provide the Content-Length HTTP header.")

		return
	}

	if digest := r.Header.Get("Content-MD5"); digest != "" {
		sum := md5.Sum(body) //nolint:gosec
		if digest != base64.StdEncoding.EncodeToString(sum[:]) {
			writeError(w, r, http.StatusBadRequest, "BadDigest",
				"The Content-MD5 you specified did not match what we received.")

			return
		}
	}

	acl, ok := s.aclFromRequest(w, r, nil)
	if !ok {
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}

	metadata := make(map[string]string)

	for name, values := range r.Header {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, "x-amz-meta-") {
			metadata[strings.TrimPrefix(lower, "x-amz-meta-")] = strings.Join(values, ",")
		}
	}

	header := make(http.Header)

	for _, name := range StoredHeaders {
		if value := r.Header.Get(name); value != "" {
			header.Set(name, value)
		}
	}

	obj := s.newObject(body, contentType, metadata, header, acl)
	b.objects[key] = obj

	w.Header().Set("ETag", obj.ETag)
	w.WriteHeader(http.StatusOK)
}

// list writes a version one listing of the given bucket.
func (s *Server) list(w http.ResponseWriter, r *http.Request, name string, b *bucket) {
	var (
		query     = r.URL.Query()
		prefix    = query.Get("prefix")
		delimiter = query.Get("delimiter")
		marker    = query.Get("marker")
		maxKeys   = 1000
	)

	if value := query.Get("max-keys"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			writeError(w, r, http.StatusBadRequest, "InvalidArgument", "Provided max-keys not an integer or within "+
				"integer range")

			return
		}

		maxKeys = parsed
	}

	result := s3xml.ListBucketResult{
		Xmlns:     s3xml.Namespace,
		Name:      name,
		Prefix:    prefix,
		Marker:    marker,
		Delimiter: delimiter,
		MaxKeys:   maxKeys,
	}

	var (
		lastPrefix string
		count      int
	)

	for _, key := range sortedKeys(b.objects) {
		if !strings.HasPrefix(key, prefix) || key <= marker {
			continue
		}

		var common string

		if delimiter != "" {
			if idx := strings.Index(key[len(prefix):], delimiter); idx >= 0 {
				common = key[:len(prefix)+idx+len(delimiter)]
			}
		}

		if common != "" && (common == lastPrefix || common <= marker) {
			continue
		}

		if count >= maxKeys {
			result.IsTruncated = true
			break
		}

		count++

		if common != "" {
			lastPrefix = common
			result.CommonPrefixes = append(result.CommonPrefixes, common)

			continue
		}

		obj := b.objects[key]

		result.Contents = append(result.Contents, s3xml.Contents{
			Key:          key,
			LastModified: s3xml.FormatTime(obj.LastModified),
			ETag:         obj.ETag,
			Size:         int64(len(obj.Data)),
			StorageClass: "STANDARD",
			Owner:        &s.Owner,
		})
	}

	// Like the service, objects are written before common prefixes and 'NextMarker' is only set with a delimiter
	if result.IsTruncated && delimiter != "" {
		result.NextMarker = result.LastKey()
	}

	writeXML(w, r, http.StatusOK, result)
}

// aclFromRequest returns the policy from the given body, or the canned ACL from the 'x-amz-acl' header.
func (s *Server) aclFromRequest(w http.ResponseWriter, r *http.Request, body []byte) (s3xml.AccessControlPolicy, bool) {
	if len(body) != 0 {
		var acl s3xml.AccessControlPolicy
		if err := s3xml.Decode(body, &acl); err != nil {
			writeError(w, r, http.StatusBadRequest, "MalformedACLError", err.Error())
			return s3xml.AccessControlPolicy{}, false
		}

		acl.Xmlns = s3xml.Namespace

		return acl, true
	}

	canned := r.Header.Get("X-Amz-Acl")
	if canned == "" {
		return s.defaultACL(), true
	}

	acl, ok := s.cannedACL(canned)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "InvalidArgument", "Invalid canned ACL: "+canned)
		return s3xml.AccessControlPolicy{}, false
	}

	return acl, true
}

func (s *Server) defaultACL() s3xml.AccessControlPolicy {
	acl, _ := s.cannedACL("private")
	return acl
}

func (s *Server) cannedACL(name string) (s3xml.AccessControlPolicy, bool) {
	acl := s3xml.AccessControlPolicy{
		Xmlns: s3xml.Namespace,
		Owner: s.Owner,
		Grants: []s3xml.Grant{{
			Grantee: s3xml.Grantee{
				Type:        s3xml.GranteeCanonicalUser,
				ID:          s.Owner.ID,
				DisplayName: s.Owner.DisplayName,
			},
			Permission: s3xml.PermissionFullControl,
		}},
	}

	group := func(uri, permission string) s3xml.Grant {
		return s3xml.Grant{Grantee: s3xml.Grantee{Type: s3xml.GranteeGroup, URI: uri}, Permission: permission}
	}

	switch name {
	case "private":
	case "public-read":
		acl.Grants = append(acl.Grants, group(s3xml.GroupAllUsers, s3xml.PermissionRead))
	case "public-read-write":
		acl.Grants = append(acl.Grants,
			group(s3xml.GroupAllUsers, s3xml.PermissionRead),
			group(s3xml.GroupAllUsers, s3xml.PermissionWrite),
		)
	case "authenticated-read":
		acl.Grants = append(acl.Grants, group(s3xml.GroupAuthenticatedUsers, s3xml.PermissionRead))
	default:
		return s3xml.AccessControlPolicy{}, false
	}

	return acl, true
}

func (s *Server) createBucket(name, location string, acl s3xml.AccessControlPolicy) *bucket {
	if b, ok := s.buckets[name]; ok {
		return b
	}

	b := &bucket{
		created:  s.Now().UTC(),
		location: location,
		acl:      acl,
		logging:  s3xml.BucketLoggingStatus{Xmlns: s3xml.Namespace},
		objects:  make(map[string]*StoredObject),
	}

	s.buckets[name] = b

	return b
}

func (s *Server) newObject(
	data []byte,
	contentType string,
	metadata map[string]string,
	header http.Header,
	acl s3xml.AccessControlPolicy,
) *StoredObject {
	sum := md5.Sum(data) //nolint:gosec

	return &StoredObject{
		Data:         append([]byte(nil), data...),
		ContentType:  contentType,
		ETag:         `"` + hex.EncodeToString(sum[:]) + `"`,
		LastModified: s.Now().UTC().Truncate(time.Second),
		Metadata:     metadata,
		Header:       header,
		ACL:          acl,
	}
}

// writeObject writes the headers (and for GET requests, the data) of the given object.
func writeObject(w http.ResponseWriter, r *http.Request, obj *StoredObject) {
	header := w.Header()

	for name, values := range obj.Header {
		header[name] = values
	}

	for name, value := range obj.Metadata {
		header.Set("X-Amz-Meta-"+name, value)
	}

	header.Set("Content-Type", obj.ContentType)
	header.Set("Content-Length", strconv.Itoa(len(obj.Data)))
	header.Set("ETag", obj.ETag)
	header.Set("Last-Modified", obj.LastModified.Format(http.TimeFormat))

	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodGet {
		_, _ = w.Write(obj.Data)
	}
}

// writeXML writes the given document, the body is omitted for HEAD requests.
func writeXML(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := s3xml.Encode(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)

	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}

// writeError writes an error document with the given status/code.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeXML(w, r, status, s3xml.Error{
		Code:      code,
		Message:   message,
		Resource:  r.URL.Path,
		RequestID: w.Header().Get("X-Amz-Request-Id"),
	})
}

// splitPath returns the bucket/key from a path-style request path.
func splitPath(path string) (string, string, bool) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "", "", false
	}

	bucketName, key, found := strings.Cut(trimmed, "/")
	if !found || key == "" {
		return bucketName, "", false
	}

	return bucketName, key, true
}

// subResourceOf returns the signed sub-resource marker found in the given query, if any.
func subResourceOf(query url.Values) string {
	for _, name := range []string{"acl", "location", "logging", "torrent"} {
		if _, ok := query[name]; ok {
			return "?" + name
		}
	}

	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}
