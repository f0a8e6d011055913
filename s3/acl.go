package s3

import (
	"context"
	"fmt"
	"net/http"

	"github.com/s3wire/s3wire/s3rest"
	"github.com/s3wire/s3wire/s3xml"
)

// Permission is a set of permission flags granted to a grantee.
type Permission int

const (
	PermissionNone        Permission = 0
	PermissionRead        Permission = 1
	PermissionWrite       Permission = 2
	PermissionReadACP     Permission = 4
	PermissionWriteACP    Permission = 8
	PermissionFullControl Permission = PermissionRead | PermissionWrite | PermissionReadACP | PermissionWriteACP
)

// permissionNames maps each flag to its name in an access control policy; 'FULL_CONTROL' must come first so that it's
// sent as a single grant rather than four.
var permissionNames = []struct {
	flag Permission
	name string
}{
	{flag: PermissionFullControl, name: s3xml.PermissionFullControl},
	{flag: PermissionRead, name: s3xml.PermissionRead},
	{flag: PermissionWrite, name: s3xml.PermissionWrite},
	{flag: PermissionReadACP, name: s3xml.PermissionReadACP},
	{flag: PermissionWriteACP, name: s3xml.PermissionWriteACP},
}

// IDAnonymous is the canonical user id used by the service for unauthenticated requests.
const IDAnonymous = "65a011a29cdf8ec533ec3d1ccaae921c"

// Grantee is the receiver of a permission; canonical users are identified by 'ID', groups by 'URI' and customers by
// 'EmailAddress'.
type Grantee struct {
	Type         string
	ID           string
	DisplayName  string
	EmailAddress string
	URI          string
}

// Well-known groups.
var (
	AllUsers           = Grantee{Type: s3xml.GranteeGroup, URI: s3xml.GroupAllUsers}
	AuthenticatedUsers = Grantee{Type: s3xml.GranteeGroup, URI: s3xml.GroupAuthenticatedUsers}
)

// CanonicalUser returns the grantee for the user with the given canonical id.
func CanonicalUser(id string) Grantee {
	return Grantee{Type: s3xml.GranteeCanonicalUser, ID: id}
}

// CustomerByEmail returns the grantee for the customer with the given email address.
func CustomerByEmail(email string) Grantee {
	return Grantee{Type: s3xml.GranteeEmail, EmailAddress: email}
}

// key returns the value which uniquely identifies the grantee.
func (g Grantee) key() (string, error) {
	var id string

	switch g.Type {
	case s3xml.GranteeCanonicalUser:
		id = g.ID
	case s3xml.GranteeGroup:
		id = g.URI
	case s3xml.GranteeEmail:
		id = g.EmailAddress
	default:
		return "", fmt.Errorf("unknown grantee type '%s'", g.Type)
	}

	if id == "" {
		return "", fmt.Errorf("grantee of type '%s' is missing its identifier", g.Type)
	}

	return g.Type + " " + id, nil
}

type grant struct {
	grantee     Grantee
	permissions Permission
}

// AccessControlList is the set of permissions granted on a bucket/object.
type AccessControlList struct {
	// Owner is the owner of the resource, populated on load.
	Owner s3xml.Owner

	account  *Account
	resource s3rest.Resource
	grants   []*grant
	index    map[string]*grant
}

// NewAccessControlList returns an empty access control list for the given bucket/object.
func NewAccessControlList(account *Account, resource s3rest.Resource) *AccessControlList {
	return &AccessControlList{account: account, resource: resource, index: make(map[string]*grant)}
}

// Grantees returns the grantees in the list, in the order they were first added.
func (a *AccessControlList) Grantees() []Grantee {
	grantees := make([]Grantee, 0, len(a.grants))

	for _, g := range a.grants {
		grantees = append(grantees, g.grantee)
	}

	return grantees
}

// Permissions returns the permissions granted to the given grantee. When implied, the permissions of the groups which
// include a canonical user are merged in; every user is a member of 'AllUsers' and all but the anonymous user are a
// member of 'AuthenticatedUsers'.
func (a *AccessControlList) Permissions(grantee Grantee, implied bool) (Permission, error) {
	key, err := grantee.key()
	if err != nil {
		return PermissionNone, err
	}

	var permissions Permission
	if g, ok := a.index[key]; ok {
		permissions = g.permissions
	}

	if !implied || grantee.Type != s3xml.GranteeCanonicalUser {
		return permissions, nil
	}

	if grantee.ID != IDAnonymous {
		authenticated, _ := a.Permissions(AuthenticatedUsers, false)
		permissions |= authenticated
	}

	all, _ := a.Permissions(AllUsers, false)

	return permissions | all, nil
}

// SetPermissions replaces the permissions granted to the given grantee.
func (a *AccessControlList) SetPermissions(grantee Grantee, permissions Permission) error {
	key, err := grantee.key()
	if err != nil {
		return err
	}

	if g, ok := a.index[key]; ok {
		g.grantee = grantee
		g.permissions = permissions

		return nil
	}

	g := &grant{grantee: grantee, permissions: permissions}

	a.grants = append(a.grants, g)
	a.index[key] = g

	return nil
}

// Load replaces the contents of the list with the one stored by the service.
func (a *AccessControlList) Load(ctx context.Context) error {
	resp, err := a.account.send(ctx, &s3rest.Request{Resource: a.resource, SubResource: "?acl", Method: http.MethodGet})
	if err != nil {
		return err
	}

	var policy s3xml.AccessControlPolicy

	err = a.account.decode(http.MethodGet, a.resource, resp, &policy)
	if err != nil {
		return err
	}

	a.Owner = policy.Owner
	a.grants = nil
	a.index = make(map[string]*grant)

	for _, g := range policy.Grants {
		err = a.addGrant(g)
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *AccessControlList) addGrant(g s3xml.Grant) error {
	var grantee Grantee

	switch g.Grantee.Type {
	case s3xml.GranteeCanonicalUser:
		// NOTE: The display name is empty for the anonymous user
		grantee = Grantee{Type: s3xml.GranteeCanonicalUser, ID: g.Grantee.ID, DisplayName: g.Grantee.DisplayName}
	case s3xml.GranteeGroup:
		grantee = Grantee{Type: s3xml.GranteeGroup, URI: g.Grantee.URI}
	default:
		// Customers by email are converted to canonical users by the service, so they're never returned
		return fmt.Errorf("invalid grantee type '%s'", g.Grantee.Type)
	}

	permission, ok := parsePermission(g.Permission)
	if !ok {
		return fmt.Errorf("invalid permission value '%s'", g.Permission)
	}

	current, err := a.Permissions(grantee, false)
	if err != nil {
		return err
	}

	return a.SetPermissions(grantee, current|permission)
}

// Save replaces the access control list stored by the service.
func (a *AccessControlList) Save(ctx context.Context) error {
	body, err := s3xml.Encode(a.policy())
	if err != nil {
		return err
	}

	_, err = a.account.send(ctx, &s3rest.Request{
		Resource:    a.resource,
		SubResource: "?acl",
		Method:      http.MethodPut,
		Header:      http.Header{"Content-Type": {"application/xml"}},
		Body:        s3rest.NewBody(body),
	})

	return err
}

// policy returns the document describing the list; each grantee receives one grant per permission flag, with
// 'FULL_CONTROL' taking the place of the four flags it includes.
func (a *AccessControlList) policy() s3xml.AccessControlPolicy {
	policy := s3xml.AccessControlPolicy{Xmlns: s3xml.Namespace, Owner: s3xml.Owner{ID: a.Owner.ID}}

	for _, g := range a.grants {
		remaining := g.permissions

		for _, permission := range permissionNames {
			if remaining&permission.flag != permission.flag {
				continue
			}

			remaining ^= permission.flag

			policy.Grants = append(policy.Grants, s3xml.Grant{
				Grantee: s3xml.Grantee{
					Type:         g.grantee.Type,
					ID:           g.grantee.ID,
					EmailAddress: g.grantee.EmailAddress,
					URI:          g.grantee.URI,
				},
				Permission: permission.name,
			})
		}
	}

	return policy
}

// withResource returns a copy of the list which is loaded from/saved to the given resource.
func (a *AccessControlList) withResource(account *Account, resource s3rest.Resource) *AccessControlList {
	cpy := NewAccessControlList(account, resource)
	cpy.Owner = a.Owner

	for _, g := range a.grants {
		_ = cpy.SetPermissions(g.grantee, g.permissions)
	}

	return cpy
}

func parsePermission(name string) (Permission, bool) {
	for _, permission := range permissionNames {
		if permission.name == name {
			return permission.flag, true
		}
	}

	return PermissionNone, false
}
