package s3xml

import "encoding/xml"

// Grantee types, used as the 'xsi:type' attribute.
const (
	GranteeCanonicalUser = "CanonicalUser"
	GranteeGroup         = "Group"
	GranteeEmail         = "AmazonCustomerByEmail"
)

// Well-known groups.
const (
	// GroupAllUsers grants access to anyone, including anonymous requests.
	GroupAllUsers = "http://acs.amazonaws.com/groups/global/AllUsers"

	// GroupAuthenticatedUsers grants access to any signed request.
	GroupAuthenticatedUsers = "http://acs.amazonaws.com/groups/global/AuthenticatedUsers"
)

// Permissions as found in a 'Grant'.
const (
	PermissionFullControl = "FULL_CONTROL"
	PermissionRead        = "READ"
	PermissionWrite       = "WRITE"
	PermissionReadACP     = "READ_ACP"
	PermissionWriteACP    = "WRITE_ACP"
)

// AccessControlPolicy is the document read/written via '?acl'.
type AccessControlPolicy struct {
	XMLName xml.Name `xml:"AccessControlPolicy"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	Owner   Owner    `xml:"Owner"`
	Grants  []Grant  `xml:"AccessControlList>Grant"`
}

// Grant assigns a single permission to a grantee.
type Grant struct {
	Grantee    Grantee `xml:"Grantee"`
	Permission string  `xml:"Permission"`
}

// Grantee identifies the receiver of a grant, the populated attributes depend on its type.
type Grantee struct {
	// Type is the 'xsi:type' attribute of the grantee e.g. "CanonicalUser", "Group" or "AmazonCustomerByEmail".
	Type         string
	ID           string
	DisplayName  string
	EmailAddress string
	URI          string
}

type granteeElements struct {
	ID           string `xml:"ID,omitempty"`
	DisplayName  string `xml:"DisplayName,omitempty"`
	EmailAddress string `xml:"EmailAddress,omitempty"`
	URI          string `xml:"URI,omitempty"`
}

// MarshalXML implements the 'xml.Marshaler' interface, writing the type as an 'xsi:type' attribute.
func (g Grantee) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = append(start.Attr,
		xml.Attr{Name: xml.Name{Local: "xmlns:xsi"}, Value: XSINamespace},
		xml.Attr{Name: xml.Name{Local: "xsi:type"}, Value: g.Type},
	)

	return e.EncodeElement(granteeElements{
		ID:           g.ID,
		DisplayName:  g.DisplayName,
		EmailAddress: g.EmailAddress,
		URI:          g.URI,
	}, start)
}

// UnmarshalXML implements the 'xml.Unmarshaler' interface.
func (g *Grantee) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var elements granteeElements
	if err := d.DecodeElement(&elements, &start); err != nil {
		return err
	}

	*g = Grantee{
		ID:           elements.ID,
		DisplayName:  elements.DisplayName,
		EmailAddress: elements.EmailAddress,
		URI:          elements.URI,
	}

	for _, attr := range start.Attr {
		if attr.Name.Local == "type" {
			g.Type = attr.Value
		}
	}

	return nil
}
