package s3xml

import (
	"encoding/xml"
	"fmt"
)

// Contents describes a single object in a listing.
type Contents struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass,omitempty"`
	Owner        *Owner `xml:"Owner,omitempty"`
}

// ListEntry is either an object or a common prefix.
type ListEntry struct {
	// Contents is populated for object entries.
	Contents *Contents

	// Prefix is populated for common prefix entries.
	Prefix string
}

// IsPrefix returns a boolean indicating whether this entry is a common prefix rather than an object.
func (l ListEntry) IsPrefix() bool {
	return l.Contents == nil
}

// Key returns the object key, or the common prefix.
func (l ListEntry) Key() string {
	if l.IsPrefix() {
		return l.Prefix
	}

	return l.Contents.Key
}

// ListBucketResult is the response to a GET on a bucket (version one listing). The service returns 'Contents' and
// 'CommonPrefixes' as two separately sorted lists, all the objects first.
type ListBucketResult struct {
	Xmlns          string
	Name           string
	Prefix         string
	Marker         string
	NextMarker     string
	Delimiter      string
	MaxKeys        int
	IsTruncated    bool
	Contents       []Contents
	CommonPrefixes []string
}

// Entries returns the objects and common prefixes merged by key, in increasing order.
func (l ListBucketResult) Entries() []ListEntry {
	var (
		entries = make([]ListEntry, 0, len(l.Contents)+len(l.CommonPrefixes))
		c, p    int
	)

	for c < len(l.Contents) || p < len(l.CommonPrefixes) {
		if p >= len(l.CommonPrefixes) || (c < len(l.Contents) && l.Contents[c].Key < l.CommonPrefixes[p]) {
			entries = append(entries, ListEntry{Contents: &l.Contents[c]})
			c++

			continue
		}

		entries = append(entries, ListEntry{Prefix: l.CommonPrefixes[p]})
		p++
	}

	return entries
}

// LastKey returns the largest key or common prefix on the page, or an empty string for an empty page.
func (l ListBucketResult) LastKey() string {
	var last string

	if n := len(l.Contents); n != 0 {
		last = l.Contents[n-1].Key
	}

	if n := len(l.CommonPrefixes); n != 0 && l.CommonPrefixes[n-1] > last {
		last = l.CommonPrefixes[n-1]
	}

	return last
}

type listBucketField struct {
	name  string
	value any
}

func (l *ListBucketResult) fields() []listBucketField {
	return []listBucketField{
		{name: "Name", value: &l.Name},
		{name: "Prefix", value: &l.Prefix},
		{name: "Marker", value: &l.Marker},
		{name: "NextMarker", value: &l.NextMarker},
		{name: "Delimiter", value: &l.Delimiter},
		{name: "MaxKeys", value: &l.MaxKeys},
		{name: "IsTruncated", value: &l.IsTruncated},
	}
}

// UnmarshalXML implements the 'xml.Unmarshaler' interface.
func (l *ListBucketResult) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if start.Name.Local != "ListBucketResult" {
		return fmt.Errorf("expected element <ListBucketResult> but have <%s>", start.Name.Local)
	}

	*l = ListBucketResult{Xmlns: start.Name.Space}

	fields := make(map[string]any)
	for _, field := range l.fields() {
		fields[field.name] = field.value
	}

	for {
		token, err := d.Token()
		if err != nil {
			return err
		}

		switch token := token.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			err = l.decodeChild(d, token, fields)
		}

		if err != nil {
			return err
		}
	}
}

func (l *ListBucketResult) decodeChild(d *xml.Decoder, start xml.StartElement, fields map[string]any) error {
	switch start.Name.Local {
	case "Contents":
		var contents Contents
		if err := d.DecodeElement(&contents, &start); err != nil {
			return err
		}

		l.Contents = append(l.Contents, contents)

		return nil
	case "CommonPrefixes":
		var prefixes struct {
			Prefix []string `xml:"Prefix"`
		}

		if err := d.DecodeElement(&prefixes, &start); err != nil {
			return err
		}

		l.CommonPrefixes = append(l.CommonPrefixes, prefixes.Prefix...)

		return nil
	}

	if value, ok := fields[start.Name.Local]; ok {
		return d.DecodeElement(value, &start)
	}

	return d.Skip()
}

// MarshalXML implements the 'xml.Marshaler' interface, all the objects are written before the common prefixes.
func (l ListBucketResult) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: "ListBucketResult"}}
	if l.Xmlns != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: l.Xmlns})
	}

	if err := e.EncodeToken(start); err != nil {
		return err
	}

	for _, field := range l.fields() {
		if err := e.EncodeElement(field.value, xml.StartElement{Name: xml.Name{Local: field.name}}); err != nil {
			return err
		}
	}

	for i := range l.Contents {
		if err := e.EncodeElement(&l.Contents[i], xml.StartElement{Name: xml.Name{Local: "Contents"}}); err != nil {
			return err
		}
	}

	for _, prefix := range l.CommonPrefixes {
		err := e.EncodeElement(struct {
			Prefix string `xml:"Prefix"`
		}{Prefix: prefix}, xml.StartElement{Name: xml.Name{Local: "CommonPrefixes"}})
		if err != nil {
			return err
		}
	}

	return e.EncodeToken(start.End())
}
