// Package xml is the XML pkg/codec collaborator. No third-party XML
// tree-to-generic-value library appears anywhere in the retrieved pack
// (vendored or required); encoding/xml's Decoder.Token stream is the only
// available route to a schemaless value tree, so this collaborator is
// grounded on the standard library by necessity, not convenience.
//
// An XML element decodes to a Map with four fixed keys: "tag" (the
// element name), "attrs" (a Map of attribute name to String), "text" (the
// concatenation of the element's direct character data, with leading and
// trailing whitespace trimmed), and "children"
// (an Array of child element Maps, in document order). This mirrors the
// conventional XML-to-JSON shape used by most such bridges, since XML has
// no native notion of a bare value tree the way JSON/YAML/TOML do.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/thehowl/semdiff/internal/value"
)

// Decode parses data as XML into a value.Value using the tag/attrs/text/
// children convention documented above.
func Decode(data []byte) (value.Value, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return value.Value{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return decodeElement(dec, start)
		}
	}
}

func decodeElement(dec *xml.Decoder, start xml.StartElement) (value.Value, error) {
	attrs := make(map[string]value.Value, len(start.Attr))
	for _, a := range start.Attr {
		attrs[a.Name.Local] = value.String(a.Value)
	}

	var text strings.Builder
	var children []value.Value

	for {
		tok, err := dec.Token()
		if err != nil {
			return value.Value{}, fmt.Errorf("xml: decoding <%s>: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return value.Value{}, err
			}
			children = append(children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			return value.Map(map[string]value.Value{
				"tag":      value.String(start.Name.Local),
				"attrs":    value.Map(attrs),
				"text":     value.String(strings.TrimSpace(text.String())),
				"children": value.Array(children),
			}), nil
		}
	}
}

// Encode renders v as XML. v must follow the tag/attrs/text/children
// convention Decode produces.
func Encode(v value.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := encodeElement(enc, v); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeElement(enc *xml.Encoder, v value.Value) error {
	if v.Kind() != value.KindMap {
		return fmt.Errorf("xml: expected a Map with tag/attrs/text/children, got %s", v.Kind())
	}
	entries := v.Entries()
	tagVal, ok := entries["tag"]
	if !ok || tagVal.Kind() != value.KindString {
		return fmt.Errorf("xml: Map missing string \"tag\" key")
	}

	start := xml.StartElement{Name: xml.Name{Local: tagVal.StringValue()}}
	if attrs, ok := entries["attrs"]; ok && attrs.Kind() == value.KindMap {
		for _, k := range attrs.SortedKeys() {
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: k}, Value: attrs.Entries()[k].StringValue()})
		}
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	if textVal, ok := entries["text"]; ok && textVal.Kind() == value.KindString && textVal.StringValue() != "" {
		if err := enc.EncodeToken(xml.CharData(textVal.StringValue())); err != nil {
			return err
		}
	}

	if childrenVal, ok := entries["children"]; ok && childrenVal.Kind() == value.KindArray {
		for _, child := range childrenVal.Elements() {
			if err := encodeElement(enc, child); err != nil {
				return err
			}
		}
	}

	return enc.EncodeToken(xml.EndElement{Name: start.Name})
}
