package xmltv

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"epgmerge/internal/services"
)

// element is one immediate child of the guide root. Attributes keep document
// order; descendants stay untouched inside Inner.
type element struct {
	Attrs []xml.Attr `xml:",any,attr"`
	Inner []byte     `xml:",innerxml"`
}

// document is the parsed form of a single source payload.
type document struct {
	XMLName    xml.Name
	Attrs      []xml.Attr `xml:",any,attr"`
	Channels   []element  `xml:"channel"`
	Programmes []element  `xml:"programme"`
}

// parseDocument decodes one payload. Feeds declare encodings beyond UTF-8
// (ISO-8859-1, windows-1250, ...), so the decoder resolves charsets through
// the WHATWG index.
func parseDocument(payload []byte) (*document, error) {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	decoder.CharsetReader = charsetReader

	var doc document
	if err := decoder.Decode(&doc); err != nil {
		return nil, services.Wrap(services.ErrParse, "xmltv", "parse", "", err)
	}
	return &doc, nil
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// id returns the channel identifier attribute, empty when absent.
func (e element) id() string {
	for _, attr := range e.Attrs {
		if attr.Name.Local == "id" && attr.Name.Space == "" {
			return attr.Value
		}
	}
	return ""
}

func writeElement(w io.Writer, name string, e element) error {
	var buf bytes.Buffer
	buf.WriteByte('<')
	buf.WriteString(name)
	for _, attr := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(attrName(attr.Name))
		buf.WriteString(`="`)
		if err := xml.EscapeText(&buf, []byte(attr.Value)); err != nil {
			return err
		}
		buf.WriteByte('"')
	}
	if len(e.Inner) == 0 {
		buf.WriteString(" />\n")
	} else {
		buf.WriteByte('>')
		buf.Write(e.Inner)
		buf.WriteString("</")
		buf.WriteString(name)
		buf.WriteString(">\n")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeRootOpen(w io.Writer, attrs []xml.Attr) error {
	var buf bytes.Buffer
	buf.WriteString(xmlDeclaration)
	buf.WriteString("<" + rootName)
	for _, attr := range attrs {
		buf.WriteByte(' ')
		buf.WriteString(attrName(attr.Name))
		buf.WriteString(`="`)
		if err := xml.EscapeText(&buf, []byte(attr.Value)); err != nil {
			return err
		}
		buf.WriteByte('"')
	}
	buf.WriteString(">\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// attrName renders an attribute name. Namespace prefixes other than xmlns are
// collapsed to the local name; XMLTV feeds do not use namespaced attributes.
func attrName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	if name.Space == "xmlns" {
		return "xmlns:" + name.Local
	}
	if strings.Contains(name.Space, "/") {
		return name.Local
	}
	return name.Space + ":" + name.Local
}
