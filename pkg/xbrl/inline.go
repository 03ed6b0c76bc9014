package xbrl

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

// InlineNamespace is the Inline XBRL 1.1 namespace declared by iXBRL
// (XHTML) documents.
const InlineNamespace = "http://www.xbrl.org/2013/inlineXBRL"

// IsInline reports whether text is an Inline XBRL document rather than an
// XBRL instance.
func IsInline(text string) bool {
	return strings.Contains(text, InlineNamespace)
}

// ParseDocument parses text as an Inline XBRL document or an XBRL instance,
// whichever it is.
func ParseDocument(text string) (*Instance, error) {
	if IsInline(text) {
		return ParseInline(strings.NewReader(text))
	}
	return ParseString(text)
}

// ParseInline reads an Inline XBRL document. EDINET splits a report across
// several _ixbrl.htm files; their concatenation parses as one document.
//
// Contexts are rebuilt as Nodes under a synthetic root so they share the
// instance path. ix:nonFraction values are normalised to plain decimals with
// format, scale and sign applied. ix:nonNumeric facts keep their text. Fact
// namespaces are the document's prefixes, not URIs.
func ParseInline(r io.Reader) (*Instance, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse inline XBRL: %w", err)
	}

	root := &Node{Name: xml.Name{Local: "xbrl"}}
	table := FactTable{}
	collectInline(doc, root, table)

	contexts, err := BuildContextTable(root)
	if err != nil {
		return nil, err
	}
	return &Instance{Root: root, Contexts: contexts, Facts: table}, nil
}

// collectInline walks the HTML tree for namespaced elements. html
// lowercases tag and attribute names.
func collectInline(n *html.Node, root *Node, table FactTable) {
	if n.Type == html.ElementNode && strings.Contains(n.Data, ":") {
		switch n.Data {
		case "xbrli:context":
			root.Children = append(root.Children, toNode(n))
			return
		case "ix:nonfraction":
			f := nonFraction(n)
			table[f.ElementName] = append(table[f.ElementName], f)
			return
		case "ix:nonnumeric":
			f := inlineFact(n)
			f.RawValue = textContent(n)
			table[f.ElementName] = append(table[f.ElementName], f)
			// text blocks wrap tables that carry their own facts
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectInline(c, root, table)
	}
}

// html lowercases element names; these are the ones looked up by their
// XBRL spelling.
var camelNames = map[string]string{
	"startdate":      "startDate",
	"enddate":        "endDate",
	"explicitmember": "explicitMember",
	"typedmember":    "typedMember",
}

func toNode(h *html.Node) *Node {
	space, local := splitQName(h.Data)
	if camel, ok := camelNames[local]; ok {
		local = camel
	}
	n := &Node{Name: xml.Name{Space: space, Local: local}}
	for _, a := range h.Attr {
		n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Space: a.Namespace, Local: a.Key}, Value: a.Val})
	}

	var text strings.Builder
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			n.Children = append(n.Children, toNode(c))
		case html.TextNode:
			text.WriteString(c.Data)
		}
	}
	n.Text = strings.TrimSpace(text.String())
	return n
}

func inlineFact(n *html.Node) Fact {
	space, local := splitQName(htmlAttr(n, "name"))
	f := Fact{
		ElementName: local,
		Namespace:   space,
		ContextID:   strings.TrimSpace(htmlAttr(n, "contextref")),
		UnitRef:     htmlAttr(n, "unitref"),
		Decimals:    htmlAttr(n, "decimals"),
	}
	if v := htmlAttr(n, "xsi:nil"); v == "true" || v == "1" {
		f.Nil = true
	}
	return f
}

func nonFraction(n *html.Node) Fact {
	f := inlineFact(n)
	if f.Nil {
		return f
	}
	raw := textContent(n)
	if v, ok := inlineNumber(raw, htmlAttr(n, "format"), htmlAttr(n, "scale"), htmlAttr(n, "sign") == "-"); ok {
		f.RawValue = v
	} else {
		// left for the resolver to skip as unparsable
		f.RawValue = raw
	}
	return f
}

// inlineNumber applies an ixt number format, a power-of-ten scale and a
// sign to the displayed text of an ix:nonFraction.
func inlineNumber(raw, format, scale string, negative bool) (string, bool) {
	// △ and ▲ only display the sign attribute
	s := strings.NewReplacer("△", "", "▲", "").Replace(strings.TrimSpace(raw))
	_, format = splitQName(format)
	switch format {
	case "zerodash", "fixed-zero", "fixedzero":
		s = "0"
	case "numcommadecimal", "num-comma-decimal":
		s = strings.NewReplacer(".", "", " ", "", "\u00a0", "").Replace(s)
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", false
	}
	if scale != "" {
		exp, err := strconv.Atoi(scale)
		if err != nil {
			return "", false
		}
		d = d.Shift(int32(exp))
	}
	if negative {
		d = d.Neg()
	}
	return d.String(), true
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func htmlAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func splitQName(name string) (space, local string) {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
