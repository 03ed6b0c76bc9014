// Package xbrl parses XBRL instance documents into a typed context table and
// fact table, and resolves which contexts describe a given fiscal year.
package xbrl

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Node is one element of a parsed XBRL instance.
type Node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Children []*Node
	Text     string
}

// Attr returns the value of the attribute with the given local name.
func (n *Node) Attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first direct child with the given local name.
func (n *Node) Child(local string) *Node {
	for _, c := range n.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

// ParseTree reads an XBRL instance into a Node tree. Character data is kept
// only on the element that directly contains it.
func ParseTree(r io.Reader) (*Node, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	var root *Node
	var stack []*Node
	var text [][]byte

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XBRL XML: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name, Attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("failed to parse XBRL XML: multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			text = append(text, nil)
		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1] = append(text[len(text)-1], t...)
			}
		case xml.EndElement:
			n := stack[len(stack)-1]
			n.Text = strings.TrimSpace(string(text[len(text)-1]))
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		}
	}

	if root == nil {
		return nil, fmt.Errorf("failed to parse XBRL XML: empty document")
	}
	return root, nil
}

// Instance is a parsed XBRL instance with its tables built.
type Instance struct {
	Root     *Node
	Contexts ContextTable
	Facts    FactTable
}

// Parse parses raw XBRL text and builds its context and fact tables.
func Parse(r io.Reader) (*Instance, error) {
	root, err := ParseTree(r)
	if err != nil {
		return nil, err
	}
	contexts, err := BuildContextTable(root)
	if err != nil {
		return nil, err
	}
	return &Instance{
		Root:     root,
		Contexts: contexts,
		Facts:    BuildFactTable(root),
	}, nil
}

// ParseString is Parse for in-memory XBRL text.
func ParseString(s string) (*Instance, error) {
	return Parse(strings.NewReader(s))
}
