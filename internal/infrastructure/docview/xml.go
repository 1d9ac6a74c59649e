// Package docview parses raw document bodies into the navigable view the
// ingest pipeline hands to mappers. Trading partners deliver XML; the view
// deliberately exposes only path navigation, so mappers stay independent of
// the parser.
package docview

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/edibridge/backend/internal/application/ingest"
)

// Node is one element of a parsed document
type Node struct {
	name     string
	text     string
	children []*Node
}

// Parse builds a node tree from an XML body. The returned node is the
// document root element.
func Parse(body []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var root *Node
	var stack []*Node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{name: t.Name.Local}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("unbalanced end element")
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("empty document")
	}
	if len(stack) != 0 {
		return nil, errors.New("unterminated element")
	}
	return root, nil
}

// Text implements ingest.DocumentView
func (n *Node) Text(path string) string {
	target := n.first(path)
	if target == nil {
		return ""
	}
	return strings.TrimSpace(target.text)
}

// All implements ingest.DocumentView
func (n *Node) All(path string) []ingest.DocumentView {
	nodes := n.find(path)
	views := make([]ingest.DocumentView, len(nodes))
	for i, c := range nodes {
		views[i] = c
	}
	return views
}

// Exists implements ingest.DocumentView
func (n *Node) Exists(path string) bool {
	return n.first(path) != nil
}

func (n *Node) first(path string) *Node {
	nodes := n.find(path)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// find walks the slash-separated path collecting every match at the final
// segment, in document order
func (n *Node) find(path string) []*Node {
	if path == "" {
		return []*Node{n}
	}
	current := []*Node{n}
	for _, seg := range strings.Split(path, "/") {
		var next []*Node
		for _, c := range current {
			for _, child := range c.children {
				if child.name == seg {
					next = append(next, child)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

var _ ingest.DocumentView = (*Node)(nil)

// XMLParser adapts Parse to the pipeline's Parser contract
type XMLParser struct{}

// Parse implements ingest.Parser
func (XMLParser) Parse(raw ingest.RawDocument) (ingest.DocumentView, error) {
	n, err := Parse(raw.Body)
	if err != nil {
		return nil, &ingest.MalformedDocumentError{
			SourceRef: raw.SourceRef,
			Reason:    "invalid XML",
			Err:       err,
		}
	}
	return n, nil
}

var _ ingest.Parser = XMLParser{}
