// Package markup holds the source tree the renderer walks and the HTML
// adapter producing it.
package markup

import (
	"strings"

	"h2d/css"
)

// Attr is a single markup attribute, order of attributes is preserved.
type Attr struct {
	Key string
	Val string
}

// Node is an element or a text leaf of the source tree. Text leaves have
// empty Tag. Inline SVG elements keep their serialized markup in Text and
// have no children.
type Node struct {
	Tag      string
	Attrs    []Attr
	Styles   []css.Declaration
	Children []*Node
	Text     string
}

// NewText creates text leaf.
func NewText(text string) *Node {
	return &Node{Text: text}
}

// NewElement creates element node, style attribute (if any) is parsed into
// declarations.
func NewElement(tag string, attrs ...Attr) *Node {
	n := &Node{Tag: strings.ToLower(tag), Attrs: attrs}
	if style, ok := n.Attr("style"); ok {
		n.Styles = css.ParseDeclarations(style)
	}
	return n
}

// Append adds children and returns the node, handy for building trees in code.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// IsText reports whether node is a text leaf.
func (n *Node) IsText() bool {
	return n.Tag == ""
}

// Attr returns attribute value.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns attribute value or def when attribute is absent or blank.
func (n *Node) AttrOr(key, def string) string {
	if v, ok := n.Attr(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// Kind classifies node by its tag.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindSkip
	}
	if n.IsText() {
		return KindText
	}
	return KindOf(n.Tag)
}

// PlainText returns concatenated text of the subtree.
func (n *Node) PlainText() string {
	var b strings.Builder
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.IsText() {
			b.WriteString(cur.Text)
			continue
		}
		if cur.Kind() == KindSkip || cur.Kind() == KindSVG {
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return b.String()
}
