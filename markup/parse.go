package markup

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"h2d/css"
)

// Document is a parsed HTML page.
type Document struct {
	Title string
	Lang  string
	// Base is the href of <base> element, used to resolve relative image references.
	Base string
	Body *Node
}

// Parse reads HTML page in any encoding (detected from contentType, BOM or
// meta tags) and converts its body into source tree.
func Parse(r io.Reader, contentType string, log *zap.Logger) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("markup")

	rr, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("unable to detect document encoding: %w", err)
	}
	root, err := html.Parse(rr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse HTML: %w", err)
	}

	doc := &Document{}
	var body *html.Node
	walkHTML(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.DataAtom {
		case atom.Html:
			doc.Lang = htmlAttr(n, "lang")
		case atom.Title:
			if doc.Title == "" {
				doc.Title = strings.Join(strings.Fields(textContent(n)), " ")
			}
			return false
		case atom.Base:
			if doc.Base == "" {
				doc.Base = htmlAttr(n, "href")
			}
		case atom.Body:
			if body == nil {
				body = n
			}
			return false
		case atom.Svg, atom.Script, atom.Style:
			return false
		}
		return true
	})
	if body == nil {
		// html.Parse always synthesizes body, this is just in case
		body = root
	}

	doc.Body = convertTree(body, css.NewParser(log))
	doc.Body.Tag = "body"
	log.Debug("Parsed document", zap.String("title", doc.Title), zap.String("lang", doc.Lang), zap.Int("top-level", len(doc.Body.Children)))
	return doc, nil
}

// ParseFragment parses HTML snippet (header or footer content) as if it was
// body content.
func ParseFragment(r io.Reader, log *zap.Logger) (*Node, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("markup")

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("unable to parse HTML fragment: %w", err)
	}
	for _, n := range nodes {
		context.AppendChild(n)
	}
	return convertTree(context, css.NewParser(log)), nil
}

// walkHTML visits nodes in document order; returning false from fn skips
// children of the node.
func walkHTML(root *html.Node, fn func(*html.Node) bool) {
	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for c := n.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
}

func htmlAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walkHTML(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func convertElement(src *html.Node, p *css.Parser) *Node {
	n := &Node{Tag: strings.ToLower(src.Data)}
	for _, a := range src.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + a.Key
		}
		n.Attrs = append(n.Attrs, Attr{Key: key, Val: a.Val})
		if strings.EqualFold(a.Key, "style") && a.Namespace == "" {
			n.Styles = p.ParseInline(a.Val)
		}
	}
	return n
}

// convertTree converts html subtree without recursion, siblings order is kept
// because every parent appends all of its children in a single pass.
func convertTree(src *html.Node, p *css.Parser) *Node {
	type pending struct {
		src *html.Node
		dst *Node
	}

	root := convertElement(src, p)
	stack := []pending{{src: src, dst: root}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for c := cur.src.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				cur.dst.Children = append(cur.dst.Children, NewText(c.Data))
			case html.ElementNode:
				n := convertElement(c, p)
				cur.dst.Children = append(cur.dst.Children, n)
				switch n.Kind() {
				case KindSVG:
					n.Text = renderSVG(c)
				case KindSkip:
				default:
					stack = append(stack, pending{src: c, dst: n})
				}
			}
		}
	}
	return root
}

func renderSVG(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}
