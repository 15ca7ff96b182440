package images

import (
	"strings"

	"github.com/beevik/etree"
)

const svgNamespace = "http://www.w3.org/2000/svg"

var forbiddenSVGElements = map[string]bool{
	"script":        true,
	"foreignobject": true,
	"iframe":        true,
	"handler":       true,
	"listener":      true,
}

// SanitizeSVG removes active content from SVG document: scripts, foreign
// objects, event handler attributes and references to anything but local
// fragments or embedded data. Root element gets SVG namespace if it was
// missing (inline HTML SVG usually omits it).
func SanitizeSVG(svgData []byte) ([]byte, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(svgData); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil || !strings.EqualFold(root.Tag, "svg") {
		return nil, ErrNotSVG
	}

	// drop doctype, comments and processing instructions (which may carry entities)
	for _, tok := range append([]etree.Token(nil), doc.Child...) {
		if tok != root {
			doc.RemoveChild(tok)
		}
	}

	if root.SelectAttr("xmlns") == nil {
		root.CreateAttr("xmlns", svgNamespace)
	}
	if root.SelectAttr("xmlns:xlink") == nil && usesXlink(root) {
		root.CreateAttr("xmlns:xlink", "http://www.w3.org/1999/xlink")
	}

	stack := []*etree.Element{root}
	for len(stack) > 0 {
		el := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range el.ChildElements() {
			if forbiddenSVGElements[strings.ToLower(child.Tag)] {
				el.RemoveChild(child)
				continue
			}
			stack = append(stack, child)
		}

		for _, a := range append([]etree.Attr(nil), el.Attr...) {
			key := strings.ToLower(a.Key)
			switch {
			case strings.HasPrefix(key, "on"):
				el.RemoveAttr(a.FullKey())
			case key == "href" && !safeReference(a.Value):
				el.RemoveAttr(a.FullKey())
			}
		}
	}

	return doc.WriteToBytes()
}

func usesXlink(root *etree.Element) bool {
	stack := []*etree.Element{root}
	for len(stack) > 0 {
		el := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range el.Attr {
			if a.Space == "xlink" {
				return true
			}
		}
		stack = append(stack, el.ChildElements()...)
	}
	return false
}

func safeReference(ref string) bool {
	ref = strings.TrimSpace(strings.ToLower(ref))
	return strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "data:image/")
}
