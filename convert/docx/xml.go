package docx

import (
	"strconv"

	"github.com/beevik/etree"
)

// XML namespaces used by produced parts.
const (
	NSW     = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NSR     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSWP    = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	NSA     = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NSPic   = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	NSASVG  = "http://schemas.microsoft.com/office/drawing/2016/SVG/main"
	NSMC    = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	svgExt  = "{96DAC541-7B7A-43D3-8B79-37D633B846F1}"
	picURI  = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	autoVal = "auto"
)

// rootNamespaces are declared on every part root element.
var rootNamespaces = [...][2]string{
	{"xmlns:w", NSW},
	{"xmlns:r", NSR},
	{"xmlns:wp", NSWP},
	{"xmlns:a", NSA},
	{"xmlns:pic", NSPic},
	{"xmlns:asvg", NSASVG},
	{"xmlns:mc", NSMC},
}

func declareNamespaces(el *etree.Element) {
	for _, ns := range rootNamespaces {
		el.CreateAttr(ns[0], ns[1])
	}
	el.CreateAttr("mc:Ignorable", "asvg")
}

// w creates WordprocessingML child element.
func w(parent *etree.Element, tag string) *etree.Element {
	return parent.CreateElement("w:" + tag)
}

// wVal creates child element with w:val attribute.
func wVal(parent *etree.Element, tag, val string) *etree.Element {
	el := w(parent, tag)
	el.CreateAttr("w:val", val)
	return el
}

func wAttr(el *etree.Element, key string, val int) {
	el.CreateAttr("w:"+key, strconv.Itoa(val))
}

// wWidth creates measurement element (tblW, tcW, w:top of tcMar...) in twips.
func wWidth(parent *etree.Element, tag string, twips int, kind string) *etree.Element {
	el := w(parent, tag)
	wAttr(el, "w", twips)
	el.CreateAttr("w:type", kind)
	return el
}

// ensureChild returns first child with tag creating it as the first child
// when missing: property containers (pPr, rPr, tcPr) must precede content.
func ensureChild(parent *etree.Element, tag string) *etree.Element {
	if el := parent.SelectElement(tag); el != nil {
		return el
	}
	el := etree.NewElement(tag)
	parent.InsertChildAt(0, el)
	return el
}

// hasContent reports whether paragraph or run container has anything besides
// properties.
func hasContent(el *etree.Element) bool {
	for _, c := range el.ChildElements() {
		switch c.Tag {
		case "pPr", "rPr":
			continue
		}
		return true
	}
	return false
}
