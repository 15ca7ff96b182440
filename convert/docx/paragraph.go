package docx

import (
	"math"
	"strconv"

	"github.com/beevik/etree"

	"h2d/markup"
)

// paraOpts carry paragraph properties which do not come from the style of
// the block itself.
type paraOpts struct {
	num *NumberingContext
	// continuation indent of list item blocks
	indent int
	// box indents of enclosing block containers
	boxLeft, boxRight int
	// shading of enclosing block container
	boxShading string
	heading    int
	border     BorderSet
	// width is available width in twips, base for percentages
	width int
	// noMargins drops vertical margins (box mode containers)
	noMargins bool
}

var justification = map[string]string{
	"left":    "left",
	"start":   "left",
	"right":   "right",
	"end":     "right",
	"center":  "center",
	"justify": "both",
}

func breakBefore(st Style) bool {
	return st.Keyword("page-break-before") == "always" || st.Keyword("break-before") == "page"
}

func breakAfter(st Style) bool {
	return st.Keyword("page-break-after") == "always" || st.Keyword("break-after") == "page"
}

// paragraph creates w:p with fully resolved properties under parent.
func (s *session) paragraph(parent *etree.Element, st Style, po paraOpts) *etree.Element {
	p := w(parent, "p")
	p.AddChild(s.paragraphProperties(st, po))
	return p
}

func (s *session) paragraphProperties(st Style, po paraOpts) *etree.Element {
	ppr := etree.NewElement("w:pPr")
	if po.heading > 0 {
		w(ppr, "keepNext")
	}
	if s.pageBreak || breakBefore(st) {
		w(ppr, "pageBreakBefore")
		s.pageBreak = false
	}
	if po.num != nil {
		numPr := w(ppr, "numPr")
		wVal(numPr, "ilvl", strconv.Itoa(po.num.Level))
		wVal(numPr, "numId", strconv.Itoa(po.num.NumID))
	}
	po.border.write(ppr, "pBdr")

	fill, ok := st.Background()
	if !ok || st.Inline() {
		fill = po.boxShading
	}
	if fill != "" {
		shading(ppr, fill)
	}
	if st.RTL() {
		w(ppr, "bidi")
	}

	spacing := w(ppr, "spacing")
	before, after := 0, 0
	if !po.noMargins {
		before, _ = st.Length("margin-top", po.width)
		after, _ = st.Length("margin-bottom", po.width)
	}
	wAttr(spacing, "before", max(before, 0))
	wAttr(spacing, "after", max(after, 0))
	if line, rule, ok := lineSpacing(st); ok {
		wAttr(spacing, "line", line)
		spacing.CreateAttr("w:lineRule", rule)
	}

	s.writeIndent(ppr, st, po)

	if jc, ok := justification[st.Keyword("text-align")]; ok {
		wVal(ppr, "jc", jc)
	}
	if po.heading > 0 {
		wVal(ppr, "outlineLvl", strconv.Itoa(po.heading-1))
	}
	return ppr
}

// lineSpacing converts line-height: numbers and percentages are
// proportional, lengths are minimum line height.
func lineSpacing(st Style) (int, string, bool) {
	v, ok := st.Get("line-height")
	if !ok || !v.IsNumeric() || v.Value <= 0 {
		return 0, "", false
	}
	switch v.Unit {
	case "":
		return int(math.Round(v.Value * 240)), autoVal, true
	case "%":
		return int(math.Round(v.Value * 240 / 100)), autoVal, true
	}
	tw, ok := st.Length("line-height", 0)
	if !ok || tw <= 0 {
		return 0, "", false
	}
	return tw, "atLeast", true
}

func (s *session) writeIndent(ppr *etree.Element, st Style, po paraOpts) {
	margin := func(prop string) int {
		v, _ := st.Length(prop, po.width)
		return v
	}
	left := margin("margin-left") + margin("padding-left") + po.indent + po.boxLeft
	right := margin("margin-right") + margin("padding-right") + po.boxRight
	first, _ := st.Length("text-indent", po.width)

	hanging := 0
	if po.num != nil {
		left += s.numbering.levelIndent(po.num.Level)
		hanging = s.opts.Lists.Hanging
		first = 0
	}
	if left == 0 && right == 0 && first == 0 && hanging == 0 {
		return
	}

	ind := w(ppr, "ind")
	wAttr(ind, "left", left)
	wAttr(ind, "right", right)
	switch {
	case hanging > 0:
		wAttr(ind, "hanging", hanging)
	case first > 0:
		wAttr(ind, "firstLine", first)
	case first < 0:
		wAttr(ind, "hanging", -first)
	}
}

// emptyParagraph appends paragraph without runs, used for block level
// line breaks and list items without content.
func (s *session) emptyParagraph(parent *etree.Element, st Style, po paraOpts) *etree.Element {
	p := s.paragraph(parent, st, po)
	s.flushBookmarks(p)
	return p
}

// ruleParagraph renders horizontal rule as empty paragraph with bottom
// border, border declarations of the rule replace the default line.
func (s *session) ruleParagraph(parent *etree.Element, n *markup.Node, st Style, po paraOpts) {
	po.border = BorderSet{EdgeBottom: {Size: 6, Stroke: "single", Color: autoVal}}
	if c, ok := st.Color(); ok {
		po.border[EdgeBottom].Color = c
	}
	if bs := blockBorders(n.Styles); bs != nil {
		po.border = bs
	}
	s.emptyParagraph(parent, st, po)
}
