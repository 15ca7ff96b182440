package docx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"h2d/css"
	"h2d/markup"
)

// Edge names one side of a box.
type Edge int

// Edges in schema order of w:tblBorders/w:tcBorders/w:pBdr.
const (
	EdgeTop Edge = iota
	EdgeLeft
	EdgeBottom
	EdgeRight
	EdgeInsideH
	EdgeInsideV
	edgeCount
)

var edgeNames = [...]string{
	EdgeTop:     "top",
	EdgeLeft:    "left",
	EdgeBottom:  "bottom",
	EdgeRight:   "right",
	EdgeInsideH: "insideH",
	EdgeInsideV: "insideV",
}

func (e Edge) String() string {
	if e >= 0 && e < edgeCount {
		return edgeNames[e]
	}
	return "unknown"
}

// css box side names in the order top, right, bottom, left
var boxSides = [...]struct {
	name string
	edge Edge
}{
	{"top", EdgeTop},
	{"right", EdgeRight},
	{"bottom", EdgeBottom},
	{"left", EdgeLeft},
}

const (
	strokeNil     = "nil"
	mediumEighths = 3 * css.EighthsPerPx
	minEighths    = 2
	maxEighths    = 96
)

// Border is resolved border of a single edge. Size is in eighths of a point.
type Border struct {
	Size   int
	Stroke string
	Color  string
}

// Visible reports whether the edge is drawn.
func (b *Border) Visible() bool {
	return b != nil && b.Stroke != strokeNil && b.Size > 0
}

// BorderSet holds independent per-edge borders. Nil edge means no border was
// declared, non-nil edge with nil stroke is explicitly suppressed.
type BorderSet map[Edge]*Border

// Clone returns deep copy so edges can be changed independently.
func (bs BorderSet) Clone() BorderSet {
	out := make(BorderSet, len(bs))
	for e, b := range bs {
		if b != nil {
			c := *b
			out[e] = &c
		}
	}
	return out
}

// Empty reports whether no edge is declared.
func (bs BorderSet) Empty() bool {
	for _, b := range bs {
		if b != nil {
			return false
		}
	}
	return true
}

// write emits edges in schema order under container tag, nothing is created
// when set is empty.
func (bs BorderSet) write(parent *etree.Element, tag string) {
	if bs.Empty() {
		return
	}
	el := w(parent, tag)
	for e := range edgeCount {
		b := bs[e]
		if b == nil {
			continue
		}
		edge := w(el, e.String())
		if !b.Visible() {
			edge.CreateAttr("w:val", strokeNil)
			continue
		}
		edge.CreateAttr("w:val", b.Stroke)
		wAttr(edge, "sz", b.Size)
		edge.CreateAttr("w:space", "0")
		edge.CreateAttr("w:color", b.Color)
	}
}

var borderStrokes = map[string]string{
	"solid":  "single",
	"dashed": "dashed",
	"dotted": "dotted",
	"double": "double",
	"groove": "threeDEngrave",
	"ridge":  "threeDEmboss",
	"inset":  "inset",
	"outset": "outset",
	"none":   strokeNil,
	"hidden": strokeNil,
}

// borderPatch is a partial per-edge overlay: only parts that were declared
// are set.
type borderPatch struct {
	size   *int
	stroke *string
	color  *string
}

func (p borderPatch) empty() bool {
	return p.size == nil && p.stroke == nil && p.color == nil
}

// borderPatches holds patches for top, left, bottom and right edges.
type borderPatches [4]borderPatch

func (ps *borderPatches) empty() bool {
	for _, p := range ps {
		if !p.empty() {
			return false
		}
	}
	return true
}

// apply overlays patch on base edge. Parts not declared are kept from base;
// a missing base starts as CSS initial border (medium, no style, auto color).
func (p borderPatch) apply(base *Border) *Border {
	if p.empty() {
		return base
	}
	b := Border{Size: mediumEighths, Stroke: strokeNil, Color: autoVal}
	if base != nil {
		b = *base
		if !base.Visible() {
			b.Size = mediumEighths
		}
	}
	if p.size != nil {
		b.Size = *p.size
	}
	if p.stroke != nil {
		b.Stroke = *p.stroke
	}
	if p.color != nil {
		b.Color = *p.color
	}
	if b.Stroke == strokeNil || b.Size <= 0 {
		return &Border{Stroke: strokeNil, Color: autoVal}
	}
	b.Size = min(max(b.Size, minEighths), maxEighths)
	return &b
}

func ptr[T any](v T) *T { return &v }

func parseBorderWidth(raw string) (int, bool) {
	return css.ToEighths(css.ParseValue(raw))
}

func parseBorderStroke(raw string) (string, bool) {
	s, ok := borderStrokes[strings.ToLower(raw)]
	return s, ok
}

func parseBorderColor(raw string) (string, bool) {
	if strings.EqualFold(raw, "currentcolor") || strings.EqualFold(raw, "auto") {
		return autoVal, true
	}
	return css.ParseColor(raw)
}

// parseBorderShorthand handles "border" and "border-<side>": omitted parts
// are reset to initial values.
func parseBorderShorthand(raw string) borderPatch {
	size, stroke, color := mediumEighths, strokeNil, autoVal
	for _, part := range css.SplitShorthand(raw) {
		if s, ok := parseBorderStroke(part); ok {
			stroke = s
		} else if sz, ok := parseBorderWidth(part); ok {
			size = sz
		} else if c, ok := parseBorderColor(part); ok {
			color = c
		}
	}
	return borderPatch{size: &size, stroke: &stroke, color: &color}
}

// boxParts expands 1-4 value box shorthand into top, right, bottom, left.
func boxParts(raw string) ([4]string, bool) {
	parts := css.SplitShorthand(raw)
	switch len(parts) {
	case 1:
		return [4]string{parts[0], parts[0], parts[0], parts[0]}, true
	case 2:
		return [4]string{parts[0], parts[1], parts[0], parts[1]}, true
	case 3:
		return [4]string{parts[0], parts[1], parts[2], parts[1]}, true
	case 4:
		return [4]string{parts[0], parts[1], parts[2], parts[3]}, true
	}
	return [4]string{}, false
}

// setPart assigns one border part from raw value to the edge patch.
func (p *borderPatch) setPart(part, raw string) {
	switch part {
	case "width":
		if v, ok := parseBorderWidth(raw); ok {
			p.size = ptr(v)
		}
	case "style":
		if v, ok := parseBorderStroke(raw); ok {
			p.stroke = ptr(v)
		}
	case "color":
		if v, ok := parseBorderColor(raw); ok {
			p.color = ptr(v)
		}
	}
}

func sideIndex(side string) (int, bool) {
	for _, s := range boxSides {
		if s.name == side {
			return int(s.edge), true
		}
	}
	return 0, false
}

// borderPatchesOf collects border overlays from declarations. Declarations
// are applied in source order (!important ones last) so between shorthand
// and longhand the later one wins.
func borderPatchesOf(decls []css.Declaration) borderPatches {
	var ps borderPatches
	for _, d := range orderedDeclarations(decls) {
		prop, raw := d.Property, d.Value.Raw
		if !strings.HasPrefix(prop, "border") {
			continue
		}
		switch prop {
		case "border":
			p := parseBorderShorthand(raw)
			for i := range ps {
				ps[i] = p
			}
			continue
		case "border-width", "border-style", "border-color":
			vals, ok := boxParts(raw)
			if !ok {
				continue
			}
			part := strings.TrimPrefix(prop, "border-")
			for i, s := range boxSides {
				ps[s.edge].setPart(part, vals[i])
			}
			continue
		}
		rest, ok := strings.CutPrefix(prop, "border-")
		if !ok {
			continue
		}
		side, part, _ := strings.Cut(rest, "-")
		i, ok := sideIndex(side)
		if !ok {
			continue
		}
		if part == "" {
			ps[i] = parseBorderShorthand(raw)
			continue
		}
		ps[i].setPart(part, raw)
	}
	return ps
}

// orderedDeclarations returns declarations by source index with !important
// ones moved after normal ones.
func orderedDeclarations(decls []css.Declaration) []css.Declaration {
	out := make([]css.Declaration, 0, len(decls))
	for _, d := range decls {
		if !d.Important {
			out = append(out, d)
		}
	}
	for _, d := range decls {
		if d.Important {
			out = append(out, d)
		}
	}
	return out
}

// cellPos gates which table edges apply to a cell.
type cellPos struct {
	firstRow, lastRow bool
	firstCol, lastCol bool
}

// tableBorders are resolved per-table border defaults: outer edges and
// interior defaults (insideH/insideV) coming from HTML border attribute.
type tableBorders struct {
	edges BorderSet
}

// newTableBorders resolves table level borders from HTML border attribute
// and table declarations. Attribute sets outer edges to N px single and
// enables interior defaults, style declarations override outer edges.
func newTableBorders(n *markup.Node, def Border) tableBorders {
	tb := tableBorders{edges: make(BorderSet)}
	if v, ok := n.Attr("border"); ok {
		px, err := strconv.Atoi(strings.TrimSpace(v))
		if strings.TrimSpace(v) == "" {
			px, err = 1, nil
		}
		if err == nil && px > 0 {
			outer := Border{Size: min(max(px*css.EighthsPerPx, minEighths), maxEighths), Stroke: "single", Color: autoVal}
			for _, e := range []Edge{EdgeTop, EdgeLeft, EdgeBottom, EdgeRight} {
				tb.edges[e] = ptr(outer)
			}
			tb.edges[EdgeInsideH] = ptr(def)
			tb.edges[EdgeInsideV] = ptr(def)
		}
	}
	ps := borderPatchesOf(n.Styles)
	for i, p := range ps {
		if b := p.apply(tb.edges[Edge(i)]); b != nil {
			tb.edges[Edge(i)] = b
		}
	}
	return tb
}

// resolveCellBorders computes effective cell borders: table edge (gated by
// grid position) or interior default, then row overlay (top and bottom for
// every cell, left only in the first column, right only in the last), then
// cell own overlay. Pure function of its inputs.
func resolveCellBorders(tb tableBorders, row, cell borderPatches, pos cellPos) BorderSet {
	pick := func(outer bool, outerEdge, inner Edge) *Border {
		if outer {
			return tb.edges[outerEdge]
		}
		return tb.edges[inner]
	}
	out := BorderSet{
		EdgeTop:    pick(pos.firstRow, EdgeTop, EdgeInsideH),
		EdgeBottom: pick(pos.lastRow, EdgeBottom, EdgeInsideH),
		EdgeLeft:   pick(pos.firstCol, EdgeLeft, EdgeInsideV),
		EdgeRight:  pick(pos.lastCol, EdgeRight, EdgeInsideV),
	}.Clone()

	rowEdges := []Edge{EdgeTop, EdgeBottom}
	if pos.firstCol {
		rowEdges = append(rowEdges, EdgeLeft)
	}
	if pos.lastCol {
		rowEdges = append(rowEdges, EdgeRight)
	}
	for _, e := range rowEdges {
		if b := row[e].apply(out[e]); b != nil {
			out[e] = b
		}
	}
	for e := EdgeTop; e <= EdgeRight; e++ {
		if b := cell[e].apply(out[e]); b != nil {
			out[e] = b
		}
	}
	for e, b := range out {
		if b == nil {
			delete(out, e)
		}
	}
	return out
}

// continuationBorders derives borders of a vertically merged placeholder
// cell: same as its origin except the top edge.
func continuationBorders(origin BorderSet) BorderSet {
	out := origin.Clone()
	delete(out, EdgeTop)
	return out
}

// blockBorders returns paragraph borders (w:pBdr) declared on block element.
func blockBorders(decls []css.Declaration) BorderSet {
	ps := borderPatchesOf(decls)
	if ps.empty() {
		return nil
	}
	out := make(BorderSet)
	for i, p := range ps {
		if b := p.apply(nil); b != nil && b.Visible() {
			out[Edge(i)] = b
		}
	}
	return out
}
