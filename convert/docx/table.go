package docx

import (
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"h2d/css"
	"h2d/markup"
)

const (
	maxSpan        = 1000
	minColumnWidth = 360
)

// tableRow is source row with its cascaded style.
type tableRow struct {
	node   *markup.Node
	style  Style
	header bool
	cells  []*markup.Node
}

// placedCell is cell positioned on the grid. Continuation placeholders of
// row spans have origin set, padding cells have neither node nor origin.
type placedCell struct {
	node    *markup.Node
	col     int
	colSpan int
	rowSpan int
	origin  *placedCell
	style   Style
	borders BorderSet
}

// pendingSpan is row span still covering following rows.
type pendingSpan struct {
	remaining int
	colSpan   int
	origin    *placedCell
}

// rowSpanMap tracks pending spans by starting column, scoped to one table.
type rowSpanMap map[int]*pendingSpan

// nextAtOrAfter returns smallest column with pending span not before col.
func (m rowSpanMap) nextAtOrAfter(col int) (int, bool) {
	next, found := 0, false
	for c := range m {
		if c >= col && (!found || c < next) {
			next, found = c, true
		}
	}
	return next, found
}

func spanAttr(n *markup.Node, name string, def int) int {
	v, ok := n.Attr(name)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || i < 0 {
		return def
	}
	return min(i, maxSpan)
}

// collectRows gathers rows in rendering order: header section rows first,
// then body and direct rows, footer rows last.
func collectRows(table *markup.Node, st Style) (rows []tableRow, caption *markup.Node) {
	var head, body, foot []tableRow
	addRows := func(dst *[]tableRow, section *markup.Node, sectionStyle Style, header bool) {
		for _, tr := range section.Children {
			if tr.Kind() != markup.KindRow {
				continue
			}
			rs := sectionStyle.Cascade(tr)
			if rs.Hidden() {
				continue
			}
			row := tableRow{node: tr, style: rs, header: header}
			for _, c := range tr.Children {
				if c.Kind() == markup.KindCell {
					row.cells = append(row.cells, c)
				}
			}
			*dst = append(*dst, row)
		}
	}

	for _, c := range table.Children {
		switch c.Kind() {
		case markup.KindCaption:
			if caption == nil {
				caption = c
			}
		case markup.KindRow:
			addRows(&body, &markup.Node{Children: []*markup.Node{c}}, st, false)
		case markup.KindTableSection:
			ss := st.Cascade(c)
			if ss.Hidden() {
				continue
			}
			switch c.Tag {
			case "thead":
				addRows(&head, c, ss, true)
			case "tfoot":
				addRows(&foot, c, ss, false)
			default:
				addRows(&body, c, ss, false)
			}
		}
	}

	rows = slices.Concat(head, body, foot)
	return rows, caption
}

// layoutRows places cells on the grid. Every returned row covers exactly
// grid columns: missing cells are padded, grid is widened when a row needs
// more columns than declared.
func layoutRows(rows []tableRow, declared int, log *zap.Logger) ([][]*placedCell, int) {
	spans := make(rowSpanMap)
	placed := make([][]*placedCell, len(rows))
	widths := make([]int, len(rows))

	for ri, row := range rows {
		var (
			cells []*placedCell
			col   int
		)
		drain := func() {
			for {
				ps, ok := spans[col]
				if !ok {
					return
				}
				cells = append(cells, &placedCell{col: col, colSpan: ps.colSpan, origin: ps.origin})
				if ps.remaining--; ps.remaining == 0 {
					delete(spans, col)
				}
				col += ps.colSpan
			}
		}
		left := len(rows) - ri

		for _, c := range row.cells {
			drain()
			cs := max(spanAttr(c, "colspan", 1), 1)
			rs := spanAttr(c, "rowspan", 1)
			if rs == 0 || rs > left {
				rs = left
			}
			if next, ok := spans.nextAtOrAfter(col); ok && col+cs > next {
				cs = next - col
			}
			pc := &placedCell{node: c, col: col, colSpan: cs, rowSpan: rs}
			if rs > 1 {
				spans[col] = &pendingSpan{remaining: rs - 1, colSpan: cs, origin: pc}
			}
			cells = append(cells, pc)
			col += cs
		}
		for {
			drain()
			next, ok := spans.nextAtOrAfter(col)
			if !ok {
				break
			}
			cells = append(cells, &placedCell{col: col, colSpan: next - col})
			col = next
		}
		placed[ri], widths[ri] = cells, col
	}

	grid := declared
	if grid <= 0 && len(widths) > 0 {
		grid = widths[0]
	}
	if widest := slices.Max(append(widths, 0)); widest > grid {
		log.Warn("Table row is wider than declared grid, widening", zap.Int("declared", grid), zap.Int("columns", widest))
		grid = widest
	}
	for ri := range placed {
		if widths[ri] < grid {
			placed[ri] = append(placed[ri], &placedCell{col: widths[ri], colSpan: grid - widths[ri]})
		}
	}
	return placed, grid
}

// declaredColumns returns columns declared by colgroup/col elements with
// their widths (0 when unknown).
func declaredColumns(table *markup.Node, st Style, tableWidth int) []int {
	var cols []int
	add := func(col *markup.Node, parent Style) {
		cs := parent.Cascade(col)
		width := cellWidth(col, cs, tableWidth)
		for range max(spanAttr(col, "span", 1), 1) {
			cols = append(cols, width)
		}
	}
	for _, c := range table.Children {
		switch c.Kind() {
		case markup.KindColGroup:
			gs := st.Cascade(c)
			if !slices.ContainsFunc(c.Children, func(n *markup.Node) bool { return n.Kind() == markup.KindCol }) {
				add(c, st)
				continue
			}
			for _, col := range c.Children {
				if col.Kind() == markup.KindCol {
					add(col, gs)
				}
			}
		case markup.KindCol:
			add(c, st)
		}
	}
	return cols
}

// cellWidth returns declared width of cell or column in twips.
func cellWidth(n *markup.Node, st Style, base int) int {
	if tw, ok := st.Length("width", base); ok && tw > 0 {
		return tw
	}
	if v, ok := n.Attr("width"); ok {
		if tw, ok := css.ToTwips(css.ParseValue(v), st.FontSize(), float64(base)/css.TwipsPerPoint); ok && tw > 0 {
			return tw
		}
	}
	return 0
}

// columnWidths distributes table width: known widths are kept, the rest is
// shared equally by columns without width.
func columnWidths(known []int, grid, tableWidth int) []int {
	widths := make([]int, grid)
	copy(widths, known)
	used, unknown := 0, 0
	for _, w := range widths {
		if w > 0 {
			used += w
		} else {
			unknown++
		}
	}
	if unknown > 0 {
		share := max((tableWidth-used)/unknown, minColumnWidth)
		for i, w := range widths {
			if w <= 0 {
				widths[i] = share
			}
		}
	}
	return widths
}

func pxAttrTwips(n *markup.Node, name string) (int, bool) {
	v, ok := n.Attr(name)
	if !ok {
		return 0, false
	}
	px, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || px < 0 {
		return 0, false
	}
	return px * css.TwipsPerPixel, true
}

var verticalAlign = map[string]string{
	"top":      "top",
	"baseline": "top",
	"middle":   "center",
	"center":   "center",
	"bottom":   "bottom",
}

// table renders table skeleton (grid, rows, cell properties) immediately and
// schedules cell contents.
func (wk *walker) table(n *markup.Node, st Style, ctx *blockCtx) {
	s := wk.s
	rows, caption := collectRows(n, st)
	if !slices.ContainsFunc(rows, func(r tableRow) bool { return len(r.cells) > 0 }) {
		s.log.Debug("Table without cells skipped", zap.Int("rows", len(rows)))
		return
	}

	wk.startItem(ctx, st)
	indent := ctx.box.left
	if ctx.item != nil {
		indent += s.numbering.levelIndent(ctx.item.num.Level)
	}
	avail := max(ctx.box.width-(indent-ctx.box.left), minContentWidth)

	tableWidth := cellWidth(n, st, avail)
	if tableWidth <= 0 || tableWidth > avail {
		tableWidth = avail
	}

	known := declaredColumns(n, st, tableWidth)
	placed, grid := layoutRows(rows, len(known), s.log)
	if len(known) == 0 && len(placed) > 0 {
		// widths of first row cells spanning single column
		known = make([]int, grid)
		for _, pc := range placed[0] {
			if pc.node != nil && pc.colSpan == 1 {
				known[pc.col] = cellWidth(pc.node, rows[0].style.Cascade(pc.node), tableWidth)
			}
		}
	}
	widths := columnWidths(known, grid, tableWidth)

	if caption != nil {
		cs := st.Cascade(caption)
		if !cs.Hidden() {
			p := s.paragraph(ctx.container, cs, paraOpts{width: ctx.box.width, boxLeft: indent, boxRight: ctx.box.right})
			rb := s.newRunBuilder(wk.part, p, ctx.box.width)
			rb.addInline(caption.Children, cs)
			if !rb.finish() {
				ctx.container.RemoveChild(p)
			}
		}
	}
	// adjacent tables are merged by word processors
	if children := ctx.container.ChildElements(); len(children) > 0 && children[len(children)-1].Tag == "tbl" {
		s.emptyParagraph(ctx.container, st.Cascade(anonymousBlock), paraOpts{})
	}

	tbl := w(ctx.container, "tbl")
	tb := newTableBorders(n, s.defaultBorder())
	s.tableProperties(tbl, n, st, tb, widths, indent)

	gridEl := w(tbl, "tblGrid")
	for _, cw := range widths {
		wAttr(w(gridEl, "gridCol"), "w", cw)
	}

	var frames []frame
	for ri, row := range rows {
		tr := w(tbl, "tr")
		s.rowProperties(tr, row)
		rowPatches := borderPatchesOf(row.node.Styles)
		for _, pc := range placed[ri] {
			tc := w(tr, "tc")
			span := 0
			for _, cw := range widths[pc.col : pc.col+pc.colSpan] {
				span += cw
			}
			switch {
			case pc.origin != nil:
				pc.style = pc.origin.style
				pc.borders = continuationBorders(pc.origin.borders)
			case pc.node != nil:
				pc.style = row.style.Cascade(pc.node)
				pc.borders = resolveCellBorders(tb, rowPatches, borderPatchesOf(pc.node.Styles), cellPos{
					firstRow: ri == 0,
					lastRow:  ri+pc.rowSpan == len(rows),
					firstCol: pc.col == 0,
					lastCol:  pc.col+pc.colSpan == grid,
				})
			default:
				pc.style = row.style
				pc.borders = resolveCellBorders(tb, rowPatches, borderPatches{}, cellPos{
					firstRow: ri == 0,
					lastRow:  ri == len(rows)-1,
					firstCol: pc.col == 0,
					lastCol:  pc.col+pc.colSpan == grid,
				})
			}
			s.cellProperties(tc, pc, row, span)

			if pc.node == nil || pc.style.Hidden() {
				w(tc, "p")
				continue
			}
			cellCtx := &blockCtx{container: tc, box: box{width: max(span-s.cellMargins(n)*2, minContentWidth)}}
			if bg, ok := pc.style.Background(); ok {
				cellCtx.box.shading = bg
			}
			if id := pc.node.AttrOr("id", ""); id != "" {
				frames = append(frames, frame{leave: func() { s.pendingBookmarks = append(s.pendingBookmarks, id) }})
			}
			frames = append(frames, groupChildren(pc.node.Children, pc.style, cellCtx)...)
			frames = append(frames, frame{leave: func() { finishCell(tc) }})
		}
	}
	for i := len(frames) - 1; i >= 0; i-- {
		wk.push(frames[i])
	}
}

func (s *session) defaultBorder() Border {
	return Border{Size: s.opts.Tables.BorderSize, Stroke: strokeName(s.opts.Tables.BorderStroke), Color: s.opts.Tables.BorderColor}
}

// cellMargins returns left/right cell margin in twips.
func (s *session) cellMargins(table *markup.Node) int {
	if tw, ok := pxAttrTwips(table, "cellpadding"); ok {
		return tw
	}
	return s.opts.Tables.CellMargin
}

func (s *session) tableProperties(tbl *etree.Element, n *markup.Node, st Style, tb tableBorders, widths []int, indent int) {
	tblPr := w(tbl, "tblPr")
	total := 0
	for _, cw := range widths {
		total += cw
	}
	wWidth(tblPr, "tblW", total, "dxa")

	align := strings.ToLower(n.AttrOr("align", ""))
	if st.Keyword("margin-left") == autoVal && st.Keyword("margin-right") == autoVal {
		align = "center"
	}
	switch align {
	case "center", "right":
		wVal(tblPr, "jc", align)
	}
	if tw, ok := pxAttrTwips(n, "cellspacing"); ok && tw > 0 {
		wWidth(tblPr, "tblCellSpacing", tw/2, "dxa")
	}
	if indent > 0 {
		wWidth(tblPr, "tblInd", indent, "dxa")
	}
	tb.edges.write(tblPr, "tblBorders")
	if bg, ok := st.Background(); ok {
		shading(tblPr, bg)
	}
	wVal(tblPr, "tblLayout", "fixed")

	margin := s.cellMargins(n)
	_, padded := pxAttrTwips(n, "cellpadding")
	mar := w(tblPr, "tblCellMar")
	for _, side := range []string{"top", "left", "bottom", "right"} {
		if padded || side == "left" || side == "right" {
			wWidth(mar, side, margin, "dxa")
		}
	}
}

func (s *session) rowProperties(tr *etree.Element, row tableRow) {
	height := rowHeight(row.node, row.style)
	if height <= 0 && !row.header {
		return
	}
	trPr := w(tr, "trPr")
	if height > 0 {
		h := w(trPr, "trHeight")
		wAttr(h, "val", height)
		h.CreateAttr("w:hRule", "atLeast")
	}
	if row.header {
		w(trPr, "tblHeader")
	}
}

func rowHeight(n *markup.Node, st Style) int {
	if tw, ok := st.Length("height", 0); ok && tw > 0 {
		return tw
	}
	if v, ok := n.Attr("height"); ok {
		if tw, ok := css.ToTwips(css.ParseValue(v), st.FontSize(), 0); ok && tw > 0 {
			return tw
		}
	}
	return 0
}

func (s *session) cellProperties(tc *etree.Element, pc *placedCell, row tableRow, width int) {
	tcPr := w(tc, "tcPr")
	wWidth(tcPr, "tcW", width, "dxa")
	if pc.colSpan > 1 {
		wVal(tcPr, "gridSpan", strconv.Itoa(pc.colSpan))
	}
	switch {
	case pc.origin != nil:
		w(tcPr, "vMerge")
	case pc.rowSpan > 1:
		wVal(tcPr, "vMerge", "restart")
	}
	pc.borders.write(tcPr, "tcBorders")

	if bg, ok := pc.style.Background(); ok {
		shading(tcPr, bg)
	} else if bg, ok := row.style.Background(); ok {
		shading(tcPr, bg)
	}

	src := pc.node
	if pc.origin != nil {
		src = pc.origin.node
	}
	if src == nil {
		return
	}
	if _, ok := src.Attr("nowrap"); ok || pc.style.Keyword("white-space") == "nowrap" {
		w(tcPr, "noWrap")
	}

	var mar *etree.Element
	for _, side := range []string{"top", "left", "bottom", "right"} {
		if tw, ok := pc.style.Length("padding-"+side, width); ok && tw >= 0 {
			if mar == nil {
				mar = w(tcPr, "tcMar")
			}
			wWidth(mar, side, tw, "dxa")
		}
	}

	va := pc.style.Keyword("vertical-align")
	if va == "" {
		va = row.style.Keyword("vertical-align")
	}
	if v, ok := verticalAlign[va]; ok {
		wVal(tcPr, "vAlign", v)
	}
}
