package docx

import (
	"strings"

	"github.com/beevik/etree"

	"h2d/markup"
)

// box is geometry of the block container output goes to: extra indents of
// enclosing containers rendered in box mode and available width (twips).
type box struct {
	left, right int
	width       int
	shading     string
}

// itemState tracks list item: its first emitted block carries the number,
// the following ones are continuations.
type itemState struct {
	num     NumberingContext
	started bool
}

// blockCtx is where block output goes.
type blockCtx struct {
	container *etree.Element
	box       box
	item      *itemState
	// listDepth is number of enclosing lists
	listDepth int
}

// frame is unit of work of the walker. Exactly one of node, inline or leave
// is set.
type frame struct {
	node   *markup.Node
	inline []*markup.Node
	parent Style
	ctx    *blockCtx
	leave  func()
}

// walker converts block structure of the source tree using explicit LIFO
// work stack, nested work is pushed on top so output stays in document order.
type walker struct {
	s     *session
	part  string
	stack []frame
}

// anonymous block wrapping inline content mixed with blocks
var anonymousBlock = &markup.Node{Tag: "div"}

func (s *session) renderBlocks(part string, root *markup.Node, container *etree.Element) error {
	wk := &walker{s: s, part: part}
	st := s.root.Cascade(root)
	ctx := &blockCtx{container: container, box: box{width: s.opts.Page.ContentWidth()}}
	if bg, ok := st.Background(); ok {
		ctx.box.shading = bg
	}
	wk.pushChildren(root.Children, st, ctx)
	return wk.run()
}

func (wk *walker) push(f frame) {
	wk.stack = append(wk.stack, f)
}

func (wk *walker) pushLeave(fn func()) {
	wk.push(frame{leave: fn})
}

func (wk *walker) run() error {
	for len(wk.stack) > 0 {
		if err := wk.s.ctx.Err(); err != nil {
			return err
		}
		f := wk.stack[len(wk.stack)-1]
		wk.stack = wk.stack[:len(wk.stack)-1]

		switch {
		case f.leave != nil:
			f.leave()
		case f.inline != nil:
			wk.inlineGroup(f)
		default:
			wk.block(f)
		}
	}
	return nil
}

// pushChildren schedules children: consecutive inline nodes form anonymous
// paragraphs, block nodes are processed on their own.
func (wk *walker) pushChildren(children []*markup.Node, parent Style, ctx *blockCtx) {
	frames := groupChildren(children, parent, ctx)
	for i := len(frames) - 1; i >= 0; i-- {
		wk.push(frames[i])
	}
}

func groupChildren(children []*markup.Node, parent Style, ctx *blockCtx) []frame {
	var (
		frames []frame
		group  []*markup.Node
	)
	flush := func() {
		if len(group) > 0 && !whitespaceOnly(group) {
			frames = append(frames, frame{inline: group, parent: parent, ctx: ctx})
		}
		group = nil
	}
	for _, c := range children {
		if c.Kind().IsInline() {
			group = append(group, c)
			continue
		}
		flush()
		frames = append(frames, frame{node: c, parent: parent, ctx: ctx})
	}
	flush()
	return frames
}

func allInline(nodes []*markup.Node) bool {
	for _, n := range nodes {
		switch k := n.Kind(); {
		case k.IsInline(), k == markup.KindSkip:
		default:
			return false
		}
	}
	return true
}

func whitespaceOnly(nodes []*markup.Node) bool {
	for _, n := range nodes {
		if !n.IsText() || strings.TrimFunc(n.Text, isCollapsible) != "" {
			return false
		}
	}
	return true
}

// breaksOnly reports whether inline group consists of line breaks only.
func breaksOnly(nodes []*markup.Node) int {
	count := 0
	for _, n := range nodes {
		switch {
		case n.Kind() == markup.KindBreak:
			count++
		case n.IsText() && strings.TrimFunc(n.Text, isCollapsible) == "":
		default:
			return 0
		}
	}
	return count
}

// hasInlineContent reports whether inline nodes can produce any output.
func hasInlineContent(nodes []*markup.Node) bool {
	stack := append([]*markup.Node(nil), nodes...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n.Kind() {
		case markup.KindText:
			if strings.TrimFunc(n.Text, isCollapsible) != "" {
				return true
			}
		case markup.KindImage, markup.KindSVG, markup.KindBreak:
			return true
		case markup.KindSkip:
		default:
			if _, ok := n.Attr("id"); ok {
				return true
			}
			stack = append(stack, n.Children...)
		}
	}
	return false
}

// paraOpts returns paragraph options for the next block emitted in ctx,
// marking list item as started.
func (wk *walker) paraOpts(ctx *blockCtx) paraOpts {
	po := paraOpts{
		boxLeft:    ctx.box.left,
		boxRight:   ctx.box.right,
		boxShading: ctx.box.shading,
		width:      ctx.box.width,
	}
	if it := ctx.item; it != nil {
		if !it.started {
			it.started = true
			num := it.num
			po.num = &num
		} else {
			po.indent = wk.s.numbering.levelIndent(it.num.Level)
		}
	}
	return po
}

// startItem emits empty numbered paragraph when list item begins with
// content which cannot carry the number (table, nested list).
func (wk *walker) startItem(ctx *blockCtx, parent Style) {
	if ctx.item == nil || ctx.item.started {
		return
	}
	wk.s.emptyParagraph(ctx.container, parent.Cascade(anonymousBlock), wk.paraOpts(ctx))
}

func (wk *walker) inlineGroup(f frame) {
	anon := f.parent.Cascade(anonymousBlock)
	if n := breaksOnly(f.inline); n > 0 {
		for range n {
			wk.s.emptyParagraph(f.ctx.container, anon, wk.paraOpts(f.ctx))
		}
		return
	}
	if !hasInlineContent(f.inline) {
		return
	}
	po := wk.paraOpts(f.ctx)
	po.noMargins = true
	p := wk.s.paragraph(f.ctx.container, anon, po)
	rb := wk.s.newRunBuilder(wk.part, p, f.ctx.box.width)
	rb.addInline(f.inline, f.parent)
	if !rb.finish() {
		f.ctx.container.RemoveChild(p)
	}
}

func headingLevel(n *markup.Node) int {
	if n.Kind() != markup.KindHeading || len(n.Tag) != 2 {
		return 0
	}
	return int(n.Tag[1] - '0')
}

func (wk *walker) block(f frame) {
	n := f.node
	st := f.parent.Cascade(n)
	if st.Hidden() {
		return
	}
	switch n.Kind() {
	case markup.KindSkip, markup.KindColGroup, markup.KindCol:
		return
	}

	if id := n.AttrOr("id", ""); id != "" {
		wk.s.pendingBookmarks = append(wk.s.pendingBookmarks, id)
	}
	if breakBefore(st) {
		wk.s.pageBreak = true
	}
	if breakAfter(st) {
		wk.pushLeave(func() { wk.s.pageBreak = true })
	}

	switch n.Kind() {
	case markup.KindRule:
		wk.s.ruleParagraph(f.ctx.container, n, st, wk.paraOpts(f.ctx))
	case markup.KindTable:
		wk.table(n, st, f.ctx)
	case markup.KindList:
		wk.list(n, st, f.ctx)
	case markup.KindListItem:
		// list item outside of list: render as item of implicit bullet list
		wk.list(&markup.Node{Tag: "ul", Children: []*markup.Node{n}}, f.parent, f.ctx)
	default:
		wk.container(n, st, f.ctx)
	}
}

// container renders generic block. Block with inline content only becomes
// single paragraph carrying all block properties, otherwise it is rendered
// in box mode: its horizontal margins and padding indent paragraphs of
// its children.
func (wk *walker) container(n *markup.Node, st Style, ctx *blockCtx) {
	if allInline(n.Children) {
		pendingItem := ctx.item != nil && !ctx.item.started
		if !hasInlineContent(n.Children) && !pendingItem {
			return
		}
		po := wk.paraOpts(ctx)
		po.heading = headingLevel(n)
		po.border = blockBorders(n.Styles)
		p := wk.s.paragraph(ctx.container, st, po)
		rb := wk.s.newRunBuilder(wk.part, p, ctx.box.width)
		rb.addInline(n.Children, st)
		rb.finish()
		return
	}

	length := func(prop string) int {
		v, _ := st.Length(prop, ctx.box.width)
		return v
	}
	left := length("margin-left") + length("padding-left")
	right := length("margin-right") + length("padding-right")

	child := *ctx
	child.box.left += left
	child.box.right += right
	child.box.width = max(ctx.box.width-left-right, minContentWidth)
	if bg, ok := st.Background(); ok {
		child.box.shading = bg
	}
	wk.pushChildren(n.Children, st, &child)
}

const minContentWidth = 720

// finishCell guarantees table cell ends with paragraph.
func finishCell(tc *etree.Element) {
	children := tc.ChildElements()
	if len(children) > 0 && children[len(children)-1].Tag == "p" {
		return
	}
	w(tc, "p")
}
