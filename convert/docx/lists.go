package docx

import (
	"go.uber.org/zap"

	"h2d/markup"
)

// list allocates numbering for list and schedules its items.
func (wk *walker) list(n *markup.Node, st Style, ctx *blockCtx) {
	wk.startItem(ctx, st)

	level := min(ctx.listDepth, maxListLevel)
	format := resolveListFormat(n, level, &wk.s.opts.Lists)
	num := wk.s.numbering.register(format, level)
	wk.s.log.Debug("List", zap.Int("numId", num.NumID), zap.Int("level", num.Level), zap.String("format", format.numFmt))

	var (
		frames []frame
		stray  []*markup.Node
	)
	flushStray := func() {
		if len(stray) > 0 && !whitespaceOnly(stray) {
			frames = append(frames, wk.itemFrame(&markup.Node{Tag: "li", Children: stray}, st, ctx, num))
		}
		stray = nil
	}
	for _, c := range n.Children {
		switch c.Kind() {
		case markup.KindListItem:
			flushStray()
			frames = append(frames, wk.itemFrame(c, st, ctx, num))
		case markup.KindList:
			flushStray()
			nested := *ctx
			nested.item = nil
			nested.listDepth = level + 1
			frames = append(frames, frame{node: c, parent: st, ctx: &nested})
		case markup.KindSkip:
		default:
			if c.Kind().IsInline() {
				stray = append(stray, c)
				continue
			}
			flushStray()
			frames = append(frames, wk.itemFrame(&markup.Node{Tag: "li", Children: []*markup.Node{c}}, st, ctx, num))
		}
	}
	flushStray()
	for i := len(frames) - 1; i >= 0; i-- {
		wk.push(frames[i])
	}
}

// itemFrame creates frame rendering list item with its own item state.
func (wk *walker) itemFrame(li *markup.Node, parent Style, ctx *blockCtx, num NumberingContext) frame {
	return frame{leave: func() {
		st := parent.Cascade(li)
		if st.Hidden() {
			return
		}
		if id := li.AttrOr("id", ""); id != "" {
			wk.s.pendingBookmarks = append(wk.s.pendingBookmarks, id)
		}
		item := *ctx
		item.item = &itemState{num: num}
		item.listDepth = num.Level + 1
		wk.pushLeave(func() {
			// item without renderable content still gets its number
			if !item.item.started {
				wk.s.emptyParagraph(item.container, st, wk.paraOpts(&item))
			}
		})
		wk.container(li, st, &item)
	}}
}
