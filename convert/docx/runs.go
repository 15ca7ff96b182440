package docx

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"h2d/convert/docx/opc"
	"h2d/css"
	"h2d/markup"
)

// highlight palette of w:highlight, other backgrounds become run shading
var highlightColors = map[string]string{
	"000000": "black",
	"0000FF": "blue",
	"00FFFF": "cyan",
	"00FF00": "green",
	"FF00FF": "magenta",
	"FF0000": "red",
	"FFFF00": "yellow",
	"FFFFFF": "white",
	"000080": "darkBlue",
	"008080": "darkCyan",
	"008000": "darkGreen",
	"800080": "darkMagenta",
	"800000": "darkRed",
	"808000": "darkYellow",
	"808080": "darkGray",
	"C0C0C0": "lightGray",
}

// runProperties builds w:rPr for style. Font and size are always explicit.
func runProperties(st Style) *etree.Element {
	rpr := etree.NewElement("w:rPr")
	if family := st.FontFamily(); family != "" {
		fonts := w(rpr, "rFonts")
		for _, k := range []string{"w:ascii", "w:hAnsi", "w:eastAsia", "w:cs"} {
			fonts.CreateAttr(k, family)
		}
	}
	if st.Bold() {
		w(rpr, "b")
		w(rpr, "bCs")
	}
	if st.Italic() {
		w(rpr, "i")
		w(rpr, "iCs")
	}
	if st.SmallCaps() {
		w(rpr, "smallCaps")
	}
	if strike := st.Strike(); strike != "" {
		w(rpr, strike)
	}
	if st.Invisible() {
		w(rpr, "vanish")
	}
	if c, ok := st.Color(); ok {
		wVal(rpr, "color", c)
	}
	if ls, ok := st.Length("letter-spacing", 0); ok && ls != 0 {
		wAttr(w(rpr, "spacing"), "val", ls)
	}
	hp := css.ToHalfPoints(st.FontSize())
	wVal(rpr, "sz", strconv.Itoa(hp))
	wVal(rpr, "szCs", strconv.Itoa(hp))

	var bg string
	if st.Inline() {
		bg, _ = st.Background()
	}
	if name, ok := highlightColors[bg]; ok {
		wVal(rpr, "highlight", name)
	}
	if u := st.Underline(); u != "" {
		el := wVal(rpr, "u", u)
		if c, ok := st.DecorationColor(); ok {
			el.CreateAttr("w:color", c)
		}
	}
	if _, ok := highlightColors[bg]; bg != "" && !ok {
		shading(rpr, bg)
	}
	if st.Inline() {
		switch st.Keyword("vertical-align") {
		case "sub":
			wVal(rpr, "vertAlign", "subscript")
		case "super":
			wVal(rpr, "vertAlign", "superscript")
		}
	}
	if st.RTL() {
		w(rpr, "rtl")
	}
	if lang := st.Lang(); lang != "" {
		wVal(rpr, "lang", lang)
	}
	return rpr
}

func shading(parent *etree.Element, fill string) {
	shd := wVal(parent, "shd", "clear")
	shd.CreateAttr("w:color", autoVal)
	shd.CreateAttr("w:fill", fill)
}

// textTransform applies CSS text-transform to emitted text.
func textTransform(s string, st Style) string {
	tag := language.Und
	if lang := st.Lang(); lang != "" {
		tag = language.Make(lang)
	}
	switch st.Keyword("text-transform") {
	case "uppercase":
		return cases.Upper(tag).String(s)
	case "lowercase":
		return cases.Lower(tag).String(s)
	case "capitalize":
		return cases.Title(tag, cases.NoLower).String(s)
	}
	return s
}

// runBuilder fills a single w:p with runs produced from inline content.
type runBuilder struct {
	s    *session
	part string
	p    *etree.Element
	// width is available width in twips
	width int
	// container receives runs: the paragraph or current w:hyperlink
	container *etree.Element
	inLink    bool
	// space is set when last emitted character was collapsible white space
	// or nothing was emitted yet
	space bool
	lastT *etree.Element
}

func (s *session) newRunBuilder(part string, p *etree.Element, width int) *runBuilder {
	b := &runBuilder{s: s, part: part, p: p, width: width, container: p, space: true}
	s.flushBookmarks(p)
	return b
}

type inlineItem struct {
	node  *markup.Node
	style Style
	leave func()
}

// addInline renders inline nodes with parent style. Block descendants of
// inline elements are flattened into the same paragraph.
func (b *runBuilder) addInline(nodes []*markup.Node, parent Style) {
	stack := make([]inlineItem, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, inlineItem{node: nodes[i], style: parent})
	}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.leave != nil {
			it.leave()
			continue
		}

		n := it.node
		if n.IsText() {
			b.text(n.Text, it.style)
			continue
		}
		st := it.style.Cascade(n)
		if st.Hidden() {
			continue
		}

		switch n.Kind() {
		case markup.KindSkip, markup.KindColGroup, markup.KindCol:
			continue
		case markup.KindBreak:
			b.lineBreak(st)
			continue
		case markup.KindImage:
			b.image(n, st)
			continue
		case markup.KindSVG:
			b.svg(n, st)
			continue
		case markup.KindLink:
			if leave := b.openLink(n); leave != nil {
				stack = append(stack, inlineItem{leave: leave})
			}
		}

		id := n.AttrOr("id", "")
		if id == "" && n.Tag == "a" {
			id = n.AttrOr("name", "")
		}
		if id != "" {
			if end := b.s.bookmarkStart(b.container, id); end != nil {
				container := b.container
				stack = append(stack, inlineItem{leave: func() { container.AddChild(end) }})
			}
		}

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, inlineItem{node: n.Children[i], style: st})
		}
	}
}

// openLink creates w:hyperlink and makes it current container, returned
// function restores previous container.
func (b *runBuilder) openLink(n *markup.Node) func() {
	href := strings.TrimSpace(n.AttrOr("href", ""))
	if href == "" || b.inLink {
		return nil
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "data:") {
		return nil
	}

	link := etree.NewElement("w:hyperlink")
	if frag, ok := strings.CutPrefix(href, "#"); ok {
		if frag == "" {
			return nil
		}
		link.CreateAttr("w:anchor", bookmarkName(frag))
	} else {
		id := b.s.rels.AddRelationship(b.part, opc.RelHyperlink, href, true)
		link.CreateAttr("r:id", id)
	}
	link.CreateAttr("w:history", "1")
	if title := n.AttrOr("title", ""); title != "" {
		link.CreateAttr("w:tooltip", title)
	}
	b.container.AddChild(link)

	prev := b.container
	b.container, b.inLink = link, true
	return func() {
		b.container, b.inLink = prev, false
		if !hasContent(link) {
			prev.RemoveChild(link)
		}
	}
}

func (b *runBuilder) run(st Style) *etree.Element {
	r := w(b.container, "r")
	r.AddChild(runProperties(st))
	return r
}

func isCollapsible(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// collapse replaces white space sequences by single space, leading space is
// dropped when previous output already ends with one.
func (b *runBuilder) collapse(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if isCollapsible(r) {
			if !b.space {
				sb.WriteByte(' ')
				b.space = true
			}
			continue
		}
		sb.WriteRune(r)
		b.space = false
	}
	return sb.String()
}

func (b *runBuilder) text(s string, st Style) {
	switch {
	case st.PreserveSpace():
		b.preformatted(s, st)
	case st.PreserveLines():
		lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
		for i, line := range lines {
			if i > 0 {
				b.lineBreak(st)
			}
			b.emit(b.collapse(line), st)
		}
	default:
		b.emit(b.collapse(s), st)
	}
}

func (b *runBuilder) emit(s string, st Style) {
	if s == "" {
		return
	}
	s = textTransform(s, st)
	t := w(b.run(st), "t")
	t.SetText(s)
	if s[0] == ' ' || s[len(s)-1] == ' ' {
		t.CreateAttr("xml:space", "preserve")
	}
	b.lastT = t
}

// preformatted keeps spaces, newlines become w:br and tabs w:tab.
func (b *runBuilder) preformatted(s string, st Style) {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
	if s == "" {
		return
	}
	s = textTransform(s, st)
	r := b.run(st)
	var sb strings.Builder
	flush := func() {
		if sb.Len() == 0 {
			return
		}
		t := w(r, "t")
		t.SetText(sb.String())
		t.CreateAttr("xml:space", "preserve")
		sb.Reset()
	}
	for _, c := range s {
		switch c {
		case '\n':
			flush()
			w(r, "br")
		case '\t':
			flush()
			w(r, "tab")
		default:
			sb.WriteRune(c)
		}
	}
	flush()
	b.lastT = nil
	b.space = false
}

func (b *runBuilder) lineBreak(st Style) {
	w(b.run(st), "br")
	b.trimTrailing()
	b.space = true
	b.lastT = nil
}

func (b *runBuilder) image(n *markup.Node, st Style) {
	drawing := b.s.imageDrawing(b.part, n, st, b.width)
	if drawing == nil {
		return
	}
	b.run(st).AddChild(drawing)
	b.space = false
	b.lastT = nil
}

func (b *runBuilder) svg(n *markup.Node, st Style) {
	drawing := b.s.svgDrawing(b.part, n, st, b.width)
	if drawing == nil {
		return
	}
	b.run(st).AddChild(drawing)
	b.space = false
	b.lastT = nil
}

// trimTrailing removes collapsible space at the end of emitted text.
func (b *runBuilder) trimTrailing() {
	if b.lastT == nil {
		return
	}
	text := strings.TrimRightFunc(b.lastT.Text(), func(r rune) bool { return r == ' ' })
	if text != "" {
		b.lastT.SetText(text)
		if text[0] != ' ' {
			b.lastT.RemoveAttr("xml:space")
		}
		return
	}
	if r := b.lastT.Parent(); r != nil {
		if c := r.Parent(); c != nil {
			c.RemoveChild(r)
		}
	}
}

// finish completes the paragraph. It reports whether anything visible was
// produced.
func (b *runBuilder) finish() bool {
	b.trimTrailing()
	b.lastT = nil
	return hasContent(b.p)
}

// bookmarkName converts element id to a valid bookmark name.
func bookmarkName(id string) string {
	var sb strings.Builder
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	name := sb.String()
	if first, _ := utf8.DecodeRuneInString(name); !unicode.IsLetter(first) {
		name = "a" + name
	}
	if rs := []rune(name); len(rs) > 40 {
		name = string(rs[:40])
	}
	return name
}

// bookmarkStart appends w:bookmarkStart to parent and returns matching
// w:bookmarkEnd, nil when bookmark with the name already exists.
func (s *session) bookmarkStart(parent *etree.Element, id string) *etree.Element {
	name := bookmarkName(id)
	if s.bookmarks[name] {
		return nil
	}
	s.bookmarks[name] = true
	s.bookmarkID++

	start := w(parent, "bookmarkStart")
	wAttr(start, "id", s.bookmarkID)
	start.CreateAttr("w:name", name)
	end := etree.NewElement("w:bookmarkEnd")
	wAttr(end, "id", s.bookmarkID)
	return end
}

// flushBookmarks places bookmarks of block elements into paragraph p.
func (s *session) flushBookmarks(p *etree.Element) {
	for _, id := range s.pendingBookmarks {
		if end := s.bookmarkStart(p, id); end != nil {
			p.AddChild(end)
		}
	}
	s.pendingBookmarks = s.pendingBookmarks[:0]
}
