package markup

// Kind is the closed set of node categories the renderer dispatches on.
type Kind int

const (
	KindText Kind = iota
	KindBlock
	KindParagraph
	KindHeading
	KindList
	KindListItem
	KindTable
	KindTableSection
	KindRow
	KindCell
	KindColGroup
	KindCol
	KindCaption
	KindImage
	KindSVG
	KindLink
	KindBreak
	KindRule
	KindInline
	KindPre
	KindSkip
)

var kindNames = [...]string{
	KindText:         "text",
	KindBlock:        "block",
	KindParagraph:    "paragraph",
	KindHeading:      "heading",
	KindList:         "list",
	KindListItem:     "list-item",
	KindTable:        "table",
	KindTableSection: "table-section",
	KindRow:          "row",
	KindCell:         "cell",
	KindColGroup:     "colgroup",
	KindCol:          "col",
	KindCaption:      "caption",
	KindImage:        "image",
	KindSVG:          "svg",
	KindLink:         "link",
	KindBreak:        "break",
	KindRule:         "rule",
	KindInline:       "inline",
	KindPre:          "pre",
	KindSkip:         "skip",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsInline reports whether nodes of this kind flow inside a paragraph.
func (k Kind) IsInline() bool {
	switch k {
	case KindText, KindInline, KindLink, KindBreak, KindImage, KindSVG:
		return true
	}
	return false
}

var tagKinds = map[string]Kind{
	"p": KindParagraph, "address": KindParagraph, "dt": KindParagraph, "dd": KindParagraph,
	"figcaption": KindParagraph, "summary": KindParagraph, "legend": KindParagraph,

	"h1": KindHeading, "h2": KindHeading, "h3": KindHeading,
	"h4": KindHeading, "h5": KindHeading, "h6": KindHeading,

	"pre": KindPre, "listing": KindPre, "xmp": KindPre, "plaintext": KindPre,

	"ul": KindList, "ol": KindList, "menu": KindList, "dir": KindList,
	"li": KindListItem,

	"table": KindTable,
	"thead": KindTableSection, "tbody": KindTableSection, "tfoot": KindTableSection,
	"tr": KindRow,
	"td": KindCell, "th": KindCell,
	"colgroup": KindColGroup,
	"col":      KindCol,
	"caption":  KindCaption,

	"img": KindImage, "image": KindImage,
	"svg": KindSVG,
	"a":   KindLink,
	"br":  KindBreak,
	"hr":  KindRule,

	"span": KindInline, "strong": KindInline, "b": KindInline, "em": KindInline, "i": KindInline,
	"u": KindInline, "ins": KindInline, "s": KindInline, "strike": KindInline, "del": KindInline,
	"sub": KindInline, "sup": KindInline, "code": KindInline, "kbd": KindInline, "samp": KindInline,
	"tt": KindInline, "var": KindInline, "cite": KindInline, "mark": KindInline, "small": KindInline,
	"big": KindInline, "font": KindInline, "abbr": KindInline, "acronym": KindInline, "q": KindInline,
	"label": KindInline, "time": KindInline, "dfn": KindInline, "bdi": KindInline, "bdo": KindInline,
	"data": KindInline, "wbr": KindInline, "nobr": KindInline,

	"script": KindSkip, "style": KindSkip, "head": KindSkip, "title": KindSkip, "meta": KindSkip,
	"link": KindSkip, "template": KindSkip, "noscript": KindSkip, "iframe": KindSkip,
	"object": KindSkip, "embed": KindSkip, "audio": KindSkip, "video": KindSkip, "canvas": KindSkip,
	"input": KindSkip, "select": KindSkip, "textarea": KindSkip, "button": KindSkip, "map": KindSkip,
	"area": KindSkip, "base": KindSkip, "param": KindSkip, "source": KindSkip, "track": KindSkip,
}

// KindOf returns kind for element tag. Unknown elements are generic blocks
// so their content is still rendered.
func KindOf(tag string) Kind {
	if k, ok := tagKinds[tag]; ok {
		return k
	}
	return KindBlock
}
