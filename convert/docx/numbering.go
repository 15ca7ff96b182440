package docx

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"h2d/config"
	"h2d/css"
	"h2d/markup"
)

const (
	maxListLevel = 8
	fmtBullet    = "bullet"
	fmtNone      = "none"
	fmtDecimal   = "decimal"
)

// list-style-type keywords to w:numFmt
var listFormats = map[string]string{
	"decimal":              fmtDecimal,
	"decimal-leading-zero": "decimalZero",
	"lower-alpha":          "lowerLetter",
	"lower-latin":          "lowerLetter",
	"upper-alpha":          "upperLetter",
	"upper-latin":          "upperLetter",
	"lower-roman":          "lowerRoman",
	"upper-roman":          "upperRoman",
	"disc":                 fmtBullet,
	"circle":               fmtBullet,
	"square":               fmtBullet,
	"none":                 fmtNone,
}

var bulletGlyphs = map[string]string{
	"disc":   "•",
	"circle": "◦",
	"square": "▪",
}

// HTML type attribute of ol/ul to list-style-type
var listTypeAttr = map[string]string{
	"1":      "decimal",
	"a":      "lower-alpha",
	"A":      "upper-alpha",
	"i":      "lower-roman",
	"I":      "upper-roman",
	"disc":   "disc",
	"circle": "circle",
	"square": "square",
	"none":   "none",
}

// NumberingContext identifies list instance in numbering part, it is
// assigned once when list is entered and never changes.
type NumberingContext struct {
	NumID int
	Level int
}

// listFormat is format of one list level.
type listFormat struct {
	numFmt string
	glyph  string
	start  int
}

func (f listFormat) ordered() bool {
	return f.numFmt != fmtBullet && f.numFmt != fmtNone
}

// listStyleOf returns list-style-type declared on the list element itself
// (type attribute or style), inherited values are ignored so nested lists
// get per level defaults.
func listStyleOf(n *markup.Node) string {
	var keyword string
	if v, ok := n.Attr("type"); ok {
		if k, ok := listTypeAttr[strings.TrimSpace(v)]; ok {
			keyword = k
		} else if k, ok := listTypeAttr[strings.ToLower(strings.TrimSpace(v))]; ok {
			keyword = k
		}
	}
	for _, d := range orderedDeclarations(n.Styles) {
		switch d.Property {
		case "list-style-type":
			if _, ok := listFormats[d.Value.Keyword]; ok {
				keyword = d.Value.Keyword
			}
		case "list-style":
			for _, part := range css.SplitShorthand(d.Value.Raw) {
				if _, ok := listFormats[strings.ToLower(part)]; ok {
					keyword = strings.ToLower(part)
				}
			}
		}
	}
	return keyword
}

// resolveListFormat determines level format of list node.
func resolveListFormat(n *markup.Node, level int, cfg *config.ListsConfig) listFormat {
	ordered := n.Tag == "ol"
	f := defaultListFormat(ordered, level, cfg)
	if k := listStyleOf(n); k != "" {
		f.numFmt = listFormats[k]
		f.glyph = ""
		if f.numFmt == fmtBullet {
			f.glyph = bulletGlyphs[k]
		}
	}
	if v, ok := n.Attr("start"); ok {
		if start, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && start >= 0 {
			f.start = start
		}
	}
	return f
}

func defaultListFormat(ordered bool, level int, cfg *config.ListsConfig) listFormat {
	if ordered {
		return listFormat{numFmt: cfg.Ordered[level%len(cfg.Ordered)], start: 1}
	}
	return listFormat{numFmt: fmtBullet, glyph: cfg.Bullets[level%len(cfg.Bullets)], start: 1}
}

// levelText returns w:lvlText for level.
func (f listFormat) levelText(level int) string {
	switch f.numFmt {
	case fmtNone:
		return ""
	case fmtBullet:
		return f.glyph
	}
	return "%" + strconv.Itoa(level+1) + "."
}

type numberingDef struct {
	ctx    NumberingContext
	format listFormat
}

// numberingRegistry collects list instances of a render session and builds
// numbering part. Each list gets its own abstract definition so sibling
// lists never share counters.
type numberingRegistry struct {
	cfg  *config.ListsConfig
	defs []numberingDef
}

func newNumberingRegistry(cfg *config.ListsConfig) *numberingRegistry {
	return &numberingRegistry{cfg: cfg}
}

// register allocates numbering for a list at level.
func (r *numberingRegistry) register(f listFormat, level int) NumberingContext {
	level = min(max(level, 0), maxListLevel)
	ctx := NumberingContext{NumID: len(r.defs) + 1, Level: level}
	r.defs = append(r.defs, numberingDef{ctx: ctx, format: f})
	return ctx
}

func (r *numberingRegistry) empty() bool {
	return len(r.defs) == 0
}

// levelIndent is left indent of list level text.
func (r *numberingRegistry) levelIndent(level int) int {
	return (level + 1) * r.cfg.Indent
}

// document builds word/numbering.xml. All w:abstractNum elements precede
// w:num elements.
func (r *numberingRegistry) document() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("w:numbering")
	declareNamespaces(root)

	for i, def := range r.defs {
		abs := w(root, "abstractNum")
		wAttr(abs, "abstractNumId", i)
		wVal(abs, "multiLevelType", "multilevel")
		for level := range maxListLevel + 1 {
			f := def.format
			if level != def.ctx.Level {
				f = defaultListFormat(def.format.ordered(), level, r.cfg)
			}
			r.writeLevel(abs, level, f)
		}
	}
	for i, def := range r.defs {
		num := w(root, "num")
		wAttr(num, "numId", def.ctx.NumID)
		wVal(num, "abstractNumId", strconv.Itoa(i))
	}
	return doc
}

func (r *numberingRegistry) writeLevel(abs *etree.Element, level int, f listFormat) {
	lvl := w(abs, "lvl")
	wAttr(lvl, "ilvl", level)
	wVal(lvl, "start", strconv.Itoa(f.start))
	wVal(lvl, "numFmt", f.numFmt)
	wVal(lvl, "lvlText", f.levelText(level))
	wVal(lvl, "lvlJc", "left")
	ind := w(w(lvl, "pPr"), "ind")
	wAttr(ind, "left", r.levelIndent(level))
	wAttr(ind, "hanging", r.cfg.Hanging)
}
