package docx

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"h2d/css"
	"h2d/markup"
)

// inheritedProps are passed from parent to children.
var inheritedProps = map[string]bool{
	"font-family":     true,
	"font-size":       true,
	"font-style":      true,
	"font-weight":     true,
	"font-variant":    true,
	"color":           true,
	"text-align":      true,
	"text-indent":     true,
	"text-transform":  true,
	"line-height":     true,
	"letter-spacing":  true,
	"white-space":     true,
	"direction":       true,
	"visibility":      true,
	"list-style-type": true,
	"lang":            true,
	// decorations are drawn across all descendants
	"text-decoration-line":  true,
	"text-decoration-style": true,
	"text-decoration-color": true,
}

// inlineOnlyProps reach descendants only when set on inline element: block
// background becomes paragraph or cell shading, cell vertical-align is cell
// alignment, not baseline shift of its text.
var inlineOnlyProps = map[string]bool{
	"background-color": true,
	"vertical-align":   true,
}

// Style is effective style of a node: fully resolved property values.
// Style is never modified after Cascade returns, every frame of the walker
// owns its own copy.
type Style struct {
	props    map[string]css.Value
	defaults map[string]css.Value
	inline   bool
}

// NewStyle creates root style with document defaults.
func NewStyle(family string, sizePt float64) Style {
	defaults := map[string]css.Value{
		"font-family": {Raw: family, Keyword: family},
		"font-size":   ptValue(sizePt),
	}
	return Style{props: maps.Clone(defaults), defaults: defaults}
}

func ptValue(pt float64) css.Value {
	return css.Value{Raw: strconv.FormatFloat(pt, 'f', -1, 64) + "pt", Value: pt, Unit: "pt"}
}

// Cascade computes style of node n which is a child of the node s belongs
// to. Inherited values are copied, then user agent declarations implied by
// the tag and presentational attributes, then node own declarations in
// source order with !important ones last.
func (s Style) Cascade(n *markup.Node) Style {
	next := Style{
		props:    make(map[string]css.Value, len(s.props)+len(n.Styles)),
		defaults: s.defaults,
		inline:   n.Kind().IsInline(),
	}
	for k, v := range s.props {
		if inheritedProps[k] || (s.inline && inlineOnlyProps[k]) {
			next.props[k] = v
		}
	}
	for _, d := range declarationsOf(n) {
		next.apply(d, s)
	}
	return next
}

func declarationsOf(n *markup.Node) []css.Declaration {
	decls := uaDeclarations(n)
	for _, d := range n.Styles {
		if !d.Important {
			decls = append(decls, d)
		}
	}
	for _, d := range n.Styles {
		if d.Important {
			decls = append(decls, d)
		}
	}
	return decls
}

func (s Style) apply(d css.Declaration, parent Style) {
	prop, v := d.Property, d.Value

	switch {
	case v.Is(css.KeywordInherit):
		s.inherit(prop, parent)
		return
	case v.Is(css.KeywordInitial), v.Is("revert"):
		s.reset(prop)
		return
	case v.Is(css.KeywordUnset):
		if inheritedProps[prop] {
			s.inherit(prop, parent)
		} else {
			s.reset(prop)
		}
		return
	}

	switch prop {
	case "font-size":
		if pt, ok := s.resolveFontSize(v, parent.FontSize()); ok {
			s.props[prop] = ptValue(pt)
		}
	case "font-weight":
		switch {
		case v.Is("bolder"):
			s.props[prop] = css.Value{Raw: "bold", Keyword: "bold"}
		case v.Is("lighter"):
			s.props[prop] = css.Value{Raw: "normal", Keyword: css.KeywordNormal}
		default:
			s.props[prop] = v
		}
	case "font":
		s.applyFont(v, parent)
	case "text-decoration", "text-decoration-line":
		s.applyDecoration(prop, v, parent)
	case "margin", "padding":
		for k, bv := range expandBox(prop, v) {
			s.props[k] = bv
		}
	case "background":
		for _, part := range css.SplitShorthand(v.Raw) {
			if _, ok := css.ParseColor(part); ok || strings.EqualFold(part, "transparent") {
				s.props["background-color"] = css.ParseValue(part)
			}
		}
	case "list-style":
		for _, part := range css.SplitShorthand(v.Raw) {
			if _, ok := listFormats[strings.ToLower(part)]; ok {
				s.props["list-style-type"] = css.ParseValue(part)
			}
		}
	default:
		s.props[prop] = v
	}
}

func (s Style) inherit(prop string, parent Style) {
	if pv, ok := parent.props[prop]; ok {
		s.props[prop] = pv
		return
	}
	s.reset(prop)
}

func (s Style) reset(prop string) {
	if dv, ok := s.defaults[prop]; ok {
		s.props[prop] = dv
		return
	}
	delete(s.props, prop)
}

var fontSizeKeywords = map[string]float64{
	"xx-small":  7,
	"x-small":   7.5,
	"small":     10,
	"medium":    12,
	"large":     13.5,
	"x-large":   18,
	"xx-large":  24,
	"xxx-large": 36,
}

func (s Style) resolveFontSize(v css.Value, parentPt float64) (float64, bool) {
	if pt, ok := fontSizeKeywords[v.Keyword]; ok {
		return pt, true
	}
	switch {
	case v.Is("smaller"):
		return parentPt / 1.2, true
	case v.Is("larger"):
		return parentPt * 1.2, true
	case v.Unit == "rem":
		return v.Value * s.defaults["font-size"].Value, v.Value > 0
	}
	pt, ok := css.ToPoints(v, parentPt, parentPt)
	return pt, ok && pt > 0
}

// applyFont handles "font" shorthand: [style] [variant] [weight] size[/line-height] family.
func (s Style) applyFont(v css.Value, parent Style) {
	parts := css.SplitShorthand(v.Raw)
	for i, part := range parts {
		lp := strings.ToLower(part)
		switch lp {
		case "italic", "oblique":
			s.props["font-style"] = css.ParseValue(lp)
			continue
		case "small-caps":
			s.props["font-variant"] = css.ParseValue(lp)
			continue
		case "bold", "bolder", "lighter":
			s.apply(css.Declaration{Property: "font-weight", Value: css.ParseValue(lp)}, parent)
			continue
		case css.KeywordNormal:
			continue
		}
		if n, err := strconv.Atoi(lp); err == nil && n >= 100 && n <= 900 {
			s.props["font-weight"] = css.ParseValue(lp)
			continue
		}
		size, lineHeight, _ := strings.Cut(part, "/")
		if pt, ok := s.resolveFontSize(css.ParseValue(size), parent.FontSize()); ok {
			s.props["font-size"] = ptValue(pt)
			if lineHeight != "" {
				s.props["line-height"] = css.ParseValue(lineHeight)
			}
			if i+1 < len(parts) {
				family := strings.Join(parts[i+1:], " ")
				s.props["font-family"] = css.Value{Raw: family, Keyword: family}
			}
			return
		}
	}
}

var decorationStyles = map[string]string{
	"solid":  "single",
	"double": "double",
	"dotted": "dotted",
	"dashed": "dash",
	"wavy":   "wave",
}

// applyDecoration merges decoration lines: own set is united with parent
// set, "none" clears everything. Only the last declaration of the node
// defines its own contribution.
func (s Style) applyDecoration(prop string, v css.Value, parent Style) {
	lines := make(map[string]bool)
	none := false
	for _, part := range css.SplitShorthand(v.Raw) {
		lp := strings.ToLower(part)
		switch lp {
		case "underline", "overline", "line-through":
			lines[lp] = true
		case css.KeywordNone:
			none = true
		default:
			if prop != "text-decoration" {
				continue
			}
			if _, ok := decorationStyles[lp]; ok {
				s.props["text-decoration-style"] = css.ParseValue(lp)
			} else if _, ok := css.ParseColor(part); ok {
				s.props["text-decoration-color"] = css.ParseValue(part)
			}
		}
	}
	if none {
		s.props["text-decoration-line"] = css.Value{Raw: css.KeywordNone, Keyword: css.KeywordNone}
		return
	}
	for _, l := range parent.DecorationLines() {
		lines[l] = true
	}
	if len(lines) == 0 {
		return
	}
	joined := strings.Join(slices.Sorted(maps.Keys(lines)), " ")
	s.props["text-decoration-line"] = css.Value{Raw: joined, Keyword: joined}
}

// expandBox expands margin/padding shorthand into longhands.
func expandBox(prop string, v css.Value) map[string]css.Value {
	parts := css.SplitShorthand(v.Raw)
	if len(parts) == 0 || len(parts) > 4 {
		return nil
	}
	vals := make([]css.Value, len(parts))
	for i, p := range parts {
		vals[i] = css.ParseValue(p)
	}
	var top, right, bottom, left css.Value
	switch len(vals) {
	case 1:
		top, right, bottom, left = vals[0], vals[0], vals[0], vals[0]
	case 2:
		top, right, bottom, left = vals[0], vals[1], vals[0], vals[1]
	case 3:
		top, right, bottom, left = vals[0], vals[1], vals[2], vals[1]
	case 4:
		top, right, bottom, left = vals[0], vals[1], vals[2], vals[3]
	}
	return map[string]css.Value{
		prop + "-top":    top,
		prop + "-right":  right,
		prop + "-bottom": bottom,
		prop + "-left":   left,
	}
}

// Get returns resolved property value.
func (s Style) Get(prop string) (css.Value, bool) {
	v, ok := s.props[prop]
	return v, ok
}

// Keyword returns lower-cased keyword of property or empty string.
func (s Style) Keyword(prop string) string {
	return strings.ToLower(s.props[prop].Keyword)
}

// Inline reports whether style belongs to inline element.
func (s Style) Inline() bool {
	return s.inline
}

// FontSize returns font size in points.
func (s Style) FontSize() float64 {
	if v, ok := s.props["font-size"]; ok && v.Value > 0 {
		return v.Value
	}
	if v, ok := s.defaults["font-size"]; ok && v.Value > 0 {
		return v.Value
	}
	return css.DefaultFontPt
}

var genericFamilies = map[string]string{
	"monospace":  "Courier New",
	"serif":      "Times New Roman",
	"sans-serif": "Arial",
	"cursive":    "Comic Sans MS",
	"fantasy":    "Impact",
	"system-ui":  "Segoe UI",
}

// FontFamily returns first family of the font-family list with generic
// families replaced by common fonts.
func (s Style) FontFamily() string {
	v, ok := s.props["font-family"]
	if !ok {
		return ""
	}
	families := css.SplitList(v.Raw)
	if len(families) == 0 {
		return ""
	}
	family := css.Unquote(families[0])
	if g, ok := genericFamilies[strings.ToLower(family)]; ok {
		return g
	}
	return family
}

// Bold reports effective boldness.
func (s Style) Bold() bool {
	v, ok := s.props["font-weight"]
	if !ok {
		return false
	}
	if v.IsNumeric() {
		return v.Value >= 600
	}
	return v.Is("bold") || v.Is("bolder")
}

// Italic reports effective italic.
func (s Style) Italic() bool {
	k := s.Keyword("font-style")
	return k == "italic" || k == "oblique"
}

// SmallCaps reports font-variant small-caps.
func (s Style) SmallCaps() bool {
	return s.Keyword("font-variant") == "small-caps"
}

// DecorationLines returns effective decoration lines, sorted.
func (s Style) DecorationLines() []string {
	v, ok := s.props["text-decoration-line"]
	if !ok || v.Is(css.KeywordNone) {
		return nil
	}
	return strings.Fields(v.Keyword)
}

func (s Style) hasLine(line string) bool {
	return slices.Contains(s.DecorationLines(), line)
}

// Underline returns w:u value or empty string when text is not underlined.
func (s Style) Underline() string {
	if !s.hasLine("underline") {
		return ""
	}
	if u, ok := decorationStyles[s.Keyword("text-decoration-style")]; ok {
		return u
	}
	return "single"
}

// Strike returns "strike", "dstrike" or empty string.
func (s Style) Strike() string {
	if !s.hasLine("line-through") {
		return ""
	}
	if s.Keyword("text-decoration-style") == "double" {
		return "dstrike"
	}
	return "strike"
}

func (s Style) color(prop string) (string, bool) {
	v, ok := s.props[prop]
	if !ok {
		return "", false
	}
	return css.ParseColor(v.Raw)
}

// Color returns text color as RRGGBB.
func (s Style) Color() (string, bool) {
	return s.color("color")
}

// Background returns background color as RRGGBB.
func (s Style) Background() (string, bool) {
	return s.color("background-color")
}

// DecorationColor returns color of decoration lines.
func (s Style) DecorationColor() (string, bool) {
	return s.color("text-decoration-color")
}

// Length returns length property in twips, percentages are taken from
// percentBase (twips).
func (s Style) Length(prop string, percentBase int) (int, bool) {
	v, ok := s.props[prop]
	if !ok || !v.IsNumeric() {
		return 0, false
	}
	return css.ToTwips(v, s.FontSize(), float64(percentBase)/css.TwipsPerPoint)
}

// Hidden reports display: none.
func (s Style) Hidden() bool {
	return s.Keyword("display") == css.KeywordNone
}

// Invisible reports visibility which hides content but keeps its place.
func (s Style) Invisible() bool {
	k := s.Keyword("visibility")
	return k == "hidden" || k == "collapse"
}

// PreserveSpace reports whether white space and line breaks must be kept.
func (s Style) PreserveSpace() bool {
	switch s.Keyword("white-space") {
	case "pre", "pre-wrap", "break-spaces":
		return true
	}
	return false
}

// PreserveLines reports white-space: pre-line.
func (s Style) PreserveLines() bool {
	return s.Keyword("white-space") == "pre-line"
}

// RTL reports right-to-left direction.
func (s Style) RTL() bool {
	return s.Keyword("direction") == "rtl"
}

// Lang returns canonical language tag or empty string.
func (s Style) Lang() string {
	return s.props["lang"].Raw
}

func (s Style) String() string {
	keys := slices.Sorted(maps.Keys(s.props))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+s.props[k].Raw)
	}
	return strings.Join(parts, "; ")
}

// user agent declarations by tag
var uaTagStyles = map[string]string{
	"b":          "font-weight: bold",
	"strong":     "font-weight: bold",
	"i":          "font-style: italic",
	"em":         "font-style: italic",
	"cite":       "font-style: italic",
	"var":        "font-style: italic",
	"dfn":        "font-style: italic",
	"address":    "font-style: italic",
	"u":          "text-decoration: underline",
	"ins":        "text-decoration: underline",
	"s":          "text-decoration: line-through",
	"strike":     "text-decoration: line-through",
	"del":        "text-decoration: line-through",
	"sub":        "vertical-align: sub",
	"sup":        "vertical-align: super",
	"code":       "font-family: monospace",
	"kbd":        "font-family: monospace",
	"samp":       "font-family: monospace",
	"tt":         "font-family: monospace",
	"pre":        "font-family: monospace; white-space: pre; margin-bottom: 1em",
	"listing":    "font-family: monospace; white-space: pre; margin-bottom: 1em",
	"xmp":        "font-family: monospace; white-space: pre; margin-bottom: 1em",
	"plaintext":  "font-family: monospace; white-space: pre",
	"mark":       "background-color: yellow",
	"small":      "font-size: smaller",
	"big":        "font-size: larger",
	"nobr":       "white-space: nowrap",
	"p":          "margin-bottom: 1em",
	"h1":         "font-size: 2em; font-weight: bold; margin-top: 0.67em; margin-bottom: 0.67em",
	"h2":         "font-size: 1.5em; font-weight: bold; margin-top: 0.83em; margin-bottom: 0.83em",
	"h3":         "font-size: 1.17em; font-weight: bold; margin-top: 1em; margin-bottom: 1em",
	"h4":         "font-weight: bold; margin-top: 1.33em; margin-bottom: 1.33em",
	"h5":         "font-size: 0.83em; font-weight: bold; margin-top: 1.67em; margin-bottom: 1.67em",
	"h6":         "font-size: 0.67em; font-weight: bold; margin-top: 2.33em; margin-bottom: 2.33em",
	"blockquote": "margin-left: 40px; margin-right: 40px; margin-bottom: 1em",
	"figure":     "margin-left: 40px; margin-right: 40px",
	"dd":         "margin-left: 40px",
	"dt":         "font-weight: bold",
	"center":     "text-align: center",
	"th":         "font-weight: bold; text-align: center",
	"caption":    "text-align: center",
}

const uaLinkStyle = "color: #0563C1; text-decoration: underline"

var (
	uaTagDecls  = make(map[string][]css.Declaration, len(uaTagStyles))
	uaLinkDecls = css.ParseDeclarations(uaLinkStyle)
)

func init() {
	for tag, style := range uaTagStyles {
		uaTagDecls[tag] = css.ParseDeclarations(style)
	}
}

// legacy <font size> values
var fontSizeAttr = [...]string{"x-small", "x-small", "small", "medium", "large", "x-large", "xx-large", "xxx-large"}

// uaDeclarations returns user agent declarations for the node: tag defaults
// and presentational attributes.
func uaDeclarations(n *markup.Node) []css.Declaration {
	decls := slices.Clone(uaTagDecls[n.Tag])
	add := func(prop, val string) {
		decls = append(decls, css.Declaration{Property: prop, Value: css.ParseValue(val), Index: len(decls)})
	}

	if n.Tag == "a" {
		if _, ok := n.Attr("href"); ok {
			decls = append(decls, uaLinkDecls...)
		}
	}
	if v := n.AttrOr("align", ""); v != "" && n.Tag != "table" && n.Tag != "img" {
		if strings.EqualFold(v, "middle") {
			v = "center"
		}
		add("text-align", v)
	}
	if v := n.AttrOr("bgcolor", ""); v != "" {
		add("background-color", v)
	}
	if v := n.AttrOr("valign", ""); v != "" {
		add("vertical-align", v)
	}
	if v := n.AttrOr("dir", ""); v != "" {
		add("direction", v)
	}
	if _, ok := n.Attr("hidden"); ok {
		add("display", "none")
	}
	if n.Tag == "font" {
		if v := n.AttrOr("color", ""); v != "" {
			add("color", v)
		}
		if v := n.AttrOr("face", ""); v != "" {
			decls = append(decls, css.Declaration{Property: "font-family", Value: css.Value{Raw: v, Keyword: v}, Index: len(decls)})
		}
		if v := n.AttrOr("size", ""); v != "" {
			if size, ok := legacyFontSize(v); ok {
				add("font-size", size)
			}
		}
	}
	if v := n.AttrOr("lang", n.AttrOr("xml:lang", "")); v != "" {
		if tag, err := language.Parse(v); err == nil {
			decls = append(decls, css.Declaration{Property: "lang", Value: css.Value{Raw: tag.String(), Keyword: tag.String()}, Index: len(decls)})
		}
	}
	return decls
}

func legacyFontSize(v string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimLeft(v, "+-"))
	if err != nil {
		return "", false
	}
	switch v[0] {
	case '+':
		n = 3 + n
	case '-':
		n = 3 - n
	}
	n = min(max(n, 1), 7)
	return fontSizeAttr[n], true
}
