package docx

import (
	"math"
	"testing"

	"h2d/markup"
)

func el(tag, style string, children ...*markup.Node) *markup.Node {
	var attrs []markup.Attr
	if style != "" {
		attrs = append(attrs, markup.Attr{Key: "style", Val: style})
	}
	return markup.NewElement(tag, attrs...).Append(children...)
}

func withAttrs(n *markup.Node, kv ...string) *markup.Node {
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attrs = append(n.Attrs, markup.Attr{Key: kv[i], Val: kv[i+1]})
	}
	return n
}

func TestCascadeResetBlocksAncestors(t *testing.T) {
	root := NewStyle("Calibri", 11)
	bold := root.Cascade(el("b", ""))
	if !bold.Bold() {
		t.Fatal("b is not bold")
	}

	reset := bold.Cascade(el("span", "font-weight: normal"))
	if reset.Bold() {
		t.Error("explicit normal did not reset weight")
	}
	if reset.Cascade(el("span", "")).Cascade(el("i", "")).Bold() {
		t.Error("descendant of reset node inherited ancestor weight")
	}
	if !bold.Cascade(el("span", "")).Bold() {
		t.Error("sibling without reset lost inherited weight")
	}

	tests := []struct {
		name  string
		style string
		bold  bool
	}{
		{"initial", "font-weight: initial", false},
		{"unset inherited property", "font-weight: unset", true},
		{"inherit", "font-weight: inherit", true},
		{"lighter", "font-weight: lighter", false},
		{"numeric", "font-weight: 400", false},
		{"numeric bold", "font-weight: 700", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bold.Cascade(el("span", tt.style)).Bold(); got != tt.bold {
				t.Errorf("Bold() = %v, want %v", got, tt.bold)
			}
		})
	}
}

func TestCascadeDecorations(t *testing.T) {
	root := NewStyle("Calibri", 11)
	u := root.Cascade(el("u", ""))

	both := u.Cascade(el("span", "text-decoration: line-through"))
	if both.Underline() != "single" || both.Strike() != "strike" {
		t.Errorf("decorations not united: underline %q strike %q", both.Underline(), both.Strike())
	}

	none := u.Cascade(el("span", "text-decoration: none"))
	if none.Underline() != "" {
		t.Error("none did not clear underline")
	}
	if none.Cascade(el("em", "")).Underline() != "" {
		t.Error("cleared decoration came back in descendant")
	}

	last := root.Cascade(el("span", "text-decoration: underline; text-decoration: line-through"))
	if last.Underline() != "" || last.Strike() != "strike" {
		t.Error("last declaration does not define own contribution")
	}

	styled := root.Cascade(el("span", "text-decoration: underline dotted red"))
	if styled.Underline() != "dotted" {
		t.Errorf("Underline() = %q, want dotted", styled.Underline())
	}
	if c, ok := styled.DecorationColor(); !ok || c != "FF0000" {
		t.Errorf("DecorationColor() = %q, %v", c, ok)
	}

	// decorations reach text of nested blocks
	if root.Cascade(el("div", "text-decoration: underline")).Cascade(el("p", "")).Underline() == "" {
		t.Error("decoration of block lost in nested block")
	}
}

func TestCascadeFontSize(t *testing.T) {
	root := NewStyle("Calibri", 11)
	h1 := root.Cascade(el("h1", ""))

	tests := []struct {
		name   string
		parent Style
		style  string
		want   float64
	}{
		{"default", root, "", 11},
		{"heading", root.Cascade(el("div", "")), "font-size: 2em", 22},
		{"percent of parent", h1, "font-size: 150%", 33},
		{"em of parent", h1, "font-size: 0.5em", 11},
		{"rem of root", h1, "font-size: 2rem", 22},
		{"keyword", h1, "font-size: large", 13.5},
		{"points", h1, "font-size: 9pt", 9},
		{"pixels", root, "font-size: 16px", 12},
		{"larger", root, "font-size: larger", 13.2},
		{"invalid keeps inherited", h1, "font-size: -3px", 22},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.parent.Cascade(el("span", tt.style)).FontSize()
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("FontSize() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := h1.FontSize(); got != 22 {
		t.Errorf("h1 size = %v", got)
	}
	if got := root.Cascade(el("small", "")).FontSize(); math.Abs(got-11/1.2) > 0.01 {
		t.Errorf("small size = %v", got)
	}
	if got := h1.Cascade(el("span", "font-size: initial")).FontSize(); got != 11 {
		t.Errorf("initial size = %v, want document default", got)
	}
}

func TestCascadeInlineOnlyProperties(t *testing.T) {
	root := NewStyle("Calibri", 11)
	block := root.Cascade(el("div", "background-color: #ff0000"))
	if _, ok := block.Background(); !ok {
		t.Fatal("block lost own background")
	}
	if _, ok := block.Cascade(el("span", "")).Background(); ok {
		t.Error("block background propagated into inline child")
	}

	mark := root.Cascade(el("mark", ""))
	if c, ok := mark.Cascade(el("b", "")).Background(); !ok || c != "FFFF00" {
		t.Errorf("inline background not propagated: %q %v", c, ok)
	}
	if _, ok := block.Cascade(el("span", "background-color: inherit")).Background(); !ok {
		t.Error("inherit keyword did not copy parent background")
	}

	sup := root.Cascade(el("sup", ""))
	if sup.Cascade(el("span", "")).Keyword("vertical-align") != "super" {
		t.Error("vertical-align of inline not propagated")
	}
	cell := root.Cascade(withAttrs(el("td", ""), "valign", "top"))
	if cell.Cascade(el("p", "")).Keyword("vertical-align") != "" {
		t.Error("cell alignment leaked into content")
	}
}

func TestCascadeImportant(t *testing.T) {
	root := NewStyle("Calibri", 11)
	st := root.Cascade(el("span", "color: red !important; color: blue"))
	if c, _ := st.Color(); c != "FF0000" {
		t.Errorf("Color() = %q, want FF0000", c)
	}
	st = root.Cascade(el("span", "color: red; color: blue"))
	if c, _ := st.Color(); c != "0000FF" {
		t.Errorf("Color() = %q, want 0000FF", c)
	}
	if root.Cascade(el("h2", "font-weight: normal")).Bold() {
		t.Error("own declaration lost to user agent style")
	}
}

func TestCascadePresentationalAttributes(t *testing.T) {
	root := NewStyle("Calibri", 11)

	font := root.Cascade(withAttrs(el("font", ""), "color", "red", "size", "5", "face", "Georgia, serif"))
	if c, _ := font.Color(); c != "FF0000" {
		t.Errorf("font color = %q", c)
	}
	if font.FontSize() != 18 {
		t.Errorf("font size = %v", font.FontSize())
	}
	if font.FontFamily() != "Georgia" {
		t.Errorf("font face = %q", font.FontFamily())
	}

	p := root.Cascade(withAttrs(el("p", ""), "align", "center", "lang", "en-us", "dir", "rtl"))
	if p.Keyword("text-align") != "center" || p.Lang() != "en-US" || !p.RTL() {
		t.Errorf("paragraph attributes lost: %s", p)
	}
	if !root.Cascade(withAttrs(el("div", ""), "hidden", "")).Hidden() {
		t.Error("hidden attribute ignored")
	}
	link := root.Cascade(withAttrs(el("a", ""), "href", "https://example.com"))
	if link.Underline() == "" {
		t.Error("link is not underlined")
	}
	if root.Cascade(el("a", "")).Underline() != "" {
		t.Error("anchor without href is underlined")
	}
}

func TestFontFamily(t *testing.T) {
	root := NewStyle("Calibri", 11)
	tests := []struct {
		style string
		want  string
	}{
		{"", "Calibri"},
		{"font-family: 'Times New Roman', serif", "Times New Roman"},
		{"font-family: monospace", "Courier New"},
		{"font-family: Arial Narrow, sans-serif", "Arial Narrow"},
		{"font: italic bold 12pt/1.5 Georgia, serif", "Georgia"},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			if got := root.Cascade(el("span", tt.style)).FontFamily(); got != tt.want {
				t.Errorf("FontFamily() = %q, want %q", got, tt.want)
			}
		})
	}

	st := root.Cascade(el("span", "font: italic bold 12pt/1.5 Georgia, serif"))
	if !st.Italic() || !st.Bold() || st.FontSize() != 12 {
		t.Errorf("font shorthand not expanded: %s", st)
	}
	if root.Cascade(el("code", "")).FontFamily() != "Courier New" {
		t.Error("code is not monospace")
	}
}

func TestExpandBox(t *testing.T) {
	root := NewStyle("Calibri", 11)
	st := root.Cascade(el("div", "margin: 10px 20px; margin-left: 5px"))
	for prop, want := range map[string]int{"margin-top": 150, "margin-right": 300, "margin-bottom": 150, "margin-left": 75} {
		if got, _ := st.Length(prop, 9360); got != want {
			t.Errorf("%s = %d, want %d", prop, got, want)
		}
	}
	st = root.Cascade(el("div", "padding: 1px 2px 3px"))
	if got, _ := st.Length("padding-left", 0); got != 30 {
		t.Errorf("padding-left = %d", got)
	}
	if got, _ := root.Cascade(el("div", "margin-left: 10%")).Length("margin-left", 9360); got != 936 {
		t.Errorf("percentage margin = %d", got)
	}
}
