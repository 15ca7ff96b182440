package docx

import (
	"strconv"
	"testing"

	"github.com/beevik/etree"

	"h2d/config"
)

func numPrOf(p *etree.Element) (ilvl, numID string, ok bool) {
	numPr := p.FindElement("./w:pPr/w:numPr")
	if numPr == nil {
		return "", "", false
	}
	return numPr.SelectElement("w:ilvl").SelectAttrValue("w:val", ""),
		numPr.SelectElement("w:numId").SelectAttrValue("w:val", ""), true
}

func TestRenderListItems(t *testing.T) {
	res := renderHTML(t, `<ul><li><b>One</b></li><li>Two</li></ul>`, Options{})
	ps := paragraphs(res)
	if len(ps) != 2 {
		t.Fatalf("%d paragraphs rendered", len(ps))
	}
	for i, p := range ps {
		ilvl, numID, ok := numPrOf(p)
		if !ok || ilvl != "0" || numID != "1" {
			t.Errorf("item %d numbering %q/%q/%v", i, ilvl, numID, ok)
		}
	}
	if ps[0].FindElement("./w:r/w:rPr/w:b") == nil {
		t.Error("first item is not bold")
	}
	if ps[1].FindElement("./w:r/w:rPr/w:b") != nil {
		t.Error("bold leaked into second item")
	}
}

func TestRenderListContinuation(t *testing.T) {
	res := renderHTML(t, `<ol><li><p>first</p><p>second</p></li><li>next</li></ol>`, Options{})
	ps := paragraphs(res)
	if len(ps) != 3 {
		t.Fatalf("%d paragraphs rendered", len(ps))
	}
	if _, _, ok := numPrOf(ps[0]); !ok {
		t.Error("first block of item is not numbered")
	}
	if _, _, ok := numPrOf(ps[1]); ok {
		t.Error("continuation block is numbered")
	}
	ind := ps[1].FindElement("./w:pPr/w:ind")
	if ind == nil || ind.SelectAttrValue("w:left", "") != "720" {
		t.Errorf("continuation is not aligned with item text: %v", ind)
	}
	if _, _, ok := numPrOf(ps[2]); !ok {
		t.Error("second item is not numbered")
	}
}

func TestRenderNestedLists(t *testing.T) {
	res := renderHTML(t, `<ol><li>a<ul><li>b<ol><li>c</li></ol></li></ul></li><li>d</li></ol>`, Options{})
	ps := paragraphs(res)
	want := []struct {
		text, ilvl, numID string
	}{
		{"a", "0", "1"},
		{"b", "1", "2"},
		{"c", "2", "3"},
		{"d", "0", "1"},
	}
	if len(ps) != len(want) {
		t.Fatalf("%d paragraphs rendered", len(ps))
	}
	for i, w := range want {
		ilvl, numID, ok := numPrOf(ps[i])
		if !ok || textOf(ps[i]) != w.text || ilvl != w.ilvl || numID != w.numID {
			t.Errorf("paragraph %d: %q %s/%s, want %q %s/%s", i, textOf(ps[i]), ilvl, numID, w.text, w.ilvl, w.numID)
		}
	}

	abs := res.Numbering.FindElements("//w:abstractNum")
	if len(abs) != 3 {
		t.Fatalf("%d abstract definitions", len(abs))
	}
	lvl := abs[1].FindElement("./w:lvl[@w:ilvl='1']")
	if lvl == nil || lvl.SelectElement("w:numFmt").SelectAttrValue("w:val", "") != "bullet" {
		t.Error("nested bullet list level has wrong format")
	}
}

func TestRenderListEdgeCases(t *testing.T) {
	res := renderHTML(t, `<ul></ul><ul><li></li></ul><li>orphan</li>`, Options{})
	ps := paragraphs(res)
	if len(ps) != 2 {
		t.Fatalf("%d paragraphs rendered", len(ps))
	}
	if _, _, ok := numPrOf(ps[0]); !ok || textOf(ps[0]) != "" {
		t.Error("empty item did not produce empty numbered paragraph")
	}
	if _, _, ok := numPrOf(ps[1]); !ok || textOf(ps[1]) != "orphan" {
		t.Error("item outside of list is not numbered")
	}
}

func TestRenderListItemStartingWithTable(t *testing.T) {
	res := renderHTML(t, `<ul><li><table><tr><td>cell</td></tr></table></li></ul>`, Options{})
	children := res.Body.ChildElements()
	if len(children) < 2 || children[0].Tag != "p" || children[1].Tag != "tbl" {
		t.Fatal("table in list item is not preceded by numbered paragraph")
	}
	if _, _, ok := numPrOf(children[0]); !ok {
		t.Error("marker paragraph is not numbered")
	}
	if ind := children[1].FindElement("./w:tblPr/w:tblInd"); ind == nil || ind.SelectAttrValue("w:w", "") != "720" {
		t.Error("table is not indented to item text")
	}
}

func TestNumberingDocument(t *testing.T) {
	res := renderHTML(t, `<ol type="A" start="3"><li>x</li></ol><ul style="list-style-type: square"><li>y</li></ul><ol style="list-style: none"><li>z</li></ol>`, Options{})
	if res.Numbering == nil {
		t.Fatal("numbering not produced")
	}
	root := res.Numbering.Root()
	seenNum := false
	for _, c := range root.ChildElements() {
		switch c.Tag {
		case "num":
			seenNum = true
		case "abstractNum":
			if seenNum {
				t.Fatal("abstractNum after num")
			}
		}
	}

	tests := []struct {
		abstract int
		numFmt   string
		lvlText  string
		start    string
	}{
		{0, "upperLetter", "%1.", "3"},
		{1, "bullet", "▪", "1"},
		{2, "none", "", "1"},
	}
	abs := root.SelectElements("w:abstractNum")
	for _, tt := range tests {
		lvl := abs[tt.abstract].SelectElement("w:lvl")
		if got := lvl.SelectElement("w:numFmt").SelectAttrValue("w:val", ""); got != tt.numFmt {
			t.Errorf("abstract %d numFmt %q, want %q", tt.abstract, got, tt.numFmt)
		}
		if got := lvl.SelectElement("w:lvlText").SelectAttrValue("w:val", ""); got != tt.lvlText {
			t.Errorf("abstract %d lvlText %q, want %q", tt.abstract, got, tt.lvlText)
		}
		if got := lvl.SelectElement("w:start").SelectAttrValue("w:val", ""); got != tt.start {
			t.Errorf("abstract %d start %q, want %q", tt.abstract, got, tt.start)
		}
		if got := len(abs[tt.abstract].SelectElements("w:lvl")); got != maxListLevel+1 {
			t.Errorf("abstract %d has %d levels", tt.abstract, got)
		}
	}
	for i, num := range root.SelectElements("w:num") {
		if num.SelectAttrValue("w:numId", "") != strconv.Itoa(i+1) {
			t.Errorf("num %d has id %s", i, num.SelectAttrValue("w:numId", ""))
		}
	}
}

func TestDefaultListFormat(t *testing.T) {
	cfg := &config.ListsConfig{Bullets: []string{"•", "◦"}, Ordered: []string{"decimal", "lowerRoman"}}
	tests := []struct {
		ordered bool
		level   int
		want    listFormat
	}{
		{false, 0, listFormat{numFmt: fmtBullet, glyph: "•", start: 1}},
		{false, 3, listFormat{numFmt: fmtBullet, glyph: "◦", start: 1}},
		{true, 1, listFormat{numFmt: "lowerRoman", start: 1}},
		{true, 2, listFormat{numFmt: "decimal", start: 1}},
	}
	for _, tt := range tests {
		if got := defaultListFormat(tt.ordered, tt.level, cfg); got != tt.want {
			t.Errorf("defaultListFormat(%v, %d) = %+v, want %+v", tt.ordered, tt.level, got, tt.want)
		}
	}
}

func TestRenderListItemWeightReset(t *testing.T) {
	res := renderHTML(t, `<ul style="font-weight: bold"><li>x</li><li style="font-weight:normal">y<span>z</span></li></ul>`, Options{})
	ps := paragraphs(res)
	if len(ps) != 2 {
		t.Fatalf("%d paragraphs rendered", len(ps))
	}
	_, first, _ := numPrOf(ps[0])
	_, second, _ := numPrOf(ps[1])
	if first == "" || first != second {
		t.Errorf("items of one list use numbering %q and %q", first, second)
	}
	if ps[0].FindElement("./w:r/w:rPr/w:b") == nil {
		t.Error("first item is not bold")
	}
	if ps[1].FindElement(".//w:rPr/w:b") != nil {
		t.Error("reset item or its descendants are bold")
	}
}
