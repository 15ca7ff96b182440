package docx

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"go.uber.org/zap/zaptest"

	"h2d/common"
	"h2d/config"
	"h2d/convert/docx/opc"
	"h2d/markup"
)

func parseHTML(t *testing.T, src string) *markup.Node {
	t.Helper()
	body, err := markup.ParseFragment(strings.NewReader(src), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	return body
}

func renderHTML(t *testing.T, src string, opts Options) *Result {
	t.Helper()
	res, err := Render(context.Background(), Document{Body: parseHTML(t, src)}, opts, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return res
}

// textOf concatenates text of all runs under el in document order.
func textOf(el *etree.Element) string {
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if c.Space == "w" && c.Tag == "t" {
				sb.WriteString(c.Text())
				continue
			}
			walk(c)
		}
	}
	walk(el)
	return sb.String()
}

// paragraphs returns top level paragraphs of rendered body.
func paragraphs(res *Result) []*etree.Element {
	return res.Body.FindElements("./w:p")
}

func TestRenderErrors(t *testing.T) {
	if _, err := Render(context.Background(), Document{}, Options{}, zaptest.NewLogger(t)); !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Render(ctx, Document{Body: parseHTML(t, "<p>text</p>")}, Options{}, zaptest.NewLogger(t))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRenderEmptyBody(t *testing.T) {
	res := renderHTML(t, "  \n ", Options{})
	ps := paragraphs(res)
	if len(ps) != 1 {
		t.Fatalf("empty body rendered into %d paragraphs", len(ps))
	}
	if res.Numbering != nil {
		t.Error("numbering produced without lists")
	}
}

func TestRenderBlocks(t *testing.T) {
	res := renderHTML(t, `<h1>Title</h1>
		<div>loose <b>text</b><p>inner</p>tail</div>
		<hr>
		<blockquote><p>quoted</p></blockquote>`, Options{})

	ps := paragraphs(res)
	var texts []string
	for _, p := range ps {
		texts = append(texts, textOf(p))
	}
	want := []string{"Title", "loose text", "inner", "tail", "", "quoted"}
	if len(texts) != len(want) {
		t.Fatalf("paragraph texts %q, want %q", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("paragraph texts %q, want %q", texts, want)
		}
	}

	h := ps[0]
	if h.FindElement("./w:pPr/w:keepNext") == nil {
		t.Error("heading does not keep with next")
	}
	if lvl := h.FindElement("./w:pPr/w:outlineLvl"); lvl == nil || lvl.SelectAttrValue("w:val", "") != "0" {
		t.Error("heading outline level missing")
	}
	if h.FindElement("./w:r/w:rPr/w:b") == nil {
		t.Error("heading is not bold")
	}
	if ps[4].FindElement("./w:pPr/w:pBdr/w:bottom") == nil {
		t.Error("rule has no bottom border")
	}
	ind := ps[5].FindElement("./w:pPr/w:ind")
	if ind == nil || ind.SelectAttrValue("w:left", "0") == "0" {
		t.Error("blockquote content is not indented")
	}
}

func TestRenderParagraphProperties(t *testing.T) {
	res := renderHTML(t, `<p style="text-align: justify; margin: 12pt 0 6pt 36pt; text-indent: -18pt; line-height: 1.5; page-break-before: always">x</p>`, Options{})
	ppr := paragraphs(res)[0].SelectElement("w:pPr")
	if ppr == nil {
		t.Fatal("no paragraph properties")
	}

	var order []string
	for _, c := range ppr.ChildElements() {
		order = append(order, c.Tag)
	}
	if got := strings.Join(order, ","); got != "pageBreakBefore,spacing,ind,jc" {
		t.Errorf("pPr children %s", got)
	}

	spacing := ppr.SelectElement("w:spacing")
	for k, want := range map[string]string{"w:before": "240", "w:after": "120", "w:line": "360", "w:lineRule": "auto"} {
		if got := spacing.SelectAttrValue(k, ""); got != want {
			t.Errorf("spacing %s = %q, want %q", k, got, want)
		}
	}
	ind := ppr.SelectElement("w:ind")
	if ind.SelectAttrValue("w:left", "") != "720" || ind.SelectAttrValue("w:hanging", "") != "360" {
		t.Errorf("unexpected indent %v", ind.Attr)
	}
	if jc := ppr.SelectElement("w:jc"); jc.SelectAttrValue("w:val", "") != "both" {
		t.Error("justify not mapped")
	}
}

func TestRenderPageBreakAfter(t *testing.T) {
	res := renderHTML(t, `<p style="page-break-after: always">a</p><p>b</p>`, Options{})
	ps := paragraphs(res)
	if ps[0].FindElement("./w:pPr/w:pageBreakBefore") != nil {
		t.Error("break after applied before")
	}
	if ps[1].FindElement("./w:pPr/w:pageBreakBefore") == nil {
		t.Error("break after not applied to next paragraph")
	}
}

func TestRenderHeaderFooterStore(t *testing.T) {
	pkg := opc.New()
	doc := Document{
		Body:   parseHTML(t, `<ol><li>item</li></ol>`),
		Header: parseHTML(t, `<p>head</p>`),
		Footer: parseHTML(t, `footer <a href="https://example.com">link</a>`),
	}
	opts := Options{
		Package: pkg,
		Page: config.PageConfig{
			Width:       12240,
			Height:      15840,
			Orientation: common.OrientationLandscape,
			Margins:     config.MarginsConfig{Top: 1000, Right: 1100, Bottom: 1200, Left: 1300, Header: 500, Footer: 600},
		},
	}
	res, err := Render(context.Background(), doc, opts, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if res.Package != nil {
		t.Error("result carries package when one was provided")
	}
	if textOf(res.Header) != "head" || textOf(res.Footer) != "footer link" {
		t.Errorf("header %q footer %q", textOf(res.Header), textOf(res.Footer))
	}

	var footerLinks int
	for _, r := range pkg.Relationships(FooterPart) {
		if r.Kind == opc.RelHyperlink && r.External && r.Target == "https://example.com" {
			footerLinks++
		}
	}
	if footerLinks != 1 {
		t.Error("footer hyperlink registered on wrong part")
	}

	if err := res.Store(pkg); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	for _, name := range []string{opc.DocumentPart, opc.NumberingPart, HeaderPart, FooterPart} {
		if !pkg.Has(name) {
			t.Errorf("part %s not stored", name)
		}
	}

	sect := res.Document().FindElement("//w:body/w:sectPr")
	if sect == nil {
		t.Fatal("no section properties")
	}
	body := res.Document().FindElement("//w:body")
	if children := body.ChildElements(); children[len(children)-1].Tag != "sectPr" {
		t.Error("sectPr is not the last body element")
	}
	rels := map[string]opc.RelKind{}
	for _, r := range pkg.Relationships(opc.DocumentPart) {
		rels[r.ID] = r.Kind
	}
	if ref := sect.SelectElement("w:headerReference"); ref == nil || rels[ref.SelectAttrValue("r:id", "")] != opc.RelHeader {
		t.Error("header reference does not point to header relationship")
	}
	if ref := sect.SelectElement("w:footerReference"); ref == nil || rels[ref.SelectAttrValue("r:id", "")] != opc.RelFooter {
		t.Error("footer reference does not point to footer relationship")
	}
	pgSz := sect.SelectElement("w:pgSz")
	if pgSz.SelectAttrValue("w:w", "") != "15840" || pgSz.SelectAttrValue("w:h", "") != "12240" || pgSz.SelectAttrValue("w:orient", "") != "landscape" {
		t.Errorf("unexpected page size %v", pgSz.Attr)
	}
	pgMar := sect.SelectElement("w:pgMar")
	for k, want := range map[string]string{"w:top": "1000", "w:left": "1300", "w:header": "500", "w:footer": "600", "w:gutter": "0"} {
		if got := pgMar.SelectAttrValue(k, ""); got != want {
			t.Errorf("pgMar %s = %q, want %q", k, got, want)
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	src := `<h2 id="a">A</h2><ul><li>x<ol><li>y</li></ol></li></ul><table border="1"><tr><td rowspan="2">1</td><td>2</td></tr><tr><td>3</td></tr></table>`
	out := func() string {
		res := renderHTML(t, src, Options{})
		doc := res.Document()
		doc.Indent(0)
		s, err := doc.WriteToString()
		if err != nil {
			t.Fatalf("WriteToString() error = %v", err)
		}
		return s
	}
	if first := out(); first != out() {
		t.Error("rendering is not deterministic")
	}
}
