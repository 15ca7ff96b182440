package opc

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

func documentXML() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateElement("w:document").CreateElement("w:body")
	return doc
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	files := make(map[string][]byte)
	for i, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		files[f.Name] = b
		if i == 0 && f.Name != contentTypesPart {
			t.Errorf("first entry is %s", f.Name)
		}
	}
	return files
}

func TestAddRelationship(t *testing.T) {
	p := New()
	a := p.AddRelationship(DocumentPart, RelHyperlink, "https://example.com", true)
	b := p.AddRelationship(DocumentPart, RelHyperlink, "https://example.com", true)
	c := p.AddRelationship(DocumentPart, RelHyperlink, "https://example.org", true)
	h := p.AddRelationship("word/header1.xml", RelHyperlink, "https://example.com", true)

	if a != b {
		t.Errorf("same target got different ids %s %s", a, b)
	}
	if a == c {
		t.Errorf("different targets share id %s", a)
	}
	if a != "rId1" || c != "rId2" || h != "rId1" {
		t.Errorf("unexpected ids %s %s %s", a, c, h)
	}
	if got := len(p.Relationships(DocumentPart)); got != 2 {
		t.Errorf("document has %d relationships", got)
	}
}

func TestAddMedia(t *testing.T) {
	p := New()
	png := []byte("\x89PNG fake")
	id1 := p.AddMedia(DocumentPart, "My Logo.png", png)
	id2 := p.AddMedia(DocumentPart, "copy.png", png)
	id3 := p.AddMedia(DocumentPart, "My Logo.png", []byte("other"))
	hid := p.AddMedia("word/header1.xml", "whatever.png", png)

	if id1 != id2 {
		t.Errorf("identical data stored twice: %s %s", id1, id2)
	}
	if id1 == id3 {
		t.Error("different data share relationship")
	}
	if hid != "rId1" {
		t.Errorf("header relationship id %s", hid)
	}

	names := p.PartNames()
	want := []string{"word/media/my-logo-2.png", "word/media/my-logo.png"}
	if len(names) != 2 || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("PartNames() = %v, want %v", names, want)
	}
}

func TestWrite(t *testing.T) {
	p := New()
	if err := p.Write(io.Discard); err == nil {
		t.Fatal("package without document written")
	}

	if err := p.AddPart(DocumentPart, ContentTypeDocument, documentXML()); err != nil {
		t.Fatal(err)
	}
	p.AddRelationship(DocumentPart, RelNumbering, NumberingPart, false)
	p.AddMedia(DocumentPart, "a.png", []byte("png"))
	p.AddMedia(DocumentPart, "b.svg", []byte("<svg/>"))
	p.AddRelationship(DocumentPart, RelHyperlink, "https://example.com/?q=1&x=2", true)
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	if err := p.AddCoreProperties(CoreProperties("Title", "h2d", "en", id, time.Unix(0, 0))); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	files := readZip(t, buf.Bytes())

	for _, name := range []string{contentTypesPart, packageRelsPart, DocumentPart, "word/_rels/document.xml.rels",
		"word/media/a.png", "word/media/b.svg", CorePart} {
		if _, ok := files[name]; !ok {
			t.Errorf("missing %s", name)
		}
	}

	ct := string(files[contentTypesPart])
	for _, s := range []string{`Extension="png" ContentType="image/png"`, `Extension="svg" ContentType="image/svg+xml"`,
		`PartName="/word/document.xml"`, `PartName="/docProps/core.xml"`} {
		if !strings.Contains(ct, s) {
			t.Errorf("content types miss %s:\n%s", s, ct)
		}
	}

	rels := etree.NewDocument()
	if err := rels.ReadFromBytes(files["word/_rels/document.xml.rels"]); err != nil {
		t.Fatal(err)
	}
	targets := make(map[string]string)
	for _, r := range rels.FindElements("//Relationship") {
		targets[r.SelectAttrValue("Target", "")] = r.SelectAttrValue("TargetMode", "")
	}
	for target, mode := range map[string]string{"numbering.xml": "", "media/a.png": "", "media/b.svg": "", "https://example.com/?q=1&x=2": "External"} {
		if got, ok := targets[target]; !ok || got != mode {
			t.Errorf("relationship %s: mode %q, present %v", target, got, ok)
		}
	}

	root := etree.NewDocument()
	if err := root.ReadFromBytes(files[packageRelsPart]); err != nil {
		t.Fatal(err)
	}
	if r := root.FindElement("//Relationship[@Target='word/document.xml']"); r == nil {
		t.Error("package relationship to main document missing")
	}

	core := string(files[CorePart])
	if !strings.Contains(core, "urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8") || !strings.Contains(core, "1970-01-01T00:00:00Z") {
		t.Errorf("unexpected core properties:\n%s", core)
	}
}

func TestSave(t *testing.T) {
	p := New()
	if err := p.AddPart(DocumentPart, ContentTypeDocument, documentXML()); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "sub", "out.docx")
	if err := p.Save(out); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("saved file is not a zip: %v", err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Flags&0x8 != 0 {
			t.Errorf("%s still has data descriptor flag", f.Name)
		}
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(out), ".h2d-*"))
	if len(matches) != 0 {
		t.Errorf("temporary files left: %v", matches)
	}
}

func TestRelativeTarget(t *testing.T) {
	tests := []struct {
		source, target, want string
	}{
		{"", DocumentPart, DocumentPart},
		{DocumentPart, "word/media/a.png", "media/a.png"},
		{"word/header1.xml", "word/numbering.xml", "numbering.xml"},
		{DocumentPart, "docProps/core.xml", "/docProps/core.xml"},
	}
	for _, tt := range tests {
		if got := relativeTarget(tt.source, tt.target); got != tt.want {
			t.Errorf("relativeTarget(%q, %q) = %q, want %q", tt.source, tt.target, got, tt.want)
		}
	}
	if got := relsPartName(DocumentPart); got != "word/_rels/document.xml.rels" {
		t.Errorf("relsPartName() = %q", got)
	}
}
