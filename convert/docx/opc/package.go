// Package opc assembles WordprocessingML parts into Open Packaging
// Conventions container: content types, relationships and media.
package opc

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/gosimple/slug"
	fixzip "github.com/hidez8891/zip"
	"github.com/maruel/natural"
	"go.uber.org/multierr"
)

// Well known part names.
const (
	DocumentPart  = "word/document.xml"
	NumberingPart = "word/numbering.xml"
	CorePart      = "docProps/core.xml"
	MediaDir      = "word/media"

	contentTypesPart = "[Content_Types].xml"
	packageRelsPart  = "_rels/.rels"
)

// Content types of parts we produce.
const (
	ContentTypeDocument  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ContentTypeNumbering = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"
	ContentTypeHeader    = "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"
	ContentTypeFooter    = "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"
	ContentTypeCore      = "application/vnd.openxmlformats-package.core-properties+xml"

	contentTypeRels = "application/vnd.openxmlformats-package.relationships+xml"
	nsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
)

// Relationship is a single entry of part relationships.
type Relationship struct {
	ID       string
	Kind     RelKind
	Target   string
	External bool
}

type part struct {
	name        string
	contentType string
	data        []byte
}

// Package collects parts in memory and writes them out as a zip archive.
// It is used by single render and is not safe for concurrent use.
type Package struct {
	parts map[string]*part
	rels  map[string][]Relationship
	// media content hash -> stored part name
	media map[[sha256.Size]byte]string
	names map[string]int
}

// New creates empty package with main document relationship in place.
func New() *Package {
	p := &Package{
		parts: make(map[string]*part),
		rels:  make(map[string][]Relationship),
		media: make(map[[sha256.Size]byte]string),
		names: make(map[string]int),
	}
	p.AddRelationship("", RelOfficeDocument, DocumentPart, false)
	return p
}

// AddRelationship registers relationship of a source part and returns its
// id. Same (kind, target, external) triple of a part always gets the same id.
// Internal targets are package absolute part names; they are written
// relative to the source part.
func (p *Package) AddRelationship(source string, kind RelKind, target string, external bool) string {
	for _, r := range p.rels[source] {
		if r.Kind == kind && r.Target == target && r.External == external {
			return r.ID
		}
	}
	id := "rId" + strconv.Itoa(len(p.rels[source])+1)
	p.rels[source] = append(p.rels[source], Relationship{ID: id, Kind: kind, Target: target, External: external})
	return id
}

// Relationships returns relationships registered for source part.
func (p *Package) Relationships(source string) []Relationship {
	return p.rels[source]
}

// AddMedia stores image data under word/media and returns image relationship
// id for source part. Identical data is stored once.
func (p *Package) AddMedia(source, name string, data []byte) string {
	sum := sha256.Sum256(data)
	stored, ok := p.media[sum]
	if !ok {
		stored = p.uniqueName(MediaDir, name)
		p.media[sum] = stored
		p.AddData(stored, "", data)
	}
	return p.AddRelationship(source, RelImage, stored, false)
}

// uniqueName cleans name and makes sure it does not collide with names
// already used in dir.
func (p *Package) uniqueName(dir, name string) string {
	ext := strings.ToLower(path.Ext(name))
	base := slug.Make(strings.TrimSuffix(path.Base(name), path.Ext(name)))
	if base == "" {
		base = "image"
	}
	if len(base) > 48 {
		base = strings.TrimRight(base[:48], "-")
	}
	key := path.Join(dir, base+ext)
	n := p.names[key]
	p.names[key] = n + 1
	if n == 0 {
		return key
	}
	return path.Join(dir, base+"-"+strconv.Itoa(n+1)+ext)
}

// AddPart stores XML part.
func (p *Package) AddPart(name, contentType string, doc *etree.Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return fmt.Errorf("unable to serialize part %s: %w", name, err)
	}
	p.AddData(name, contentType, buf.Bytes())
	return nil
}

// AddData stores raw part. Empty content type means content type is derived
// from file extension.
func (p *Package) AddData(name, contentType string, data []byte) {
	p.parts[name] = &part{name: name, contentType: contentType, data: data}
}

// Has reports whether part was added.
func (p *Package) Has(name string) bool {
	_, ok := p.parts[name]
	return ok
}

// PartNames returns names of all stored parts in natural order.
func (p *Package) PartNames() []string {
	names := make([]string, 0, len(p.parts))
	for name := range p.parts {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

// Write writes package as zip archive. Content types and package
// relationships go first, parts follow in natural order.
func (p *Package) Write(w io.Writer) (err error) {
	if !p.Has(DocumentPart) {
		return fmt.Errorf("package has no main document part")
	}

	zw := zip.NewWriter(w)
	defer func() {
		err = multierr.Append(err, zw.Close())
	}()

	if err := writeXMLToZip(zw, contentTypesPart, p.contentTypes()); err != nil {
		return fmt.Errorf("unable to write content types: %w", err)
	}
	for _, name := range p.PartNames() {
		if err := writeDataToZip(zw, name, p.parts[name].data); err != nil {
			return fmt.Errorf("unable to write part %s: %w", name, err)
		}
	}

	sources := make([]string, 0, len(p.rels))
	for source := range p.rels {
		sources = append(sources, source)
	}
	sort.Sort(natural.StringSlice(sources))
	for _, source := range sources {
		if err := writeXMLToZip(zw, relsPartName(source), p.relationships(source)); err != nil {
			return fmt.Errorf("unable to write relationships of %q: %w", source, err)
		}
	}
	return nil
}

// Save writes package to file. Archive is written to temporary file first and
// then copied with data descriptors removed, some strict readers do not
// like streamed entries.
func (p *Package) Save(to string) (err error) {
	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(to), ".h2d-*.docx")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := p.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to close temporary file: %w", err)
	}
	return copyZipWithoutDataDescriptors(tmp.Name(), to)
}

func copyZipWithoutDataDescriptors(from, to string) (err error) {
	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	defer func() {
		err = multierr.Append(err, w.Close())
	}()

	for _, file := range r.File {
		file.Flags &= ^fixzip.FlagDataDescriptor
		if err := w.CopyFile(file); err != nil {
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	return nil
}

func (p *Package) contentTypes() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	types := doc.CreateElement("Types")
	types.CreateAttr("xmlns", nsContentTypes)

	defaults := map[string]string{
		"rels": contentTypeRels,
		"xml":  "application/xml",
	}
	var overrides []*part
	for _, name := range p.PartNames() {
		pt := p.parts[name]
		if pt.contentType != "" {
			overrides = append(overrides, pt)
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
		if ct := contentTypeByExt(ext); ct != "" {
			defaults[ext] = ct
		}
	}

	exts := make([]string, 0, len(defaults))
	for ext := range defaults {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		d := types.CreateElement("Default")
		d.CreateAttr("Extension", ext)
		d.CreateAttr("ContentType", defaults[ext])
	}
	for _, pt := range overrides {
		o := types.CreateElement("Override")
		o.CreateAttr("PartName", "/"+pt.name)
		o.CreateAttr("ContentType", pt.contentType)
	}
	return doc
}

func contentTypeByExt(ext string) string {
	switch ext {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tif", "tiff":
		return "image/tiff"
	case "svg":
		return "image/svg+xml"
	}
	return ""
}

func (p *Package) relationships(source string) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", nsRelationships)

	for _, r := range p.rels[source] {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", r.ID)
		el.CreateAttr("Type", r.Kind.URI())
		if r.External {
			el.CreateAttr("Target", r.Target)
			el.CreateAttr("TargetMode", "External")
			continue
		}
		el.CreateAttr("Target", relativeTarget(source, r.Target))
	}
	return doc
}

// relsPartName returns name of relationships part for source part, empty
// source is the package itself.
func relsPartName(source string) string {
	if source == "" {
		return packageRelsPart
	}
	dir, file := path.Split(source)
	return dir + "_rels/" + file + ".rels"
}

func relativeTarget(source, target string) string {
	dir := path.Dir(source)
	if source == "" || dir == "." {
		return target
	}
	if rel, ok := strings.CutPrefix(target, dir+"/"); ok {
		return rel
	}
	return "/" + target
}

func writeXMLToZip(zw *zip.Writer, name string, doc *etree.Document) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return err
	}
	return writeDataToZip(zw, name, buf.Bytes())
}

func writeDataToZip(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
