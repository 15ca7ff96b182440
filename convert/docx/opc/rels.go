package opc

import (
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
)

// RelKind is relationship type.
type RelKind int

const (
	RelOfficeDocument RelKind = iota
	RelCoreProperties
	RelNumbering
	RelHeader
	RelFooter
	RelImage
	RelHyperlink
)

const (
	nsOfficeRels = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPackageMD  = "http://schemas.openxmlformats.org/package/2006/relationships/metadata"
)

var relURIs = [...]string{
	RelOfficeDocument: nsOfficeRels + "/officeDocument",
	RelCoreProperties: nsPackageMD + "/core-properties",
	RelNumbering:      nsOfficeRels + "/numbering",
	RelHeader:         nsOfficeRels + "/header",
	RelFooter:         nsOfficeRels + "/footer",
	RelImage:          nsOfficeRels + "/image",
	RelHyperlink:      nsOfficeRels + "/hyperlink",
}

// URI returns relationship type URI.
func (k RelKind) URI() string {
	if k >= 0 && int(k) < len(relURIs) {
		return relURIs[k]
	}
	return ""
}

func (k RelKind) String() string {
	switch k {
	case RelOfficeDocument:
		return "officeDocument"
	case RelCoreProperties:
		return "core-properties"
	case RelNumbering:
		return "numbering"
	case RelHeader:
		return "header"
	case RelFooter:
		return "footer"
	case RelImage:
		return "image"
	case RelHyperlink:
		return "hyperlink"
	}
	return "unknown"
}

// CoreProperties builds docProps/core.xml.
func CoreProperties(title, creator, lang string, id uuid.UUID, now time.Time) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	cp := doc.CreateElement("cp:coreProperties")
	cp.CreateAttr("xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties")
	cp.CreateAttr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	cp.CreateAttr("xmlns:dcterms", "http://purl.org/dc/terms/")
	cp.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")

	if title != "" {
		cp.CreateElement("dc:title").SetText(title)
	}
	if creator != "" {
		cp.CreateElement("dc:creator").SetText(creator)
	}
	if lang != "" {
		cp.CreateElement("dc:language").SetText(lang)
	}
	cp.CreateElement("dc:identifier").SetText("urn:uuid:" + id.String())

	stamp := now.UTC().Format(time.RFC3339)
	for _, tag := range []string{"dcterms:created", "dcterms:modified"} {
		el := cp.CreateElement(tag)
		el.CreateAttr("xsi:type", "dcterms:W3CDTF")
		el.SetText(stamp)
	}
	return doc
}

// AddCoreProperties stores core properties part and links it to the package.
func (p *Package) AddCoreProperties(doc *etree.Document) error {
	if err := p.AddPart(CorePart, ContentTypeCore, doc); err != nil {
		return err
	}
	p.AddRelationship("", RelCoreProperties, CorePart, false)
	return nil
}
