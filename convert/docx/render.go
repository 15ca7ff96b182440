// Package docx renders source tree into WordprocessingML.
package docx

import (
	"context"
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"h2d/common"
	"h2d/convert/docx/opc"
	"h2d/markup"
	"h2d/media"
)

// ErrNoDocument is returned when there is nothing to render.
var ErrNoDocument = errors.New("no document body to render")

// Part names of header and footer.
const (
	HeaderPart = "word/header1.xml"
	FooterPart = "word/footer1.xml"
)

// Document is what gets rendered. Header and Footer are optional.
type Document struct {
	Body   *markup.Node
	Header *markup.Node
	Footer *markup.Node
}

// Result holds rendered parts.
type Result struct {
	Body      *etree.Element
	Header    *etree.Element
	Footer    *etree.Element
	Numbering *etree.Document
	Stats     media.Stats
	// Package is set when Options did not provide one.
	Package *opc.Package

	page      pageSetup
	headerRel string
	footerRel string
}

type pageSetup struct {
	width, height int
	landscape     bool
	margins       [6]int
}

// session is state of a single render, it is never shared.
type session struct {
	ctx       context.Context
	id        uuid.UUID
	log       *zap.Logger
	opts      Options
	rels      Relationships
	acquirer  *media.Acquirer
	numbering *numberingRegistry
	root      Style

	drawingID        int
	bookmarkID       int
	bookmarks        map[string]bool
	pendingBookmarks []string
	pageBreak        bool
}

// Render converts document into WordprocessingML parts. Only missing body
// and context cancellation are errors, problems with individual nodes and
// images are logged and skipped.
func Render(ctx context.Context, doc Document, opts Options, log *zap.Logger) (*Result, error) {
	if doc.Body == nil {
		return nil, ErrNoDocument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts.normalize()

	res := &Result{}
	rels := opts.Package
	if rels == nil {
		res.Package = opc.New()
		rels = res.Package
	}

	id := uuid.New()
	log = log.Named("docx").With(zap.Stringer("session", id))
	s := &session{
		ctx:       ctx,
		id:        id,
		log:       log,
		opts:      opts,
		rels:      rels,
		acquirer:  media.NewAcquirer(opts.Images, opts.Fetcher, opts.Sanitizer, log),
		root:      NewStyle(opts.FontFamily, opts.FontSize),
		bookmarks: make(map[string]bool),
	}
	s.numbering = newNumberingRegistry(&s.opts.Lists)

	res.Body = etree.NewElement("w:body")
	if err := s.renderPart(opc.DocumentPart, doc.Body, res.Body); err != nil {
		return nil, err
	}
	if doc.Header != nil {
		res.Header = etree.NewElement("w:hdr")
		declareNamespaces(res.Header)
		if err := s.renderPart(HeaderPart, doc.Header, res.Header); err != nil {
			return nil, err
		}
		res.headerRel = rels.AddRelationship(opc.DocumentPart, opc.RelHeader, HeaderPart, false)
	}
	if doc.Footer != nil {
		res.Footer = etree.NewElement("w:ftr")
		declareNamespaces(res.Footer)
		if err := s.renderPart(FooterPart, doc.Footer, res.Footer); err != nil {
			return nil, err
		}
		res.footerRel = rels.AddRelationship(opc.DocumentPart, opc.RelFooter, FooterPart, false)
	}
	if !s.numbering.empty() {
		res.Numbering = s.numbering.document()
		rels.AddRelationship(opc.DocumentPart, opc.RelNumbering, opc.NumberingPart, false)
	}

	page := opts.Page
	res.page = pageSetup{
		width:     page.Width,
		height:    page.Height,
		landscape: page.Orientation == common.OrientationLandscape,
		margins: [6]int{
			page.Margins.Top, page.Margins.Right, page.Margins.Bottom,
			page.Margins.Left, page.Margins.Header, page.Margins.Footer,
		},
	}
	if res.page.landscape && res.page.width < res.page.height {
		res.page.width, res.page.height = res.page.height, res.page.width
	}

	res.Stats = s.acquirer.Stats()
	log.Debug("Rendering done",
		zap.Int("lists", len(s.numbering.defs)),
		zap.Int("drawings", s.drawingID),
		zap.Int("bookmarks", s.bookmarkID),
		zap.Int("image hits", res.Stats.Hits),
		zap.Int("image misses", res.Stats.Misses),
		zap.Int("image failures", res.Stats.Failures),
		zap.Int("image retries", res.Stats.Retries),
	)
	return res, nil
}

// renderPart renders tree into container of a part making sure container
// ends with paragraph.
func (s *session) renderPart(part string, root *markup.Node, container *etree.Element) error {
	if err := s.renderBlocks(part, root, container); err != nil {
		return err
	}
	children := container.ChildElements()
	if len(s.pendingBookmarks) > 0 || len(children) == 0 || children[len(children)-1].Tag != "p" {
		s.emptyParagraph(container, s.root, paraOpts{})
	}
	s.pageBreak = false
	return nil
}

// Document wraps rendered body into main document part with section
// properties.
func (r *Result) Document() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("w:document")
	declareNamespaces(root)

	body := r.Body.Copy()
	root.AddChild(body)

	sect := w(body, "sectPr")
	if r.headerRel != "" {
		ref := w(sect, "headerReference")
		ref.CreateAttr("w:type", "default")
		ref.CreateAttr("r:id", r.headerRel)
	}
	if r.footerRel != "" {
		ref := w(sect, "footerReference")
		ref.CreateAttr("w:type", "default")
		ref.CreateAttr("r:id", r.footerRel)
	}
	pgSz := w(sect, "pgSz")
	wAttr(pgSz, "w", r.page.width)
	wAttr(pgSz, "h", r.page.height)
	if r.page.landscape {
		pgSz.CreateAttr("w:orient", "landscape")
	}
	pgMar := w(sect, "pgMar")
	for i, k := range []string{"top", "right", "bottom", "left", "header", "footer"} {
		wAttr(pgMar, k, r.page.margins[i])
	}
	wAttr(pgMar, "gutter", 0)
	return doc
}

func partDocument(el *etree.Element) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	doc.AddChild(el.Copy())
	return doc
}

// Store adds rendered parts to the package.
func (r *Result) Store(p *opc.Package) error {
	if err := p.AddPart(opc.DocumentPart, opc.ContentTypeDocument, r.Document()); err != nil {
		return fmt.Errorf("unable to store document: %w", err)
	}
	if r.Numbering != nil {
		if err := p.AddPart(opc.NumberingPart, opc.ContentTypeNumbering, r.Numbering); err != nil {
			return fmt.Errorf("unable to store numbering: %w", err)
		}
	}
	if r.Header != nil {
		if err := p.AddPart(HeaderPart, opc.ContentTypeHeader, partDocument(r.Header)); err != nil {
			return fmt.Errorf("unable to store header: %w", err)
		}
	}
	if r.Footer != nil {
		if err := p.AddPart(FooterPart, opc.ContentTypeFooter, partDocument(r.Footer)); err != nil {
			return fmt.Errorf("unable to store footer: %w", err)
		}
	}
	return nil
}
