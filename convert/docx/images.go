package docx

import (
	"math"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"h2d/css"
	"h2d/markup"
	"h2d/media"
)

// fitImage computes display size in pixels. Explicit width and height win,
// a single explicit dimension scales the other one proportionally. The result
// is then limited by max-width (or available width when it is smaller) and
// max-height keeping aspect ratio. Zero arguments mean "not set". Both
// returned values are at least 1.
func fitImage(natW, natH, explicitW, explicitH, maxW, maxH, avail float64) (int, int) {
	if natW <= 0 || natH <= 0 {
		natW, natH = 1, 1
		if explicitW > 0 && explicitH > 0 {
			natW, natH = explicitW, explicitH
		}
	}

	w, h := natW, natH
	switch {
	case explicitW > 0 && explicitH > 0:
		w, h = explicitW, explicitH
	case explicitW > 0:
		w, h = explicitW, explicitW*natH/natW
	case explicitH > 0:
		w, h = explicitH*natW/natH, explicitH
	}

	limit := avail
	if maxW > 0 && (limit <= 0 || maxW < limit) {
		limit = maxW
	}
	if limit > 0 && w > limit {
		h, w = h*limit/w, limit
	}
	if maxH > 0 && h > maxH {
		w, h = w*maxH/h, maxH
	}
	return max(int(math.Round(w)), 1), max(int(math.Round(h)), 1)
}

// lengthPx resolves own (not inherited) length property of an element in
// pixels, style declarations win over attributes.
func lengthPx(n *markup.Node, st Style, prop string, basePx float64) float64 {
	v, ok := st.Get(prop)
	if !ok {
		attr, has := n.Attr(prop)
		if !has || (prop != "width" && prop != "height") {
			return 0
		}
		v = css.ParseValue(attr)
	}
	px, ok := css.ToPixels(v, st.FontSize(), basePx*css.PointsPerInch/css.PixelsPerInch)
	if !ok || px <= 0 {
		return 0
	}
	return px
}

// imageName derives media file name from image source.
func imageName(src string, img *media.Image) string {
	base := "image"
	if u, err := url.Parse(src); err == nil && u.Scheme != "data" {
		if b := path.Base(u.Path); b != "." && b != "/" && b != "" {
			base = strings.TrimSuffix(b, path.Ext(b))
		}
	}
	return base + "." + img.Ext()
}

// imageDrawing acquires and places <img>. Nil is returned when the image
// cannot be acquired, only the run holding it is dropped then.
func (s *session) imageDrawing(part string, n *markup.Node, st Style, width int) *etree.Element {
	src := n.AttrOr("src", n.AttrOr("data-src", ""))
	if src == "" {
		s.log.Debug("Image without source skipped")
		return nil
	}
	img, err := s.acquirer.Acquire(s.ctx, src)
	if err != nil {
		s.log.Warn("Unable to acquire image, skipping", zap.String("src", shortRef(src)), zap.Error(err))
		return nil
	}
	return s.drawing(part, n, st, width, img, imageName(src, img))
}

// svgDrawing places inline <svg> element.
func (s *session) svgDrawing(part string, n *markup.Node, st Style, width int) *etree.Element {
	if strings.TrimSpace(n.Text) == "" {
		return nil
	}
	img, err := s.acquirer.AcquireSVG([]byte(n.Text))
	if err != nil {
		s.log.Warn("Unable to prepare inline SVG, skipping", zap.Error(err))
		return nil
	}
	return s.drawing(part, n, st, width, img, "svg."+img.Ext())
}

func shortRef(src string) string {
	if len(src) > 64 {
		return src[:64] + "..."
	}
	return src
}

func (s *session) drawing(part string, n *markup.Node, st Style, width int, img *media.Image, name string) *etree.Element {
	availPx := css.TwipsToPx(width)
	wpx, hpx := fitImage(
		float64(img.Width), float64(img.Height),
		lengthPx(n, st, "width", availPx), lengthPx(n, st, "height", 0),
		lengthPx(n, st, "max-width", availPx), lengthPx(n, st, "max-height", 0),
		availPx,
	)
	cx, cy := css.PxToEMU(float64(wpx)), css.PxToEMU(float64(hpx))

	var blipID, svgID string
	if img.IsSVG() && img.Fallback != nil {
		svgID = s.rels.AddMedia(part, name, img.Data)
		fb := img.Fallback
		blipID = s.rels.AddMedia(part, strings.TrimSuffix(name, path.Ext(name))+"."+fb.Ext(), fb.Data)
	} else {
		blipID = s.rels.AddMedia(part, name, img.Data)
	}

	s.drawingID++
	id := strconv.Itoa(s.drawingID)
	ext := func(parent *etree.Element, tag string) {
		el := parent.CreateElement(tag)
		el.CreateAttr("cx", strconv.FormatInt(cx, 10))
		el.CreateAttr("cy", strconv.FormatInt(cy, 10))
	}

	drawing := etree.NewElement("w:drawing")
	inline := drawing.CreateElement("wp:inline")
	for _, k := range []string{"distT", "distB", "distL", "distR"} {
		inline.CreateAttr(k, "0")
	}
	ext(inline, "wp:extent")
	effect := inline.CreateElement("wp:effectExtent")
	for _, k := range []string{"l", "t", "r", "b"} {
		effect.CreateAttr(k, "0")
	}
	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", id)
	docPr.CreateAttr("name", "Picture "+id)
	if alt := n.AttrOr("alt", ""); alt != "" {
		docPr.CreateAttr("descr", alt)
	}
	if title := n.AttrOr("title", ""); title != "" {
		docPr.CreateAttr("title", title)
	}
	inline.CreateElement("wp:cNvGraphicFramePr").CreateElement("a:graphicFrameLocks").CreateAttr("noChangeAspect", "1")

	data := inline.CreateElement("a:graphic").CreateElement("a:graphicData")
	data.CreateAttr("uri", picURI)
	pic := data.CreateElement("pic:pic")

	nv := pic.CreateElement("pic:nvPicPr")
	cnv := nv.CreateElement("pic:cNvPr")
	cnv.CreateAttr("id", id)
	cnv.CreateAttr("name", name)
	nv.CreateElement("pic:cNvPicPr")

	fill := pic.CreateElement("pic:blipFill")
	blip := fill.CreateElement("a:blip")
	blip.CreateAttr("r:embed", blipID)
	if svgID != "" {
		e := blip.CreateElement("a:extLst").CreateElement("a:ext")
		e.CreateAttr("uri", svgExt)
		e.CreateElement("asvg:svgBlip").CreateAttr("r:embed", svgID)
	}
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")

	sp := pic.CreateElement("pic:spPr")
	xfrm := sp.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	ext(xfrm, "a:ext")
	geom := sp.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")

	return drawing
}
