package images

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/beevik/etree"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"h2d/css"
)

// Replaced-element default size browsers use for SVG without any dimensions.
const (
	DefaultSVGWidth  = 300
	DefaultSVGHeight = 150
)

// maxRasterDim is the maximum pixel dimension (width or height) allowed when
// rasterizing an SVG. Huge viewBox values would otherwise allocate gigabytes
// for the RGBA buffer.
var maxRasterDim = 8192

var ErrNotSVG = errors.New("not an svg image")

// SVGInfo is what we need to know about SVG image to place it.
type SVGInfo struct {
	Width      int
	Height     int
	HasViewBox bool
}

// InspectSVG reads root element of SVG image and returns its pixel size:
// width/height attributes when present, otherwise derived from viewBox, and
// finally browser default 300x150.
func InspectSVG(svgData []byte) (SVGInfo, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(svgData); err != nil {
		return SVGInfo{}, err
	}
	root := doc.Root()
	if root == nil || !strings.EqualFold(root.Tag, "svg") {
		return SVGInfo{}, ErrNotSVG
	}

	var info SVGInfo
	var vbW, vbH float64
	if vb := root.SelectAttrValue("viewBox", ""); vb != "" {
		parts := strings.FieldsFunc(vb, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
		if len(parts) == 4 {
			w, h := css.ParseValue(parts[2]), css.ParseValue(parts[3])
			if w.Value > 0 && h.Value > 0 {
				info.HasViewBox = true
				vbW, vbH = w.Value, h.Value
			}
		}
	}

	w, wok := svgLength(root.SelectAttrValue("width", ""))
	h, hok := svgLength(root.SelectAttrValue("height", ""))
	switch {
	case wok && hok:
	case wok && info.HasViewBox:
		h = w * vbH / vbW
	case hok && info.HasViewBox:
		w = h * vbW / vbH
	case info.HasViewBox:
		w, h = vbW, vbH
	default:
		if !wok {
			w = DefaultSVGWidth
		}
		if !hok {
			h = DefaultSVGHeight
		}
	}
	info.Width = max(int(math.Round(w)), 1)
	info.Height = max(int(math.Round(h)), 1)
	return info, nil
}

func svgLength(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v := css.ParseValue(s)
	if v.Unit == "%" {
		return 0, false
	}
	px, ok := css.ToPixels(v, css.DefaultFontPt, 0)
	return px, ok && px > 0
}

// RasterizeSVGToImage rasterizes SVG to an RGBA image on white background.
//
// Rules:
//   - if targetW == 0 && targetH == 0: use SVG viewBox dimensions (fallback to 300x150)
//   - if only one of targetW/targetH is > 0: scale by that dimension keeping aspect ratio
//   - if both targetW and targetH are > 0: fit into that box keeping aspect ratio
func RasterizeSVGToImage(svgData []byte, targetW, targetH int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, err
	}

	intrW := int(math.Ceil(icon.ViewBox.W))
	intrH := int(math.Ceil(icon.ViewBox.H))
	if intrW <= 0 {
		intrW = DefaultSVGWidth
	}
	if intrH <= 0 {
		intrH = DefaultSVGHeight
	}

	w, h := intrW, intrH
	switch {
	case targetW <= 0 && targetH <= 0:
	case targetH <= 0:
		w = targetW
		h = int(math.Round(float64(w) * float64(intrH) / float64(intrW)))
	case targetW <= 0:
		h = targetH
		w = int(math.Round(float64(h) * float64(intrW) / float64(intrH)))
	default:
		scale := math.Min(float64(targetW)/float64(intrW), float64(targetH)/float64(intrH))
		w = int(math.Round(float64(intrW) * scale))
		h = int(math.Round(float64(intrH) * scale))
	}
	w, h = max(w, 1), max(h, 1)

	if w > maxRasterDim || h > maxRasterDim {
		s := min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}
