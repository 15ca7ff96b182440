package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"mime"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"h2d/common"
	"h2d/utils/images"
)

const (
	svgMimeType = "image/svg+xml"
	jpegQuality = 90
	// SVG is rasterized at higher resolution than its natural size so
	// fallback looks sharp when document is zoomed.
	svgRasterScale = 2
)

// decode detects image format, its natural size and converts formats word
// processors do not understand.
func (a *Acquirer) decode(data []byte, declared string) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrUnknownFormat)
	}

	if sniffMimeType(data, declared) == svgMimeType {
		return a.prepareSVG(data)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: bad dimensions %dx%d", ErrUnknownFormat, cfg.Width, cfg.Height)
	}

	img := &Image{
		Data:     data,
		MimeType: "image/" + format,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}
	if format == "webp" {
		return a.transcode(img)
	}
	return img, nil
}

// sniffMimeType looks at content first and falls back to declared type.
func sniffMimeType(data []byte, declared string) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown && kind.MIME.Type == "image" {
		return kind.MIME.Value
	}
	if looksLikeSVG(data) {
		return svgMimeType
	}
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		return strings.ToLower(mt)
	}
	return ""
}

func looksLikeSVG(data []byte) bool {
	head := data[:min(len(data), 4096)]
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	head = bytes.TrimSpace(head)
	if len(head) == 0 || head[0] != '<' {
		return false
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// transcode converts WebP which cannot be embedded into a document. Grayscale
// opaque images become 8-bit gray PNG, other opaque images JPEG with screen
// density and everything else regular PNG.
func (a *Acquirer) transcode(src *Image) (*Image, error) {
	img, _, err := image.Decode(bytes.NewReader(src.Data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", src.MimeType, err)
	}

	var (
		buf      bytes.Buffer
		mimeType = "image/png"
	)
	opaque := images.IsOpaque(img)
	switch {
	case opaque && images.IsGrayscale(img):
		err = imaging.Encode(&buf, images.ToGray(img), imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	case opaque:
		var data []byte
		data, err = images.EncodeJPEG(img, jpegQuality, images.ScreenDPI)
		buf.Write(data)
		mimeType = "image/jpeg"
	default:
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	}
	if err != nil {
		return nil, fmt.Errorf("unable to transcode %s: %w", src.MimeType, err)
	}

	a.log.Debug("Transcoded image", zap.String("from", src.MimeType), zap.String("to", mimeType),
		zap.Int("before", len(src.Data)), zap.Int("after", buf.Len()))
	return &Image{Data: buf.Bytes(), MimeType: mimeType, Width: src.Width, Height: src.Height}, nil
}

// prepareSVG sanitizes markup and, depending on mode, returns either PNG
// raster or SVG itself carrying PNG fallback.
func (a *Acquirer) prepareSVG(data []byte) (*Image, error) {
	clean, err := a.sanitizer.Sanitize(data)
	if err != nil {
		return nil, fmt.Errorf("svg rejected: %w", err)
	}
	info, err := images.InspectSVG(clean)
	if err != nil {
		return nil, fmt.Errorf("unable to inspect svg: %w", err)
	}

	raster, err := rasterizeSVG(clean, info)
	if err != nil {
		return nil, fmt.Errorf("unable to rasterize svg: %w", err)
	}

	mode := a.opts.SVGMode
	if mode == common.SVGModeAuto {
		// viewBox means picture scales without loss
		mode = common.SVGModeConvert
		if info.HasViewBox {
			mode = common.SVGModeNative
		}
	}
	if mode != common.SVGModeNative {
		return raster, nil
	}
	return &Image{
		Data:     clean,
		MimeType: svgMimeType,
		Width:    info.Width,
		Height:   info.Height,
		Fallback: raster,
	}, nil
}

func rasterizeSVG(svg []byte, info images.SVGInfo) (*Image, error) {
	img, err := images.RasterizeSVGToImage(svg, info.Width*svgRasterScale, info.Height*svgRasterScale)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, err
	}
	return &Image{Data: buf.Bytes(), MimeType: "image/png", Width: info.Width, Height: info.Height}, nil
}
