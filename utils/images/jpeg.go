package images

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/jpeg"
)

// ScreenDPI is density written into transcoded images so word processors
// show them at their CSS pixel size.
const ScreenDPI = 96

var (
	markerSOI  = []byte{0xFF, 0xD8}
	markerAPP0 = []byte{0xFF, 0xE0}
	jfifIdent  = []byte{'J', 'F', 'I', 'F', 0x00}
)

const (
	jfifUnitsDPI = 1
	// offsets inside APP0 segment counting from marker
	jfifUnitsOffset   = 11
	jfifSegmentLength = 16
)

// EncodeJPEG encodes image and stamps the result with pixel density.
func EncodeJPEG(img image.Image, quality, dpi int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return SetJPEGDensity(buf.Bytes(), dpi)
}

// SetJPEGDensity makes sure JPEG data starts with JFIF APP0 segment carrying
// requested density in dots per inch. Existing JFIF segment is updated in
// place, otherwise a new one is inserted right after SOI. Without density
// word processors assume 72 DPI and images appear larger than intended.
func SetJPEGDensity(data []byte, dpi int) ([]byte, error) {
	if len(data) < 4 {
		return nil, errors.New("jpeg too small")
	}
	if !bytes.HasPrefix(data, markerSOI) {
		return nil, errors.New("not a jpeg")
	}
	if dpi <= 0 || dpi > 0xFFFF {
		return nil, errors.New("density out of range")
	}

	if bytes.Equal(data[2:4], markerAPP0) && len(data) >= 2+2+jfifSegmentLength && bytes.Equal(data[6:11], jfifIdent) {
		out := bytes.Clone(data)
		units := out[2+jfifUnitsOffset:]
		units[0] = jfifUnitsDPI
		binary.BigEndian.PutUint16(units[1:], uint16(dpi))
		binary.BigEndian.PutUint16(units[3:], uint16(dpi))
		return out, nil
	}

	out := make([]byte, 0, len(data)+2+jfifSegmentLength)
	out = append(out, markerSOI...)
	out = append(out, markerAPP0...)
	out = binary.BigEndian.AppendUint16(out, jfifSegmentLength)
	out = append(out, jfifIdent...)
	out = append(out, 1, 2, jfifUnitsDPI) // version 1.02
	out = binary.BigEndian.AppendUint16(out, uint16(dpi))
	out = binary.BigEndian.AppendUint16(out, uint16(dpi))
	out = append(out, 0, 0) // no thumbnail
	return append(out, data[2:]...), nil
}
