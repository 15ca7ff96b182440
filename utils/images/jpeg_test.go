package images

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func density(t *testing.T, data []byte) (units byte, x, y uint16) {
	t.Helper()
	if !bytes.Equal(data[2:4], []byte{0xFF, 0xE0}) || !bytes.Equal(data[6:11], []byte("JFIF\x00")) {
		t.Fatalf("no JFIF segment: % x", data[:12])
	}
	return data[13], binary.BigEndian.Uint16(data[14:]), binary.BigEndian.Uint16(data[16:])
}

func TestSetJPEGDensity(t *testing.T) {
	t.Run("inserts segment", func(t *testing.T) {
		data := []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x04}
		out, err := SetJPEGDensity(data, 300)
		if err != nil {
			t.Fatalf("SetJPEGDensity() error = %v", err)
		}
		if units, x, y := density(t, out); units != 1 || x != 300 || y != 300 {
			t.Errorf("density = %d %dx%d", units, x, y)
		}
		if len(out) != len(data)+18 || !bytes.Equal(out[len(out)-4:], data[2:]) {
			t.Error("original payload must follow inserted segment")
		}
	})

	t.Run("updates existing segment", func(t *testing.T) {
		data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 1, 1, 0, 0, 1, 0, 1, 0, 0, 0xFF, 0xD9}
		out, err := SetJPEGDensity(data, ScreenDPI)
		if err != nil {
			t.Fatalf("SetJPEGDensity() error = %v", err)
		}
		if len(out) != len(data) {
			t.Fatalf("segment duplicated, %d bytes", len(out))
		}
		if units, x, y := density(t, out); units != 1 || x != ScreenDPI || y != ScreenDPI {
			t.Errorf("density = %d %dx%d", units, x, y)
		}
		if data[13] != 0 {
			t.Error("input modified")
		}
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name string
			data []byte
			dpi  int
		}{
			{"short", []byte{0xFF}, 96},
			{"not jpeg", []byte{0x89, 'P', 'N', 'G'}, 96},
			{"zero density", []byte{0xFF, 0xD8, 0xFF, 0xDB}, 0},
		}
		for _, tt := range tests {
			if _, err := SetJPEGDensity(tt.data, tt.dpi); err == nil {
				t.Errorf("%s: expected error", tt.name)
			}
		}
	})
}

func TestEncodeJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := range 8 {
		img.Set(x, 1, color.RGBA{200, 10, 10, 255})
	}

	data, err := EncodeJPEG(img, 90, ScreenDPI)
	if err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("result is not a jpeg: %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 4 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
	if _, x, _ := density(t, data); x != ScreenDPI {
		t.Errorf("density %d", x)
	}
}

func TestGrayAndOpacity(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := range 2 {
		for y := range 2 {
			rgba.Set(x, y, color.RGBA{50, 50, 50, 255})
		}
	}
	if !IsGrayscale(rgba) {
		t.Error("uniform gray image must be grayscale")
	}
	if !IsOpaque(rgba) {
		t.Error("image must be opaque")
	}
	if g := ToGray(rgba); g.Bounds() != rgba.Bounds() || g.GrayAt(1, 1).Y != 50 {
		t.Errorf("ToGray() produced %v", g.GrayAt(1, 1))
	}

	rgba.Set(0, 0, color.RGBA{255, 0, 0, 255})
	if IsGrayscale(rgba) {
		t.Error("red pixel must break grayscale")
	}
	nrgba := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	nrgba.Set(0, 0, color.NRGBA{0, 0, 0, 10})
	if IsOpaque(nrgba) {
		t.Error("translucent image must not be opaque")
	}
}
