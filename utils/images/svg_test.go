package images

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRasterizeSVGToImage(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 50"><rect width="100" height="50"/></svg>`)

	tests := []struct {
		name          string
		targetW, tgtH int
		wantW, wantH  int
	}{
		{"intrinsic", 0, 0, 100, 50},
		{"scale_by_width", 200, 0, 200, 100},
		{"scale_by_height", 0, 200, 400, 200},
		{"fit_box", 150, 150, 150, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := RasterizeSVGToImage(svg, tt.targetW, tt.tgtH)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img.Bounds().Dx() != tt.wantW || img.Bounds().Dy() != tt.wantH {
				t.Fatalf("unexpected bounds: %v", img.Bounds())
			}
		})
	}

	t.Run("clamped", func(t *testing.T) {
		img, err := RasterizeSVGToImage(svg, 100000, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if img.Bounds().Dx() > maxRasterDim || img.Bounds().Dy() > maxRasterDim {
			t.Fatalf("raster not clamped: %v", img.Bounds())
		}
	})
}

func TestInspectSVG(t *testing.T) {
	tests := []struct {
		name    string
		svg     string
		want    SVGInfo
		wantErr bool
	}{
		{
			name: "explicit size",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="20"/>`,
			want: SVGInfo{Width: 40, Height: 20},
		},
		{
			name: "units",
			svg:  `<svg width="1in" height="72pt"/>`,
			want: SVGInfo{Width: 96, Height: 96},
		},
		{
			name: "viewBox only",
			svg:  `<svg viewBox="0 0 120 60"><rect/></svg>`,
			want: SVGInfo{Width: 120, Height: 60, HasViewBox: true},
		},
		{
			name: "width and viewBox",
			svg:  `<svg width="240" viewBox="0,0,120,60"></svg>`,
			want: SVGInfo{Width: 240, Height: 120, HasViewBox: true},
		},
		{
			name: "percent falls back",
			svg:  `<svg width="100%" height="50%"></svg>`,
			want: SVGInfo{Width: DefaultSVGWidth, Height: DefaultSVGHeight},
		},
		{
			name:    "not svg",
			svg:     `<html><body/></html>`,
			wantErr: true,
		},
		{
			name:    "garbage",
			svg:     `not xml at all <<`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InspectSVG([]byte(tt.svg))
			if (err != nil) != tt.wantErr {
				t.Fatalf("InspectSVG() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("InspectSVG() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSanitizeSVG(t *testing.T) {
	in := []byte(`<?xml version="1.0"?>
<!DOCTYPE svg>
<svg viewBox="0 0 10 10" onload="alert(1)">
  <script>alert(2)</script>
  <a href="javascript:alert(3)"><rect width="10" height="10" onclick="x()"/></a>
  <use xlink:href="#shape"/>
  <image href="https://tracker.example.com/pixel.png"/>
  <foreignObject><div>html</div></foreignObject>
</svg>`)

	out, err := SanitizeSVG(in)
	if err != nil {
		t.Fatalf("SanitizeSVG() error = %v", err)
	}
	s := string(out)
	for _, bad := range []string{"alert", "onclick", "javascript", "tracker.example.com", "foreignObject", "DOCTYPE"} {
		if strings.Contains(s, bad) {
			t.Errorf("sanitized svg still contains %q:\n%s", bad, s)
		}
	}
	for _, good := range []string{`xmlns="http://www.w3.org/2000/svg"`, `xlink:href="#shape"`, `xmlns:xlink=`, "<rect"} {
		if !strings.Contains(s, good) {
			t.Errorf("sanitized svg lost %q:\n%s", good, s)
		}
	}

	// result is still renderable once dangling references are gone
	clean, err := SanitizeSVG([]byte(`<svg viewBox="0 0 10 10"><rect width="10" height="10" onclick="x()"/></svg>`))
	if err != nil {
		t.Fatalf("SanitizeSVG() error = %v", err)
	}
	if _, err := RasterizeSVGToImage(clean, 0, 0); err != nil {
		t.Errorf("sanitized svg cannot be rasterized: %v", err)
	}

	if _, err := SanitizeSVG([]byte(`<p>no</p>`)); !errors.Is(err, ErrNotSVG) {
		t.Errorf("expected ErrNotSVG, got %v", err)
	}
	if !bytes.Contains(out, []byte("<svg")) {
		t.Error("root element lost")
	}
}
