package css

import (
	"math"
)

// Conversion factors between CSS and WordprocessingML units.
const (
	PointsPerInch  = 72.0
	PixelsPerInch  = 96.0
	TwipsPerPoint  = 20
	TwipsPerPixel  = 15
	EMUPerPixel    = 9525
	EMUPerPoint    = 12700
	EMUPerTwip     = 635
	EighthsPerPx   = 6
	DefaultFontPt  = 11.0
	pointsPerPixel = PointsPerInch / PixelsPerInch
)

// ToPoints converts a length to points. fontSize (points) is used for font
// relative units and percentBase (points) for percentages; percentages are
// rejected when percentBase is not positive. Unit-less numbers are treated as
// pixels, which is how HTML presentational attributes behave.
func ToPoints(v Value, fontSize, percentBase float64) (float64, bool) {
	if !v.IsNumeric() {
		return 0, false
	}
	if fontSize <= 0 {
		fontSize = DefaultFontPt
	}
	n := v.Value
	switch v.Unit {
	case "pt":
		return n, true
	case "px", "":
		return n * pointsPerPixel, true
	case "in":
		return n * PointsPerInch, true
	case "cm":
		return n * PointsPerInch / 2.54, true
	case "mm":
		return n * PointsPerInch / 25.4, true
	case "q":
		return n * PointsPerInch / 101.6, true
	case "pc":
		return n * 12, true
	case "em", "rem":
		return n * fontSize, true
	case "ex", "ch":
		return n * fontSize / 2, true
	case "%":
		if percentBase <= 0 {
			return 0, false
		}
		return n * percentBase / 100, true
	}
	return 0, false
}

// ToTwips converts a length to twips (1/20 of a point).
func ToTwips(v Value, fontSize, percentBase float64) (int, bool) {
	pt, ok := ToPoints(v, fontSize, percentBase)
	if !ok {
		return 0, false
	}
	return int(math.Round(pt * TwipsPerPoint)), true
}

// ToPixels converts a length to CSS pixels.
func ToPixels(v Value, fontSize, percentBase float64) (float64, bool) {
	pt, ok := ToPoints(v, fontSize, percentBase)
	if !ok {
		return 0, false
	}
	return pt / pointsPerPixel, true
}

// ToHalfPoints converts a font size to half-points used by w:sz, result is
// never below 1.
func ToHalfPoints(pt float64) int {
	return max(int(math.Round(pt*2)), 1)
}

// ToEighths converts a border width to eighths of a point (w:sz of borders).
// Keywords thin, medium and thick are 1, 3 and 5 pixels.
func ToEighths(v Value) (int, bool) {
	switch v.Keyword {
	case "thin":
		return 1 * EighthsPerPx, true
	case "medium":
		return 3 * EighthsPerPx, true
	case "thick":
		return 5 * EighthsPerPx, true
	}
	pt, ok := ToPoints(v, DefaultFontPt, 0)
	if !ok || pt < 0 {
		return 0, false
	}
	return int(math.Round(pt * 8)), true
}

// PxToEMU converts pixels to English Metric Units used by DrawingML.
func PxToEMU(px float64) int64 {
	return int64(math.Round(px * EMUPerPixel))
}

// TwipsToEMU converts twips to English Metric Units.
func TwipsToEMU(twips int) int64 {
	return int64(twips) * EMUPerTwip
}

// TwipsToPx converts twips to CSS pixels.
func TwipsToPx(twips int) float64 {
	return float64(twips) / TwipsPerPixel
}
