package css

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var namedColors = map[string]string{
	"black":   "000000",
	"silver":  "C0C0C0",
	"gray":    "808080",
	"grey":    "808080",
	"white":   "FFFFFF",
	"maroon":  "800000",
	"red":     "FF0000",
	"purple":  "800080",
	"fuchsia": "FF00FF",
	"magenta": "FF00FF",
	"green":   "008000",
	"lime":    "00FF00",
	"olive":   "808000",
	"yellow":  "FFFF00",
	"navy":    "000080",
	"blue":    "0000FF",
	"teal":    "008080",
	"aqua":    "00FFFF",
	"cyan":    "00FFFF",
	"orange":  "FFA500",

	"aliceblue":      "F0F8FF",
	"beige":          "F5F5DC",
	"brown":          "A52A2A",
	"coral":          "FF7F50",
	"crimson":        "DC143C",
	"darkblue":       "00008B",
	"darkgray":       "A9A9A9",
	"darkgrey":       "A9A9A9",
	"darkgreen":      "006400",
	"darkred":        "8B0000",
	"darkorange":     "FF8C00",
	"dimgray":        "696969",
	"dimgrey":        "696969",
	"gold":           "FFD700",
	"goldenrod":      "DAA520",
	"indigo":         "4B0082",
	"ivory":          "FFFFF0",
	"khaki":          "F0E68C",
	"lavender":       "E6E6FA",
	"lightblue":      "ADD8E6",
	"lightgray":      "D3D3D3",
	"lightgrey":      "D3D3D3",
	"lightgreen":     "90EE90",
	"lightyellow":    "FFFFE0",
	"linen":          "FAF0E6",
	"orangered":      "FF4500",
	"pink":           "FFC0CB",
	"plum":           "DDA0DD",
	"royalblue":      "4169E1",
	"salmon":         "FA8072",
	"seagreen":       "2E8B57",
	"sienna":         "A0522D",
	"skyblue":        "87CEEB",
	"slategray":      "708090",
	"slategrey":      "708090",
	"steelblue":      "4682B4",
	"tan":            "D2B48C",
	"tomato":         "FF6347",
	"turquoise":      "40E0D0",
	"violet":         "EE82EE",
	"wheat":          "F5DEB3",
	"whitesmoke":     "F5F5F5",
	"yellowgreen":    "9ACD32",
	"rebeccapurple":  "663399",
	"cornflowerblue": "6495ED",
}

// ParseColor converts CSS color to upper-case RRGGBB hex used by
// WordprocessingML. Transparent, currentColor and unknown values are
// rejected.
func ParseColor(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return "", false
	case strings.HasPrefix(s, "#"):
		return parseHexColor(s[1:])
	case strings.HasPrefix(s, "rgb"):
		return parseRGBFunc(s)
	case strings.HasPrefix(s, "hsl"):
		return parseHSLFunc(s)
	}
	if hex, ok := namedColors[s]; ok {
		return hex, true
	}
	return "", false
}

func parseHexColor(h string) (string, bool) {
	switch len(h) {
	case 3, 4:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6:
	case 8:
		h = h[:6]
	default:
		return "", false
	}
	if _, err := strconv.ParseUint(h, 16, 32); err != nil {
		return "", false
	}
	return strings.ToUpper(h), true
}

func functionArgs(s string) ([]string, bool) {
	open, closing := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || closing < open {
		return nil, false
	}
	args := strings.FieldsFunc(s[open+1:closing], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/' || r == '\t'
	})
	if len(args) < 3 {
		return nil, false
	}
	// alpha channel is ignored
	if len(args) == 4 && alphaIsZero(args[3]) {
		return nil, false
	}
	return args[:3], true
}

func alphaIsZero(a string) bool {
	if strings.HasSuffix(a, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(a, "%"), 64)
		return err == nil && v == 0
	}
	v, err := strconv.ParseFloat(a, 64)
	return err == nil && v == 0
}

func parseRGBFunc(s string) (string, bool) {
	args, ok := functionArgs(s)
	if !ok {
		return "", false
	}
	var c [3]int
	for i, a := range args {
		var (
			v   float64
			err error
		)
		if strings.HasSuffix(a, "%") {
			v, err = strconv.ParseFloat(strings.TrimSuffix(a, "%"), 64)
			v = v * 255 / 100
		} else {
			v, err = strconv.ParseFloat(a, 64)
		}
		if err != nil {
			return "", false
		}
		c[i] = clampByte(v)
	}
	return fmt.Sprintf("%02X%02X%02X", c[0], c[1], c[2]), true
}

func parseHSLFunc(s string) (string, bool) {
	args, ok := functionArgs(s)
	if !ok {
		return "", false
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return "", false
	}
	sat, err1 := strconv.ParseFloat(strings.TrimSuffix(args[1], "%"), 64)
	light, err2 := strconv.ParseFloat(strings.TrimSuffix(args[2], "%"), 64)
	if err1 != nil || err2 != nil {
		return "", false
	}
	h = math.Mod(math.Mod(h, 360)+360, 360) / 360
	sat, light = sat/100, light/100

	hue := func(p, q, t float64) float64 {
		switch {
		case t < 0:
			t++
		case t > 1:
			t--
		}
		switch {
		case t < 1.0/6:
			return p + (q-p)*6*t
		case t < 0.5:
			return q
		case t < 2.0/3:
			return p + (q-p)*(2.0/3-t)*6
		}
		return p
	}

	r, g, b := light, light, light
	if sat != 0 {
		q := light * (1 + sat)
		if light >= 0.5 {
			q = light + sat - light*sat
		}
		p := 2*light - q
		r, g, b = hue(p, q, h+1.0/3), hue(p, q, h), hue(p, q, h-1.0/3)
	}
	return fmt.Sprintf("%02X%02X%02X", clampByte(r*255), clampByte(g*255), clampByte(b*255)), true
}

func clampByte(v float64) int {
	return int(math.Round(math.Max(0, math.Min(255, v))))
}
