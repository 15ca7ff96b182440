package css

import (
	"testing"
)

func TestToTwips(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		fontSize    float64
		percentBase float64
		want        int
		ok          bool
	}{
		{"points", "12pt", 11, 0, 240, true},
		{"pixels", "16px", 11, 0, 240, true},
		{"unitless as pixels", "4", 11, 0, 60, true},
		{"inches", "1in", 11, 0, 1440, true},
		{"centimeters", "2.54cm", 11, 0, 1440, true},
		{"millimeters", "25.4mm", 11, 0, 1440, true},
		{"em", "2em", 10, 0, 400, true},
		{"percent", "50%", 11, 100, 1000, true},
		{"percent without base", "50%", 11, 0, 0, false},
		{"keyword", "auto", 11, 0, 0, false},
		{"viewport", "10vw", 11, 0, 0, false},
		{"zero", "0", 11, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToTwips(ParseValue(tt.value), tt.fontSize, tt.percentBase)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ToTwips(%q) = %d, %v; want %d, %v", tt.value, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestToEighths(t *testing.T) {
	tests := []struct {
		value string
		want  int
		ok    bool
	}{
		{"thin", 6, true},
		{"medium", 18, true},
		{"thick", 30, true},
		{"1px", 6, true},
		{"2pt", 16, true},
		{"-1px", 0, false},
		{"solid", 0, false},
	}
	for _, tt := range tests {
		got, ok := ToEighths(ParseValue(tt.value))
		if ok != tt.ok || got != tt.want {
			t.Errorf("ToEighths(%q) = %d, %v; want %d, %v", tt.value, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEMUConversions(t *testing.T) {
	if got := PxToEMU(1); got != 9525 {
		t.Errorf("PxToEMU(1) = %d", got)
	}
	if got := TwipsToEMU(15); got != 9525 {
		t.Errorf("TwipsToEMU(15) = %d, must match one pixel", got)
	}
	if got := TwipsToPx(9360); got != 624 {
		t.Errorf("TwipsToPx(9360) = %v", got)
	}
	if got := ToHalfPoints(10.5); got != 21 {
		t.Errorf("ToHalfPoints(10.5) = %d", got)
	}
	if got := ToHalfPoints(0.0001); got != 1 {
		t.Errorf("ToHalfPoints(0.0001) = %d, tiny sizes must not round to zero", got)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#f00", "FF0000", true},
		{"#00ff7f", "00FF7F", true},
		{"#11223344", "112233", true},
		{"Red", "FF0000", true},
		{"rgb(255, 128, 0)", "FF8000", true},
		{"rgb(100%, 0%, 0%)", "FF0000", true},
		{"rgba(0,0,255,0.5)", "0000FF", true},
		{"rgba(0,0,255,0)", "", false},
		{"rgb(0 128 0 / 50%)", "008000", true},
		{"hsl(120, 100%, 25%)", "008000", true},
		{"hsl(0, 0%, 50%)", "808080", true},
		{"transparent", "", false},
		{"currentColor", "", false},
		{"#12", "", false},
		{"#ggg", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseColor(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseColor(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
