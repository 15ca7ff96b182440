// Package css handles the subset of CSS found in inline style attributes:
// declaration lists, lengths and colors.
package css

import (
	"strings"
)

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string  // Original CSS value string (e.g., "1.2em", "bold", "#ff0000")
	Value   float64 // Numeric value if applicable
	Unit    string  // Unit if applicable: "em", "px", "%", "pt", etc.
	Keyword string  // Keyword if applicable: "bold", "italic", "center", etc.
}

// IsNumeric returns true if the value has a numeric component.
// This includes explicit zero values like "0" or "0px".
func (v Value) IsNumeric() bool {
	if v.Unit != "" {
		return true
	}
	if v.Value != 0 && v.Keyword == "" {
		return true
	}
	if v.Raw != "" && v.Keyword == "" {
		c := v.Raw[0]
		return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+'
	}
	return false
}

// IsKeyword returns true if the value is a keyword (no numeric component).
func (v Value) IsKeyword() bool {
	return v.Keyword != "" && v.Unit == ""
}

// Is reports whether value is the given keyword, case insensitive.
func (v Value) Is(keyword string) bool {
	return strings.EqualFold(v.Keyword, keyword)
}

// IsEmpty reports whether value carries nothing at all.
func (v Value) IsEmpty() bool {
	return v.Raw == "" && v.Keyword == "" && v.Unit == "" && v.Value == 0
}

// Declaration is a single property declaration taken from a style attribute.
type Declaration struct {
	Property  string
	Value     Value
	Important bool
	// Index is the position of the declaration among accepted declarations
	// of the same attribute. Later declarations win ties between a shorthand
	// and its longhands.
	Index int
}

func (d Declaration) String() string {
	s := d.Property + ": " + d.Value.Raw
	if d.Important {
		s += " !important"
	}
	return s
}

// Reset keywords that stop inheritance from ancestors.
const (
	KeywordInherit = "inherit"
	KeywordInitial = "initial"
	KeywordUnset   = "unset"
	KeywordNormal  = "normal"
	KeywordNone    = "none"
)

// IsGlobalKeyword reports whether value is one of CSS-wide keywords.
func (v Value) IsGlobalKeyword() bool {
	switch strings.ToLower(v.Keyword) {
	case KeywordInherit, KeywordInitial, KeywordUnset, "revert":
		return true
	}
	return false
}
