package css

import (
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses inline style attributes into ordered declarations.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css")}
}

var nopParser = NewParser(nil)

// ParseDeclarations parses style attribute content with a silent parser.
func ParseDeclarations(style string) []Declaration {
	return nopParser.ParseInline(style)
}

// ParseInline parses the content of a style attribute. Declarations are
// returned in source order, property names are lower-cased, !important is
// stripped and recorded. Empty or broken declarations are skipped.
func (p *Parser) ParseInline(style string) []Declaration {
	if strings.TrimSpace(style) == "" {
		return nil
	}

	var decls []Declaration
	parser := css.NewParser(parse.NewInputString(style), true)
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if !parser.HasParseError() {
				return decls
			}
			// broken declaration, parser resynchronizes on the next semicolon
			p.log.Debug("Skipping malformed declaration", zap.Error(parser.Err()), zap.String("style", style))
			continue

		case css.DeclarationGrammar:
			name := strings.ToLower(strings.TrimSpace(string(data)))
			values, important := stripImportant(parser.Values())
			if name == "" || len(values) == 0 {
				p.log.Debug("Skipping empty declaration", zap.String("property", name), zap.String("style", style))
				continue
			}
			decls = append(decls, Declaration{
				Property:  name,
				Value:     parsePropertyValue(values),
				Important: important,
				Index:     len(decls),
			})

		case css.CustomPropertyGrammar:
			// CSS custom properties (--var) are not supported
			continue
		}
	}
}

// ParseValue parses a single value coming from markup attribute, e.g. width="300".
func ParseValue(raw string) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, ";{}") {
		return Value{Raw: raw, Keyword: strings.ToLower(raw)}
	}
	decls := ParseDeclarations("v:" + raw)
	if len(decls) == 0 {
		return Value{Raw: raw, Keyword: strings.ToLower(raw)}
	}
	return decls[0].Value
}

func stripImportant(tokens []css.Token) ([]css.Token, bool) {
	end := len(tokens)
	for end > 0 && tokens[end-1].TokenType == css.WhitespaceToken {
		end--
	}
	if end < 2 || tokens[end-1].TokenType != css.IdentToken || !strings.EqualFold(string(tokens[end-1].Data), "important") {
		return tokens[:end], false
	}
	i := end - 2
	for i >= 0 && tokens[i].TokenType == css.WhitespaceToken {
		i--
	}
	if i < 0 || tokens[i].TokenType != css.DelimToken || string(tokens[i].Data) != "!" {
		return tokens[:end], false
	}
	return tokens[:i], true
}

// parsePropertyValue converts CSS tokens to a Value.
func parsePropertyValue(tokens []css.Token) Value {
	if len(tokens) == 0 {
		return Value{}
	}

	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	raw := strings.TrimSpace(strings.Join(rawParts, ""))

	val := Value{Raw: raw}

	// single token, possibly followed by whitespace
	if len(tokens) == 1 || (len(tokens) == 2 && tokens[1].TokenType == css.WhitespaceToken) {
		t := tokens[0]
		switch t.TokenType {
		case css.DimensionToken:
			val.Value, val.Unit = parseDimension(string(t.Data))
		case css.PercentageToken:
			val.Value, _ = strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
			val.Unit = "%"
		case css.NumberToken:
			val.Value, _ = strconv.ParseFloat(string(t.Data), 64)
		case css.IdentToken:
			val.Keyword = strings.ToLower(string(t.Data))
		case css.StringToken:
			val.Keyword = unquote(string(t.Data))
		case css.HashToken:
			val.Keyword = string(t.Data)
		default:
			val.Keyword = raw
		}
		return val
	}

	// functions (rgb(), url()) and multi-value properties are kept as raw keyword
	val.Keyword = raw
	return val
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string) {
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}

	if numEnd == 0 {
		return 0, ""
	}

	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	unit := strings.ToLower(s[numEnd:])
	return num, unit
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// Unquote removes surrounding quotes, exported for font family names.
func Unquote(s string) string {
	return unquote(s)
}

// SplitShorthand splits multi-part value on whitespace keeping function
// arguments together: "1px solid rgb(0, 0, 0)" -> ["1px" "solid" "rgb(0, 0, 0)"].
func SplitShorthand(raw string) []string {
	var (
		parts []string
		depth int
		quote rune
		start = -1
	)
	for i, r := range raw {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			continue
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case unicode.IsSpace(r) && depth == 0:
			if start >= 0 {
				parts = append(parts, raw[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		parts = append(parts, raw[start:])
	}
	return parts
}

// SplitList splits comma separated list (font-family) keeping quoted names together.
func SplitList(raw string) []string {
	var (
		parts []string
		quote rune
		start int
	)
	for i, r := range raw {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ',':
			if s := strings.TrimSpace(raw[start:i]); s != "" {
				parts = append(parts, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(raw[start:]); s != "" {
		parts = append(parts, s)
	}
	return parts
}
