package config

import (
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxFileNameBytes keeps generated names well under common file system limits
// leaving room for extension.
const maxFileNameBytes = 200

const badFileName = "_bad_file_name_"

// CleanFileName removes characters not allowed in file names on this
// platform together with control characters, trims leading dots and
// surrounding blanks and limits name length.
func CleanFileName(in string) string {
	out := strings.Map(func(sym rune) rune {
		if unicode.IsControl(sym) || strings.ContainsRune(forbiddenFileNameChars+string(os.PathSeparator)+string(os.PathListSeparator), sym) {
			return -1
		}
		return sym
	}, in)
	out = strings.TrimLeft(strings.TrimSpace(out), ".")

	if len(out) > maxFileNameBytes {
		cut := maxFileNameBytes
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = strings.TrimSpace(out[:cut])
	}
	out = strings.TrimRight(out, trailingFileNameChars)
	if len(out) == 0 {
		return badFileName
	}
	if reservedFileName(out) {
		out = "_" + out
	}
	return out
}
