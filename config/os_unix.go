//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

const (
	forbiddenFileNameChars = "\x00"
	trailingFileNameChars  = ""
)

func reservedFileName(string) bool {
	return false
}

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
