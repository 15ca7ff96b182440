package config

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report", "report"},
		{"separator", "a/b", "ab"},
		{"leading dots", "..hidden", "hidden"},
		{"blanks", "  name  ", "name"},
		{"control characters", "a\tb\x00c", "abc"},
		{"unicode kept", "Отчёт 2024", "Отчёт 2024"},
		{"empty", "", badFileName},
		{"nothing left", "./.", badFileName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanFileName(tt.in); got != tt.want {
				t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanFileNameLength(t *testing.T) {
	got := CleanFileName(strings.Repeat("ж", 150))
	if len(got) > maxFileNameBytes {
		t.Errorf("name is %d bytes long", len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("name was cut in the middle of a character")
	}
}
