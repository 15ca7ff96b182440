package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/text/encoding/unicode"
)

// how much of the file is needed to recognize it
const sniffLen = 512

var htmlExts = []string{".html", ".htm", ".xhtml"}

func hasHTMLExt(name string) bool {
	return slices.Contains(htmlExts, strings.ToLower(filepath.Ext(name)))
}

func readHead(r io.Reader) ([]byte, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	return buf[:n], nil
}

// isArchiveFile checks that file has zip extension and zip content.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head, err := readHead(f)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// isHTMLFile checks that file has one of html extensions and its content
// starts with markup.
func isHTMLFile(path string) (bool, error) {
	if !hasHTMLExt(path) {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head, err := readHead(f)
	if err != nil {
		return false, err
	}
	return looksLikeHTML(head), nil
}

func isHTMLInArchive(f *zip.File) (bool, error) {
	if !hasHTMLExt(f.Name) {
		return false, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, err
	}
	defer r.Close()

	head, err := readHead(r)
	if err != nil {
		return false, err
	}
	return looksLikeHTML(head), nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// looksLikeHTML reports whether first non blank character of the text is
// '<'. Binary files (images, archives) recognized by filetype are never html.
func looksLikeHTML(head []byte) bool {
	switch {
	case bytes.HasPrefix(head, bomUTF8):
		head = head[len(bomUTF8):]
	case bytes.HasPrefix(head, bomUTF16BE), bytes.HasPrefix(head, bomUTF16LE):
		// odd byte could be cut off by sniffLen
		head = head[:len(head)&^1]
		dec, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(head)
		if err != nil {
			return false
		}
		head = dec
	default:
		if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
			return false
		}
	}
	head = bytes.TrimLeft(head, " \t\r\n\f")
	return len(head) > 0 && head[0] == '<'
}
