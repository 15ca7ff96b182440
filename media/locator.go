package media

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"mime"
	"net/url"
	"strings"
)

// Locator is parsed image reference.
type Locator struct {
	// Key is canonical form used as cache key.
	Key string
	// URL to fetch, empty for embedded data.
	URL string
	// Data and MimeType are set for data URIs.
	Data     []byte
	MimeType string
}

// Embedded reports whether image payload is carried by the reference itself.
func (l Locator) Embedded() bool {
	return l.URL == ""
}

// ParseLocator canonicalizes image reference. Relative references are
// resolved against base, protocol relative ones default to https.
func ParseLocator(ref, base string) (Locator, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Locator{}, fmt.Errorf("%w: empty reference", ErrUnsupportedLocator)
	}
	if len(ref) > 5 && strings.EqualFold(ref[:5], "data:") {
		return parseDataURI(ref)
	}

	u, err := url.Parse(ref)
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %w", ErrUnsupportedLocator, err)
	}
	switch {
	case u.Scheme == "" && u.Host != "":
		u.Scheme = "https"
	case u.Scheme == "":
		if base == "" {
			return Locator{}, fmt.Errorf("%w: relative reference %q without base", ErrUnsupportedLocator, ref)
		}
		b, err := url.Parse(base)
		if err != nil {
			return Locator{}, fmt.Errorf("%w: bad base %q: %w", ErrUnsupportedLocator, base, err)
		}
		u = b.ResolveReference(u)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	switch u.Scheme {
	case "http", "https", "file":
	default:
		return Locator{}, fmt.Errorf("%w: scheme %q", ErrUnsupportedLocator, u.Scheme)
	}
	u.Host = canonicalHost(u.Scheme, u.Host)
	u.Fragment, u.RawFragment = "", ""

	s := u.String()
	return Locator{Key: s, URL: s}, nil
}

func canonicalHost(scheme, host string) string {
	host = strings.ToLower(host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		return strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		return strings.TrimSuffix(host, ":443")
	}
	return host
}

// parseDataURI decodes "data:[<mediatype>][;base64],<data>".
func parseDataURI(ref string) (Locator, error) {
	header, payload, ok := strings.Cut(ref[5:], ",")
	if !ok {
		return Locator{}, fmt.Errorf("%w: malformed data URI", ErrUnsupportedLocator)
	}

	isBase64 := false
	mediaType := header
	if i := strings.LastIndex(strings.ToLower(header), ";base64"); i >= 0 && i+len(";base64") == len(header) {
		isBase64 = true
		mediaType = header[:i]
	}
	if mediaType != "" {
		if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
			mediaType = mt
		}
	}

	var (
		data []byte
		err  error
	)
	if isBase64 {
		data, err = decodeBase64(payload)
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		data = []byte(s)
	}
	if err != nil {
		return Locator{}, fmt.Errorf("%w: bad data URI payload: %w", ErrUnsupportedLocator, err)
	}
	if len(data) == 0 {
		return Locator{}, fmt.Errorf("%w: empty data URI", ErrUnsupportedLocator)
	}

	return Locator{
		Key:      dataKey("data", data),
		Data:     data,
		MimeType: mediaType,
	}, nil
}

func decodeBase64(s string) ([]byte, error) {
	// markup often carries line breaks and percent-encoded padding
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
	if strings.Contains(s, "%") {
		if u, err := url.PathUnescape(s); err == nil {
			s = u
		}
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func dataKey(prefix string, data []byte) string {
	sum := sha256.Sum256(data)
	return prefix + ":sha256:" + hex.EncodeToString(sum[:])
}
