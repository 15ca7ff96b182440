package media

import (
	"errors"
	"strings"
	"testing"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		base    string
		want    string
		wantErr error
	}{
		{"absolute", "https://example.com/a.png", "", "https://example.com/a.png", nil},
		{"case and port", "HTTP://Example.COM:80/A.png", "", "http://example.com/A.png", nil},
		{"https port", "https://example.com:443/a.png", "", "https://example.com/a.png", nil},
		{"custom port kept", "http://example.com:8080/a.png", "", "http://example.com:8080/a.png", nil},
		{"fragment dropped", "https://example.com/a.svg#icon", "", "https://example.com/a.svg", nil},
		{"query kept", "https://example.com/img?id=5", "", "https://example.com/img?id=5", nil},
		{"protocol relative", "//cdn.example.com/a.png", "", "https://cdn.example.com/a.png", nil},
		{"relative", "img/a.png", "https://example.com/docs/page.html", "https://example.com/docs/img/a.png", nil},
		{"parent", "../a.png", "https://example.com/docs/page.html", "https://example.com/a.png", nil},
		{"file base", "pics/a.png", "file:///", "file:///pics/a.png", nil},
		{"relative no base", "img/a.png", "", "", ErrUnsupportedLocator},
		{"unsupported scheme", "ftp://example.com/a.png", "", "", ErrUnsupportedLocator},
		{"javascript", "javascript:alert(1)", "", "", ErrUnsupportedLocator},
		{"empty", "  ", "", "", ErrUnsupportedLocator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLocator(tt.ref, tt.base)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseLocator() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocator() error = %v", err)
			}
			if loc.Key != tt.want || loc.URL != tt.want {
				t.Errorf("ParseLocator() = %+v, want %s", loc, tt.want)
			}
			if loc.Embedded() {
				t.Error("remote locator reported as embedded")
			}
		})
	}
}

func TestParseLocator_DataURI(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		wantData string
		wantMime string
		wantErr  bool
	}{
		{"base64", "data:image/png;base64,aGVsbG8=", "hello", "image/png", false},
		{"base64 unpadded", "data:image/png;base64,aGVsbG8", "hello", "image/png", false},
		{"base64 wrapped", "data:image/gif;base64,aGVs\n bG8=", "hello", "image/gif", false},
		{"percent", "data:image/svg+xml;charset=utf-8,%3Csvg%2F%3E", "<svg/>", "image/svg+xml", false},
		{"upper case scheme", "DATA:image/png;BASE64,aGVsbG8=", "hello", "image/png", false},
		{"no type", "data:,hi", "hi", "", false},
		{"no comma", "data:image/png;base64", "", "", true},
		{"empty payload", "data:image/png;base64,", "", "", true},
		{"bad base64", "data:image/png;base64,!!!", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLocator(tt.ref, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLocator() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if string(loc.Data) != tt.wantData || loc.MimeType != tt.wantMime {
				t.Errorf("got data %q mime %q", loc.Data, loc.MimeType)
			}
			if !loc.Embedded() || !strings.HasPrefix(loc.Key, "data:sha256:") {
				t.Errorf("unexpected locator %+v", loc)
			}
		})
	}

	a, _ := ParseLocator("data:image/png;base64,aGVsbG8=", "")
	b, _ := ParseLocator("data:image/png;base64,aGVs bG8", "")
	if a.Key != b.Key {
		t.Error("same payload produced different keys")
	}
}
