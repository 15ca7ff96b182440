package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rupor-github/gencfg"

	"h2d/common"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	doc := cfg.Document
	if doc.Font.Family != "Calibri" || doc.Font.Size != 22 {
		t.Errorf("Font = %+v, want Calibri/22", doc.Font)
	}
	if got := doc.Page.ContentWidth(); got != 9360 {
		t.Errorf("ContentWidth() = %d, want 9360", got)
	}
	if doc.Images.SVG != common.SVGModeConvert {
		t.Errorf("SVG mode = %s, want convert", doc.Images.SVG)
	}
	if doc.Images.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", doc.Images.Timeout)
	}
	if doc.Images.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", doc.Images.MaxRetries)
	}
	if doc.Images.CacheEntries != 100 || doc.Images.CacheBytes != 20*1024*1024 {
		t.Errorf("cache bounds = %d/%d", doc.Images.CacheEntries, doc.Images.CacheBytes)
	}
	if doc.Tables.BorderStroke != common.BorderStrokeSingle || doc.Tables.BorderSize != 4 {
		t.Errorf("Tables = %+v", doc.Tables)
	}
	if len(doc.Lists.Bullets) != 3 || doc.Lists.Ordered[0] != "decimal" {
		t.Errorf("Lists = %+v", doc.Lists)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
document:
  page:
    orientation: landscape
  images:
    timeout: 2s
    max_retries: 3
    svg: native
    base_url: "https://example.com/docs/"
    authorization: "Bearer secret-token"
  tables:
    border_stroke: dashed
  lists:
    bullets: ["-"]
logging:
  console:
    level: debug
  file:
    level: debug
    destination: `+filepath.Join(t.TempDir(), "test.log")+`
    mode: append
reporting:
  destination: `+filepath.Join(t.TempDir(), "report.zip")+`
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	img := cfg.Document.Images
	if img.Timeout != 2*time.Second || img.MaxRetries != 3 {
		t.Errorf("Images = %+v", img)
	}
	if img.SVG != common.SVGModeNative {
		t.Errorf("SVG = %s, want native", img.SVG)
	}
	if img.Authorization.Reveal() != "Bearer secret-token" {
		t.Errorf("Authorization was not loaded")
	}
	if cfg.Document.Tables.BorderStroke != common.BorderStrokeDashed {
		t.Errorf("BorderStroke = %s, want dashed", cfg.Document.Tables.BorderStroke)
	}
	if len(cfg.Document.Lists.Bullets) != 1 || cfg.Document.Lists.Bullets[0] != "-" {
		t.Errorf("Bullets = %v, want [-]", cfg.Document.Lists.Bullets)
	}
	// untouched values come from the template
	if cfg.Document.Font.Size != 22 {
		t.Errorf("Font.Size = %d, want 22", cfg.Document.Font.Size)
	}
	if got := cfg.Document.Page.ContentWidth(); got != 15840-2*1440 {
		t.Errorf("landscape ContentWidth() = %d, want %d", got, 15840-2*1440)
	}
	if cfg.Logging.FileLogger.Mode != "append" {
		t.Errorf("FileLogger.Mode = %s, want append", cfg.Logging.FileLogger.Mode)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "invalid yaml",
			content: `version: 1
document:
  page
    invalid indent
`,
		},
		{
			name: "unknown field",
			content: `version: 1
unknown_field: value
`,
		},
		{
			name: "bad version",
			content: `version: 2
`,
		},
		{
			name: "bad svg mode",
			content: `version: 1
document:
  images:
    svg: bitmap
`,
		},
		{
			name: "bad ordered format",
			content: `version: 1
document:
  lists:
    ordered: ["hebrew"]
`,
		},
		{
			name: "retry delays inverted",
			content: `version: 1
document:
  images:
    min_retry_delay: 5s
    max_retry_delay: 1s
`,
		},
		{
			name: "border too thick",
			content: `version: 1
document:
  tables:
    border_size: 200
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {}

	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Prepare() returned empty data")
	}
	if _, err = unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump_HidesSecrets(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Document.Images.Authorization = "Bearer do-not-print"

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	out := string(data)
	if strings.Contains(out, "do-not-print") {
		t.Error("Dump() leaks authorization value")
	}
	if !strings.Contains(out, "svg: convert") {
		t.Errorf("Dump() does not contain enum names:\n%s", out)
	}
}

func TestUnmarshalConfig_WrapsDecodeError(t *testing.T) {
	_, err := unmarshalConfig([]byte("version: [1"), &Config{}, false)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "failed to decode configuration data") {
		t.Errorf("unexpected error text: %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Error("error is not wrapped")
	}
}

func TestSVGMode_Parse(t *testing.T) {
	for _, name := range common.SVGModeNames() {
		m, err := common.ParseSVGMode(name)
		if err != nil {
			t.Errorf("ParseSVGMode(%q) error = %v", name, err)
		}
		if m.String() != name {
			t.Errorf("round trip %q -> %q", name, m.String())
		}
	}
	if _, err := common.ParseSVGMode("png"); !errors.Is(err, common.ErrInvalidSVGMode) {
		t.Errorf("ParseSVGMode(png) error = %v, want ErrInvalidSVGMode", err)
	}
}
