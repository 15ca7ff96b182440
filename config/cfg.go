package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"h2d/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// All page measurements are in twips (1/20 of a point).
	MarginsConfig struct {
		Top    int `yaml:"top" validate:"gte=0"`
		Right  int `yaml:"right" validate:"gte=0"`
		Bottom int `yaml:"bottom" validate:"gte=0"`
		Left   int `yaml:"left" validate:"gte=0"`
		Header int `yaml:"header" validate:"gte=0"`
		Footer int `yaml:"footer" validate:"gte=0"`
	}

	PageConfig struct {
		Width       int                `yaml:"width" validate:"min=1440"`
		Height      int                `yaml:"height" validate:"min=1440"`
		Orientation common.Orientation `yaml:"orientation" validate:"gte=0"`
		Margins     MarginsConfig      `yaml:"margins"`
	}

	FontConfig struct {
		Family string `yaml:"family" validate:"required"`
		// in half-points
		Size int `yaml:"size" validate:"min=2,max=3276"`
	}

	ImagesConfig struct {
		Timeout       time.Duration  `yaml:"timeout" validate:"gte=0"`
		MaxRetries    int            `yaml:"max_retries" validate:"gte=0,lte=10"`
		MinRetryDelay time.Duration  `yaml:"min_retry_delay" validate:"gte=0"`
		MaxRetryDelay time.Duration  `yaml:"max_retry_delay" validate:"gtefield=MinRetryDelay"`
		CacheEntries  int            `yaml:"cache_entries" validate:"gte=0"`
		CacheBytes    int64          `yaml:"cache_bytes" validate:"gte=0"`
		MaxImageBytes int64          `yaml:"max_image_bytes" validate:"gte=0"`
		SVG           common.SVGMode `yaml:"svg" validate:"gte=0"`
		BaseURL       string         `yaml:"base_url" validate:"omitempty,url"`
		UserAgent     string         `yaml:"user_agent"`
		Authorization SecretString   `yaml:"authorization,omitempty"`
	}

	TablesConfig struct {
		// in eighths of a point
		BorderSize   int                 `yaml:"border_size" validate:"min=2,max=96"`
		BorderStroke common.BorderStroke `yaml:"border_stroke" validate:"gte=0"`
		BorderColor  string              `yaml:"border_color" validate:"required"`
		// in twips
		CellMargin int `yaml:"cell_margin" validate:"gte=0"`
	}

	ListsConfig struct {
		// in twips
		Indent  int      `yaml:"indent" validate:"min=0"`
		Hanging int      `yaml:"hanging" validate:"min=0"`
		Bullets []string `yaml:"bullets" validate:"min=1,dive,required"`
		Ordered []string `yaml:"ordered" validate:"min=1,dive,oneof=decimal lowerLetter upperLetter lowerRoman upperRoman"`
	}

	DocumentConfig struct {
		OutputNameTemplate    string       `yaml:"output_name_template"`
		FileNameTransliterate bool         `yaml:"file_name_transliterate"`
		Page                  PageConfig   `yaml:"page"`
		Font                  FontConfig   `yaml:"font"`
		Images                ImagesConfig `yaml:"images"`
		Tables                TablesConfig `yaml:"tables"`
		Lists                 ListsConfig  `yaml:"lists"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

// ContentWidth returns usable page width in twips.
func (p *PageConfig) ContentWidth() int {
	w := p.Width
	if p.Orientation == common.OrientationLandscape && p.Height > w {
		w = p.Height
	}
	return max(w-p.Margins.Left-p.Margins.Right, 0)
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
