package docx

import (
	"h2d/common"
	"h2d/config"
	"h2d/convert/docx/opc"
	"h2d/media"
)

// Relationships is what renderer needs from packaging layer: relationship
// ids for parts and a place to put image data.
type Relationships interface {
	AddRelationship(part string, kind opc.RelKind, target string, external bool) string
	AddMedia(part, name string, data []byte) string
}

// Options controls rendering.
type Options struct {
	FontFamily string
	// FontSize in points.
	FontSize float64
	Page     config.PageConfig

	Images    media.Options
	Fetcher   media.Fetcher
	Sanitizer media.Sanitizer

	Tables config.TablesConfig
	Lists  config.ListsConfig

	// Package receives relationship and media requests, when nil fresh
	// opc.Package is created and returned in Result.
	Package Relationships
}

// OptionsFromConfig builds rendering options from document configuration.
func OptionsFromConfig(cfg *config.DocumentConfig) Options {
	return Options{
		FontFamily: cfg.Font.Family,
		FontSize:   float64(cfg.Font.Size) / 2,
		Page:       cfg.Page,
		Images:     media.OptionsFromConfig(&cfg.Images),
		Tables:     cfg.Tables,
		Lists:      cfg.Lists,
	}
}

func (o *Options) normalize() {
	if o.FontFamily == "" {
		o.FontFamily = "Calibri"
	}
	if o.FontSize <= 0 {
		o.FontSize = 11
	}
	if o.Page.Width == 0 {
		o.Page = config.PageConfig{
			Width:  12240,
			Height: 15840,
			Margins: config.MarginsConfig{
				Top: 1440, Right: 1440, Bottom: 1440, Left: 1440, Header: 720, Footer: 720,
			},
		}
	}
	if o.Tables.BorderSize == 0 {
		o.Tables.BorderSize = 4
	}
	if o.Tables.BorderColor == "" {
		o.Tables.BorderColor = autoVal
	}
	if o.Lists.Indent == 0 {
		o.Lists.Indent = 720
	}
	if o.Lists.Hanging == 0 {
		o.Lists.Hanging = 360
	}
	if len(o.Lists.Bullets) == 0 {
		o.Lists.Bullets = []string{"•", "◦", "▪"}
	}
	if len(o.Lists.Ordered) == 0 {
		o.Lists.Ordered = []string{"decimal", "lowerLetter", "lowerRoman"}
	}
}

func strokeName(s common.BorderStroke) string {
	switch s {
	case common.BorderStrokeDashed:
		return "dashed"
	case common.BorderStrokeDotted:
		return "dotted"
	case common.BorderStrokeDouble:
		return "double"
	}
	return "single"
}
