// Package media resolves image references found in markup (remote URLs,
// local files, data URIs and inline SVG) into bytes ready to be embedded into
// a document. Every render gets its own Acquirer, so cache and statistics
// never outlive one document.
package media

import (
	"errors"
	"mime"
	"strings"
	"time"

	"h2d/common"
	"h2d/config"
)

var (
	// ErrAcquisitionFailed is wrapped by every error returned from Acquire
	// except context cancellation.
	ErrAcquisitionFailed = errors.New("image acquisition failed")
	// ErrPermanent marks fetch errors not worth retrying (404, size limit).
	ErrPermanent          = errors.New("permanent failure")
	ErrUnsupportedLocator = errors.New("unsupported image locator")
	ErrUnknownFormat      = errors.New("unknown image format")
)

// Image is acquired picture. Width and Height are natural size in CSS pixels.
type Image struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
	// Fallback is set for natively embedded SVG: raster rendition for
	// consumers which cannot draw vector images.
	Fallback *Image
}

// IsSVG reports whether image is vector.
func (i *Image) IsSVG() bool {
	return i.MimeType == "image/svg+xml"
}

// Ext returns file extension (without dot) for image mime type.
func (i *Image) Ext() string {
	switch strings.ToLower(i.MimeType) {
	case "image/jpeg":
		return "jpeg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/svg+xml":
		return "svg"
	case "image/tiff":
		return "tiff"
	}
	exts, err := mime.ExtensionsByType(i.MimeType)
	if err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "img"
}

func (i *Image) size() int64 {
	if i == nil {
		return 0
	}
	return int64(len(i.Data)) + i.Fallback.size()
}

// Options controls acquisition. Zero MaxEntries or MaxBytes means no limit
// for that dimension of the cache.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	MinDelay   time.Duration
	MaxDelay   time.Duration
	MaxEntries int
	MaxBytes   int64
	SVGMode    common.SVGMode
	BaseURL    string
}

// OptionsFromConfig builds acquisition options from configuration.
func OptionsFromConfig(cfg *config.ImagesConfig) Options {
	return Options{
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		MinDelay:   cfg.MinRetryDelay,
		MaxDelay:   cfg.MaxRetryDelay,
		MaxEntries: cfg.CacheEntries,
		MaxBytes:   cfg.CacheBytes,
		SVGMode:    cfg.SVG,
		BaseURL:    cfg.BaseURL,
	}
}

// Stats are acquisition counters of a single render.
type Stats struct {
	Hits      int
	Misses    int
	Attempts  int
	Retries   int
	Failures  int
	Evictions int
}
