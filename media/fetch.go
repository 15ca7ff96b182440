package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"

	"h2d/config"
)

// Fetcher retrieves raw bytes for a canonical locator. Returned mime type is
// whatever transport declared, it may be empty.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, string, error)
}

// FetcherFunc adapts function to Fetcher.
type FetcherFunc func(ctx context.Context, locator string) ([]byte, string, error)

func (f FetcherFunc) Fetch(ctx context.Context, locator string) ([]byte, string, error) {
	return f(ctx, locator)
}

// SchemeFetcher dispatches requests by URL scheme.
type SchemeFetcher map[string]Fetcher

func (m SchemeFetcher) Fetch(ctx context.Context, locator string) ([]byte, string, error) {
	scheme, _, ok := strings.Cut(locator, ":")
	if !ok {
		return nil, "", fmt.Errorf("%w: no scheme in %q", ErrUnsupportedLocator, locator)
	}
	f, ok := m[strings.ToLower(scheme)]
	if !ok {
		return nil, "", fmt.Errorf("%w: no fetcher for scheme %q", ErrPermanent, scheme)
	}
	return f.Fetch(ctx, locator)
}

// HTTPFetcher downloads images over http(s).
type HTTPFetcher struct {
	Client        *http.Client
	UserAgent     string
	Authorization config.SecretString
	// MaxBytes limits size of downloaded body, zero means no limit.
	MaxBytes int64
}

// NewHTTPFetcher creates fetcher from configuration. Per attempt timeout is
// enforced by the acquirer through request context.
func NewHTTPFetcher(cfg *config.ImagesConfig) *HTTPFetcher {
	return &HTTPFetcher{
		Client:        &http.Client{},
		UserAgent:     cfg.UserAgent,
		Authorization: cfg.Authorization,
		MaxBytes:      cfg.MaxImageBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, locator string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	req.Header.Set("Accept", "image/*")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	if len(f.Authorization) > 0 {
		req.Header.Set("Authorization", f.Authorization.Reveal())
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected response status %q", resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
			err = fmt.Errorf("%w: %w", ErrPermanent, err)
		}
		return nil, "", err
	}

	data, err := readLimited(resp.Body, f.MaxBytes)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// FSFetcher reads "file" locators from a file system. Locator path is taken
// relative to the file system root so sources could never escape it.
type FSFetcher struct {
	FS       fs.FS
	MaxBytes int64
}

func (f *FSFetcher) Fetch(_ context.Context, locator string) ([]byte, string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrPermanent, err)
	}
	name := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	if !fs.ValidPath(name) || name == "." {
		return nil, "", fmt.Errorf("%w: invalid path %q", ErrPermanent, u.Path)
	}

	file, err := f.FS.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			err = fmt.Errorf("%w: %w", ErrPermanent, err)
		}
		return nil, "", err
	}
	defer file.Close()

	data, err := readLimited(file, f.MaxBytes)
	if err != nil {
		return nil, "", err
	}
	return data, "", nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: image is larger than %d bytes", ErrPermanent, limit)
	}
	return data, nil
}
