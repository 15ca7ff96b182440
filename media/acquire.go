package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"h2d/utils/images"
)

// Sanitizer cleans SVG markup before it is inspected or embedded. Error
// means markup was rejected.
type Sanitizer interface {
	Sanitize(svg []byte) ([]byte, error)
}

// SanitizerFunc adapts function to Sanitizer.
type SanitizerFunc func(svg []byte) ([]byte, error)

func (f SanitizerFunc) Sanitize(svg []byte) ([]byte, error) {
	return f(svg)
}

// Acquirer resolves image references for one render. All access is
// sequential, it must not be shared between renders.
type Acquirer struct {
	opts      Options
	fetcher   Fetcher
	sanitizer Sanitizer
	cache     *Cache
	stats     Stats
	log       *zap.Logger

	// replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewAcquirer creates acquirer with its own cache. When fetcher is nil only
// http(s) locators could be fetched, when sanitizer is nil images.SanitizeSVG
// is used.
func NewAcquirer(opts Options, fetcher Fetcher, sanitizer Sanitizer, log *zap.Logger) *Acquirer {
	if fetcher == nil {
		hf := &HTTPFetcher{}
		fetcher = SchemeFetcher{"http": hf, "https": hf}
	}
	if sanitizer == nil {
		sanitizer = SanitizerFunc(images.SanitizeSVG)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Acquirer{
		opts:      opts,
		fetcher:   fetcher,
		sanitizer: sanitizer,
		cache:     NewCache(opts.MaxEntries, opts.MaxBytes),
		log:       log.Named("media"),
		sleep:     sleepContext,
	}
}

// Stats returns counters accumulated so far.
func (a *Acquirer) Stats() Stats {
	s := a.stats
	s.Evictions = a.cache.Evictions()
	return s
}

// Acquire resolves reference to an image. Results, including failures, are
// cached by canonical locator, so every locator is fetched at most once per
// render. Returned errors wrap ErrAcquisitionFailed unless ctx was canceled.
func (a *Acquirer) Acquire(ctx context.Context, ref string) (*Image, error) {
	loc, err := ParseLocator(ref, a.opts.BaseURL)
	if err != nil {
		a.stats.Failures++
		return nil, fmt.Errorf("%w: %w", ErrAcquisitionFailed, err)
	}

	if e, ok := a.cache.Get(loc.Key); ok {
		a.stats.Hits++
		return e.Image, e.Err
	}
	a.stats.Misses++

	data, mimeType := loc.Data, loc.MimeType
	if !loc.Embedded() {
		data, mimeType, err = a.fetch(ctx, loc.URL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				// not cached, next render may succeed
				return nil, ctxErr
			}
			return nil, a.fail(loc.Key, fmt.Errorf("%w: %s: %w", ErrAcquisitionFailed, loc.URL, err))
		}
	}
	return a.store(loc.Key, data, mimeType)
}

// AcquireSVG prepares inline SVG markup taken directly from the document.
func (a *Acquirer) AcquireSVG(markup []byte) (*Image, error) {
	key := dataKey("svg", markup)
	if e, ok := a.cache.Get(key); ok {
		a.stats.Hits++
		return e.Image, e.Err
	}
	a.stats.Misses++
	return a.store(key, markup, svgMimeType)
}

func (a *Acquirer) store(key string, data []byte, mimeType string) (*Image, error) {
	img, err := a.decode(data, mimeType)
	if err != nil {
		return nil, a.fail(key, fmt.Errorf("%w: %w", ErrAcquisitionFailed, err))
	}
	if !a.cache.Put(key, img) {
		a.log.Debug("Image exceeds cache budget, not cached", zap.String("key", key), zap.Int("size", len(img.Data)))
	}
	return img, nil
}

func (a *Acquirer) fail(key string, err error) error {
	a.stats.Failures++
	a.cache.PutFailure(key, err)
	return err
}

type fetchState int

const (
	stateIdle fetchState = iota
	stateFetching
	stateRetryWait
	stateSuccess
	stateFailed
)

// fetch drives single acquisition: Idle -> Fetching -> {Success, RetryWait ->
// Fetching, Failed}. Canceled context means next attempt is never started.
func (a *Acquirer) fetch(ctx context.Context, locator string) ([]byte, string, error) {
	var (
		state    = stateIdle
		attempt  int
		data     []byte
		mimeType string
		lastErr  error
	)
	for {
		switch state {
		case stateIdle:
			state = stateFetching

		case stateFetching:
			attempt++
			a.stats.Attempts++
			data, mimeType, lastErr = a.attempt(ctx, locator)
			switch {
			case lastErr == nil:
				state = stateSuccess
			case ctx.Err() != nil, errors.Is(lastErr, ErrPermanent), attempt > a.opts.MaxRetries:
				state = stateFailed
			default:
				state = stateRetryWait
			}

		case stateRetryWait:
			delay := a.backoff(attempt)
			a.log.Debug("Image fetch failed, retrying",
				zap.String("url", locator), zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(lastErr))
			if err := a.sleep(ctx, delay); err != nil {
				lastErr = err
				state = stateFailed
				continue
			}
			a.stats.Retries++
			state = stateFetching

		case stateSuccess:
			return data, mimeType, nil

		case stateFailed:
			return nil, "", fmt.Errorf("giving up after %d attempt(s): %w", attempt, lastErr)
		}
	}
}

func (a *Acquirer) attempt(ctx context.Context, locator string) ([]byte, string, error) {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}
	return a.fetcher.Fetch(ctx, locator)
}

// backoff returns delay before retry following attempt n (1-based): min*2^(n-1)
// clamped into [min, max].
func (a *Acquirer) backoff(n int) time.Duration {
	lo, hi := a.opts.MinDelay, a.opts.MaxDelay
	if hi < lo {
		hi = lo
	}
	d := lo
	for i := 1; i < n && d < hi; i++ {
		d *= 2
	}
	return min(max(d, lo), hi)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
