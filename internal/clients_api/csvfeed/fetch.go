package csvfeed

// Package csvfeed loads the raw text of a CSV resource.
// A resource is an http(s) URL, a file:// URI or a plain path.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"orderviz/internal/infra/log"

	"go.uber.org/zap"
)

type Options struct {
	Timeout         time.Duration
	MaxRetries      int     // 0 disables retries
	RateLimit       float64 // requests per second, 0 for unlimited
	MaxResponseSize int64
	RetryBaseDelay  time.Duration
	RetryMaxDelay   time.Duration
}

func DefaultOptions() Options {
	return Options{
		Timeout:         30 * time.Second,
		RateLimit:       5,
		MaxResponseSize: 10 * 1024 * 1024, // 10MB
		RetryBaseDelay:  300 * time.Millisecond,
		RetryMaxDelay:   5 * time.Second,
	}
}

type Client struct {
	http            *httpFetcher
	maxResponseSize int64
}

func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxResponseSize <= 0 {
		opts.MaxResponseSize = def.MaxResponseSize
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = def.RetryBaseDelay
	}
	if opts.RetryMaxDelay <= 0 {
		opts.RetryMaxDelay = def.RetryMaxDelay
	}
	return &Client{
		http:            newHTTPFetcher(opts),
		maxResponseSize: opts.MaxResponseSize,
	}
}

// Fetch returns the full content of resource. Every failure is a *FetchError.
func (c *Client) Fetch(ctx context.Context, resource string) ([]byte, error) {
	resource = strings.TrimSpace(resource)
	if resource == "" {
		return nil, &FetchError{Resource: resource, Kind: KindNotFound, Err: errors.New("empty resource")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Resource: resource, Kind: KindUnreachable, Err: err}
	}

	startTime := time.Now()
	var (
		body []byte
		err  error
	)
	switch {
	case strings.HasPrefix(resource, "http://"), strings.HasPrefix(resource, "https://"):
		body, err = c.http.fetch(ctx, resource)
	case strings.HasPrefix(resource, "file://"):
		u, perr := url.Parse(resource)
		if perr != nil {
			return nil, &FetchError{Resource: resource, Kind: KindNotFound, Err: fmt.Errorf("invalid file URI: %w", perr)}
		}
		body, err = c.readFile(resource, u.Path)
	default:
		body, err = c.readFile(resource, resource)
	}
	if err != nil {
		return nil, err
	}

	log.LogDebug("CSV resource loaded",
		zap.String("resource", resource),
		zap.Int("bytes", len(body)),
		zap.Int64("duration_ms", time.Since(startTime).Milliseconds()))
	return body, nil
}

func (c *Client) readFile(resource, path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		kind := KindIO
		if errors.Is(err, fs.ErrNotExist) {
			kind = KindNotFound
		}
		return nil, &FetchError{Resource: resource, Kind: kind, Err: err}
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, c.maxResponseSize+1))
	if err != nil {
		return nil, &FetchError{Resource: resource, Kind: KindIO, Err: err}
	}
	if int64(len(body)) > c.maxResponseSize {
		return nil, &FetchError{Resource: resource, Kind: KindTooLarge, Err: fmt.Errorf("file exceeds %d bytes", c.maxResponseSize)}
	}
	return body, nil
}
