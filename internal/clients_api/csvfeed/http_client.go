package csvfeed

// HTTP transport for remote CSV resources.
// Requests go through a rate limiter and a circuit breaker, and bodies are
// capped at MaxResponseSize.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"orderviz/internal/infra/log"
	"orderviz/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const userAgent = "orderviz/1.0 (+https://github.com/orderviz)"

type httpFetcher struct {
	httpClient      *http.Client
	rateLimiter     *rate.Limiter
	circuitBreaker  *gobreaker.CircuitBreaker
	maxResponseSize int64
	retry           retry.Options
}

func newHTTPFetcher(opts Options) *httpFetcher {
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "CSVFeed",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		// A missing resource says nothing about the server's health.
		IsSuccessful: func(err error) bool {
			var fe *FetchError
			if errors.As(err, &fe) && fe.Kind == KindNotFound {
				return true
			}
			return err == nil
		},
	})

	return &httpFetcher{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:    4,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		rateLimiter:     limiter,
		circuitBreaker:  breaker,
		maxResponseSize: opts.MaxResponseSize,
		retry: retry.Options{
			MaxRetries: opts.MaxRetries,
			BaseDelay:  opts.RetryBaseDelay,
			MaxDelay:   opts.RetryMaxDelay,
		},
	}
}

func (f *httpFetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, f.retry, func() error {
		b, err := f.makeRequest(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		// ctx ended between attempts.
		return nil, &FetchError{Resource: url, Kind: KindUnreachable, Err: err}
	}
	return body, nil
}

// makeRequest performs one GET through the limiter and breaker.
func (f *httpFetcher) makeRequest(ctx context.Context, url string) ([]byte, error) {
	requestID := log.GenerateRequestID()
	startTime := time.Now()

	if f.rateLimiter != nil {
		if err := f.rateLimiter.Wait(ctx); err != nil {
			return nil, &FetchError{Resource: url, Kind: KindUnreachable, Err: fmt.Errorf("rate limiter wait failed: %w", err)}
		}
	}

	result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
		return f.do(ctx, requestID, url, startTime)
	})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		// gobreaker.ErrOpenState / ErrTooManyRequests
		log.LogWarn("Circuit breaker rejected request", zap.String("request_id", requestID), zap.String("resource", url), zap.Error(err))
		return nil, &FetchError{Resource: url, Kind: KindUnreachable, Err: err}
	}
	return result.([]byte), nil
}

func (f *httpFetcher) do(ctx context.Context, requestID, url string, startTime time.Time) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Resource: url, Kind: KindUnreachable, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	log.LogRequest(requestID, http.MethodGet, url)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.LogResponse(requestID, 0, time.Since(startTime).Milliseconds(), zap.String("resource", url), zap.Error(err))
		return nil, &FetchError{Resource: url, Kind: KindUnreachable, Err: fmt.Errorf("failed to perform request: %w", err)}
	}
	defer resp.Body.Close()

	// One byte past the cap tells a full body from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxResponseSize+1))
	duration := time.Since(startTime).Milliseconds()
	if err != nil {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("resource", url), zap.Error(err))
		return nil, &FetchError{Resource: url, Kind: KindIO, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("resource", url))
		kind := KindStatus
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			kind = KindNotFound
		}
		return nil, &FetchError{
			Resource:   url,
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
			retryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if int64(len(body)) > f.maxResponseSize {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("resource", url), zap.String("error", "response too large"))
		return nil, &FetchError{Resource: url, Kind: KindTooLarge, StatusCode: resp.StatusCode, Err: fmt.Errorf("response exceeds %d bytes", f.maxResponseSize)}
	}

	log.LogResponse(requestID, resp.StatusCode, duration, zap.String("resource", url), zap.Int("bytes", len(body)))
	return body, nil
}
