package csvfeed

import (
	"fmt"
	"time"
)

// Kind classifies why a resource could not be loaded.
type Kind string

const (
	KindUnreachable Kind = "unreachable"
	KindStatus      Kind = "status"
	KindNotFound    Kind = "not_found"
	KindIO          Kind = "io"
	KindTooLarge    Kind = "too_large"
)

// FetchError is the only error type Fetch returns.
type FetchError struct {
	Resource   string
	Kind       Kind
	StatusCode int // 0 for non-HTTP failures
	Err        error

	retryAfter time.Duration
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (HTTP %d): %v", e.Resource, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Resource, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPStatus and RetryAfterHint let retry.Do decide on HTTP failures.
func (e *FetchError) HTTPStatus() int               { return e.StatusCode }
func (e *FetchError) RetryAfterHint() time.Duration { return e.retryAfter }
