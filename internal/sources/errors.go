package sources

import (
	"errors"
	"fmt"
)

// Common errors returned by source adapters.
var (
	// ErrNotFound indicates the identifier has no record at the source.
	ErrNotFound = errors.New("not found at source")

	// ErrForbidden indicates the source refused access (HTTP 403).
	ErrForbidden = errors.New("access forbidden by source")

	// ErrRateLimited indicates the source is throttling us.
	ErrRateLimited = errors.New("rate limited by source")

	// ErrNetwork indicates a connectivity or timeout failure.
	ErrNetwork = errors.New("network error communicating with source")

	// ErrBadResponse indicates the source returned an unparseable body.
	ErrBadResponse = errors.New("malformed response from source")

	// ErrBadIdentifier indicates no source locator can be derived from
	// the identifier. Never retried.
	ErrBadIdentifier = errors.New("cannot derive locator from identifier")

	// ErrUnavailable indicates the adapter cannot run at all (e.g. the
	// browser fallback without a browser installed).
	ErrUnavailable = errors.New("adapter unavailable")
)

// FetchError carries the proximate cause of a failed adapter call.
type FetchError struct {
	Source     string // adapter name
	StatusCode int    // HTTP status when one was received
	Message    string
	Err        error // one of the sentinel errors above, for errors.Is
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Source, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// fetchErr builds a FetchError with a formatted message.
func fetchErr(source string, status int, sentinel error, format string, args ...interface{}) *FetchError {
	return &FetchError{
		Source:     source,
		StatusCode: status,
		Message:    fmt.Sprintf(format, args...),
		Err:        sentinel,
	}
}

// statusSentinel maps an HTTP status to the matching sentinel error.
func statusSentinel(status int) error {
	switch {
	case status == 404:
		return ErrNotFound
	case status == 403:
		return ErrForbidden
	case status == 429:
		return ErrRateLimited
	case status >= 500:
		return ErrNetwork
	default:
		return ErrBadResponse
	}
}

// IsNotFound reports whether err is a definitive miss at the source.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsRetryable reports whether the failure is transient: rate limiting,
// server errors, and network failures may succeed on a later attempt;
// 403/404 and malformed identifiers never will.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrNetwork)
}

// HTTPStatus extracts the HTTP status from a fetch error, or 0.
func HTTPStatus(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}
