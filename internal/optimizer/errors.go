package optimizer

import "errors"

var (
	// ErrServiceUnavailable covers network errors, non-2xx replies and an open breaker.
	ErrServiceUnavailable = errors.New("optimizer service unavailable")
	// ErrMalformedResponse is a reply that does not decode or does not match the request.
	ErrMalformedResponse = errors.New("optimizer returned a malformed response")
	// ErrNoFarms rejects a request without farms; neither path can serve it.
	ErrNoFarms = errors.New("at least one farm is required")
)

// Recoverable reports whether err should send the caller to the fallback path.
func Recoverable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrMalformedResponse)
}
