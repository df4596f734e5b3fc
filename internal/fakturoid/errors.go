package fakturoid

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is returned by NewClient for incomplete options.
var ErrInvalidOptions = errors.New("fakturoid: invalid client options")

// RequestFailedError reports an API call that returned an unexpected HTTP
// status. It is never retried.
type RequestFailedError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("%s %s failed with code %d\n\n%s", e.Method, e.Path, e.StatusCode, e.Body)
}
