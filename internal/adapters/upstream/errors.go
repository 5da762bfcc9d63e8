package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for upstream errors.
var (
	ErrNotFound    = errors.New("upstream resource not found")
	ErrDecode      = errors.New("upstream response could not be decoded")
	ErrUnavailable = errors.New("upstream unavailable")
)

// StatusError is a non-2xx upstream response. Detail carries the upstream
// "detail" message when the body provides one.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("upstream status %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("upstream status %d %s", e.Status, http.StatusText(e.Status))
}

// Is reports a 404 as ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
