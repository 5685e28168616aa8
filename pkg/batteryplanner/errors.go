package batteryplanner

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidAuth matches (via errors.Is) any StatusError carrying an
// HTTP 401 or 403 from the planner.
var ErrInvalidAuth = errors.New("invalid api token")

// StatusError is a non-2xx planner response. Body holds a truncated copy
// of the upstream payload for diagnostics; its field set is not specified
// by the API, so no structured parse is attempted.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrInvalidAuth &&
		(e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden)
}
