package backend

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is a failure reported by the backend itself (success:false or an
// explicit error field). It is distinct from transport failures, which are
// returned as wrapped plain errors.
type APIError struct {
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s failed", e.Endpoint)
	}
	return e.Message
}

// AsAPIError extracts an *APIError from err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsLimitError reports whether err is a backend-reported plan-limit failure.
func IsLimitError(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && strings.Contains(strings.ToLower(apiErr.Message), "limit")
}
