package provider

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

// APIError is a non-success reply from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, msg)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

var (
	modelNotFoundRe = regexp.MustCompile(`(?i)model.*not found`)
	doesNotExistRe  = regexp.MustCompile(`(?i)does not exist`)
)

// IsModelUnavailable reports whether err means the requested model cannot be used,
// which is the only error that moves the hosted provider to its next candidate.
func IsModelUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusNotFound || apiErr.Code == "model_not_found" {
			return true
		}
		msg = apiErr.Message
	}
	return modelNotFoundRe.MatchString(msg) || doesNotExistRe.MatchString(msg)
}
