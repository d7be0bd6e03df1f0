package calendar

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// APIErrorMessage renders a Calendar API failure as a message an end user can act on.
func APIErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err.Error()
	}

	detail := gerr.Message
	if detail == "" && len(gerr.Errors) > 0 {
		detail = gerr.Errors[0].Message
	}

	switch {
	case gerr.Code == http.StatusBadRequest && strings.Contains(err.Error(), "invalid_grant"):
		return "Authentication token is invalid or expired. Please re-authenticate with 'calslack auth'."
	case gerr.Code == http.StatusUnauthorized:
		return "Authentication failed. Please re-authenticate with 'calslack auth'."
	case gerr.Code == http.StatusForbidden:
		return fmt.Sprintf("Access denied: %s", orDefault(detail, "insufficient permissions for this calendar"))
	case gerr.Code == http.StatusNotFound:
		return fmt.Sprintf("Resource not found: %s", orDefault(detail, "the calendar or event does not exist"))
	case gerr.Code == http.StatusTooManyRequests:
		return "Rate limit exceeded. Please try again later."
	case gerr.Code >= http.StatusInternalServerError:
		return fmt.Sprintf("Google Calendar API server error (%d). Please try again later.", gerr.Code)
	default:
		return fmt.Sprintf("Google Calendar API error (%d): %s", gerr.Code, orDefault(detail, http.StatusText(gerr.Code)))
	}
}

// IsRetryable reports whether err is a transient Calendar API failure.
func IsRetryable(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError
}

// IsNotFound reports whether err is a Calendar API 404.
func IsNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
