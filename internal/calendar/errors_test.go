package calendar

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestAPIErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("network down"), "network down"},
		{"not found", fmt.Errorf("failed to get event: %w", &googleapi.Error{Code: 404, Message: "Not Found"}), "Resource not found: Not Found"},
		{"forbidden", &googleapi.Error{Code: 403}, "Access denied"},
		{"unauthorized", &googleapi.Error{Code: 401}, "Authentication failed"},
		{"rate limit", &googleapi.Error{Code: 429}, "Rate limit exceeded"},
		{"server", &googleapi.Error{Code: 503}, "server error (503)"},
		{"other", &googleapi.Error{Code: 400, Message: "Invalid start time"}, "Google Calendar API error (400): Invalid start time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := APIErrorMessage(tt.err)
			if tt.want == "" && got != "" {
				t.Errorf("APIErrorMessage() = %q, want empty", got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("APIErrorMessage() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&googleapi.Error{Code: 429}) {
		t.Error("429 should be retryable")
	}
	if !IsRetryable(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 500})) {
		t.Error("wrapped 500 should be retryable")
	}
	if IsRetryable(&googleapi.Error{Code: 404}) {
		t.Error("404 should not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors should not be retryable")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&googleapi.Error{Code: 404}) {
		t.Error("404 should be not found")
	}
	if IsNotFound(&googleapi.Error{Code: 410}) {
		t.Error("410 should not be not found")
	}
}
