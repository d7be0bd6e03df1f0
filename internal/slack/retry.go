package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/slack-go/slack"

	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/logging"
)

// Retry defaults: at most three attempts, waiting min(1s * 2^n, 30s) in between.
const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = time.Second
	DefaultMaxBackoff     = 30 * time.Second
)

const errRateLimited = "ratelimited"

// IsRetryable reports whether a failed Slack call may succeed when repeated.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var rateLimited *slack.RateLimitedError
	if errors.As(err, &rateLimited) {
		return true
	}

	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) {
		return apiErr.Err == errRateLimited
	}

	var statusErr slack.StatusCodeError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return err.Error() == errRateLimited
}

func (c *Client) newBackOff() backoff.BackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     c.cfg.InitialBackoff,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         c.cfg.MaxBackoff,
	}
}

// call runs fn with retries and wraps the span and error of the Slack method.
func call[T any](ctx context.Context, c *Client, method string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := instrumentation.StartAPISpan(ctx, instrumentation.ServiceSlack, method)
	defer span.End()

	attempt := 0
	op := func() (T, error) {
		attempt++
		v, err := fn(ctx)
		if err != nil && !IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying slack call",
			slog.String("method", method),
			logging.Attempt(attempt),
			slog.Duration("wait", wait),
			logging.Err(err))
		instrumentation.AddSpanEvent(span, "retry")
		c.cfg.Metrics.RecordSlackRetry(ctx, method)
	}

	v, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries)),
		backoff.WithNotify(notify),
	)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		var zero T
		return zero, fmt.Errorf("slack %s failed after %d attempt(s): %w", method, attempt, err)
	}
	instrumentation.SetSpanSuccess(span)
	return v, nil
}
