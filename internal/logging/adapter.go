package logging

import (
	"context"
	"log/slog"
	"strings"
)

// LibraryLog routes the printf-style debug output of a client library into
// slog at debug level. It satisfies interfaces built around log.Logger's
// Output method, such as slack-go's OptionLog.
type LibraryLog struct {
	logger *slog.Logger
}

// NewLibraryLog tags every line with library=name. A nil logger uses
// slog.Default().
func NewLibraryLog(logger *slog.Logger, name string) *LibraryLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryLog{logger: logger.With(slog.String("library", name))}
}

// Output logs s without its trailing newline. Lines that could contain a
// token are redacted.
func (l *LibraryLog) Output(_ int, s string) error {
	if !l.logger.Enabled(context.Background(), slog.LevelDebug) {
		return nil
	}
	line := strings.TrimRight(s, "\n")
	if strings.Contains(line, "xox") || strings.Contains(strings.ToLower(line), "authorization") {
		line = "[redacted]"
	}
	l.logger.Debug(line)
	return nil
}
