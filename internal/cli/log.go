package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, rounded to the millisecond.
// Example output: "Synchronized bundle (3.412s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Observability
// =============================================================================

// logExecHooks reports subprocesses at debug level.
type logExecHooks struct {
	logger *log.Logger
}

func (h logExecHooks) OnCommandStart(_ context.Context, program string, args []string) {
	h.logger.Debug("spawn", "program", program, "args", args)
}

func (h logExecHooks) OnCommandComplete(_ context.Context, program string, exitCode int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("exited", "program", program, "code", exitCode, "err", err, "took", d.Round(time.Millisecond))
		return
	}
	h.logger.Debug("exited", "program", program, "code", exitCode, "took", d.Round(time.Millisecond))
}

// logSyncHooks reports bundle synchronization at debug level.
type logSyncHooks struct {
	logger *log.Logger
}

func (h logSyncHooks) OnSyncStart(_ context.Context, root string) {
	h.logger.Debug("sync start", "root", root)
}

func (h logSyncHooks) OnSyncComplete(_ context.Context, root, result string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("sync failed", "root", root, "err", err, "took", d.Round(time.Millisecond))
		return
	}
	h.logger.Debug("sync complete", "root", root, "result", result, "took", d.Round(time.Millisecond))
}
