package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// FileSink is a serialized append-only log writer. Every write is
// guarded by a mutex so concurrent request goroutines never interleave
// partial lines, and a failing write is reported to stderr rather than
// propagated — logging must never block or fail a request.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink truncates (or creates) the file at path and returns a sink
// that appends to it for the remainder of the process lifetime.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &FileSink{file: f}, nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.file.Write(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file write failed: %v\n", err)
		return len(p), nil
	}
	return n, nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// AttachFileSink wraps the current default slog handler with one that also
// fans every record out to the append-only file sink.
func AttachFileSink(sink *FileSink, level slog.Level) {
	fileHandler := slog.NewTextHandler(sink, &slog.HandlerOptions{Level: level})
	current := slog.Default().Handler()
	slog.SetDefault(slog.New(&fanoutHandler{primary: current, secondary: fileHandler}))
}

// fanoutHandler duplicates every log record to two underlying handlers.
// The file handler's errors are never surfaced; FileSink already swallows
// write failures internally.
type fanoutHandler struct {
	primary   slog.Handler
	secondary slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.primary.Enabled(ctx, level) || h.secondary.Enabled(ctx, level)
}

func (h *fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.primary.Enabled(ctx, record.Level) {
		if err := h.primary.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}
	if h.secondary.Enabled(ctx, record.Level) {
		_ = h.secondary.Handle(ctx, record.Clone())
	}
	return nil
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &fanoutHandler{primary: h.primary.WithAttrs(attrs), secondary: h.secondary.WithAttrs(attrs)}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	return &fanoutHandler{primary: h.primary.WithGroup(name), secondary: h.secondary.WithGroup(name)}
}
