// Package console reads operator input and feeds it into the event queue.
package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"wabot/internal/bus"
	"wabot/internal/domain"
)

// Reader is the operator input producer. It publishes one ConsoleLine per
// non-empty line; interpretation happens in the dispatcher so console
// commands and inbound messages share a single ordered stream.
type Reader struct {
	queue  *bus.Queue
	logger *slog.Logger
	in     io.Reader
}

type Config struct {
	Queue  *bus.Queue
	Logger *slog.Logger
	In     io.Reader
}

func NewReader(cfg Config) *Reader {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	return &Reader{queue: cfg.Queue, logger: cfg.Logger, in: cfg.In}
}

// Run blocks until the input closes or ctx is cancelled.
func (r *Reader) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			r.logger.Info("console input closed")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.queue.Publish(domain.ConsoleLine{Text: line})
	}
}
