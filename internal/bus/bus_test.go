package bus

import (
	"log/slog"
	"os"
	"testing"

	"wabot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestQueue_PublishAndReceive(t *testing.T) {
	q := New(10, testLogger())
	defer q.Close()

	q.Publish(domain.ConsoleLine{Text: "env Juan saldo"})
	q.Publish(domain.SessionConnected{})

	evt := <-q.Subscribe()
	line, ok := evt.(domain.ConsoleLine)
	if !ok {
		t.Fatalf("expected ConsoleLine, got %T", evt)
	}
	if line.Text != "env Juan saldo" {
		t.Errorf("unexpected text: %q", line.Text)
	}

	if _, ok := (<-q.Subscribe()).(domain.SessionConnected); !ok {
		t.Error("expected SessionConnected second")
	}
}

func TestQueue_OrderPreserved(t *testing.T) {
	q := New(10, testLogger())
	defer q.Close()

	for i := 0; i < 5; i++ {
		q.Publish(domain.SessionClosed{Code: i})
	}
	for i := 0; i < 5; i++ {
		evt := <-q.Subscribe()
		closed, ok := evt.(domain.SessionClosed)
		if !ok {
			t.Fatalf("expected SessionClosed, got %T", evt)
		}
		if closed.Code != i {
			t.Errorf("expected code %d, got %d", i, closed.Code)
		}
	}
}

func TestQueue_PublishAfterClose(t *testing.T) {
	q := New(10, testLogger())
	q.Close()

	// Must not panic.
	q.Publish(domain.SessionConnected{})
}

func TestQueue_CloseIdempotent(t *testing.T) {
	q := New(10, testLogger())
	q.Close()
	q.Close()

	if _, ok := <-q.Subscribe(); ok {
		t.Error("expected closed channel")
	}
}
