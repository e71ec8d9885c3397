package bot

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"wabot/internal/bus"
	"wabot/internal/command"
	"wabot/internal/config"
	"wabot/internal/domain"
)

type stubDirectory struct {
	users   map[string]string
	replies map[string]*domain.ReplyRecord
	pingErr error
}

func (s *stubDirectory) Ping(ctx context.Context) error { return s.pingErr }

func (s *stubDirectory) ResolveUser(ctx context.Context, prefix string) (string, error) {
	for name, addr := range s.users {
		if strings.HasPrefix(name, prefix) {
			return addr, nil
		}
	}
	return "", domain.ErrNotFound
}

func (s *stubDirectory) ResolveGroup(ctx context.Context, name string) ([]string, error) {
	return nil, domain.ErrNotFound
}

func (s *stubDirectory) FindReply(ctx context.Context, query string) (*domain.ReplyRecord, error) {
	for q, rec := range s.replies {
		if strings.Contains(q, query) {
			return rec, nil
		}
	}
	return nil, domain.ErrNotFound
}

type recordingTransport struct {
	mu   sync.Mutex
	text []string
	to   []string
}

func (r *recordingTransport) SendText(ctx context.Context, to, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.to = append(r.to, to)
	r.text = append(r.text, text)
	return nil
}

func (r *recordingTransport) SendImage(ctx context.Context, to, path, caption string) error {
	return nil
}

func (r *recordingTransport) SendDocument(ctx context.Context, to, path, caption string) error {
	return nil
}

func (r *recordingTransport) sent() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.text...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	queue   *bus.Queue
	tx      *recordingTransport
	console *syncBuffer
	cancel  context.CancelFunc
	done    chan struct{}
}

// syncBuffer guards the console writer because the loop goroutine writes
// while the test reads.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func startLoop(t *testing.T, dir *stubDirectory, botCfg config.BotConfig) *fixture {
	t.Helper()
	queue := bus.New(16, testLogger())
	tx := &recordingTransport{}
	console := &syncBuffer{}
	interp := command.NewInterpreter(dir, tx, t.TempDir(), botCfg.GroupName, testLogger())

	loop := NewLoop(LoopConfig{
		Queue:       queue,
		Directory:   dir,
		Interpreter: interp,
		Console:     console,
		Bot:         botCfg,
		Logger:      testLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	f := &fixture{queue: queue, tx: tx, console: console, cancel: cancel, done: done}
	t.Cleanup(func() {
		cancel()
		queue.Close()
		<-done
	})
	return f
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestLoop_ConsoleSendLiteral(t *testing.T) {
	dir := &stubDirectory{users: map[string]string{"Juan Perez": "1@s.whatsapp.net"}}
	f := startLoop(t, dir, config.Defaults().Bot)

	f.queue.Publish(domain.ConsoleLine{Text: "env2 Juan Perez hola"})

	waitFor(t, func() bool { return len(f.tx.sent()) == 1 })
	if got := f.tx.sent()[0]; got != "hola" {
		t.Errorf("sent = %q", got)
	}
	waitFor(t, func() bool {
		return strings.Contains(f.console.String(), "Enviado a 1 de 1")
	})
}

func TestLoop_ConsoleErrorIsPrintedNotFatal(t *testing.T) {
	f := startLoop(t, &stubDirectory{}, config.Defaults().Bot)

	f.queue.Publish(domain.ConsoleLine{Text: "env Nadie saldo"})
	waitFor(t, func() bool {
		return strings.Contains(f.console.String(), "unresolved recipient")
	})

	// The loop must still be serving after a command error.
	f.queue.Publish(domain.ConsoleLine{Text: "cls"})
	waitFor(t, func() bool {
		return strings.Contains(f.console.String(), clearScreen)
	})
}

func TestLoop_ClearPrintsBanner(t *testing.T) {
	f := startLoop(t, &stubDirectory{}, config.Defaults().Bot)

	f.queue.Publish(domain.ConsoleLine{Text: "clear"})
	waitFor(t, func() bool {
		out := f.console.String()
		return strings.Contains(out, clearScreen) && strings.Contains(out, consoleBanner)
	})
}

func TestLoop_AutoReplyDisabledByDefault(t *testing.T) {
	dir := &stubDirectory{replies: map[string]*domain.ReplyRecord{
		"horario de atencion": {Kind: domain.ReplyText, Body: "9 a 18"},
	}}
	f := startLoop(t, dir, config.Defaults().Bot)

	f.queue.Publish(domain.MessageReceived{
		Sender:  "5215550000@s.whatsapp.net",
		Chat:    "5215550000@s.whatsapp.net",
		Payload: domain.TextPayload{Text: "horario"},
	})

	time.Sleep(50 * time.Millisecond)
	if sent := f.tx.sent(); len(sent) != 0 {
		t.Fatalf("sent = %v, want none with auto-reply off", sent)
	}
}

func TestLoop_AutoReplyEnabled(t *testing.T) {
	dir := &stubDirectory{replies: map[string]*domain.ReplyRecord{
		"horario de atencion": {Kind: domain.ReplyText, Body: "9 a 18"},
	}}
	cfg := config.Defaults().Bot
	cfg.AutoReply = true
	f := startLoop(t, dir, cfg)

	f.queue.Publish(domain.MessageReceived{
		Sender:  "5215550000@s.whatsapp.net",
		Chat:    "5215550000@s.whatsapp.net",
		Payload: domain.TextPayload{Text: "horario"},
	})

	waitFor(t, func() bool { return len(f.tx.sent()) == 1 })
	if got := f.tx.sent()[0]; got != "9 a 18" {
		t.Errorf("reply = %q", got)
	}
}

func TestLoop_GroupMessageNeverAnswered(t *testing.T) {
	dir := &stubDirectory{replies: map[string]*domain.ReplyRecord{
		"horario de atencion": {Kind: domain.ReplyText, Body: "9 a 18"},
	}}
	cfg := config.Defaults().Bot
	cfg.AutoReply = true
	f := startLoop(t, dir, cfg)

	f.queue.Publish(domain.MessageReceived{
		Sender:  "5215550000@s.whatsapp.net",
		Chat:    "12036304@g.us",
		Payload: domain.TextPayload{Text: "horario"},
	})

	time.Sleep(50 * time.Millisecond)
	if sent := f.tx.sent(); len(sent) != 0 {
		t.Fatalf("sent = %v, want none for group chat", sent)
	}
}

func TestLoop_ConnectedProbesDirectory(t *testing.T) {
	f := startLoop(t, &stubDirectory{}, config.Defaults().Bot)

	f.queue.Publish(domain.SessionConnected{})
	waitFor(t, func() bool {
		return strings.Contains(f.console.String(), consoleBanner)
	})
}
