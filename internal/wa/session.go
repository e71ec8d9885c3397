// Package wa owns the WhatsApp connection: credential storage, QR pairing,
// the supervising reconnect loop, and outbound sends.
package wa

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	"wabot/internal/bus"
	"wabot/internal/config"
	"wabot/internal/domain"
)

// dropReason tells the supervising loop how a connection ended.
type dropReason int

const (
	dropReconnect dropReason = iota // transient, retry with same credentials
	dropWipe                        // credentials rejected, wipe and re-pair
)

// Session supervises one WhatsApp connection. It publishes lifecycle and
// message events on the queue and implements the outbound transport.
type Session struct {
	cfg    config.BotConfig
	queue  *bus.Queue
	logger *slog.Logger

	mu     sync.RWMutex
	client *whatsmeow.Client
}

func NewSession(cfg config.BotConfig, queue *bus.Queue, logger *slog.Logger) *Session {
	return &Session{cfg: cfg, queue: queue, logger: logger}
}

// Run connects and keeps the session alive until ctx is cancelled. Each drop
// reconnects after a bounded exponential backoff; a credential rejection
// wipes the stored session first so the next attempt pairs fresh.
func (s *Session) Run(ctx context.Context) error {
	backoff := s.cfg.BackoffMin
	for {
		start := time.Now()
		reason, err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.logger.Error("session ended", "error", err)
		}

		if reason == dropWipe {
			s.logger.Warn("session rejected, wiping stored credentials")
			if err := removeSessionFiles(s.cfg.SessionDBPath); err != nil {
				s.logger.Error("credential wipe failed", "error", err)
			}
			backoff = s.cfg.BackoffMin
		}

		// A connection that survived past the ceiling counts as stable.
		if time.Since(start) > s.cfg.BackoffMax {
			backoff = s.cfg.BackoffMin
		}

		s.logger.Info("reconnecting", "backoff", backoff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff, s.cfg.BackoffMax)
	}
}

// runOnce opens the credential store, connects (pairing over QR when no
// device is stored) and blocks until the connection drops or ctx ends.
func (s *Session) runOnce(ctx context.Context) (dropReason, error) {
	if dir := filepath.Dir(s.cfg.SessionDBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return dropReconnect, fmt.Errorf("session store dir: %w", err)
		}
	}

	dbLog := waLog.Stdout("Database", "ERROR", true)
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", s.cfg.SessionDBPath), dbLog)
	if err != nil {
		return dropReconnect, fmt.Errorf("open session store: %w", err)
	}
	defer container.Close()

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return dropReconnect, fmt.Errorf("load device: %w", err)
	}

	client := whatsmeow.NewClient(device, waLog.Stdout("Client", "ERROR", true))
	client.EnableAutoReconnect = false

	drop := make(chan dropReason, 1)
	client.AddEventHandler(func(evt interface{}) {
		s.handleEvent(evt, drop)
	})

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.client = nil
		s.mu.Unlock()
		client.Disconnect()
	}()

	if client.Store.ID == nil {
		qrChan, err := client.GetQRChannel(ctx)
		if err != nil {
			return dropReconnect, fmt.Errorf("qr channel: %w", err)
		}
		if err := client.Connect(); err != nil {
			return dropReconnect, fmt.Errorf("connect: %w", err)
		}
		for evt := range qrChan {
			switch evt.Event {
			case "code":
				s.logger.Info("scan the QR code to pair")
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			case "success":
				s.logger.Info("pairing complete")
			default:
				s.logger.Info("pairing", "event", evt.Event)
			}
		}
	} else {
		if err := client.Connect(); err != nil {
			return dropReconnect, fmt.Errorf("connect: %w", err)
		}
	}

	select {
	case <-ctx.Done():
		return dropReconnect, nil
	case reason := <-drop:
		return reason, nil
	}
}

// handleEvent converts library events into the event union at the process
// boundary. Only the variants downstream consumers act on are forwarded.
func (s *Session) handleEvent(evt interface{}, drop chan<- dropReason) {
	switch e := evt.(type) {
	case *events.Connected:
		s.logger.Info("whatsapp connected")
		s.queue.Publish(domain.SessionConnected{})

	case *events.PairSuccess:
		s.logger.Info("device paired", "id", e.ID.String())
		s.queue.Publish(domain.SessionPaired{Device: e.ID.String()})

	case *events.Disconnected:
		s.logger.Warn("whatsapp disconnected")
		s.queue.Publish(domain.SessionClosed{})
		sendDrop(drop, dropReconnect)

	case *events.StreamReplaced:
		s.logger.Warn("stream replaced by another client")
		s.queue.Publish(domain.SessionClosed{})
		sendDrop(drop, dropReconnect)

	case *events.LoggedOut:
		s.logger.Warn("logged out by server", "reason", e.Reason)
		s.queue.Publish(domain.SessionClosed{Code: int(e.Reason), LoggedOut: true})
		sendDrop(drop, dropWipe)

	case *events.Message:
		s.queue.Publish(domain.MessageReceived{
			Sender:    e.Info.Sender.ToNonAD().String(),
			Chat:      e.Info.Chat.String(),
			FromMe:    e.Info.IsFromMe,
			Payload:   payloadOf(e.Message),
			Timestamp: e.Info.Timestamp,
		})
	}
}

// sendDrop delivers at most one drop reason per connection.
func sendDrop(drop chan<- dropReason, reason dropReason) {
	select {
	case drop <- reason:
	default:
	}
}

// nextBackoff doubles the delay up to the ceiling.
func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

// removeSessionFiles deletes the sqlite credential store plus its WAL
// sidecar files. Missing files are fine.
func removeSessionFiles(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}
