// Package bot is the dispatcher: a single consumer that drains the event
// queue and routes each event to the session, classifier or console paths.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"wabot/internal/bus"
	"wabot/internal/classifier"
	"wabot/internal/command"
	"wabot/internal/config"
	"wabot/internal/domain"
)

const consoleBanner = "Comandos: cls | env <nombre> <consulta> | env2 <grupo> <mensaje>"

// clearScreen is the ANSI erase-display plus cursor-home sequence.
const clearScreen = "\033[2J\033[H"

const pingTimeout = 5 * time.Second

// LoopConfig holds the dispatcher dependencies.
type LoopConfig struct {
	Queue       *bus.Queue
	Directory   domain.Directory
	Interpreter *command.Interpreter
	Console     io.Writer
	Bot         config.BotConfig
	Logger      *slog.Logger
}

// Loop consumes events sequentially so inbound handling and console commands
// never interleave.
type Loop struct {
	queue   *bus.Queue
	dir     domain.Directory
	interp  *command.Interpreter
	console io.Writer
	cfg     config.BotConfig
	logger  *slog.Logger
}

func NewLoop(cfg LoopConfig) *Loop {
	return &Loop{
		queue:   cfg.Queue,
		dir:     cfg.Directory,
		interp:  cfg.Interpreter,
		console: cfg.Console,
		cfg:     cfg.Bot,
		logger:  cfg.Logger,
	}
}

// Run drains the queue until ctx is cancelled or the queue closes.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("dispatcher started")
	events := l.queue.Subscribe()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("dispatcher stopping")
			return
		case evt, ok := <-events:
			if !ok {
				l.logger.Info("event queue closed, dispatcher stopping")
				return
			}
			l.handle(ctx, evt)
		}
	}
}

func (l *Loop) handle(ctx context.Context, evt domain.Event) {
	switch e := evt.(type) {
	case domain.SessionConnected:
		l.onConnected(ctx)

	case domain.SessionPaired:
		l.logger.Info("session paired", "device", e.Device)

	case domain.SessionClosed:
		l.logger.Warn("session closed", "code", e.Code, "logged_out", e.LoggedOut)

	case domain.MessageReceived:
		l.onMessage(ctx, e)

	case domain.ConsoleLine:
		l.onConsoleLine(ctx, e.Text)
	}
}

// onConnected probes the directory so a broken database surfaces in the logs
// right away. The session stays up either way; lookups fail closed later.
func (l *Loop) onConnected(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := l.dir.Ping(pingCtx); err != nil {
		l.logger.Error("directory unreachable", "error", err)
	} else {
		l.logger.Info("directory reachable")
	}
	fmt.Fprintln(l.console, consoleBanner)
}

func (l *Loop) onMessage(ctx context.Context, msg domain.MessageReceived) {
	res, ok := classifier.Classify(msg)
	if !ok {
		return
	}
	l.logger.Info("message received", "sender", res.Sender, "text", res.Text)

	if !l.cfg.AutoReply {
		return
	}
	rec, err := l.dir.FindReply(ctx, res.Text)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			l.logger.Error("reply lookup failed", "error", err)
		}
		return
	}
	l.interp.DispatchReply(ctx, []string{res.Sender}, rec)
}

func (l *Loop) onConsoleLine(ctx context.Context, line string) {
	out, err := l.interp.Interpret(ctx, line)
	if err != nil {
		fmt.Fprintln(l.console, err.Error())
		return
	}
	if out.Cleared {
		fmt.Fprint(l.console, clearScreen)
		fmt.Fprintln(l.console, consoleBanner)
		return
	}
	fmt.Fprintf(l.console, "Enviado a %d de %d destinatarios\n", out.Delivered, out.Recipients)
}
