package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"wabot/internal/domain"
)

const fileUnavailableText = "Lo siento, el archivo solicitado no está disponible."

// Outcome reports what interpreting one line did, for the console view.
type Outcome struct {
	Cleared    bool
	Recipients int
	Delivered  int
}

// Interpreter resolves a parsed command against the directory and fans out
// the resulting sends over the transport.
type Interpreter struct {
	dir       domain.Directory
	tx        domain.Transport
	filesRoot string
	groupName string
	logger    *slog.Logger
}

func NewInterpreter(dir domain.Directory, tx domain.Transport, filesRoot, groupName string, logger *slog.Logger) *Interpreter {
	return &Interpreter{
		dir:       dir,
		tx:        tx,
		filesRoot: filesRoot,
		groupName: groupName,
		logger:    logger,
	}
}

// Interpret parses and executes one operator line. Resolution errors abort
// before any send; per-recipient send failures are logged and skipped so the
// remaining recipients still receive the message.
func (it *Interpreter) Interpret(ctx context.Context, line string) (Outcome, error) {
	cmd, err := Parse(line)
	if err != nil {
		return Outcome{}, err
	}

	switch c := cmd.(type) {
	case Clear:
		return Outcome{Cleared: true}, nil

	case SendStored:
		recipients, err := it.resolveRecipients(ctx, c.Name)
		if err != nil {
			return Outcome{}, err
		}
		rec, err := it.dir.FindReply(ctx, c.Query)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return Outcome{}, fmt.Errorf("%w for %q", ErrNoMatchingReply, c.Query)
			}
			return Outcome{}, err
		}
		delivered := it.DispatchReply(ctx, recipients, rec)
		return Outcome{Recipients: len(recipients), Delivered: delivered}, nil

	case SendLiteral:
		recipients, err := it.resolveRecipients(ctx, c.Name)
		if err != nil {
			return Outcome{}, err
		}
		delivered := 0
		for _, to := range recipients {
			if err := it.tx.SendText(ctx, to, c.Message); err != nil {
				it.logger.Error("send failed", "to", to, "error", err)
				continue
			}
			it.logger.Info("message sent", "to", to)
			delivered++
		}
		return Outcome{Recipients: len(recipients), Delivered: delivered}, nil

	default:
		return Outcome{}, fmt.Errorf("%w: %T", ErrUnrecognizedCommand, cmd)
	}
}

// resolveRecipients maps a recipient name to one or more addresses. The
// reserved group name resolves through the group directory; everything else
// is a user prefix lookup that must match exactly one entry.
func (it *Interpreter) resolveRecipients(ctx context.Context, name string) ([]string, error) {
	if it.groupName != "" && name == it.groupName {
		addrs, err := it.dir.ResolveGroup(ctx, it.groupName)
		if err != nil {
			return nil, fmt.Errorf("%w: group %q: %v", ErrUnresolvedRecipient, name, err)
		}
		return addrs, nil
	}

	addr, err := it.dir.ResolveUser(ctx, name)
	switch {
	case errors.Is(err, domain.ErrAmbiguous):
		return nil, fmt.Errorf("%w: %q matches more than one user", ErrUnresolvedRecipient, name)
	case errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("%w: no user named %q", ErrUnresolvedRecipient, name)
	case err != nil:
		return nil, err
	}
	return []string{addr}, nil
}

// DispatchReply sends a stored answer to every recipient, in order. It
// returns the number of successful sends; failures are logged per recipient.
func (it *Interpreter) DispatchReply(ctx context.Context, recipients []string, rec *domain.ReplyRecord) int {
	delivered := 0
	for _, to := range recipients {
		if it.sendReply(ctx, to, rec) {
			delivered++
		}
	}
	return delivered
}

func (it *Interpreter) sendReply(ctx context.Context, to string, rec *domain.ReplyRecord) bool {
	switch rec.Kind {
	case domain.ReplyImage:
		ok := true
		for _, path := range splitPaths(rec.FilePaths) {
			full := filepath.Join(it.filesRoot, path)
			if !fileExists(full) {
				it.logger.Warn("image missing, sending fallback", "path", full, "to", to)
				if err := it.tx.SendText(ctx, to, fileUnavailableText); err != nil {
					it.logger.Error("send failed", "to", to, "error", err)
					ok = false
				}
				continue
			}
			if err := it.tx.SendImage(ctx, to, full, rec.Body); err != nil {
				it.logger.Error("send failed", "to", to, "error", err)
				ok = false
				continue
			}
			it.logger.Info("image sent", "to", to, "path", full)
		}
		return ok

	case domain.ReplyDocument:
		path := strings.TrimSpace(rec.FilePaths)
		if path == "" {
			if err := it.tx.SendText(ctx, to, fileUnavailableText); err != nil {
				it.logger.Error("send failed", "to", to, "error", err)
				return false
			}
			return true
		}
		full := filepath.Join(it.filesRoot, path)
		if !fileExists(full) {
			it.logger.Warn("document missing, sending fallback", "path", full, "to", to)
			if err := it.tx.SendText(ctx, to, fileUnavailableText); err != nil {
				it.logger.Error("send failed", "to", to, "error", err)
				return false
			}
			return true
		}
		if err := it.tx.SendDocument(ctx, to, full, rec.Body); err != nil {
			it.logger.Error("send failed", "to", to, "error", err)
			return false
		}
		it.logger.Info("document sent", "to", to, "path", full)
		return true

	default:
		if err := it.tx.SendText(ctx, to, rec.Body); err != nil {
			it.logger.Error("send failed", "to", to, "error", err)
			return false
		}
		it.logger.Info("message sent", "to", to)
		return true
	}
}

func splitPaths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
