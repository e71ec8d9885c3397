// Package directory implements the contact and FAQ lookups against the
// existing SQL Server schema (users, faq).
package directory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"wabot/internal/config"
	"wabot/internal/domain"
)

// Store implements domain.Directory over database/sql. The connection is
// dialed lazily, so incomplete credentials show up as a lookup failure on
// first use rather than at startup.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Store from the DB config. No connection is made yet.
func New(cfg config.DBConfig, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlserver", cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("open sqlserver: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing handle. Used by tests.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ResolveUser resolves a display-name prefix to exactly one address.
// Zero matches fail with ErrNotFound, more than one with ErrAmbiguous.
func (s *Store) ResolveUser(ctx context.Context, namePrefix string) (string, error) {
	namePrefix = strings.TrimSpace(namePrefix)
	if namePrefix == "" {
		return "", domain.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT whatsapp_id FROM users WHERE nombre LIKE @nombre`,
		sql.Named("nombre", namePrefix+"%"),
	)
	if err != nil {
		return "", s.failClosed("resolve user", err)
	}
	defer rows.Close()

	var addrs []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return "", s.failClosed("resolve user scan", err)
		}
		addrs = append(addrs, addr)
		if len(addrs) > 1 {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return "", s.failClosed("resolve user rows", err)
	}

	switch len(addrs) {
	case 0:
		return "", domain.ErrNotFound
	case 1:
		return addrs[0], nil
	default:
		return "", domain.ErrAmbiguous
	}
}

// ResolveGroup resolves a reserved group name to its address list. The
// whatsapp_id column holds a comma-delimited list for group entries.
func (s *Store) ResolveGroup(ctx context.Context, exactName string) ([]string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT whatsapp_id FROM users WHERE nombre = @nombre`,
		sql.Named("nombre", exactName),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, s.failClosed("resolve group", err)
	}

	var addrs []string
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			addrs = append(addrs, addr)
		}
	}
	if len(addrs) == 0 {
		return nil, domain.ErrNotFound
	}
	return addrs, nil
}

// FindReply returns the top stored answer whose question contains query.
func (s *Store) FindReply(ctx context.Context, query string) (*domain.ReplyRecord, error) {
	var body, kind string
	var paths sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT TOP 1 respuesta, tipo_respuesta, ruta_archivo FROM faq WHERE pregunta LIKE @mensaje`,
		sql.Named("mensaje", "%"+query+"%"),
	).Scan(&body, &kind, &paths)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, s.failClosed("find reply", err)
	}

	return &domain.ReplyRecord{
		Kind:      domain.ParseReplyKind(kind),
		Body:      body,
		FilePaths: paths.String,
	}, nil
}

// failClosed logs a query failure and degrades it to ErrNotFound so the
// command path reports an unresolved lookup instead of crashing.
func (s *Store) failClosed(op string, err error) error {
	s.logger.Error("directory query failed", "op", op, "err", err)
	return domain.ErrNotFound
}
