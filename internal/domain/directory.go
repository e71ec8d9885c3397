package domain

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means a directory or FAQ lookup matched nothing. Store
	// implementations also fold query failures into it so the caller fails
	// closed instead of crashing on a flaky database.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous means a user-prefix lookup matched more than one entry.
	ErrAmbiguous = errors.New("ambiguous name")
)

// Directory is the read-only contact and FAQ lookup capability.
type Directory interface {
	// Ping checks connectivity. Failures are non-fatal to the caller.
	Ping(ctx context.Context) error

	// ResolveUser resolves a display-name prefix to exactly one personal
	// address. Zero matches return ErrNotFound, multiple ErrAmbiguous.
	ResolveUser(ctx context.Context, namePrefix string) (string, error)

	// ResolveGroup resolves a reserved group name (exact match) to its
	// address list.
	ResolveGroup(ctx context.Context, exactName string) ([]string, error)

	// FindReply returns the stored answer whose question contains query,
	// top one result, or ErrNotFound.
	FindReply(ctx context.Context, query string) (*ReplyRecord, error)
}
