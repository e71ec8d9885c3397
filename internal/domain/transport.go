package domain

import "context"

// Transport is the outbound side of the messaging session. Implementations
// must be safe for concurrent use: the operator dispatch path and the
// auto-reply path may send at the same time.
type Transport interface {
	SendText(ctx context.Context, to string, text string) error
	SendImage(ctx context.Context, to string, path string, caption string) error
	SendDocument(ctx context.Context, to string, path string, caption string) error
}
