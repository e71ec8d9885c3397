package main

import (
	"context"
	"testing"
)

func TestStatus_UnreachableDirectoryFails(t *testing.T) {
	t.Setenv("DB_USER", "sa")
	t.Setenv("DB_PASSWORD", "x")
	t.Setenv("DB_SERVER", "127.0.0.1")
	t.Setenv("DB_DATABASE", "bot")
	// Port 1 is closed; the ping must fail and the command must report it
	// as an error so the process exits non-zero.
	t.Setenv("DB_PORT", "1")

	cmd := statusCmd()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd.SetContext(ctx)

	if err := cmd.RunE(cmd, nil); err == nil {
		t.Fatal("status must fail when the directory is unreachable")
	}
}
