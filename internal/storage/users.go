package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TouchAuthor records a Tailscale login as a library author, updating
// last_seen and display_name on each call.
func (db *DB) TouchAuthor(ctx context.Context, login, displayName string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := upsertAuthor(ctx, tx, login, displayName); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func upsertAuthor(ctx context.Context, tx pgx.Tx, login, displayName string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO authors (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), authors.display_name)
	`, login, displayName)
	if err != nil {
		return fmt.Errorf("upserting author: %w", err)
	}
	return nil
}
