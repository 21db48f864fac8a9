// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package journal provides a Postgres-backed log of messages the send flow
// handed to Graph.
package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bcem/sendcard/internal/models"
)

// execer is the subset of *pgxpool.Pool the store uses.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store appends send records to Postgres.
type Store struct {
	db execer
}

// NewStore creates a journal store backed by the given Postgres pool.
// It ensures the sent_messages table exists on creation.
func NewStore(ctx context.Context, db execer) (*Store, error) {
	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure journal schema: %w", err)
	}
	slog.Info("send journal initialised")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sent_messages (
			id                 UUID PRIMARY KEY,
			recipient          TEXT NOT NULL,
			subject            TEXT NOT NULL,
			content_id         TEXT DEFAULT '',
			body_bytes         INTEGER NOT NULL,
			attachments        INTEGER NOT NULL,
			save_to_sent_items BOOLEAN NOT NULL,
			sent_at            TIMESTAMPTZ NOT NULL,
			created_at         TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_sent_recipient ON sent_messages(recipient);
		CREATE INDEX IF NOT EXISTS idx_sent_at ON sent_messages(sent_at);
	`)
	return err
}

// Record inserts one send record. Re-recording the same ID is a no-op.
func (s *Store) Record(ctx context.Context, rec *models.SendRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO sent_messages
			(id, recipient, subject, content_id, body_bytes, attachments, save_to_sent_items, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, rec.ID, rec.Recipient, rec.Subject, rec.ContentID, rec.BodyBytes, rec.Attachments, rec.SaveToSentItems, rec.SentAt)
	if err != nil {
		return fmt.Errorf("insert sent message: %w", err)
	}
	return nil
}

// Name identifies the recorder in logs.
func (s *Store) Name() string { return "postgres:sent_messages" }
