// Package store implements relay.EnvelopeStore on PostgreSQL via pgx.
//
// Every operation is a single SQL statement. That is a correctness
// requirement, not a style choice: ack must be a conditional update so that
// concurrent retries converge to one winner, and the sweeper's deletes must
// be idempotent so that overlapping runs (or two relay instances) are safe.
package store

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/darklock/relay/internal/relay"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is the PostgreSQL-backed envelope store.
type Store struct {
	pool *pgxpool.Pool
}

var _ relay.EnvelopeStore = (*Store)(nil)

// New creates a Store on an existing connection pool. The caller owns the
// pool's lifecycle.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema migrations. Called once at startup,
// before the server accepts traffic.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

const putSQL = `
	INSERT INTO envelopes (id, recipient_id, sender_id, ciphertext)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at`

// Put stores one envelope with a fresh server-assigned id.
func (s *Store) Put(ctx context.Context, recipientID string, senderID *string, ciphertext string) (relay.Envelope, error) {
	envelope := relay.Envelope{
		ID:          uuid.New(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Ciphertext:  ciphertext,
	}

	err := s.pool.QueryRow(ctx, putSQL, envelope.ID, recipientID, senderID, ciphertext).
		Scan(&envelope.CreatedAt)
	if err != nil {
		return relay.Envelope{}, fmt.Errorf("failed to insert envelope: %w", err)
	}

	return envelope, nil
}

// PutFanout stores one envelope per recipient in a single round trip.
// The inserts are pipelined but independent - a fan-out is N separate
// envelopes, not one shared row.
func (s *Store) PutFanout(ctx context.Context, recipientIDs []string, senderID *string, ciphertext string) ([]relay.Envelope, error) {
	batch := &pgx.Batch{}
	envelopes := make([]relay.Envelope, 0, len(recipientIDs))

	for _, recipientID := range recipientIDs {
		envelope := relay.Envelope{
			ID:          uuid.New(),
			RecipientID: recipientID,
			SenderID:    senderID,
			Ciphertext:  ciphertext,
		}
		batch.Queue(putSQL, envelope.ID, recipientID, senderID, ciphertext)
		envelopes = append(envelopes, envelope)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range envelopes {
		if err := results.QueryRow().Scan(&envelopes[i].CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert fan-out envelope for %q: %w",
				envelopes[i].RecipientID, err)
		}
	}

	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish fan-out batch: %w", err)
	}

	return envelopes, nil
}

const listPendingSQL = `
	SELECT id, recipient_id, sender_id, ciphertext, created_at
	FROM envelopes
	WHERE recipient_id = $1 AND acked_at IS NULL
	ORDER BY created_at, id
	LIMIT $2`

// ListPending returns the recipient's unacked envelopes in creation order.
func (s *Store) ListPending(ctx context.Context, recipientID string, limit int32) ([]relay.Envelope, error) {
	rows, err := s.pool.Query(ctx, listPendingSQL, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending envelopes: %w", err)
	}
	defer rows.Close()

	envelopes := []relay.Envelope{}
	for rows.Next() {
		var envelope relay.Envelope
		if err := rows.Scan(
			&envelope.ID,
			&envelope.RecipientID,
			&envelope.SenderID,
			&envelope.Ciphertext,
			&envelope.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan envelope: %w", err)
		}
		envelopes = append(envelopes, envelope)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending envelopes: %w", err)
	}

	return envelopes, nil
}

const ackSQL = `
	UPDATE envelopes
	SET acked_at = now()
	WHERE id = $1 AND recipient_id = $2 AND acked_at IS NULL`

// Ack performs the conditional pending→acked update. The WHERE clause makes
// it atomic: of any number of concurrent identical calls, exactly one sees
// RowsAffected() == 1.
func (s *Store) Ack(ctx context.Context, id uuid.UUID, recipientID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, ackSQL, id, recipientID)
	if err != nil {
		return false, fmt.Errorf("failed to ack envelope: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

const ackBatchSQL = `
	UPDATE envelopes
	SET acked_at = now()
	WHERE id = ANY($1) AND recipient_id = $2 AND acked_at IS NULL
	RETURNING id`

// AckBatch acks up to len(ids) envelopes in one statement and returns the ids
// that were newly acked.
func (s *Store) AckBatch(ctx context.Context, ids []uuid.UUID, recipientID string) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, ackBatchSQL, ids, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to ack envelope batch: %w", err)
	}
	defer rows.Close()

	acked := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan acked id: %w", err)
		}
		acked = append(acked, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read acked ids: %w", err)
	}

	return acked, nil
}

const existsSQL = `
	SELECT EXISTS (
		SELECT 1 FROM envelopes WHERE id = $1 AND recipient_id = $2
	)`

// Exists reports whether the envelope exists and is addressed to recipientID.
func (s *Store) Exists(ctx context.Context, id uuid.UUID, recipientID string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, existsSQL, id, recipientID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check envelope existence: %w", err)
	}

	return exists, nil
}

const purgeAckedSQL = `
	DELETE FROM envelopes
	WHERE acked_at IS NOT NULL AND created_at < $1`

// PurgeAcked deletes delivered envelopes created before the cutoff.
func (s *Store) PurgeAcked(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, purgeAckedSQL, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge acked envelopes: %w", err)
	}

	return tag.RowsAffected(), nil
}

const purgeAllSQL = `
	DELETE FROM envelopes
	WHERE created_at < $1`

// PurgeAll deletes every envelope created before the cutoff, delivered or
// not. This bounds storage for recipients who never come online.
func (s *Store) PurgeAll(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, purgeAllSQL, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired envelopes: %w", err)
	}

	return tag.RowsAffected(), nil
}

const pendingCountSQL = `
	SELECT count(*) FROM envelopes WHERE acked_at IS NULL`

// PendingCount returns the undelivered backlog across all recipients.
func (s *Store) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, pendingCountSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending envelopes: %w", err)
	}

	return count, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
