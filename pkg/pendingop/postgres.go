package pendingop

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresDB is the subset of pgx pool/conn methods the store needs.
// Satisfied by *pgxpool.Pool and *pgx.Conn.
type PostgresDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists pending operations in a single-row-per-identity
// table. Expected schema:
//
//	CREATE TABLE pending_operations (
//		owner_id       TEXT PRIMARY KEY,
//		transaction_id TEXT NOT NULL,
//		plan_id        TEXT NOT NULL,
//		plan_name      TEXT NOT NULL,
//		amount         BIGINT NOT NULL,
//		created_at     TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db PostgresDB
}

// NewPostgresStore creates a Postgres-backed store. Panics if db is nil to
// fail fast during initialization.
func NewPostgresStore(db PostgresDB) *PostgresStore {
	if db == nil {
		panic("pendingop: postgres connection is required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, ownerID string) (*PendingOperation, error) {
	const query = `
		SELECT transaction_id, plan_id, plan_name, amount, created_at
		FROM pending_operations
		WHERE owner_id = $1`

	op := &PendingOperation{}
	err := s.db.QueryRow(ctx, query, ownerID).
		Scan(&op.TransactionID, &op.PlanID, &op.PlanName, &op.Amount, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoPendingOperation
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	return op, nil
}

func (s *PostgresStore) Put(ctx context.Context, ownerID string, op *PendingOperation) error {
	// The conditional upsert enforces the one-slot invariant in a single
	// statement: an occupied slot with a different transaction id matches
	// zero rows.
	const query = `
		INSERT INTO pending_operations (owner_id, transaction_id, plan_id, plan_name, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id) DO UPDATE
		SET transaction_id = EXCLUDED.transaction_id,
			plan_id = EXCLUDED.plan_id,
			plan_name = EXCLUDED.plan_name,
			amount = EXCLUDED.amount,
			created_at = EXCLUDED.created_at
		WHERE pending_operations.transaction_id = EXCLUDED.transaction_id`

	tag, err := s.db.Exec(ctx, query,
		ownerID, op.TransactionID, op.PlanID, op.PlanName, op.Amount, op.CreatedAt)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOperationInFlight
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, ownerID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM pending_operations WHERE owner_id = $1`, ownerID); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
