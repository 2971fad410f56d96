package txstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore persists transaction records in PostgreSQL. Amounts are kept
// as NUMERIC(20,4) so the 4-decimal fixed-point contract survives the round
// trip.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed transaction store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Record inserts a transaction row, treating a tx id collision as a duplicate.
func (s *PostgresStore) Record(ctx context.Context, tx Transaction) error {
	if tx.DisputeStatus == "" {
		tx.DisputeStatus = StatusNone
	}
	tag, err := s.db.Exec(ctx, `INSERT INTO ledger_transactions (id, tx_id, client_id, kind, amount, dispute_status)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (tx_id) DO NOTHING`,
		uuid.New(), int64(tx.TxID), int32(tx.ClientID), string(tx.Kind), tx.Amount.StringFixed(4), string(tx.DisputeStatus))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateTransaction
	}
	return nil
}

// Lookup fetches a transaction row by tx id.
func (s *PostgresStore) Lookup(ctx context.Context, txID uint32) (Transaction, bool, error) {
	const query = `SELECT tx_id, client_id, kind, amount, dispute_status
        FROM ledger_transactions WHERE tx_id = $1`

	var (
		rowTxID     int64
		rowClientID int32
		kind        string
		amount      string
		status      string
	)
	if err := s.db.QueryRow(ctx, query, int64(txID)).Scan(&rowTxID, &rowClientID, &kind, &amount, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, false, nil
		}
		return Transaction{}, false, err
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return Transaction{}, false, err
	}

	return Transaction{
		TxID:          uint32(rowTxID),
		ClientID:      uint16(rowClientID),
		Kind:          Kind(kind),
		Amount:        amt,
		DisputeStatus: DisputeStatus(status),
	}, true, nil
}

// Mark transitions the dispute status. The required predecessor status is
// part of the UPDATE predicate, so an illegal transition changes no rows.
func (s *PostgresStore) Mark(ctx context.Context, txID uint32, status DisputeStatus) error {
	from, ok := predecessor(status)
	if !ok {
		return ErrInvalidTransition
	}
	tag, err := s.db.Exec(ctx, `UPDATE ledger_transactions SET dispute_status = $1
        WHERE tx_id = $2 AND dispute_status = $3`,
		string(status), int64(txID), string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}
