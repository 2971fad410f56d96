package txstore

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateTransaction indicates the transaction identifier is already
	// recorded; the caller should treat the event as already processed.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrInvalidTransition indicates a dispute-status change that the state
	// machine does not permit.
	ErrInvalidTransition = errors.New("invalid dispute-status transition")
)

// Kind identifies the funds movement a transaction represents.
type Kind string

const (
	// KindDeposit credits a client's available balance.
	KindDeposit Kind = "deposit"
	// KindWithdrawal debits a client's available balance.
	KindWithdrawal Kind = "withdrawal"
)

// DisputeStatus tracks where a transaction sits in the reversal workflow.
// Transitions: none -> disputed -> resolved | charged_back. The two final
// states are terminal.
type DisputeStatus string

const (
	StatusNone        DisputeStatus = "none"
	StatusDisputed    DisputeStatus = "disputed"
	StatusResolved    DisputeStatus = "resolved"
	StatusChargedBack DisputeStatus = "charged_back"
)

// Transaction is the immutable record of a processed deposit or withdrawal.
// DisputeStatus is the only field that changes after creation.
type Transaction struct {
	TxID          uint32
	ClientID      uint16
	Kind          Kind
	Amount        decimal.Decimal
	DisputeStatus DisputeStatus
}

// Store persists transaction records for later reference by disputes,
// resolves and chargebacks.
type Store interface {
	// Record inserts a new transaction. Returns ErrDuplicateTransaction if
	// the tx id is already present.
	Record(ctx context.Context, tx Transaction) error
	// Lookup fetches a transaction by id. The boolean reports presence.
	Lookup(ctx context.Context, txID uint32) (Transaction, bool, error)
	// Mark applies a dispute-status transition, enforcing the state machine.
	Mark(ctx context.Context, txID uint32, status DisputeStatus) error
}

// predecessor returns the status a transaction must currently hold for the
// requested transition to be legal.
func predecessor(status DisputeStatus) (DisputeStatus, bool) {
	switch status {
	case StatusDisputed:
		return StatusNone, true
	case StatusResolved, StatusChargedBack:
		return StatusDisputed, true
	default:
		return "", false
	}
}
