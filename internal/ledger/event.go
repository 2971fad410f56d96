package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// maxScale is the largest number of fractional digits an amount may carry.
const maxScale = 4

// EventKind enumerates the closed set of event types the engine understands.
type EventKind string

const (
	KindDeposit    EventKind = "deposit"
	KindWithdrawal EventKind = "withdrawal"
	KindDispute    EventKind = "dispute"
	KindResolve    EventKind = "resolve"
	KindChargeback EventKind = "chargeback"
)

// ParseKind converts the wire representation of an event type into an
// EventKind.
func ParseKind(s string) (EventKind, error) {
	switch EventKind(s) {
	case KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback:
		return EventKind(s), nil
	default:
		return "", fmt.Errorf("unknown event type %q", s)
	}
}

// CarriesAmount reports whether events of this kind carry their own amount.
// Dispute, resolve and chargeback reference a prior transaction instead.
func (k EventKind) CarriesAmount() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// Event is one parsed entry of the input stream. Amount is zero for kinds
// that reference a prior transaction.
type Event struct {
	Kind     EventKind
	ClientID uint16
	TxID     uint32
	Amount   decimal.Decimal
}

// ParseAmount parses a fixed-point amount with at most four fractional
// digits. Float representations are never used; exactness of
// total == available + held depends on it.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if _, frac, found := strings.Cut(s, "."); found && len(frac) > maxScale {
		return decimal.Decimal{}, fmt.Errorf("amount %q exceeds %d decimal places", s, maxScale)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bad amount %q", s)
	}
	return amount, nil
}
