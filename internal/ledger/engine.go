package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mbongo-pay/mbongo_pay/internal/logging"
	"github.com/mbongo-pay/mbongo_pay/internal/notification"
	"github.com/mbongo-pay/mbongo_pay/internal/txstore"
)

// Engine folds a chronologically ordered event stream into per-client
// accounts. It is single-threaded by contract: dispute, resolve and
// chargeback only make sense once every prior event for a client has been
// applied, so callers must not invoke Process concurrently.
//
// Events that do not apply (unknown reference, client mismatch, duplicate
// transaction id, illegal dispute transition, insufficient funds) are
// dropped without an error; the stream never fails on a single event.
type Engine struct {
	store    txstore.Store
	accounts map[uint16]*Account
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewEngine builds an engine on top of the given transaction store. The
// notifier may be nil; the logger defaults to a discard logger.
func NewEngine(store txstore.Store, notifier notification.Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		store:    store,
		accounts: make(map[uint16]*Account),
		notifier: notifier,
		logger:   logger,
	}
}

// Process applies a single event in stream order.
func (e *Engine) Process(ctx context.Context, ev Event) {
	switch ev.Kind {
	case KindDeposit:
		e.deposit(ctx, ev)
	case KindWithdrawal:
		e.withdraw(ctx, ev)
	case KindDispute:
		e.dispute(ctx, ev)
	case KindResolve:
		e.resolve(ctx, ev)
	case KindChargeback:
		e.chargeback(ctx, ev)
	default:
		e.logger.Debug("unknown event kind ignored", "kind", string(ev.Kind), "tx", ev.TxID)
	}
}

// account returns the client's account, creating it on first reference.
func (e *Engine) account(clientID uint16) *Account {
	acct, ok := e.accounts[clientID]
	if !ok {
		acct = newAccount(clientID)
		e.accounts[clientID] = acct
	}
	return acct
}

// deposit credits available funds. Locked accounts still accept deposits.
func (e *Engine) deposit(ctx context.Context, ev Event) {
	if !ev.Amount.IsPositive() {
		e.logger.Debug("deposit ignored: non-positive amount", "client", ev.ClientID, "tx", ev.TxID)
		return
	}

	err := e.store.Record(ctx, txstore.Transaction{
		TxID:          ev.TxID,
		ClientID:      ev.ClientID,
		Kind:          txstore.KindDeposit,
		Amount:        ev.Amount,
		DisputeStatus: txstore.StatusNone,
	})
	if err != nil {
		e.logger.Debug("deposit ignored", "client", ev.ClientID, "tx", ev.TxID, "reason", err)
		return
	}

	acct := e.account(ev.ClientID)
	acct.Available = acct.Available.Add(ev.Amount)
}

// withdraw debits available funds. A withdrawal that would overdraw the
// account changes nothing and leaves no record behind.
func (e *Engine) withdraw(ctx context.Context, ev Event) {
	if !ev.Amount.IsPositive() {
		e.logger.Debug("withdrawal ignored: non-positive amount", "client", ev.ClientID, "tx", ev.TxID)
		return
	}

	if _, exists, err := e.store.Lookup(ctx, ev.TxID); err != nil {
		e.logger.Warn("transaction lookup failed", "tx", ev.TxID, "error", err)
		return
	} else if exists {
		e.logger.Debug("withdrawal ignored: duplicate tx id", "client", ev.ClientID, "tx", ev.TxID)
		return
	}

	acct := e.account(ev.ClientID)
	if acct.Available.LessThan(ev.Amount) {
		e.logger.Debug("withdrawal ignored: insufficient funds", "client", ev.ClientID, "tx", ev.TxID)
		return
	}

	err := e.store.Record(ctx, txstore.Transaction{
		TxID:          ev.TxID,
		ClientID:      ev.ClientID,
		Kind:          txstore.KindWithdrawal,
		Amount:        ev.Amount,
		DisputeStatus: txstore.StatusNone,
	})
	if err != nil {
		e.logger.Debug("withdrawal ignored", "client", ev.ClientID, "tx", ev.TxID, "reason", err)
		return
	}

	acct.Available = acct.Available.Sub(ev.Amount)
}

// referenced validates a dispute/resolve/chargeback reference: the
// transaction must exist, belong to the claiming client and sit in the
// required dispute status.
func (e *Engine) referenced(ctx context.Context, ev Event, want txstore.DisputeStatus) (txstore.Transaction, bool) {
	rec, exists, err := e.store.Lookup(ctx, ev.TxID)
	if err != nil {
		e.logger.Warn("transaction lookup failed", "tx", ev.TxID, "error", err)
		return txstore.Transaction{}, false
	}
	if !exists || rec.ClientID != ev.ClientID || rec.DisputeStatus != want {
		e.logger.Debug("reference ignored", "kind", string(ev.Kind), "client", ev.ClientID, "tx", ev.TxID)
		return txstore.Transaction{}, false
	}
	return rec, true
}

// dispute moves the referenced amount from available to held. Total is
// conserved. Available may go negative; the dispute is honored regardless
// of current liquidity.
func (e *Engine) dispute(ctx context.Context, ev Event) {
	rec, ok := e.referenced(ctx, ev, txstore.StatusNone)
	if !ok {
		return
	}
	if err := e.store.Mark(ctx, ev.TxID, txstore.StatusDisputed); err != nil {
		e.logger.Debug("dispute ignored", "tx", ev.TxID, "reason", err)
		return
	}

	acct := e.account(ev.ClientID)
	acct.Available = acct.Available.Sub(rec.Amount)
	acct.Held = acct.Held.Add(rec.Amount)
}

// resolve releases a disputed amount back to available. Total is conserved.
func (e *Engine) resolve(ctx context.Context, ev Event) {
	rec, ok := e.referenced(ctx, ev, txstore.StatusDisputed)
	if !ok {
		return
	}
	if err := e.store.Mark(ctx, ev.TxID, txstore.StatusResolved); err != nil {
		e.logger.Debug("resolve ignored", "tx", ev.TxID, "reason", err)
		return
	}

	acct := e.account(ev.ClientID)
	acct.Held = acct.Held.Sub(rec.Amount)
	acct.Available = acct.Available.Add(rec.Amount)
}

// chargeback removes the disputed amount from held funds and freezes the
// account. The lock is terminal; no later event clears it.
func (e *Engine) chargeback(ctx context.Context, ev Event) {
	rec, ok := e.referenced(ctx, ev, txstore.StatusDisputed)
	if !ok {
		return
	}
	if err := e.store.Mark(ctx, ev.TxID, txstore.StatusChargedBack); err != nil {
		e.logger.Debug("chargeback ignored", "tx", ev.TxID, "reason", err)
		return
	}

	acct := e.account(ev.ClientID)
	acct.Held = acct.Held.Sub(rec.Amount)
	acct.Locked = true

	if e.notifier != nil {
		_ = e.notifier.Send(ctx, notification.Message{
			Kind:   notification.KindAccountFrozen,
			Client: fmt.Sprintf("%d", ev.ClientID),
			Body:   fmt.Sprintf("account frozen after chargeback of tx %d", ev.TxID),
		})
	}
}

// Account returns the snapshot of a single client's account.
func (e *Engine) Account(clientID uint16) (Snapshot, bool) {
	acct, ok := e.accounts[clientID]
	if !ok {
		return Snapshot{}, false
	}
	return acct.snapshot(), true
}

// Accounts returns the end-of-stream snapshot of every account, ordered by
// client id.
func (e *Engine) Accounts() []Snapshot {
	out := make([]Snapshot, 0, len(e.accounts))
	for _, acct := range e.accounts {
		out = append(out, acct.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}
