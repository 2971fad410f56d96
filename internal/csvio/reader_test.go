package csvio

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mbongo-pay/mbongo_pay/internal/ledger"
)

func readAll(t *testing.T, input string) ([]ledger.Event, *Reader) {
	t.Helper()
	r := NewReader(strings.NewReader(input), nil)
	var events []ledger.Event
	for {
		ev, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return events, r
			}
			t.Fatalf("next: %v", err)
		}
		events = append(events, ev)
	}
}

func TestReaderParsesPaddedRows(t *testing.T) {
	input := "type, client, tx, amount\n" +
		"deposit, 1, 1, 10.0\n" +
		"  withdrawal ,  1 , 2 , 1.5000 \n" +
		"dispute, 1, 1,\n" +
		"resolve, 1, 1\n"

	events, r := readAll(t, input)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if r.Skipped() != 0 {
		t.Fatalf("expected 0 skips, got %d", r.Skipped())
	}

	if events[0].Kind != ledger.KindDeposit || events[0].ClientID != 1 || events[0].TxID != 1 {
		t.Fatalf("bad first event: %+v", events[0])
	}
	if events[0].Amount.StringFixed(4) != "10.0000" {
		t.Fatalf("bad deposit amount: %s", events[0].Amount)
	}
	if events[1].Kind != ledger.KindWithdrawal || events[1].Amount.StringFixed(4) != "1.5000" {
		t.Fatalf("bad withdrawal: %+v", events[1])
	}
	if events[2].Kind != ledger.KindDispute || !events[2].Amount.IsZero() {
		t.Fatalf("dispute should carry no amount: %+v", events[2])
	}
	if events[3].Kind != ledger.KindResolve {
		t.Fatalf("bad resolve: %+v", events[3])
	}
}

func TestReaderSkipsMalformedRows(t *testing.T) {
	input := "type,client,tx,amount\n" +
		"deposit,1,1,10.0\n" +
		"teleport,1,2,10.0\n" + // unknown kind
		"deposit,notanumber,3,10.0\n" + // bad client
		"deposit,1,4,1.23456\n" + // too many decimal places
		"deposit,1\n" + // too few fields
		"deposit,70000,5,1.0\n" + // client id out of uint16 range
		"withdrawal,1,6,2.25\n"

	events, r := readAll(t, input)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if r.Skipped() != 5 {
		t.Fatalf("expected 5 skips, got %d", r.Skipped())
	}
	if events[1].Kind != ledger.KindWithdrawal || events[1].TxID != 6 {
		t.Fatalf("bad surviving event: %+v", events[1])
	}
}

func TestReaderMissingAmountOnDeposit(t *testing.T) {
	input := "type,client,tx,amount\n" +
		"deposit,1,1,\n" +
		"deposit,1,2\n"

	events, r := readAll(t, input)
	if len(events) != 0 {
		t.Fatalf("expected 0 events, got %d", len(events))
	}
	if r.Skipped() != 2 {
		t.Fatalf("expected 2 skips, got %d", r.Skipped())
	}
}

func TestReaderEmptyInput(t *testing.T) {
	events, r := readAll(t, "")
	if len(events) != 0 || r.Skipped() != 0 {
		t.Fatalf("expected empty result, got %d events %d skips", len(events), r.Skipped())
	}
}
