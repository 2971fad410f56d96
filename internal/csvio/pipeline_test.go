package csvio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mbongo-pay/mbongo_pay/internal/ledger"
	"github.com/mbongo-pay/mbongo_pay/internal/txstore"
)

// TestPipelineEndToEnd runs the full batch path: CSV stream in, engine fold,
// snapshot CSV out.
func TestPipelineEndToEnd(t *testing.T) {
	input := "type,client,tx,amount\n" +
		"deposit,1,1,1.0\n" +
		"deposit,2,2,2.0\n" +
		"deposit,1,3,2.0\n" +
		"withdrawal,1,4,1.5\n" +
		"dispute,2,2,\n" +
		"chargeback,2,2,\n"

	engine := ledger.NewEngine(txstore.NewInMemory(), nil, nil)
	reader := NewReader(strings.NewReader(input), nil)
	ctx := context.Background()

	for {
		ev, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("next: %v", err)
		}
		engine.Process(ctx, ev)
	}

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, engine.Accounts()); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	want := "client,available,held,total,locked\n" +
		"1,1.5000,0.0000,1.5000,false\n" +
		"2,0.0000,0.0000,0.0000,true\n"
	if buf.String() != want {
		t.Fatalf("unexpected snapshot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

// A deposit and a withdrawal that reuse the same tx id collapse to the
// deposit alone.
func TestPipelineDuplicateTxID(t *testing.T) {
	input := "type,client,tx,amount\n" +
		"deposit,1,1,10.0\n" +
		"withdrawal,1,1,10.0\n"

	engine := ledger.NewEngine(txstore.NewInMemory(), nil, nil)
	reader := NewReader(strings.NewReader(input), nil)
	ctx := context.Background()

	for {
		ev, err := reader.Next()
		if err != nil {
			break
		}
		engine.Process(ctx, ev)
	}

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, engine.Accounts()); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	want := "client,available,held,total,locked\n" +
		"1,10.0000,0.0000,10.0000,false\n"
	if buf.String() != want {
		t.Fatalf("unexpected snapshot:\n%s\nwant:\n%s", buf.String(), want)
	}
}
