package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mbongo-pay/mbongo_pay/internal/ledger"
	"github.com/mbongo-pay/mbongo_pay/internal/logging"
)

// Reader decodes the `type,client,tx,amount` CSV stream into ledger events.
// It tolerates surrounding whitespace and a missing amount column on
// dispute/resolve/chargeback rows. Rows that cannot be parsed are logged,
// counted and skipped; the stream itself never fails on a bad row.
type Reader struct {
	csv     *csv.Reader
	logger  *slog.Logger
	header  bool
	line    int
	skipped int
}

// NewReader wraps r in a tolerant event decoder.
func NewReader(r io.Reader, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = logging.Discard()
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &Reader{csv: cr, logger: logger}
}

// Next returns the next well-formed event. It returns io.EOF once the
// underlying stream is exhausted.
func (r *Reader) Next() (ledger.Event, error) {
	for {
		record, err := r.csv.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ledger.Event{}, io.EOF
			}
			// Structurally broken rows (bare quotes etc.) are skipped like
			// any other malformed row.
			r.skip(fmt.Sprintf("csv: %v", err))
			continue
		}
		r.line++
		if !r.header {
			r.header = true
			continue
		}

		ev, err := parseRecord(record)
		if err != nil {
			r.skip(err.Error())
			continue
		}
		return ev, nil
	}
}

// Skipped reports how many rows were dropped as malformed.
func (r *Reader) Skipped() int {
	return r.skipped
}

func (r *Reader) skip(reason string) {
	r.skipped++
	r.logger.Warn("skipping malformed row", "line", r.line, "reason", reason)
}

func parseRecord(record []string) (ledger.Event, error) {
	if len(record) < 3 {
		return ledger.Event{}, fmt.Errorf("expected at least 3 fields, got %d", len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	kind, err := ledger.ParseKind(record[0])
	if err != nil {
		return ledger.Event{}, err
	}

	client, err := strconv.ParseUint(record[1], 10, 16)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("bad client id %q", record[1])
	}

	tx, err := strconv.ParseUint(record[2], 10, 32)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("bad tx id %q", record[2])
	}

	ev := ledger.Event{
		Kind:     kind,
		ClientID: uint16(client),
		TxID:     uint32(tx),
	}

	if kind.CarriesAmount() {
		if len(record) < 4 || record[3] == "" {
			return ledger.Event{}, fmt.Errorf("%s requires an amount", kind)
		}
		amount, err := ledger.ParseAmount(record[3])
		if err != nil {
			return ledger.Event{}, err
		}
		ev.Amount = amount
	}

	return ev, nil
}
