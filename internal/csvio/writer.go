package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/mbongo-pay/mbongo_pay/internal/ledger"
)

// WriteSnapshot renders the end-of-stream account snapshot as CSV with all
// amounts at 4-decimal fixed-point precision.
func WriteSnapshot(w io.Writer, accounts []ledger.Snapshot) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return err
	}
	for _, acct := range accounts {
		row := []string{
			strconv.FormatUint(uint64(acct.ClientID), 10),
			acct.Available.StringFixed(4),
			acct.Held.StringFixed(4),
			acct.Total.StringFixed(4),
			strconv.FormatBool(acct.Locked),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
