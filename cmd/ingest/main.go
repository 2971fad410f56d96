package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/mbongo-pay/mbongo_pay/internal/csvio"
	"github.com/mbongo-pay/mbongo_pay/internal/ledger"
	"github.com/mbongo-pay/mbongo_pay/internal/logging"
	"github.com/mbongo-pay/mbongo_pay/internal/txstore"
)

// ingest reads a transactions CSV, folds it through the ledger engine and
// writes the final account snapshot CSV to stdout. Logs go to stderr so the
// snapshot stays pipeable.
func main() {
	logger := logging.New(os.Stderr, os.Getenv("LOG_LEVEL"))

	if len(os.Args) != 2 {
		logger.Error("usage: ingest <transactions.csv>")
		os.Exit(1)
	}

	file, err := os.Open(os.Args[1])
	if err != nil {
		logger.Error("open input", "error", err)
		os.Exit(1)
	}
	defer file.Close()

	ctx := context.Background()
	engine := ledger.NewEngine(txstore.NewInMemory(), nil, logger)
	reader := csvio.NewReader(file, logger)

	processed := 0
	for {
		ev, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			logger.Error("read input", "error", err)
			os.Exit(1)
		}
		engine.Process(ctx, ev)
		processed++
	}

	if err := csvio.WriteSnapshot(os.Stdout, engine.Accounts()); err != nil {
		logger.Error("write snapshot", "error", err)
		os.Exit(1)
	}

	logger.Info("run complete", "events", processed, "skipped", reader.Skipped())
}
