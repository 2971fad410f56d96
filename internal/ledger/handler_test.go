package ledger

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/mbongo-pay/mbongo_pay/internal/txstore"
)

func setupTestApp() *fiber.App {
	engine := NewEngine(txstore.NewInMemory(), nil, nil)
	handler := NewHandler(engine)

	app := fiber.New()
	app.Post("/transactions", handler.Submit)
	app.Get("/accounts", handler.ListAccounts)
	app.Get("/accounts/:clientId", handler.GetAccount)
	return app
}

func submitEvent(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/transactions", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestHandlerSubmitAndGetAccount(t *testing.T) {
	app := setupTestApp()

	if status := submitEvent(t, app, `{"type":"deposit","client":1,"tx":1,"amount":"10.5"}`); status != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", status)
	}
	if status := submitEvent(t, app, `{"type":"withdrawal","client":1,"tx":2,"amount":"3.0"}`); status != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", status)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/accounts/1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var account struct {
		Client    uint16 `json:"client"`
		Available string `json:"available"`
		Held      string `json:"held"`
		Total     string `json:"total"`
		Locked    bool   `json:"locked"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if account.Available != "7.5000" || account.Total != "7.5000" || account.Held != "0.0000" {
		t.Fatalf("unexpected balances: %+v", account)
	}
	if account.Locked {
		t.Fatal("account should not be locked")
	}
}

func TestHandlerSubmitRejectsMalformedRequests(t *testing.T) {
	app := setupTestApp()

	cases := []string{
		`{"type":"transfer","client":1,"tx":1,"amount":"1.0"}`,
		`{"type":"deposit","client":1,"tx":1}`,
		`{"type":"deposit","client":1,"tx":1,"amount":"1.23456"}`,
		`{"type":"deposit","client":1,"tx":1,"amount":"-1.0"}`,
		`{"type":"dispute","client":1,"tx":1,"amount":"1.0"}`,
		`not json`,
	}
	for i, body := range cases {
		if status := submitEvent(t, app, body); status != fiber.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, status)
		}
	}
}

func TestHandlerInapplicableEventAcceptedSilently(t *testing.T) {
	app := setupTestApp()

	// Dispute of an unknown tx is a business no-op, not a transport error.
	if status := submitEvent(t, app, `{"type":"dispute","client":3,"tx":999}`); status != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", status)
	}

	req := httptest.NewRequest(fiber.MethodGet, "/accounts/3", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandlerListAccounts(t *testing.T) {
	app := setupTestApp()

	for i := 1; i <= 3; i++ {
		body := fmt.Sprintf(`{"type":"deposit","client":%d,"tx":%d,"amount":"1.0"}`, i, i)
		if status := submitEvent(t, app, body); status != fiber.StatusAccepted {
			t.Fatalf("expected 202, got %d", status)
		}
	}

	req := httptest.NewRequest(fiber.MethodGet, "/accounts", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Accounts []struct {
			Client uint16 `json:"client"`
		} `json:"accounts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Accounts) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(payload.Accounts))
	}
}
