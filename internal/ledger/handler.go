package ledger

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the engine over HTTP. The engine is single-threaded by
// contract, so Submit serializes all event processing behind one mutex;
// events are applied in the order their requests win the lock.
type Handler struct {
	mu     sync.Mutex
	engine *Engine
}

// NewHandler builds a ledger HTTP handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

type submitRequest struct {
	Type   string `json:"type"`
	Client uint16 `json:"client"`
	Tx     uint32 `json:"tx"`
	Amount string `json:"amount"`
}

type accountResponse struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

func toAccountResponse(s Snapshot) accountResponse {
	return accountResponse{
		Client:    s.ClientID,
		Available: s.Available.StringFixed(4),
		Held:      s.Held.StringFixed(4),
		Total:     s.Total.StringFixed(4),
		Locked:    s.Locked,
	}
}

// Submit ingests one transaction event. Structurally malformed requests are
// rejected; events the engine cannot apply are accepted and dropped, since
// the engine has no per-event error channel.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	kind, err := ParseKind(req.Type)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	ev := Event{Kind: kind, ClientID: req.Client, TxID: req.Tx}
	if kind.CarriesAmount() {
		amount, err := ParseAmount(req.Amount)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if !amount.IsPositive() {
			return fiber.NewError(http.StatusBadRequest, "amount must be positive")
		}
		ev.Amount = amount
	} else if req.Amount != "" {
		return fiber.NewError(http.StatusBadRequest, "amount not allowed for "+req.Type)
	}

	h.mu.Lock()
	h.engine.Process(c.UserContext(), ev)
	h.mu.Unlock()

	return c.Status(http.StatusAccepted).JSON(fiber.Map{"status": "accepted", "tx": ev.TxID})
}

// ListAccounts returns the snapshot of every account seen so far.
func (h *Handler) ListAccounts(c *fiber.Ctx) error {
	h.mu.Lock()
	snapshots := h.engine.Accounts()
	h.mu.Unlock()

	out := make([]accountResponse, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, toAccountResponse(s))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"accounts": out})
}

// GetAccount returns one client's account snapshot.
func (h *Handler) GetAccount(c *fiber.Ctx) error {
	clientID, err := strconv.ParseUint(c.Params("clientId"), 10, 16)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "bad client id")
	}

	h.mu.Lock()
	snapshot, ok := h.engine.Account(uint16(clientID))
	h.mu.Unlock()
	if !ok {
		return fiber.NewError(http.StatusNotFound, "unknown client")
	}
	return c.Status(http.StatusOK).JSON(toAccountResponse(snapshot))
}
