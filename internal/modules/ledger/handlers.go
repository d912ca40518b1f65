package ledger

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wangziyue0319-jpg/simulationtrading/internal/modules/catalog"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	ledger  *Ledger
	catalog *catalog.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(ledger *Ledger, cat *catalog.Service, log zerolog.Logger) *Handler {
	return &Handler{
		ledger:  ledger,
		catalog: cat,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes mounts the portfolio routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleGetAccount)
	r.Get("/transactions", h.HandleGetTransactions)
	r.Post("/buy", h.HandleBuy)
	r.Post("/sell", h.HandleSell)
	r.Post("/tick", h.HandleTick)
	r.Post("/reset", h.HandleReset)
}

type tradeRequest struct {
	Code   string  `json:"code"`
	Shares float64 `json:"shares"`
}

// HandleGetAccount returns the account snapshot.
func (h *Handler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.ledger.Snapshot())
}

// HandleGetTransactions returns the trade history, newest first.
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	txs := h.ledger.Transactions()
	if txs == nil {
		txs = []Transaction{}
	}
	h.writeJSON(w, http.StatusOK, txs)
}

// HandleBuy buys shares of a fund at its current catalog price. Trade
// failures come back as {success: false, message}, the UI branches on it.
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		h.writeError(w, http.StatusBadRequest, "code and shares are required")
		return
	}

	fund, ok := h.catalog.Resolve(req.Code)
	if !ok {
		h.writeError(w, http.StatusNotFound, "未找到该基金，请先添加到基金列表")
		return
	}

	result, err := h.ledger.Buy(fund.Code, fund.Name, fund.Value, req.Shares)
	if err != nil {
		h.log.Debug().Err(err).Str("fund", req.Code).Msg("Buy rejected")
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleSell sells shares of a held fund at its current catalog price.
func (h *Handler) HandleSell(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		h.writeError(w, http.StatusBadRequest, "code and shares are required")
		return
	}

	price := 0.0
	if fund, ok := h.catalog.Resolve(req.Code); ok {
		price = fund.Value
	} else if pos, ok := h.ledger.Position(req.Code); ok {
		// Held but no longer in the catalog, fall back to the last tick
		price = pos.CurrentPrice
	}

	result, err := h.ledger.Sell(req.Code, price, req.Shares)
	if err != nil {
		h.log.Debug().Err(err).Str("fund", req.Code).Msg("Sell rejected")
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleTick applies one simulated price tick to all held positions.
func (h *Handler) HandleTick(w http.ResponseWriter, r *http.Request) {
	h.ledger.UpdatePrices(r.Context())
	h.writeJSON(w, http.StatusOK, h.ledger.Snapshot())
}

// HandleReset restores the account to its initial state.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.ledger.Reset()
	h.writeJSON(w, http.StatusOK, h.ledger.Snapshot())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
