package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles catalog HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new catalog handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "catalog").Logger(),
	}
}

// RegisterRoutes mounts the catalog routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleAdd)
	r.Get("/search", h.HandleSearch)
	r.Get("/{code}/quote", h.HandleQuote)
	r.Get("/{code}/detail", h.HandleDetail)
	r.Post("/{code}/refresh", h.HandleRefresh)
}

// HandleList returns the merged catalog view.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Merged())
}

// HandleAdd resolves a fund code and adds it to the user set.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		h.writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	fund, err := h.service.AddByCode(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, ErrFundNotFound) {
			h.writeError(w, http.StatusNotFound, "未找到该基金，请检查基金代码")
			return
		}
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, fund)
}

// HandleSearch matches funds by code or name substring.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := 20
	if param := r.URL.Query().Get("limit"); param != "" {
		if parsed, err := strconv.Atoi(param); err == nil {
			limit = parsed
		}
	}

	results := h.service.Search(query, limit)
	if results == nil {
		results = []Fund{}
	}
	h.writeJSON(w, http.StatusOK, results)
}

// HandleQuote returns the latest quote for one code.
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	detail, err := h.service.Detail(r.Context(), code, 0)
	if err != nil {
		if errors.Is(err, ErrFundNotFound) {
			h.writeError(w, http.StatusNotFound, "基金不存在")
			return
		}
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":       detail.Code,
		"name":       detail.Name,
		"value":      detail.Value,
		"day_growth": detail.DayGrowth,
		"value_date": detail.ValueDate,
	})
}

// HandleDetail returns quote plus recent NAV history.
func (h *Handler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	days := 30
	if param := r.URL.Query().Get("days"); param != "" {
		if parsed, err := strconv.Atoi(param); err == nil {
			days = parsed
		}
	}

	detail, err := h.service.Detail(r.Context(), code, days)
	if err != nil {
		if errors.Is(err, ErrFundNotFound) {
			h.writeError(w, http.StatusNotFound, "基金不存在")
			return
		}
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, detail)
}

// HandleRefresh re-fetches the quote for one code.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	h.service.RefreshPrice(r.Context(), code)

	if fund, ok := h.service.Resolve(code); ok {
		h.writeJSON(w, http.StatusOK, fund)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"code": code})
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
