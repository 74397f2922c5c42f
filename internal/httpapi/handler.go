package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"autocompleted/internal/index"
	"autocompleted/internal/index/indexerrors"
)

// Handler adapts the generic autocomplete Index, keyed by string entity IDs
// over string display names, to HTTP.
type Handler struct {
	index    *index.Index[string, string]
	validate *validator.Validate
}

// NewHandler builds a Handler over ix.
func NewHandler(ix *index.Index[string, string]) *Handler {
	return &Handler{index: ix, validate: validator.New()}
}

type createEntryRequest struct {
	Key   string  `json:"key" validate:"required"`
	Value string  `json:"value" validate:"required"`
	Score float64 `json:"score"`
}

type setScoreRequest struct {
	Score float64 `json:"score"`
}

type entryResponse struct {
	Key   string  `json:"key"`
	Value string  `json:"value"`
	Score float64 `json:"score"`
}

type autocompleteResponse struct {
	Query   string          `json:"query"`
	Results []entryResponse `json:"results"`
}

// CreateEntry handles POST /v1/entries.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	h.index.AddScored(req.Key, req.Value, req.Score)
	writeJSON(w, http.StatusCreated, entryResponse{Key: req.Key, Value: req.Value, Score: req.Score})
}

// GetEntry handles GET /v1/entries/{key}.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	entry, ok := h.index.Get(key)
	if !ok {
		writeError(w, r, http.StatusNotFound, string(indexerrors.CodeUnknownKey), "no entry for key")
		return
	}
	writeJSON(w, http.StatusOK, entryResponse{Key: entry.Key, Value: entry.Value, Score: entry.Score})
}

// DeleteEntry handles DELETE /v1/entries/{key}. Deleting an unknown key is
// not an error (spec §4.B silent no-op).
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	h.index.Remove(key)
	w.WriteHeader(http.StatusNoContent)
}

// SetScore handles POST /v1/entries/{key}/score.
func (h *Handler) SetScore(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req setScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}

	if err := h.index.SetScore(key, req.Score); err != nil {
		if indexerrors.IsUnknownKey(err) {
			writeError(w, r, http.StatusNotFound, string(indexerrors.CodeUnknownKey), err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type autocompleteQuery struct {
	K int `validate:"gte=0"`
}

// Autocomplete handles GET /v1/autocomplete?q=...&k=....
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	k := 10
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_K", "k must be an integer")
			return
		}
		k = parsed
	}

	max := h.index.NumCacheResults() * 4
	q := autocompleteQuery{K: k}
	if err := h.validate.Struct(q); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	if k > max {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "k must not exceed 4x the configured cache result size")
		return
	}

	entries := h.index.Autocomplete(query, k)
	results := make([]entryResponse, len(entries))
	for i, e := range entries {
		results[i] = entryResponse{Key: e.Key, Value: e.Value, Score: e.Score}
	}
	writeJSON(w, http.StatusOK, autocompleteResponse{Query: query, Results: results})
}

// Healthz handles GET /v1/healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
