package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"autocompleted/internal/config"
	"autocompleted/internal/httpapi"
	"autocompleted/internal/index"
)

func newTestRouter() http.Handler {
	ix := index.New[string, string](index.WithNameFunc[string, string](func(v string) string { return v }))
	h := httpapi.NewHandler(ix)
	return httpapi.NewRouter(h, config.CORS{Enabled: false}, zap.NewNop(), nil)
}

func TestHandler_CreateAndGetEntry(t *testing.T) {
	router := newTestRouter()

	body, _ := json.Marshal(map[string]any{"key": "1", "value": "Chicago", "score": 0})
	req := httptest.NewRequest(http.MethodPost, "/v1/entries", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/entries/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Chicago", got["value"])
}

func TestHandler_GetEntry_UnknownKeyIs404(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/v1/entries/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Autocomplete(t *testing.T) {
	router := newTestRouter()

	for _, e := range []struct{ key, value string }{
		{"1", "Chicago"}, {"2", "Charleston"}, {"3", "Boston"},
	} {
		body, _ := json.Marshal(map[string]any{"key": e.key, "value": e.value})
		req := httptest.NewRequest(http.MethodPost, "/v1/entries", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/autocomplete?q=C&k=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "1", resp.Results[0].Key)
	assert.Equal(t, "2", resp.Results[1].Key)
}

func TestHandler_DeleteEntry_UnknownKeyNoop(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodDelete, "/v1/entries/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_SetScore_UnknownKeyIs404(t *testing.T) {
	router := newTestRouter()
	body, _ := json.Marshal(map[string]any{"score": 5})
	req := httptest.NewRequest(http.MethodPost, "/v1/entries/missing/score", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_SetScore_ZeroIsAccepted(t *testing.T) {
	router := newTestRouter()
	body, _ := json.Marshal(map[string]any{"key": "1", "value": "Chicago", "score": 5})
	req := httptest.NewRequest(http.MethodPost, "/v1/entries", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	body, _ = json.Marshal(map[string]any{"score": 0})
	req = httptest.NewRequest(http.MethodPost, "/v1/entries/1/score", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_Autocomplete_KExceedsBoundIsRejected(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/v1/autocomplete?q=C&k=999999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Healthz(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
