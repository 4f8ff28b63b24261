package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/cesta/internal/app"
	"github.com/dukerupert/cesta/internal/config"
	"github.com/dukerupert/cesta/internal/database"
	"github.com/dukerupert/cesta/internal/insight"
	"github.com/dukerupert/cesta/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	cfg.Gemini.APIKey = ""
	cfg.InsightsPerMinute = 2

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(context.Background(), db, cfg, logger)
	require.NoError(t, err)

	srv.Start(context.Background())
	t.Cleanup(srv.Stop)
	return srv.Router()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "192.168.0.10:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h := setupServer(t)
	rec := do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])
}

func TestShoppingFlow(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, "POST", "/api/lists", map[string]string{"name": "Feira de sábado", "location_type": "Feira"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	list := decode[model.ShoppingList](t, rec)
	assert.Equal(t, model.LocationFair, list.LocationType)

	// existing library item, any case
	rec = do(t, h, "POST", "/api/lists/"+list.ID+"/items", map[string]string{"name": "BANANA PRATA"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// new item, classified offline
	rec = do(t, h, "POST", "/api/lists/"+list.ID+"/items", map[string]string{"name": "Morango"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[map[string]any](t, rec)
	item := added["item"].(map[string]any)
	assert.Equal(t, "Frutas", item["category"])
	morangoID := item["id"].(string)

	rec = do(t, h, "GET", "/api/screens/shopping?list_id="+list.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	screen := decode[app.Screen](t, rec)
	require.Len(t, screen.Groups, 1)
	assert.Len(t, screen.Groups[0].Items, 2)

	rec = do(t, h, "POST", "/api/lists/"+list.ID+"/complete", map[string]any{
		"items": map[string]any{
			"item-2":  map[string]any{"price": "4,50", "description": "cacho"},
			morangoID: map[string]any{"price": 8.9},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[map[string]any](t, rec)
	assert.Equal(t, "lists", done["next"])
	total, err := decimal.NewFromString(done["total"].(string))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("13.40")), "total = %s", total)

	rec = do(t, h, "GET", "/api/lists?status=completed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	completed := decode[[]model.ShoppingList](t, rec)
	require.Len(t, completed, 1)
	assert.Len(t, completed[0].CompletedItems, 2)
	assert.Empty(t, completed[0].Items)

	rec = do(t, h, "GET", "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[map[string]any](t, rec)
	assert.EqualValues(t, 2, dash["count"])

	// no API key configured: the narrator answers with the fixed failure text
	rec = do(t, h, "POST", "/api/lists/"+list.ID+"/insights", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, insight.MsgListFailed, decode[insight.Insight](t, rec).Text)

	rec = do(t, h, "DELETE", "/api/lists/"+list.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, "GET", "/api/lists/"+list.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, "POST", "/api/lists", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "POST", "/api/lists", map[string]string{"name": "X", "location_type": "Shopping"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "POST", "/api/lists/missing/items", map[string]string{"name": "Leite"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, "GET", "/api/screens/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, "POST", "/api/lists", map[string]string{"name": "Mercado", "location_type": "Mercado"})
	require.Equal(t, http.StatusCreated, rec.Code)
	list := decode[model.ShoppingList](t, rec)

	rec = do(t, h, "GET", "/api/screens/shopping?list_id="+list.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "empty list cannot enter shopping mode")

	rec = do(t, h, "POST", "/api/lists/"+list.ID+"/items", map[string]string{"name": "Leite Integral"})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, price := range []any{"0", "-3", "abc", "", "1,2,3"} {
		rec = do(t, h, "POST", "/api/lists/"+list.ID+"/complete", map[string]any{
			"items": map[string]any{"item-11": map[string]any{"price": price}},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "price %v", price)
	}

	rec = do(t, h, "POST", "/api/lists/"+list.ID+"/complete", map[string]any{"items": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "POST", "/api/lists/"+list.ID+"/complete", map[string]any{
		"items": map[string]any{"item-1": map[string]any{"price": "2"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "item not on list")

	rec = do(t, h, "POST", "/api/lists/"+list.ID+"/insights", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInsightsRateLimited(t *testing.T) {
	h := setupServer(t)

	for i := 0; i < 2; i++ {
		rec := do(t, h, "POST", "/api/dashboard/insights", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, insight.MsgNoHistory, decode[insight.Insight](t, rec).Text)
	}
	rec := do(t, h, "POST", "/api/dashboard/insights", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestPushNotConfigured(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, "GET", "/api/push/vapid-key", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, "POST", "/api/push/subscribe", map[string]any{"endpoint": "https://push.example/abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, "POST", "/api/push/subscribe", map[string]any{
		"endpoint":    "https://push.example/abc",
		"keys":        map[string]string{"p256dh": "key", "auth": "secret"},
		"device_name": "Cozinha",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, "DELETE", "/api/push/subscribe", map[string]any{"endpoint": "https://push.example/abc"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBackupEndpoints(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, "GET", "/api/backup/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[map[string]any](t, rec)
	assert.Equal(t, "disabled", status["state"])
	assert.EqualValues(t, 0, status["total_bytes"])
	assert.NotContains(t, status, "latest")

	rec = do(t, h, "GET", "/api/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.Backup](t, rec))
}

func TestCompleteAcceptsExponentPrices(t *testing.T) {
	h := setupServer(t)

	rec := do(t, h, "POST", "/api/lists", map[string]string{"name": "Mercado", "location_type": "Mercado"})
	require.Equal(t, http.StatusCreated, rec.Code)
	list := decode[model.ShoppingList](t, rec)

	rec = do(t, h, "POST", "/api/lists/"+list.ID+"/items", map[string]string{"name": "Leite Integral"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, "POST", "/api/lists/"+list.ID+"/items", map[string]string{"name": "Cebola"})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, body := range []string{
		`{"items": {"item-11": {"price": -1.5e1}}}`,
		`{"items": {"item-11": {"price": 0e3}}}`,
	} {
		rec = do(t, h, "POST", "/api/lists/"+list.ID+"/complete", json.RawMessage(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec = do(t, h, "POST", "/api/lists/"+list.ID+"/complete",
		json.RawMessage(`{"items": {"item-11": {"price": 1e1}, "item-8": {"price": 2.5E-1}}}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	total, err := decimal.NewFromString(decode[map[string]any](t, rec)["total"].(string))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("10.25")), "total = %s", total)
}
