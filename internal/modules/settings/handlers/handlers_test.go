package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarsh-anand15/quantum-learning/internal/events"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/settings"
	testingpkg "github.com/adarsh-anand15/quantum-learning/internal/testing"
)

func setupTestHandler(t *testing.T) (chi.Router, *settings.Service, *events.Bus) {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)

	db, cleanup := testingpkg.NewTestDB(t, "runs")
	t.Cleanup(cleanup)

	repo := settings.NewRepository(db.Conn(), logger)
	service := settings.NewService(repo, logger)
	bus := events.NewBus(logger)
	manager := events.NewManager(bus, logger)

	handler := NewHandler(service, manager, logger)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router, service, bus
}

func decodeResponse(t *testing.T, body *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Bytes(), &response))
	return response
}

func TestHandleGetAll(t *testing.T) {
	router, _, _ := setupTestHandler(t)

	req := httptest.NewRequest("GET", "/settings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w.Body)
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 90.0, data["retention_days"])
	assert.Contains(t, response, "metadata")
}

func TestHandleUpdate(t *testing.T) {
	router, service, _ := setupTestHandler(t)

	body := bytes.NewBufferString(`{"value": 30}`)
	req := httptest.NewRequest("PUT", "/settings/retention_days", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w.Body)
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 30.0, data["retention_days"])

	assert.Equal(t, 30, service.RetentionDays())
}

func TestHandleUpdateUnknownKey(t *testing.T) {
	router, _, _ := setupTestHandler(t)

	body := bytes.NewBufferString(`{"value": 1}`)
	req := httptest.NewRequest("PUT", "/settings/nonsense", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeResponse(t, w.Body)
	assert.Contains(t, response["error"], "unknown setting")
}

func TestHandleUpdateInvalidValue(t *testing.T) {
	router, _, _ := setupTestHandler(t)

	body := bytes.NewBufferString(`{"value": "not a number"}`)
	req := httptest.NewRequest("PUT", "/settings/retention_days", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleUpdateEmitsEvent(t *testing.T) {
	router, _, bus := setupTestHandler(t)

	var changed *events.SettingsChangedData
	unsubscribe := bus.Subscribe(events.SettingsChanged, func(event *events.Event) {
		if data, ok := event.GetTypedData().(*events.SettingsChangedData); ok {
			changed = data
		}
	})
	defer unsubscribe()

	body := bytes.NewBufferString(`{"value": 14}`)
	req := httptest.NewRequest("PUT", "/settings/retention_days", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, changed)
	assert.Equal(t, "retention_days", changed.Key)
	assert.Equal(t, 14.0, changed.Value)
}

func TestHandleBulkUpdate(t *testing.T) {
	router, service, _ := setupTestHandler(t)

	body := bytes.NewBufferString(`{"retention_days": 14, "backup_enabled": false}`)
	req := httptest.NewRequest("PUT", "/settings", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 14, service.RetentionDays())
	assert.False(t, service.BackupEnabled())
}

func TestHandleBulkUpdateRejectsUnknownKey(t *testing.T) {
	router, service, _ := setupTestHandler(t)

	body := bytes.NewBufferString(`{"retention_days": 10, "nonsense": 1}`)
	req := httptest.NewRequest("PUT", "/settings", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// Nothing from the rejected batch is applied.
	assert.Equal(t, 90, service.RetentionDays())
}

func TestHandleBulkUpdateEmptyBody(t *testing.T) {
	router, _, _ := setupTestHandler(t)

	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest("PUT", "/settings", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
