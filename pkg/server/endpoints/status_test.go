package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/ping", nil)
	w := httptest.NewRecorder()
	handlePing()(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		healthStore := NewMockHealthStore()
		pinger := NewMockPinger()
		healthStore.On("CheckConnectivity").Return(nil)
		pinger.On("Ping").Return(nil)

		req := httptest.NewRequest("GET", "/status", nil)
		w := httptest.NewRecorder()
		handleStatus(healthStore, pinger)(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "ok", resp.DB)
		assert.Equal(t, "ok", resp.Index)
	})

	t.Run("degraded when the database is down", func(t *testing.T) {
		healthStore := NewMockHealthStore()
		pinger := NewMockPinger()
		healthStore.On("CheckConnectivity").Return(assert.AnError)
		pinger.On("Ping").Return(nil)

		req := httptest.NewRequest("GET", "/status", nil)
		w := httptest.NewRecorder()
		handleStatus(healthStore, pinger)(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unavailable", resp.DB)
		assert.Equal(t, "ok", resp.Index)
	})

	t.Run("degraded when the index backend is down", func(t *testing.T) {
		healthStore := NewMockHealthStore()
		pinger := NewMockPinger()
		healthStore.On("CheckConnectivity").Return(nil)
		pinger.On("Ping").Return(assert.AnError)

		req := httptest.NewRequest("GET", "/status", nil)
		w := httptest.NewRecorder()
		handleStatus(healthStore, pinger)(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unavailable", resp.Index)
	})
}

func TestVersionEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/version", nil)
	w := httptest.NewRecorder()
	handleVersion()(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "version")
}
