package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/greekgods/internal/health"
	restsvc "github.com/vladislavdragonenkov/greekgods/internal/service/rest"
)

func quietLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("test", "app")
}

func TestNewDependencies_Seeded(t *testing.T) {
	deps, err := NewDependencies(DefaultConfig(), prometheus.NewRegistry(), quietLogger())
	require.NoError(t, err)

	count, err := deps.Repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 15, count)
	assert.Equal(t, int64(16), deps.Repo.NextID())
	assert.Equal(t, []string{"outbox", "store"}, deps.Health.Names())
	assert.Equal(t, healthcheck.StatusHealthy, deps.Health.Evaluate().Status)
}

func TestNewDependencies_WithoutSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = false

	deps, err := NewDependencies(cfg, prometheus.NewRegistry(), nil)
	require.NoError(t, err)
	require.NotNil(t, deps.Logger)

	count, err := deps.Repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, int64(1), deps.Repo.NextID())
}

// Сквозной сценарий через REST-роутер: от запроса до события в outbox.
func TestDependencies_EndToEndScenario(t *testing.T) {
	deps, err := NewDependencies(DefaultConfig(), prometheus.NewRegistry(), quietLogger())
	require.NoError(t, err)
	router := restsvc.NewRouter(deps.Service, quietLogger())

	call := func(method, path, body string) (int, map[string]any) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		var out map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return rec.Code, out
	}

	status, body := call(http.MethodPost, "/greekgods", `{"name":"Pan"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(16), body["data"].(map[string]any)["id"])

	status, body = call(http.MethodPatch, "/greekgods/16", `{"isDemiGod":true}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["data"].(map[string]any)["isDemiGod"])

	status, _ = call(http.MethodDelete, "/greekgods/16", "")
	require.Equal(t, http.StatusOK, status)

	status, body = call(http.MethodGet, "/greekgods/16", "")
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Greek God not found by id 16", body["errorMessage"])

	status, body = call(http.MethodPost, "/greekgods", `{"name":"Hecate"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, float64(17), body["data"].(map[string]any)["id"])

	pending := deps.Outbox.AllPending()
	require.Len(t, pending, 4)
	types := make([]string, 0, len(pending))
	for _, msg := range pending {
		types = append(types, msg.EventType)
	}
	assert.Equal(t, []string{
		string(domain.ChangeCreated),
		string(domain.ChangePatched),
		string(domain.ChangeDeleted),
		string(domain.ChangeCreated),
	}, types)

	require.NoError(t, deps.Repo.Verify())
}
