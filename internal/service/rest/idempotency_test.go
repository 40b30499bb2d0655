package restsvc_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
	"github.com/vladislavdragonenkov/greekgods/internal/metrics"
	"github.com/vladislavdragonenkov/greekgods/internal/service/greekgods"
	restsvc "github.com/vladislavdragonenkov/greekgods/internal/service/rest"
	"github.com/vladislavdragonenkov/greekgods/internal/storage/memory"
)

type idempotentFixture struct {
	router   http.Handler
	repo     *memory.GreekGodRepository
	keys     *memory.IdempotencyRepository
	registry *prometheus.Registry
}

func newIdempotentRouter(t *testing.T) idempotentFixture {
	t.Helper()
	repo, err := memory.NewGreekGodRepository(domain.SeedGreekGods())
	require.NoError(t, err)
	keys := memory.NewIdempotencyRepository()
	registry := prometheus.NewRegistry()

	svc := greekgods.NewService(repo, greekgods.WithLogger(testLogger()))
	router := restsvc.NewRouter(svc, testLogger(),
		restsvc.WithIdempotency(keys, time.Hour, metrics.NewIdempotencyMetricsWithRegisterer(registry)))
	return idempotentFixture{router: router, repo: repo, keys: keys, registry: registry}
}

func postWithKey(h http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/greekgods", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(restsvc.IdempotencyKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_RetryReturnsStoredResponse(t *testing.T) {
	f := newIdempotentRouter(t)

	first := postWithKey(f.router, "create-pan", `{"name":"Pan","power":"Wild"}`)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(restsvc.IdempotentReplayedHeader))

	second := postWithKey(f.router, "create-pan", `{"name":"Pan","power":"Wild"}`)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(restsvc.IdempotentReplayedHeader))
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	count, err := f.repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 16, count, "retry must not create a second record")
	assert.EqualValues(t, 17, f.repo.NextID())

	assert.Equal(t, 1.0, testutil.ToFloat64(requestsCounter(t, f.registry, metrics.IdempotencyReplayed)))
}

func TestIdempotency_WithoutKeyCreatesEveryTime(t *testing.T) {
	f := newIdempotentRouter(t)

	require.Equal(t, http.StatusCreated, postWithKey(f.router, "", `{"name":"Pan"}`).Code)
	require.Equal(t, http.StatusCreated, postWithKey(f.router, "", `{"name":"Pan"}`).Code)

	count, err := f.repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 17, count)
	assert.Zero(t, f.keys.Count())
}

func TestIdempotency_DifferentBodyIsRejected(t *testing.T) {
	f := newIdempotentRouter(t)

	require.Equal(t, http.StatusCreated, postWithKey(f.router, "k", `{"name":"Pan"}`).Code)

	rec := postWithKey(f.router, "k", `{"name":"Hecate"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"errorMessage":"Idempotency-Key was already used with a different request"}`, rec.Body.String())
}

func TestIdempotency_ValidationErrorIsReplayed(t *testing.T) {
	f := newIdempotentRouter(t)

	first := postWithKey(f.router, "bad", `{"power":"None"}`)
	require.Equal(t, http.StatusBadRequest, first.Code)

	second := postWithKey(f.router, "bad", `{"power":"None"}`)
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.Equal(t, "true", second.Header().Get(restsvc.IdempotentReplayedHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	f := newIdempotentRouter(t)

	rec := postWithKey(f.router, strings.Repeat("k", 256), `{"name":"Pan"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.keys.Count())
}

func TestIdempotency_KeyReservedForAnotherRequest(t *testing.T) {
	f := newIdempotentRouter(t)

	_, err := f.keys.Begin("busy", "some-other-request", time.Now().Add(time.Hour))
	require.NoError(t, err)

	rec := postWithKey(f.router, "busy", `{"name":"Pan"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "hash differs from the reserved one")
}

// blockingService удерживает Create, пока тест не отпустит его.
type blockingService struct {
	restsvc.GreekGodService
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (s *blockingService) Create(context.Context, domain.Payload) (domain.GreekGod, error) {
	s.calls.Add(1)
	close(s.entered)
	<-s.release
	return domain.GreekGod{ID: 16, Name: "Pan"}, nil
}

func TestIdempotency_ConcurrentRetryGetsConflict(t *testing.T) {
	svc := &blockingService{entered: make(chan struct{}), release: make(chan struct{})}
	router := restsvc.NewRouter(svc, testLogger(),
		restsvc.WithIdempotency(memory.NewIdempotencyRepository(), time.Hour, nil))

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- postWithKey(router, "same", `{"name":"Pan"}`) }()

	<-svc.entered
	conflict := postWithKey(router, "same", `{"name":"Pan"}`)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.JSONEq(t, `{"errorMessage":"A request with this Idempotency-Key is still in progress"}`, conflict.Body.String())

	close(svc.release)
	first := <-done
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.EqualValues(t, 1, svc.calls.Load())
}

type failingCreateService struct {
	restsvc.GreekGodService
	calls int
}

func (s *failingCreateService) Create(context.Context, domain.Payload) (domain.GreekGod, error) {
	s.calls++
	if s.calls == 1 {
		return domain.GreekGod{}, errors.New("temporary failure")
	}
	return domain.GreekGod{ID: 16, Name: "Pan"}, nil
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	svc := &failingCreateService{}
	keys := memory.NewIdempotencyRepository()
	registry := prometheus.NewRegistry()
	router := restsvc.NewRouter(svc, testLogger(),
		restsvc.WithIdempotency(keys, time.Hour, metrics.NewIdempotencyMetricsWithRegisterer(registry)))

	first := postWithKey(router, "retry-me", `{"name":"Pan"}`)
	require.Equal(t, http.StatusInternalServerError, first.Code)
	assert.Zero(t, keys.Count(), "5xx must release the key")

	second := postWithKey(router, "retry-me", `{"name":"Pan"}`)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Empty(t, second.Header().Get(restsvc.IdempotentReplayedHeader))
	assert.Equal(t, 2, svc.calls)

	assert.Equal(t, 1.0, testutil.ToFloat64(requestsCounter(t, registry, metrics.IdempotencyReleased)))
	assert.Equal(t, 1.0, testutil.ToFloat64(requestsCounter(t, registry, metrics.IdempotencyNew)))
}

func TestIdempotency_OnlyPostIsGuarded(t *testing.T) {
	f := newIdempotentRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/greekgods/1", nil)
	req.Header.Set(restsvc.IdempotencyKeyHeader, "delete-zeus")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, f.keys.Count())
}

// requestsCounter достаёт серию greekgods_idempotency_requests_total с заданным result.
func requestsCounter(t *testing.T, registry *prometheus.Registry, result string) prometheus.Collector {
	t.Helper()
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "greekgods_idempotency_requests_total",
		Help: "Total number of requests carrying an Idempotency-Key grouped by outcome",
	}, []string{"result"})
	err := registry.Register(vec)
	var already prometheus.AlreadyRegisteredError
	require.True(t, errors.As(err, &already), "metric must already be registered, got %v", err)
	return already.ExistingCollector.(*prometheus.CounterVec).WithLabelValues(result)
}
