package restsvc

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
	"github.com/vladislavdragonenkov/greekgods/internal/metrics"
)

// BasePath — корневой путь ресурса.
const BasePath = "/greekgods"

// maxBodyBytes ограничивает размер тела запроса.
const maxBodyBytes = 1 << 20

// GreekGodService — операции, которые транспорт вызывает у прикладного слоя.
type GreekGodService interface {
	List(ctx context.Context) ([]domain.GreekGod, error)
	Get(ctx context.Context, id int64) (domain.GreekGod, error)
	Create(ctx context.Context, payload domain.Payload) (domain.GreekGod, error)
	Replace(ctx context.Context, id int64, payload domain.Payload) (domain.GreekGod, error)
	PartialUpdate(ctx context.Context, id int64, payload domain.Payload) (domain.GreekGod, error)
	Delete(ctx context.Context, id int64) (domain.GreekGod, error)
}

// Handler переводит HTTP-запросы в вызовы сервиса и результаты обратно в HTTP-ответы.
type Handler struct {
	svc    GreekGodService
	logger *log.Entry
	idem   *idempotencyGuard
}

// Option настраивает Handler.
type Option func(*Handler)

// WithIdempotency включает поддержку заголовка Idempotency-Key для POST /greekgods.
func WithIdempotency(repo domain.IdempotencyRepository, ttl time.Duration, m *metrics.IdempotencyMetrics) Option {
	return func(h *Handler) {
		if repo == nil {
			return
		}
		if ttl <= 0 {
			ttl = DefaultIdempotencyTTL
		}
		h.idem = &idempotencyGuard{
			repo:    repo,
			ttl:     ttl,
			metrics: m,
			now:     func() time.Time { return time.Now().UTC() },
		}
	}
}

// NewHandler создаёт обработчик ресурса.
func NewHandler(svc GreekGodService, logger *log.Entry, opts ...Option) *Handler {
	if logger == nil {
		logger = log.WithField("component", "rest")
	}
	h := &Handler{svc: svc, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	if h.idem != nil {
		h.idem.logger = logger
	}
	return h
}

// NewRouter собирает chi-роутер со всеми маршрутами ресурса и общими middleware.
func NewRouter(svc GreekGodService, logger *log.Entry, opts ...Option) http.Handler {
	h := NewHandler(svc, logger, opts...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(h.logger))
	r.Use(recoverer(h.logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	h.Register(r)
	return r
}

// Register добавляет маршруты ресурса в роутер.
func (h *Handler) Register(r chi.Router) {
	r.Get(BasePath, h.list)
	if h.idem != nil {
		r.With(h.idem.middleware).Post(BasePath, h.create)
	} else {
		r.Post(BasePath, h.create)
	}
	r.Get(BasePath+"/{id}", h.get)
	r.Put(BasePath+"/{id}", h.replace)
	r.Patch(BasePath+"/{id}", h.partialUpdate)
	r.Delete(BasePath+"/{id}", h.delete)
}
