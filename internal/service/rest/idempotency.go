package restsvc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
	"github.com/vladislavdragonenkov/greekgods/internal/metrics"
)

const (
	// IdempotencyKeyHeader делает POST повторяемым.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayedHeader выставляется на ответах, отданных из кэша.
	IdempotentReplayedHeader = "Idempotent-Replayed"
	// DefaultIdempotencyTTL: время жизни ключа по умолчанию.
	DefaultIdempotencyTTL = 24 * time.Hour

	maxIdempotencyKeyLength = 255

	msgIdempotencyKeyTooLong  = "Idempotency-Key must be at most 255 characters"
	msgIdempotencyInFlight    = "A request with this Idempotency-Key is still in progress"
	msgIdempotencyKeyMismatch = "Idempotency-Key was already used with a different request"
)

// idempotencyGuard сохраняет ответ на запрос с Idempotency-Key и отдаёт его при повторе.
// Ответы 5xx не сохраняются: ключ освобождается, и запрос можно повторить.
type idempotencyGuard struct {
	repo    domain.IdempotencyRepository
	ttl     time.Duration
	metrics *metrics.IdempotencyMetrics
	logger  *log.Entry
	now     func() time.Time
}

func (g *idempotencyGuard) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			writeError(w, http.StatusBadRequest, msgIdempotencyKeyTooLong)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
				return
			}
			writeError(w, http.StatusBadRequest, msgMalformedBody)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		logger := g.logger.WithFields(log.Fields{
			"idempotency_key": key,
			"request_id":      middleware.GetReqID(r.Context()),
		})

		record, err := g.repo.Begin(key, requestHash(r, body), g.now().Add(g.ttl))
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrIdempotencyHashMismatch):
			g.metrics.RecordRequest(metrics.IdempotencyMismatch)
			writeError(w, http.StatusUnprocessableEntity, msgIdempotencyKeyMismatch)
			return
		case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) && record.Status == domain.IdempotencyStatusDone:
			g.metrics.RecordRequest(metrics.IdempotencyReplayed)
			logger.Debug("replaying stored response")
			replay(w, record)
			return
		case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
			g.metrics.RecordRequest(metrics.IdempotencyInFlight)
			writeError(w, http.StatusConflict, msgIdempotencyInFlight)
			return
		default:
			logger.WithError(err).Error("failed to reserve idempotency key")
			writeError(w, http.StatusInternalServerError, msgInternal)
			return
		}

		var captured bytes.Buffer
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&captured)

		stored := false
		defer func() {
			if stored {
				return
			}
			if err := g.repo.Release(key); err != nil {
				logger.WithError(err).Warn("failed to release idempotency key")
			}
			g.metrics.RecordRequest(metrics.IdempotencyReleased)
		}()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		if status >= http.StatusInternalServerError {
			return
		}
		if err := g.repo.Complete(key, status, captured.Bytes()); err != nil {
			logger.WithError(err).Warn("failed to store idempotent response")
			return
		}
		stored = true
		g.metrics.RecordRequest(metrics.IdempotencyNew)
	})
}

func replay(w http.ResponseWriter, record domain.IdempotencyRecord) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set(IdempotentReplayedHeader, "true")
	w.WriteHeader(record.HTTPStatus)
	_, _ = w.Write(record.ResponseBody)
}

// requestHash связывает ключ с конкретным запросом: метод, путь и тело.
func requestHash(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{'\n'})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{'\n'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
