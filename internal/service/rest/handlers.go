package restsvc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
)

const (
	msgMalformedBody   = "Request body must be a JSON object"
	msgBodyTooLarge    = "Request body is too large"
	msgInternal        = "Internal server error"
	msgInvalidIDFormat = "Greek God id must be an integer, got %q"
)

// dataResponse — успешный ответ: {"data": ...}.
type dataResponse struct {
	Data any `json:"data"`
}

// errorResponse — ответ с ошибкой: {"errorMessage": "..."}.
type errorResponse struct {
	ErrorMessage string `json:"errorMessage"`
}

// statusCoder реализуют доменные ошибки, у которых есть HTTP-эквивалент.
type statusCoder interface {
	StatusCode() int
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	gods, err := h.svc.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: gods})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	god, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: god})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}

	god, err := h.svc.Create(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Data: god})
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}

	god, err := h.svc.Replace(r.Context(), id, payload)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: god})
}

func (h *Handler) partialUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}

	god, err := h.svc.PartialUpdate(r.Context(), id, payload)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: god})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	god, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: god})
}

// pathID разбирает {id} из пути. Нечисловой id отклоняется с 400 и до хранилища не доходит.
// Знак "+" не допускается: у записи ровно одно написание пути.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || strings.HasPrefix(raw, "+") {
		writeError(w, http.StatusBadRequest, fmt.Sprintf(msgInvalidIDFormat, raw))
		return 0, false
	}
	return id, true
}

// readPayload читает и декодирует тело запроса в domain.Payload.
func readPayload(w http.ResponseWriter, r *http.Request) (domain.Payload, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return domain.Payload{}, false
		}
		writeError(w, http.StatusBadRequest, msgMalformedBody)
		return domain.Payload{}, false
	}

	payload, err := domain.ParsePayload(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgMalformedBody)
		return domain.Payload{}, false
	}
	return payload, true
}

// writeServiceError переводит ошибку сервиса в HTTP-ответ. Неизвестные ошибки скрываются за 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var coded statusCoder
	if errors.As(err, &coded) {
		writeError(w, coded.StatusCode(), err.Error())
		return
	}

	h.logger.WithError(err).WithFields(log.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": middleware.GetReqID(r.Context()),
	}).Error("unexpected service error")
	writeError(w, http.StatusInternalServerError, msgInternal)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{ErrorMessage: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
