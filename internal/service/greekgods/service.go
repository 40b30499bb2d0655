package greekgods

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/greekgods/internal/domain"
	"github.com/vladislavdragonenkov/greekgods/internal/metrics"
)

const (
	opList          = "list"
	opGet           = "get"
	opCreate        = "create"
	opReplace       = "replace"
	opPartialUpdate = "partial_update"
	opDelete        = "delete"
)

// Service — прикладной слой над хранилищем: логирование, метрики и события об изменениях.
type Service struct {
	// mu упорядочивает изменения коллекции и постановку их событий в outbox.
	mu      sync.Mutex
	repo    domain.GreekGodRepository
	outbox  domain.OutboxRepository
	metrics *metrics.APIMetrics
	logger  *log.Entry
	now     func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithOutbox включает постановку событий об изменениях в outbox.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(s *Service) {
		s.outbox = outbox
	}
}

// WithMetrics задаёт метрики операций.
func WithMetrics(m *metrics.APIMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService конструирует сервис. Без outbox события не публикуются, без метрик не считаются.
func NewService(repo domain.GreekGodRepository, options ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "greekgods-service")
	}

	if count, err := repo.Count(); err == nil {
		s.metrics.SetRecords(count)
	}
	return s
}

// List возвращает всю коллекцию в порядке вставки.
func (s *Service) List(ctx context.Context) ([]domain.GreekGod, error) {
	start := time.Now()
	gods, err := s.repo.List()
	s.observe(ctx, opList, 0, start, err)
	return gods, err
}

// Get возвращает запись по идентификатору.
func (s *Service) Get(ctx context.Context, id int64) (domain.GreekGod, error) {
	start := time.Now()
	god, err := s.repo.Get(id)
	s.observe(ctx, opGet, id, start, err)
	return god, err
}

// Create создаёт запись с назначенным хранилищем идентификатором.
func (s *Service) Create(ctx context.Context, payload domain.Payload) (domain.GreekGod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	god, err := s.repo.Create(payload)
	s.observe(ctx, opCreate, god.ID, start, err)
	if err != nil {
		return domain.GreekGod{}, err
	}

	s.afterMutation(ctx, domain.ChangeCreated, god)
	return god, nil
}

// Replace полностью заменяет запись.
func (s *Service) Replace(ctx context.Context, id int64, payload domain.Payload) (domain.GreekGod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	god, err := s.repo.Replace(id, payload)
	s.observe(ctx, opReplace, id, start, err)
	if err != nil {
		return domain.GreekGod{}, err
	}

	s.afterMutation(ctx, domain.ChangeReplaced, god)
	return god, nil
}

// PartialUpdate обновляет только переданные поля. Пустой патч возвращает запись без события об изменении.
func (s *Service) PartialUpdate(ctx context.Context, id int64, payload domain.Payload) (domain.GreekGod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	god, err := s.repo.PartialUpdate(id, payload)
	s.observe(ctx, opPartialUpdate, id, start, err)
	if err != nil {
		return domain.GreekGod{}, err
	}
	if patch, err := payload.Patch(); err == nil && patch.IsEmpty() {
		return god, nil
	}

	s.afterMutation(ctx, domain.ChangePatched, god)
	return god, nil
}

// Delete удаляет запись и возвращает её последнее состояние.
func (s *Service) Delete(ctx context.Context, id int64) (domain.GreekGod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	god, err := s.repo.Delete(id)
	s.observe(ctx, opDelete, id, start, err)
	if err != nil {
		return domain.GreekGod{}, err
	}

	s.afterMutation(ctx, domain.ChangeDeleted, god)
	return god, nil
}

func (s *Service) observe(ctx context.Context, operation string, id int64, start time.Time, err error) {
	result := resultOf(err)
	s.metrics.ObserveOperation(operation, result, time.Since(start))

	if err == nil {
		return
	}

	entry := s.logger.WithContext(ctx).WithError(err).WithFields(log.Fields{
		"operation": operation,
		"result":    result,
	})
	if id != 0 {
		entry = entry.WithField("greek_god_id", id)
	}
	if result == metrics.ResultError {
		entry.Error("operation failed")
		return
	}
	entry.Debug("operation rejected")
}

func (s *Service) afterMutation(ctx context.Context, change domain.ChangeType, god domain.GreekGod) {
	logger := s.logger.WithContext(ctx).WithFields(log.Fields{
		"change":       change,
		"greek_god_id": god.ID,
	})
	logger.Info("collection changed")

	if count, err := s.repo.Count(); err == nil {
		s.metrics.SetRecords(count)
	}

	if s.outbox == nil {
		return
	}

	event := domain.ChangeEvent{
		EventID:    uuid.NewString(),
		Type:       change,
		GreekGodID: god.ID,
		Record:     god,
		OccurredAt: s.now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.metrics.RecordOutboxEnqueueFailed()
		logger.WithError(err).Error("failed to marshal change event")
		return
	}

	msg, err := s.outbox.Enqueue(domain.OutboxMessage{
		ID:            event.EventID,
		AggregateType: domain.AggregateGreekGod,
		AggregateID:   strconv.FormatInt(god.ID, 10),
		EventType:     string(change),
		Payload:       payload,
	})
	if err != nil {
		s.metrics.RecordOutboxEnqueueFailed()
		logger.WithError(err).Warn("failed to enqueue change event")
		return
	}

	s.metrics.RecordOutboxEnqueued()
	logger.WithField("outbox_id", msg.ID).Debug("change event enqueued")
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case domain.IsNotFound(err):
		return metrics.ResultNotFound
	case domain.IsValidation(err):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
