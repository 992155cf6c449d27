package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/metrics"
)

// TriggerEvaluator оценивает событие достижения
type TriggerEvaluator interface {
	Evaluate(ctx context.Context, trigger entity.AchievementTrigger) (entity.AchievementType, error)
}

// DispatcherConfig настройки очереди уведомлений
type DispatcherConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration // ограничение на одну оценку
}

// DefaultDispatcherConfig возвращает настройки по умолчанию
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{Workers: 4, QueueSize: 1024, Timeout: 5 * time.Second}
}

// AchievementDispatcher передаёт события оценки достижений фиксированному пулу воркеров.
// Notify никогда не блокирует: при заполненной очереди событие отбрасывается.
type AchievementDispatcher struct {
	evaluator TriggerEvaluator
	config    DispatcherConfig
	queue     chan entity.AchievementTrigger
	log       *logrus.Entry

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewAchievementDispatcher создает диспетчер. Воркеры запускаются методом Start.
func NewAchievementDispatcher(evaluator TriggerEvaluator, config DispatcherConfig, log *logrus.Entry) *AchievementDispatcher {
	def := DefaultDispatcherConfig()
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	return &AchievementDispatcher{
		evaluator: evaluator,
		config:    config,
		queue:     make(chan entity.AchievementTrigger, config.QueueSize),
		log:       log.WithField("component", "AchievementDispatcher"),
	}
}

// Start запускает воркеры. Повторный вызов ничего не делает.
func (d *AchievementDispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.log.Infof("[AchievementDispatcher] Запущено %d воркеров, очередь %d", d.config.Workers, d.config.QueueSize)
}

// Notify ставит событие в очередь, не дожидаясь обработки
func (d *AchievementDispatcher) Notify(trigger entity.AchievementTrigger) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.Notifications.WithLabelValues("dropped").Inc()
		return
	}

	select {
	case d.queue <- trigger:
		metrics.Notifications.WithLabelValues("queued").Inc()
	default:
		metrics.Notifications.WithLabelValues("dropped").Inc()
		d.log.WithFields(logrus.Fields{
			"user_id": trigger.UserID,
			"kind":    trigger.Kind,
		}).Warn("[AchievementDispatcher] Очередь заполнена, событие отброшено")
	}
}

// Stop закрывает очередь и ждёт, пока воркеры обработают оставшиеся события
func (d *AchievementDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info("[AchievementDispatcher] Остановлен")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("achievement dispatcher stop: %w", ctx.Err())
	}
}

func (d *AchievementDispatcher) worker(id int) {
	defer d.wg.Done()
	for trigger := range d.queue {
		d.handle(id, trigger)
	}
}

func (d *AchievementDispatcher) handle(worker int, trigger entity.AchievementTrigger) {
	log := d.log.WithFields(logrus.Fields{
		"worker":  worker,
		"user_id": trigger.UserID,
		"kind":    trigger.Kind,
	})
	defer func() {
		if r := recover(); r != nil {
			metrics.Notifications.WithLabelValues("failed").Inc()
			log.Errorf("[AchievementDispatcher] Паника при оценке достижения: %v\n%s", r, debug.Stack())
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()

	if _, err := d.evaluator.Evaluate(ctx, trigger); err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		log.WithError(err).Error("[AchievementDispatcher] Ошибка оценки достижения")
		return
	}
	metrics.Notifications.WithLabelValues("delivered").Inc()
}
