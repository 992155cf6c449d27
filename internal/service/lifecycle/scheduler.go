package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler запускает ежедневный проход по cron-расписанию в зоне движка
type Scheduler struct {
	engine  *Engine
	cron    *cron.Cron
	entryID cron.EntryID
	log     *logrus.Entry

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler создает планировщик. Расписание задаётся с секундами.
func NewScheduler(engine *Engine, config *Config) (*Scheduler, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required for Scheduler")
	}
	if config == nil {
		config = engine.config
	}
	log := engine.log.WithField("component", "Scheduler")

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(config.Location),
		cron.WithChain(cron.Recover(cron.PrintfLogger(log))),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{engine: engine, cron: c, log: log, ctx: ctx, cancel: cancel}

	id, err := c.AddFunc(config.CronSpec, s.tick)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid lifecycle cron spec %q: %w", config.CronSpec, err)
	}
	s.entryID = id
	return s, nil
}

// tick выполняет один запуск по расписанию
func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	summary, err := s.engine.PerformDailyCheck(ctx, TriggerSchedule)
	if err != nil {
		s.log.WithError(err).Error("[Scheduler] Ежедневный проход не выполнен")
		return
	}
	s.log.WithFields(logrus.Fields{
		"check_date": summary.CheckDate,
		"processed":  summary.Processed,
		"failed":     summary.Failed,
	}).Info("[Scheduler] Ежедневный проход выполнен")
}

// Start запускает планировщик в фоне
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("[Scheduler] Запущен, следующий проход: %s", s.NextRun().Format(time.RFC3339))
}

// Stop останавливает планировщик и ждёт завершения текущего прохода или отмены ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.mu.Lock()
		s.cancel()
		s.mu.Unlock()
		s.log.Info("[Scheduler] Остановлен")
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		s.cancel()
		s.mu.Unlock()
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// NextRun время следующего запуска по расписанию
func (s *Scheduler) NextRun() time.Time {
	entry := s.cron.Entry(s.entryID)
	if entry.Schedule == nil {
		return time.Time{}
	}
	return entry.Schedule.Next(s.engine.deps.Now().In(s.engine.config.Location))
}
