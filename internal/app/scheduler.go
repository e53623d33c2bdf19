package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// flowSweepInterval как часто проверяются брошенные процессы записи
const flowSweepInterval = time.Minute

// BookingMaintainer фоновые операции процесса записи
type BookingMaintainer interface {
	CompensatePending(ctx context.Context) (int, error)
	ExpireIdle(ctx context.Context, ttl time.Duration) int
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	booking              BookingMaintainer
	compensationInterval time.Duration
	flowTTL              time.Duration
	logger               *zap.Logger
	stopChan             chan struct{}
	done                 chan struct{}
}

func NewScheduler(booking BookingMaintainer, compensationInterval, flowTTL time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		booking:              booking,
		compensationInterval: compensationInterval,
		flowTTL:              flowTTL,
		logger:               logger,
		stopChan:             make(chan struct{}),
		done:                 make(chan struct{}),
	}
}

// Run выполняет задачи до отмены ctx или Stop
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)
	s.logger.Info("Starting background scheduler",
		zap.Duration("compensation_interval", s.compensationInterval),
		zap.Duration("flow_ttl", s.flowTTL),
	)

	// Незавершённые откаты с прошлого запуска
	s.compensate(ctx)

	compensation := time.NewTicker(s.compensationInterval)
	defer compensation.Stop()
	sweep := time.NewTicker(flowSweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-compensation.C:
			s.compensate(ctx)
		case <-sweep.C:
			s.booking.ExpireIdle(ctx, s.flowTTL)
		case <-s.stopChan:
			s.logger.Info("Background scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Background scheduler cancelled")
			return
		}
	}
}

// Stop останавливает задачи и ждёт завершения текущей итерации
func (s *Scheduler) Stop() {
	close(s.stopChan)
	<-s.done
}

func (s *Scheduler) compensate(ctx context.Context) {
	n, err := s.booking.CompensatePending(ctx)
	if err != nil {
		s.logger.Error("Failed to retry compensations", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Compensations retried", zap.Int("series", n))
	}
}
