package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeMaintainer struct {
	compensations atomic.Int32
	expiries      atomic.Int32
	err           error
}

func (f *fakeMaintainer) CompensatePending(context.Context) (int, error) {
	f.compensations.Add(1)
	return 1, f.err
}

func (f *fakeMaintainer) ExpireIdle(context.Context, time.Duration) int {
	f.expiries.Add(1)
	return 0
}

func TestScheduler_CompensatesOnStartAndPeriodically(t *testing.T) {
	m := &fakeMaintainer{}
	s := NewScheduler(m, 10*time.Millisecond, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	assert.Eventually(t, func() bool {
		return m.compensations.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-s.done
}

func TestScheduler_StopWithErrors(t *testing.T) {
	m := &fakeMaintainer{err: errors.New("db down")}
	s := NewScheduler(m, time.Hour, time.Hour, zap.NewNop())

	go s.Run(context.Background())
	assert.Eventually(t, func() bool {
		return m.compensations.Load() == 1
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.Zero(t, m.expiries.Load())
}
