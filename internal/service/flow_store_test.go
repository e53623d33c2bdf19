package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

func TestFlowStore_UpdateSerializesAccess(t *testing.T) {
	store := NewFlowStore()
	course := model.Course{Duration: 60 * 50}
	flow := NewFlow(1, testStudent(), course, testNow)
	require.NoError(t, flow.EnterTimeBooking(nil, testNow))
	store.Put(flow)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Update(1, func(f *Flow) error {
				_, err := f.AddDate(monday.AddDate(0, 0, i), testNow)
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, ok := store.Get(1)
	require.True(t, ok)
	assert.Len(t, got.SelectedDates, 50)
}

func TestFlowStore_MissingFlow(t *testing.T) {
	store := NewFlowStore()
	_, err := store.Update(7, func(*Flow) error { return nil })
	assert.ErrorIs(t, err, ErrNoActiveBooking)

	_, ok := store.Get(7)
	assert.False(t, ok)
}

func TestFlowStore_IntentBinding(t *testing.T) {
	store := NewFlowStore()
	store.Put(NewFlow(1, testStudent(), model.Course{}, testNow))
	store.BindIntent("pi_1", 1)

	id, ok := store.ByIntent("pi_1")
	require.True(t, ok)
	assert.EqualValues(t, 1, id)

	// Новый процесс того же пользователя отвязывает старые intent
	store.Put(NewFlow(1, testStudent(), model.Course{}, testNow))
	_, ok = store.ByIntent("pi_1")
	assert.False(t, ok)

	store.BindIntent("pi_2", 1)
	store.Delete(1)
	_, ok = store.ByIntent("pi_2")
	assert.False(t, ok)
	assert.Zero(t, store.Len())
}

func TestFlowStore_ExpireSkipsBusyFlows(t *testing.T) {
	store := NewFlowStore()
	store.Put(NewFlow(1, testStudent(), model.Course{}, testNow))
	store.Put(NewFlow(2, testStudent(), model.Course{}, testNow))

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.Update(1, func(*Flow) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	expired := store.Expire(testNow.Add(3*time.Hour), time.Hour, 4*time.Hour)
	close(release)
	<-done

	require.Len(t, expired, 1)
	assert.EqualValues(t, 2, expired[0].TelegramID)
	assert.Equal(t, 1, store.Len())
}
