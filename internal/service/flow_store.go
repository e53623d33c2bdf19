package service

import (
	"sync"
	"time"
)

type flowEntry struct {
	mu   sync.Mutex
	flow *Flow
}

// FlowStore процессы записи в памяти, по одному на пользователя Telegram.
// Чат и webhook могут обращаться к одному процессу одновременно, доступ сериализуется мьютексом записи.
type FlowStore struct {
	mu       sync.Mutex
	flows    map[int64]*flowEntry
	byIntent map[string]int64
}

func NewFlowStore() *FlowStore {
	return &FlowStore{
		flows:    make(map[int64]*flowEntry),
		byIntent: make(map[string]int64),
	}
}

// Put заменяет процесс пользователя новым
func (s *FlowStore) Put(flow *Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropIntentsLocked(flow.TelegramID)
	s.flows[flow.TelegramID] = &flowEntry{flow: flow}
}

// Get копия текущего процесса
func (s *FlowStore) Get(telegramID int64) (*Flow, bool) {
	entry := s.entry(telegramID)
	if entry == nil {
		return nil, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.flow == nil {
		return nil, false
	}
	return entry.flow.Clone(), true
}

// Update выполняет fn под блокировкой процесса и возвращает копию результата.
// Изменения применяются даже если fn вернула ошибку: переходы Flow атомарны сами по себе.
func (s *FlowStore) Update(telegramID int64, fn func(f *Flow) error) (*Flow, error) {
	entry := s.entry(telegramID)
	if entry == nil {
		return nil, ErrNoActiveBooking
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.flow == nil {
		return nil, ErrNoActiveBooking
	}

	err := fn(entry.flow)
	return entry.flow.Clone(), err
}

// BindIntent связывает payment intent с пользователем для обработки webhook
func (s *FlowStore) BindIntent(intentID string, telegramID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byIntent[intentID] = telegramID
}

// ByIntent пользователь, которому принадлежит payment intent
func (s *FlowStore) ByIntent(intentID string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byIntent[intentID]
	return id, ok
}

// Delete удаляет процесс пользователя
func (s *FlowStore) Delete(telegramID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropIntentsLocked(telegramID)
	delete(s.flows, telegramID)
}

// Expire удаляет процессы без активности дольше ttl и возвращает их копии.
// Процесс на шаге оплаты без ошибки ждёт webhook и живёт до pendingTTL.
// Занятые в данный момент процессы пропускаются.
func (s *FlowStore) Expire(now time.Time, ttl, pendingTTL time.Duration) []*Flow {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*Flow
	for id, entry := range s.flows {
		if !entry.mu.TryLock() {
			continue
		}

		flow := entry.flow
		limit := ttl
		if flow != nil && flow.Step == StepPayment && flow.PaymentError == "" {
			limit = pendingTTL
		}
		if flow == nil || now.Sub(flow.UpdatedAt) > limit {
			if flow != nil {
				expired = append(expired, flow.Clone())
			}
			entry.flow = nil
			delete(s.flows, id)
			s.dropIntentsLocked(id)
		}

		entry.mu.Unlock()
	}
	return expired
}

// Len количество активных процессов
func (s *FlowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flows)
}

func (s *FlowStore) entry(telegramID int64) *flowEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flows[telegramID]
}

func (s *FlowStore) dropIntentsLocked(telegramID int64) {
	for intent, id := range s.byIntent {
		if id == telegramID {
			delete(s.byIntent, intent)
		}
	}
}
