package state

import (
	"sync"
)

// Manager управляет состояниями диалогов пользователей
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData
}

func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]*UserData),
	}
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		return userData.State
	}
	return StateNone
}

// SetState устанавливает состояние, StateNone удаляет запись вместе с данными
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, telegramID)
		return
	}

	sm.entryLocked(telegramID).State = state
}

// Begin начинает новый диалог: прежние данные сбрасываются
func (sm *Manager) Begin(telegramID int64, state UserState, data map[string]interface{}) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	fresh := &UserData{State: state, Data: make(map[string]interface{}, len(data))}
	for k, v := range data {
		fresh.Data[k] = v
	}
	sm.states[telegramID] = fresh
}

// GetData получает временные данные пользователя
func (sm *Manager) GetData(telegramID int64, key string) (interface{}, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		value, ok := userData.Data[key]
		return value, ok
	}
	return nil, false
}

// SetData устанавливает временные данные пользователя
func (sm *Manager) SetData(telegramID int64, key string, value interface{}) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.entryLocked(telegramID).Data[key] = value
}

// ClearState очищает состояние и данные пользователя
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
}

// GetAllData копия всех временных данных пользователя
func (sm *Manager) GetAllData(telegramID int64) map[string]interface{} {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	userData, exists := sm.states[telegramID]
	if !exists {
		return nil
	}

	dataCopy := make(map[string]interface{}, len(userData.Data))
	for k, v := range userData.Data {
		dataCopy[k] = v
	}
	return dataCopy
}

func (sm *Manager) entryLocked(telegramID int64) *UserData {
	userData, exists := sm.states[telegramID]
	if !exists {
		userData = &UserData{
			State: StateNone,
			Data:  make(map[string]interface{}),
		}
		sm.states[telegramID] = userData
	}
	return userData
}
