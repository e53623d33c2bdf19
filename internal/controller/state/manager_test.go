package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_Lifecycle(t *testing.T) {
	sm := NewManager()
	assert.Equal(t, StateNone, sm.GetState(1))

	sm.Begin(1, StateEnterMeetingLink, map[string]interface{}{KeySessionID: "s1"})
	assert.Equal(t, StateEnterMeetingLink, sm.GetState(1))

	id, ok := As[string](sm.GetData(1, KeySessionID))
	assert.True(t, ok)
	assert.Equal(t, "s1", id)

	// Новый диалог не наследует данные предыдущего
	sm.Begin(1, StateCreateQuiz, map[string]interface{}{KeyCourseID: "go-101"})
	_, ok = sm.GetData(1, KeySessionID)
	assert.False(t, ok)

	all := sm.GetAllData(1)
	all[KeyCourseID] = "changed"
	course, _ := As[string](sm.GetData(1, KeyCourseID))
	assert.Equal(t, "go-101", course)

	sm.SetState(1, StateNone)
	assert.Nil(t, sm.GetAllData(1))
}

func TestAs_WrongType(t *testing.T) {
	_, ok := As[int](interface{}("text"), true)
	assert.False(t, ok)

	_, ok = As[string](nil, false)
	assert.False(t, ok)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	sm := NewManager()

	var wg sync.WaitGroup
	for i := int64(0); i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			sm.SetState(id, StateTakingQuiz)
			sm.SetData(id, KeyAnswers, []int{int(id)})
			_ = sm.GetAllData(id)
		}(i)
	}
	wg.Wait()

	answers, ok := As[[]int](sm.GetData(7, KeyAnswers))
	assert.True(t, ok)
	assert.Equal(t, []int{7}, answers)
}
