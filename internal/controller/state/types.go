package state

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Привязка аккаунта платформы
	StateEnterLinkCode UserState = "enter_link_code"

	// Учитель вводит ссылку на занятие
	StateEnterMeetingLink UserState = "enter_meeting_link"

	// Учитель присылает текст теста
	StateCreateQuiz UserState = "create_quiz"

	// Студент проходит тест кнопками
	StateTakingQuiz UserState = "taking_quiz"
)

// Ключи временных данных
const (
	KeySessionID = "session_id"
	KeyCourseID  = "course_id"
	KeyQuizID    = "quiz_id"
	KeyQuiz      = "quiz"
	KeyAnswers   = "answers"
)

// UserData хранит временные данные пользователя во время диалога
type UserData struct {
	State UserState
	Data  map[string]interface{}
}

// As приводит значение из GetData к нужному типу
func As[T any](value interface{}, ok bool) (T, bool) {
	var zero T
	if !ok {
		return zero, false
	}
	v, ok := value.(T)
	return v, ok
}
