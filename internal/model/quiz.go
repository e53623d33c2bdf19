package model

import "time"

type Question struct {
	Text         string   `json:"text" validate:"required"`
	Options      []string `json:"options" validate:"min=2,dive,required"`
	CorrectIndex int      `json:"correctIndex" validate:"gte=0"`
}

type Quiz struct {
	ID        string     `json:"id"`
	Course    string     `json:"course" validate:"required"`
	Title     string     `json:"title" validate:"required"`
	Questions []Question `json:"questions" validate:"min=1,dive"`
	Published bool       `json:"published"`
}

// QuizAttempt попытка прохождения теста студентом
type QuizAttempt struct {
	ID          string    `json:"id"`
	Quiz        string    `json:"quiz"`
	Student     string    `json:"student"`
	Answers     []int     `json:"answers"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submittedAt"`
}
