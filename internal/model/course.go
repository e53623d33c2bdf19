package model

type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPending   CourseStatus = "pending"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// Course курс платформы (read-mostly, владелец - backend)
type Course struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Price       float64      `json:"price"`    // в основной валюте, не в центах
	Duration    int          `json:"duration"` // в минутах
	Instructor  string       `json:"instructor"`
	Category    string       `json:"category"`
	Level       string       `json:"level"`
	Status      CourseStatus `json:"status"`
}

// RequiredSessions количество часовых занятий для курса: ceil(duration/60), минимум 1
func (c *Course) RequiredSessions() int {
	if c.Duration <= 0 {
		return 1
	}
	return (c.Duration + 59) / 60
}

// AmountInCents сумма для payment intent
func (c *Course) AmountInCents() int64 {
	return int64(c.Price*100 + 0.5)
}
