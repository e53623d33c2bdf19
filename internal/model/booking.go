package model

import (
	"time"

	"github.com/google/uuid"
)

type SeriesStatus string

const (
	SeriesStatusPending      SeriesStatus = "pending"      // Ожидает оплаты
	SeriesStatusPaid         SeriesStatus = "paid"         // Оплачено, занятия создаются
	SeriesStatusMaterialized SeriesStatus = "materialized" // Все занятия созданы
	SeriesStatusCompensating SeriesStatus = "compensating" // Откат не завершён
	SeriesStatusCompensated  SeriesStatus = "compensated"  // Созданные занятия удалены
	SeriesStatusAbandoned    SeriesStatus = "abandoned"    // Оплата не состоялась
)

// BookingSeries журнал оплаченной записи на курс.
// Backend остаётся источником истины, журнал нужен для отката при частичном сбое.
type BookingSeries struct {
	ID              uuid.UUID    `json:"id"`
	TelegramID      int64        `json:"telegram_id"`
	StudentID       string       `json:"student_id"`
	CourseID        string       `json:"course_id"`
	TeacherID       string       `json:"teacher_id"`
	PaymentIntentID string       `json:"payment_intent_id"`
	Status          SeriesStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	Sessions []*SeriesSession `json:"sessions,omitempty"`
}

// SeriesSession одно занятие серии (одна неделя)
type SeriesSession struct {
	SeriesID  uuid.UUID `json:"series_id"`
	Week      int       `json:"week"`
	SessionID string    `json:"session_id"`
	StartTime time.Time `json:"start_time"`
	Enrolled  bool      `json:"enrolled"`
	Deleted   bool      `json:"deleted"`
}
