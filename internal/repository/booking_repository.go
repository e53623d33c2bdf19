package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/Freeeeeet/tutoring_bot/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const seriesColumns = `id, telegram_id, student_id, course_id, teacher_id, payment_intent_id, status, created_at, updated_at`

// BookingRepository журнал серий занятий (booking_series + booking_series_sessions)
type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

func scanSeries(row interface{ Scan(dest ...any) error }) (*model.BookingSeries, error) {
	var s model.BookingSeries
	err := row.Scan(
		&s.ID,
		&s.TelegramID,
		&s.StudentID,
		&s.CourseID,
		&s.TeacherID,
		&s.PaymentIntentID,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSeries создаёт запись серии в статусе pending
func (r *BookingRepository) CreateSeries(ctx context.Context, series *model.BookingSeries) error {
	if series.ID == uuid.Nil {
		series.ID = uuid.New()
	}
	if series.Status == "" {
		series.Status = model.SeriesStatusPending
	}

	query := `
		INSERT INTO booking_series (id, telegram_id, student_id, course_id, teacher_id, payment_intent_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		series.ID,
		series.TelegramID,
		series.StudentID,
		series.CourseID,
		series.TeacherID,
		series.PaymentIntentID,
		series.Status,
	).Scan(&series.CreatedAt, &series.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking series: %w", err)
	}

	return nil
}

// GetByPaymentIntent получает серию с занятиями по ID payment intent
func (r *BookingRepository) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*model.BookingSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM booking_series WHERE payment_intent_id = $1`

	series, err := scanSeries(r.QueryRow(ctx, query, paymentIntentID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking series by payment intent: %w", err)
	}

	series.Sessions, err = r.getSessions(ctx, series.ID)
	if err != nil {
		return nil, err
	}

	return series, nil
}

// GetByStatus получает все серии в указанном статусе
func (r *BookingRepository) GetByStatus(ctx context.Context, status model.SeriesStatus) ([]*model.BookingSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM booking_series WHERE status = $1 ORDER BY created_at`

	rows, err := r.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("get booking series by status: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.BookingSeries, error) {
		return scanSeries(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan booking series: %w", err)
	}

	for _, series := range list {
		series.Sessions, err = r.getSessions(ctx, series.ID)
		if err != nil {
			return nil, err
		}
	}

	return list, nil
}

// UpdateStatus обновляет статус серии
func (r *BookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SeriesStatus) error {
	query := `
		UPDATE booking_series
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update booking series status: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("booking series not found")
	}

	return nil
}

// AbandonIfOpen помечает серию abandoned, только пока оплата по ней не прошла.
// false - серия уже оплачена или откатывается, статус не менялся
func (r *BookingRepository) AbandonIfOpen(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE booking_series
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status IN ($3, $1)
	`

	affected, err := r.ExecAffected(ctx, query, model.SeriesStatusAbandoned, id, model.SeriesStatusPending)
	if err != nil {
		return false, fmt.Errorf("abandon booking series: %w", err)
	}

	return affected > 0, nil
}

// AddSession записывает созданное занятие недели
func (r *BookingRepository) AddSession(ctx context.Context, s *model.SeriesSession) error {
	query := `
		INSERT INTO booking_series_sessions (series_id, week, session_id, start_time, enrolled, deleted)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (series_id, week) DO UPDATE
		SET session_id = EXCLUDED.session_id, start_time = EXCLUDED.start_time,
		    enrolled = EXCLUDED.enrolled, deleted = EXCLUDED.deleted
	`

	_, err := r.ExecAffected(ctx, query, s.SeriesID, s.Week, s.SessionID, s.StartTime, s.Enrolled, s.Deleted)
	if err != nil {
		return fmt.Errorf("add series session: %w", err)
	}

	return nil
}

// MarkEnrolled отмечает что студент записан на занятие недели
func (r *BookingRepository) MarkEnrolled(ctx context.Context, seriesID uuid.UUID, week int) error {
	query := `UPDATE booking_series_sessions SET enrolled = true WHERE series_id = $1 AND week = $2`

	if _, err := r.ExecAffected(ctx, query, seriesID, week); err != nil {
		return fmt.Errorf("mark series session enrolled: %w", err)
	}

	return nil
}

// MarkDeleted отмечает что занятие недели удалено при откате
func (r *BookingRepository) MarkDeleted(ctx context.Context, seriesID uuid.UUID, week int) error {
	query := `UPDATE booking_series_sessions SET deleted = true WHERE series_id = $1 AND week = $2`

	if _, err := r.ExecAffected(ctx, query, seriesID, week); err != nil {
		return fmt.Errorf("mark series session deleted: %w", err)
	}

	return nil
}

func (r *BookingRepository) getSessions(ctx context.Context, seriesID uuid.UUID) ([]*model.SeriesSession, error) {
	query := `
		SELECT series_id, week, session_id, start_time, enrolled, deleted
		FROM booking_series_sessions
		WHERE series_id = $1
		ORDER BY week
	`

	rows, err := r.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("get series sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.SeriesSession
	for rows.Next() {
		var s model.SeriesSession
		err := rows.Scan(&s.SeriesID, &s.Week, &s.SessionID, &s.StartTime, &s.Enrolled, &s.Deleted)
		if err != nil {
			return nil, fmt.Errorf("scan series session: %w", err)
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series sessions: %w", err)
	}

	return sessions, nil
}
