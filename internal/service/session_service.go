package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"go.uber.org/zap"
)

// SessionsAPI чтение и изменение занятий на backend
type SessionsAPI interface {
	ListSessions(ctx context.Context, filter apiclient.SessionFilter) ([]model.Session, error)
	ListTeacherSessions(ctx context.Context, teacherID string) ([]model.Session, error)
	UpdateSessionStatus(ctx context.Context, id string, status model.SessionStatus) (*model.Session, error)
	UpdateMeetingLink(ctx context.Context, id, link string) (*model.Session, error)
	SetQuizAccess(ctx context.Context, id string, enabled bool) (*model.Session, error)
	MarkAttendance(ctx context.Context, id, studentID string, attendance model.AttendanceStatus) error
}

type SessionService struct {
	api    SessionsAPI
	now    func() time.Time
	logger *zap.Logger
}

func NewSessionService(api SessionsAPI, logger *zap.Logger) *SessionService {
	return &SessionService{
		api:    api,
		now:    time.Now,
		logger: logger,
	}
}

// UpcomingForStudent будущие занятия студента, кроме отменённых, по времени начала
func (s *SessionService) UpcomingForStudent(ctx context.Context, student *model.User) ([]model.Session, error) {
	if !student.IsLinked() {
		return nil, ErrNotLinked
	}

	sessions, err := s.api.ListSessions(userCtx(ctx, student), apiclient.SessionFilter{Student: student.PlatformUserID})
	if err != nil {
		return nil, err
	}

	now := s.now()
	upcoming := make([]model.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.Status == model.SessionStatusCancelled || !session.EndTime.After(now) {
			continue
		}
		upcoming = append(upcoming, session)
	}

	sortByStart(upcoming)
	return upcoming, nil
}

// ForTeacher занятия учителя по времени начала
func (s *SessionService) ForTeacher(ctx context.Context, teacher *model.User) ([]model.Session, error) {
	if !teacher.IsTeacher() {
		return nil, ErrForbidden
	}

	sessions, err := s.api.ListTeacherSessions(userCtx(ctx, teacher), teacher.PlatformUserID)
	if err != nil {
		return nil, err
	}

	sortByStart(sessions)
	return sessions, nil
}

// GetForTeacher занятие учителя по ID
func (s *SessionService) GetForTeacher(ctx context.Context, teacher *model.User, sessionID string) (*model.Session, error) {
	sessions, err := s.ForTeacher(ctx, teacher)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == sessionID {
			return &sessions[i], nil
		}
	}
	return nil, fmt.Errorf("session %s: %w", sessionID, apiclient.ErrNotFound)
}

// SetStatus меняет статус занятия
func (s *SessionService) SetStatus(ctx context.Context, teacher *model.User, sessionID string, status model.SessionStatus) (*model.Session, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown session status %q", status)
	}
	if _, err := s.GetForTeacher(ctx, teacher, sessionID); err != nil {
		return nil, err
	}

	session, err := s.api.UpdateSessionStatus(userCtx(ctx, teacher), sessionID, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session status updated",
		zap.String("session_id", sessionID),
		zap.String("teacher_id", teacher.PlatformUserID),
		zap.String("status", string(status)),
	)

	return session, nil
}

// SetMeetingLink задаёт ссылку на видеовстречу
func (s *SessionService) SetMeetingLink(ctx context.Context, teacher *model.User, sessionID, link string) (*model.Session, error) {
	if _, err := s.GetForTeacher(ctx, teacher, sessionID); err != nil {
		return nil, err
	}

	session, err := s.api.UpdateMeetingLink(userCtx(ctx, teacher), sessionID, link)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Meeting link updated",
		zap.String("session_id", sessionID),
		zap.String("teacher_id", teacher.PlatformUserID),
	)

	return session, nil
}

// ToggleQuizAccess переключает доступ к тестам курса для участников занятия
func (s *SessionService) ToggleQuizAccess(ctx context.Context, teacher *model.User, sessionID string) (*model.Session, error) {
	current, err := s.GetForTeacher(ctx, teacher, sessionID)
	if err != nil {
		return nil, err
	}

	session, err := s.api.SetQuizAccess(userCtx(ctx, teacher), sessionID, !current.QuizAccessEnabled)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz access toggled",
		zap.String("session_id", sessionID),
		zap.Bool("enabled", session.QuizAccessEnabled),
	)

	return session, nil
}

// MarkAttendance отмечает присутствие записанного студента
func (s *SessionService) MarkAttendance(ctx context.Context, teacher *model.User, sessionID, studentID string, attendance model.AttendanceStatus) error {
	session, err := s.GetForTeacher(ctx, teacher, sessionID)
	if err != nil {
		return err
	}
	if !session.IsEnrolled(studentID) {
		return fmt.Errorf("student %s is not enrolled in session %s", studentID, sessionID)
	}

	if err := s.api.MarkAttendance(userCtx(ctx, teacher), sessionID, studentID, attendance); err != nil {
		return err
	}

	s.logger.Info("Attendance marked",
		zap.String("session_id", sessionID),
		zap.String("student_id", studentID),
		zap.String("attendance", string(attendance)),
	)

	return nil
}

func sortByStart(sessions []model.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
}
