package apiclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

// SessionFilter параметры GET /api/sessions, пустые поля не передаются
type SessionFilter struct {
	Teacher string
	Student string
	Course  string
	Date    time.Time
}

func (f SessionFilter) values() url.Values {
	v := url.Values{}
	if f.Teacher != "" {
		v.Set("teacher", f.Teacher)
	}
	if f.Student != "" {
		v.Set("student", f.Student)
	}
	if f.Course != "" {
		v.Set("course", f.Course)
	}
	if !f.Date.IsZero() {
		v.Set("date", f.Date.Format(dateLayout))
	}
	return v
}

type CreateSessionRequest struct {
	Course    string              `json:"course" validate:"required"`
	Teacher   string              `json:"teacher" validate:"required"`
	StartTime time.Time           `json:"startTime" validate:"required"`
	EndTime   time.Time           `json:"endTime" validate:"required,gtfield=StartTime"`
	Status    model.SessionStatus `json:"status" validate:"required"`
}

type UpdateSessionRequest struct {
	StartTime   time.Time           `json:"startTime" validate:"required"`
	EndTime     time.Time           `json:"endTime" validate:"required,gtfield=StartTime"`
	Status      model.SessionStatus `json:"status" validate:"required"`
	MeetingLink string              `json:"meetingLink,omitempty" validate:"omitempty,url"`
}

type sessionStatusRequest struct {
	Status model.SessionStatus `json:"status" validate:"required"`
}

type meetingLinkRequest struct {
	MeetingLink string `json:"meetingLink" validate:"required,url"`
}

type quizAccessRequest struct {
	QuizAccessEnabled bool `json:"quizAccessEnabled"`
}

type enrollRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

type attendanceRequest struct {
	StudentID  string                 `json:"studentId" validate:"required"`
	Attendance model.AttendanceStatus `json:"attendance" validate:"required,oneof=pending present absent"`
}

func sessionPath(id string, suffix ...string) string {
	p := "/api/sessions/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// ListSessions GET /api/sessions?teacher=&date= / ?student= / ?course=
func (c *Client) ListSessions(ctx context.Context, filter SessionFilter) ([]model.Session, error) {
	var out []model.Session
	err := c.do(ctx, request{
		method: "GET",
		path:   "/api/sessions",
		query:  filter.values(),
		out:    &out,
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// CreateSession POST /api/sessions
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*model.Session, error) {
	var out model.Session
	err := c.do(ctx, request{
		method:     "POST",
		path:       "/api/sessions",
		body:       req,
		out:        &out,
		idempotent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &out, nil
}

// UpdateSession PUT /api/sessions/:id
func (c *Client) UpdateSession(ctx context.Context, id string, req UpdateSessionRequest) (*model.Session, error) {
	var out model.Session
	err := c.do(ctx, request{method: "PUT", path: sessionPath(id), body: req, out: &out})
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return &out, nil
}

// DeleteSession DELETE /api/sessions/:id
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if err := c.do(ctx, request{method: "DELETE", path: sessionPath(id)}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// UpdateSessionStatus PATCH /api/sessions/:id/status
func (c *Client) UpdateSessionStatus(ctx context.Context, id string, status model.SessionStatus) (*model.Session, error) {
	var out model.Session
	err := c.do(ctx, request{
		method: "PATCH",
		path:   sessionPath(id, "status"),
		body:   sessionStatusRequest{Status: status},
		out:    &out,
	})
	if err != nil {
		return nil, fmt.Errorf("update session status: %w", err)
	}
	return &out, nil
}

// UpdateMeetingLink PATCH /api/sessions/:id/meeting-link
func (c *Client) UpdateMeetingLink(ctx context.Context, id, link string) (*model.Session, error) {
	var out model.Session
	err := c.do(ctx, request{
		method: "PATCH",
		path:   sessionPath(id, "meeting-link"),
		body:   meetingLinkRequest{MeetingLink: link},
		out:    &out,
	})
	if err != nil {
		return nil, fmt.Errorf("update meeting link: %w", err)
	}
	return &out, nil
}

// SetQuizAccess PATCH /api/sessions/:id/quiz-access
func (c *Client) SetQuizAccess(ctx context.Context, id string, enabled bool) (*model.Session, error) {
	var out model.Session
	err := c.do(ctx, request{
		method: "PATCH",
		path:   sessionPath(id, "quiz-access"),
		body:   quizAccessRequest{QuizAccessEnabled: enabled},
		out:    &out,
	})
	if err != nil {
		return nil, fmt.Errorf("set quiz access: %w", err)
	}
	return &out, nil
}

// EnrollInSession POST /api/sessions/:id/enroll
func (c *Client) EnrollInSession(ctx context.Context, id, studentID string) error {
	err := c.do(ctx, request{
		method:     "POST",
		path:       sessionPath(id, "enroll"),
		body:       enrollRequest{StudentID: studentID},
		idempotent: true,
	})
	if err != nil {
		return fmt.Errorf("enroll in session: %w", err)
	}
	return nil
}

// MarkAttendance PUT /api/sessions/:id/attendance
func (c *Client) MarkAttendance(ctx context.Context, id, studentID string, attendance model.AttendanceStatus) error {
	err := c.do(ctx, request{
		method: "PUT",
		path:   sessionPath(id, "attendance"),
		body:   attendanceRequest{StudentID: studentID, Attendance: attendance},
	})
	if err != nil {
		return fmt.Errorf("mark attendance: %w", err)
	}
	return nil
}
