package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/google/uuid"
)

var (
	errBackend = errors.New("backend unavailable")

	// Среда, 14 октября 2026
	testNow = time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)
	// Понедельник, 19 октября 2026
	monday = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
)

// fakeAPI backend в памяти: реализует все API-интерфейсы сервисов
type fakeAPI struct {
	mu sync.Mutex

	template *model.Availability
	courses  map[string]model.Course
	sessions []model.Session
	quizzes  []model.Quiz
	attempts []model.QuizAttempt

	created       []apiclient.CreateSessionRequest
	enrolled      []string
	deleted       []string
	courseEnrolls []string
	intents       []apiclient.CreatePaymentIntentRequest
	metadata      []apiclient.UpdatePaymentIntentMetadataRequest

	failCreateAt int // номер вызова CreateSession (с 1), который упадёт
	failDelete   map[string]int
	nextID       int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		template: &model.Availability{Availability: []model.TeacherAvailability{
			{Day: "monday", Enabled: true, TimeSlots: []model.TimeRange{{Start: "09:00", End: "10:00"}, {Start: "14:00", End: "15:00"}}},
			{Day: "wednesday", Enabled: true, TimeSlots: []model.TimeRange{{Start: "18:00", End: "19:00"}}},
			{Day: "friday", Enabled: false, TimeSlots: []model.TimeRange{{Start: "09:00", End: "10:00"}}},
		}},
		courses: map[string]model.Course{
			"go-101": {ID: "go-101", Title: "Go 101", Price: 45, Duration: 180, Instructor: "t1", Status: model.CourseStatusPublished},
			"draft":  {ID: "draft", Title: "Draft", Price: 10, Duration: 60, Instructor: "t1", Status: model.CourseStatusDraft},
		},
		failDelete: make(map[string]int),
	}
}

func (f *fakeAPI) GetTeacherAvailability(_ context.Context, teacherID string, _ time.Time) (*model.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if teacherID != "t1" {
		return nil, apiclient.ErrNotFound
	}
	return f.template, nil
}

func (f *fakeAPI) ListSessions(_ context.Context, filter apiclient.SessionFilter) ([]model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Session
	for _, s := range f.sessions {
		if filter.Teacher != "" && s.Teacher != filter.Teacher {
			continue
		}
		if filter.Student != "" && !s.IsEnrolled(filter.Student) {
			continue
		}
		if !filter.Date.IsZero() && !sameDay(s.StartTime, filter.Date) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeAPI) CreateSession(_ context.Context, req apiclient.CreateSessionRequest) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.created = append(f.created, req)
	if f.failCreateAt > 0 && len(f.created) == f.failCreateAt {
		return nil, errBackend
	}

	f.nextID++
	s := model.Session{
		ID:        fmt.Sprintf("s%d", f.nextID),
		Course:    req.Course,
		Teacher:   req.Teacher,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    req.Status,
	}
	f.sessions = append(f.sessions, s)
	return &s, nil
}

func (f *fakeAPI) EnrollInSession(_ context.Context, id, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.enrolled = append(f.enrolled, id)
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			f.sessions[i].Enrolled = append(f.sessions[i].Enrolled, model.Enrollment{Student: studentID, Attendance: model.AttendancePending})
			return nil
		}
	}
	return apiclient.ErrNotFound
}

func (f *fakeAPI) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDelete[id] > 0 {
		f.failDelete[id]--
		return errBackend
	}

	f.deleted = append(f.deleted, id)
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			return nil
		}
	}
	return apiclient.ErrNotFound
}

func (f *fakeAPI) GetCourse(_ context.Context, id string) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, apiclient.ErrNotFound
	}
	return &c, nil
}

func (f *fakeAPI) ListCourses(context.Context) ([]model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Course, 0, len(f.courses))
	for _, c := range f.courses {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeAPI) EnrollInCourse(_ context.Context, courseID, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courseEnrolls = append(f.courseEnrolls, courseID+":"+studentID)
	return nil
}

func (f *fakeAPI) CreatePaymentIntent(_ context.Context, req apiclient.CreatePaymentIntentRequest) (*model.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents = append(f.intents, req)
	n := len(f.intents)
	return &model.PaymentIntent{
		ID:           fmt.Sprintf("pi_%d", n),
		ClientSecret: fmt.Sprintf("pi_%d_secret", n),
		Amount:       req.Amount,
		Currency:     req.Currency,
	}, nil
}

func (f *fakeAPI) UpdatePaymentIntentMetadata(_ context.Context, req apiclient.UpdatePaymentIntentMetadataRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadata = append(f.metadata, req)
	return nil
}

func (f *fakeAPI) ListQuizzes(_ context.Context, courseID string) ([]model.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Quiz
	for _, q := range f.quizzes {
		if q.Course == courseID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeAPI) GetQuiz(_ context.Context, id string) (*model.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.quizzes {
		if q.ID == id {
			return &q, nil
		}
	}
	return nil, apiclient.ErrNotFound
}

func (f *fakeAPI) CreateQuiz(_ context.Context, quiz *model.Quiz) (*model.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := *quiz
	q.ID = fmt.Sprintf("q%d", len(f.quizzes)+1)
	f.quizzes = append(f.quizzes, q)
	return &q, nil
}

func (f *fakeAPI) ListAttempts(_ context.Context, quizID string) ([]model.QuizAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.QuizAttempt
	for _, a := range f.attempts {
		if a.Quiz == quizID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAPI) SubmitAttempt(_ context.Context, quizID string, req apiclient.SubmitAttemptRequest) (*model.QuizAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := model.QuizAttempt{ID: fmt.Sprintf("a%d", len(f.attempts)+1), Quiz: quizID, Student: req.StudentID, Answers: req.Answers}
	f.attempts = append(f.attempts, a)
	return &a, nil
}

func (f *fakeAPI) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

// fakeSeriesRepo журнал серий в памяти
type fakeSeriesRepo struct {
	mu     sync.Mutex
	series map[uuid.UUID]*model.BookingSeries

	afterRead func() // вызывается после GetByPaymentIntent, вне блокировки
}

func newFakeSeriesRepo() *fakeSeriesRepo {
	return &fakeSeriesRepo{series: make(map[uuid.UUID]*model.BookingSeries)}
}

func (r *fakeSeriesRepo) CreateSeries(_ context.Context, series *model.BookingSeries) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if series.ID == uuid.Nil {
		series.ID = uuid.New()
	}
	if series.Status == "" {
		series.Status = model.SeriesStatusPending
	}
	if series.CreatedAt.IsZero() {
		series.CreatedAt = time.Now()
		series.UpdatedAt = series.CreatedAt
	}
	c := *series
	r.series[series.ID] = &c
	return nil
}

func (r *fakeSeriesRepo) copyOf(s *model.BookingSeries) *model.BookingSeries {
	c := *s
	c.Sessions = nil
	for _, row := range s.Sessions {
		rc := *row
		c.Sessions = append(c.Sessions, &rc)
	}
	return &c
}

func (r *fakeSeriesRepo) GetByPaymentIntent(_ context.Context, id string) (*model.BookingSeries, error) {
	r.mu.Lock()
	var found *model.BookingSeries
	for _, s := range r.series {
		if s.PaymentIntentID == id {
			found = r.copyOf(s)
			break
		}
	}
	afterRead := r.afterRead
	r.mu.Unlock()

	if afterRead != nil {
		afterRead()
	}
	return found, nil
}

func (r *fakeSeriesRepo) GetByStatus(_ context.Context, status model.SeriesStatus) ([]*model.BookingSeries, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.BookingSeries
	for _, s := range r.series {
		if s.Status == status {
			out = append(out, r.copyOf(s))
		}
	}
	return out, nil
}

func (r *fakeSeriesRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.SeriesStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.series[id]
	if !ok {
		return fmt.Errorf("booking series not found")
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	return nil
}

func (r *fakeSeriesRepo) AbandonIfOpen(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.series[id]
	if !ok || (s.Status != model.SeriesStatusPending && s.Status != model.SeriesStatusAbandoned) {
		return false, nil
	}
	s.Status = model.SeriesStatusAbandoned
	s.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeSeriesRepo) AddSession(_ context.Context, row *model.SeriesSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.series[row.SeriesID]
	if !ok {
		return fmt.Errorf("booking series not found")
	}
	c := *row
	s.Sessions = append(s.Sessions, &c)
	return nil
}

func (r *fakeSeriesRepo) row(seriesID uuid.UUID, week int) *model.SeriesSession {
	s, ok := r.series[seriesID]
	if !ok {
		return nil
	}
	for _, row := range s.Sessions {
		if row.Week == week {
			return row
		}
	}
	return nil
}

func (r *fakeSeriesRepo) MarkEnrolled(_ context.Context, seriesID uuid.UUID, week int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row := r.row(seriesID, week); row != nil {
		row.Enrolled = true
	}
	return nil
}

func (r *fakeSeriesRepo) MarkDeleted(_ context.Context, seriesID uuid.UUID, week int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row := r.row(seriesID, week); row != nil {
		row.Deleted = true
	}
	return nil
}

func (r *fakeSeriesRepo) status(id uuid.UUID) model.SeriesStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.series[id]; ok {
		return s.Status
	}
	return ""
}

// recordingNotifier запоминает уведомления
type recordingNotifier struct {
	mu        sync.Mutex
	failed    []*Flow
	confirmed []*Flow
	errors    []error
}

func (n *recordingNotifier) PaymentFailed(_ context.Context, flow *Flow) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, flow)
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, flow *Flow) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, flow)
}

func (n *recordingNotifier) BookingFailed(_ context.Context, _ int64, reason error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, reason)
}

func testStudent() *model.User {
	return &model.User{
		ID:             1,
		TelegramID:     1001,
		PlatformUserID: "stu1",
		Role:           model.RoleStudent,
		APIToken:       "stu-token",
	}
}

func testTeacher() *model.User {
	return &model.User{
		ID:             2,
		TelegramID:     2002,
		PlatformUserID: "t1",
		Role:           model.RoleTeacher,
		APIToken:       "t-token",
	}
}
