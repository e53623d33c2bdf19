package service

import (
	"bufio"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"go.uber.org/zap"
)

// QuizAPI тесты и попытки на backend
type QuizAPI interface {
	ListSessions(ctx context.Context, filter apiclient.SessionFilter) ([]model.Session, error)
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	ListQuizzes(ctx context.Context, courseID string) ([]model.Quiz, error)
	GetQuiz(ctx context.Context, id string) (*model.Quiz, error)
	CreateQuiz(ctx context.Context, quiz *model.Quiz) (*model.Quiz, error)
	ListAttempts(ctx context.Context, quizID string) ([]model.QuizAttempt, error)
	SubmitAttempt(ctx context.Context, quizID string, req apiclient.SubmitAttemptRequest) (*model.QuizAttempt, error)
}

type QuizService struct {
	api    QuizAPI
	logger *zap.Logger
}

func NewQuizService(api QuizAPI, logger *zap.Logger) *QuizService {
	return &QuizService{
		api:    api,
		logger: logger,
	}
}

// unlockedCourses курсы, у которых хотя бы на одном занятии студента открыт доступ к тестам
func (s *QuizService) unlockedCourses(ctx context.Context, student *model.User) (map[string]bool, error) {
	sessions, err := s.api.ListSessions(userCtx(ctx, student), apiclient.SessionFilter{Student: student.PlatformUserID})
	if err != nil {
		return nil, err
	}

	courses := make(map[string]bool)
	for i := range sessions {
		if sessions[i].QuizAccessEnabled && sessions[i].IsEnrolled(student.PlatformUserID) {
			courses[sessions[i].Course] = true
		}
	}
	return courses, nil
}

// AvailableForStudent опубликованные тесты курсов с открытым доступом
func (s *QuizService) AvailableForStudent(ctx context.Context, student *model.User) ([]model.Quiz, error) {
	if !student.IsLinked() {
		return nil, ErrNotLinked
	}

	courses, err := s.unlockedCourses(ctx, student)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(courses))
	for id := range courses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var quizzes []model.Quiz
	for _, courseID := range ids {
		list, err := s.api.ListQuizzes(userCtx(ctx, student), courseID)
		if err != nil {
			return nil, err
		}
		for _, q := range list {
			if q.Published {
				quizzes = append(quizzes, q)
			}
		}
	}
	return quizzes, nil
}

// GetForStudent тест, если доступ к нему открыт
func (s *QuizService) GetForStudent(ctx context.Context, student *model.User, quizID string) (*model.Quiz, error) {
	if !student.IsLinked() {
		return nil, ErrNotLinked
	}

	quiz, err := s.api.GetQuiz(userCtx(ctx, student), quizID)
	if err != nil {
		return nil, err
	}

	courses, err := s.unlockedCourses(ctx, student)
	if err != nil {
		return nil, err
	}
	if !quiz.Published || !courses[quiz.Course] {
		return nil, ErrQuizLocked
	}
	return quiz, nil
}

// Submit отправляет ответы студента, по одному на вопрос
func (s *QuizService) Submit(ctx context.Context, student *model.User, quizID string, answers []int) (*model.QuizAttempt, error) {
	quiz, err := s.GetForStudent(ctx, student, quizID)
	if err != nil {
		return nil, err
	}
	if len(answers) != len(quiz.Questions) {
		return nil, fmt.Errorf("expected %d answers, got %d", len(quiz.Questions), len(answers))
	}

	attempt, err := s.api.SubmitAttempt(userCtx(ctx, student), quizID, apiclient.SubmitAttemptRequest{
		StudentID: student.PlatformUserID,
		Answers:   answers,
	})
	if err != nil {
		return nil, err
	}
	if attempt.Total == 0 {
		attempt.Score, attempt.Total = Score(quiz, answers), len(quiz.Questions)
	}

	s.logger.Info("Quiz attempt submitted",
		zap.String("quiz_id", quizID),
		zap.String("student_id", student.PlatformUserID),
		zap.Int("score", attempt.Score),
		zap.Int("total", attempt.Total),
	)

	return attempt, nil
}

// Attempts попытки студента по тесту
func (s *QuizService) Attempts(ctx context.Context, student *model.User, quizID string) ([]model.QuizAttempt, error) {
	attempts, err := s.api.ListAttempts(userCtx(ctx, student), quizID)
	if err != nil {
		return nil, err
	}

	own := make([]model.QuizAttempt, 0, len(attempts))
	for _, a := range attempts {
		if a.Student == student.PlatformUserID {
			own = append(own, a)
		}
	}
	return own, nil
}

// Create создаёт тест курса учителя из текстового описания (см. ParseQuiz)
func (s *QuizService) Create(ctx context.Context, teacher *model.User, courseID, text string) (*model.Quiz, error) {
	if !teacher.IsTeacher() {
		return nil, ErrForbidden
	}

	course, err := s.api.GetCourse(userCtx(ctx, teacher), courseID)
	if err != nil {
		return nil, err
	}
	if !teacher.IsAdmin() && course.Instructor != teacher.PlatformUserID {
		return nil, ErrForbidden
	}

	quiz, err := ParseQuiz(text)
	if err != nil {
		return nil, err
	}
	quiz.Course = courseID
	quiz.Published = true

	created, err := s.api.CreateQuiz(userCtx(ctx, teacher), quiz)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz created",
		zap.String("quiz_id", created.ID),
		zap.String("course_id", courseID),
		zap.Int("questions", len(quiz.Questions)),
	)

	return created, nil
}

// Score количество правильных ответов
func Score(quiz *model.Quiz, answers []int) int {
	score := 0
	for i, q := range quiz.Questions {
		if i < len(answers) && answers[i] == q.CorrectIndex {
			score++
		}
	}
	return score
}

// ParseQuiz разбирает тест из сообщения учителя:
//
//	Название теста
//	? Текст вопроса
//	- неверный вариант
//	+ верный вариант
//
// У каждого вопроса минимум два варианта и ровно один верный.
func ParseQuiz(text string) (*model.Quiz, error) {
	quiz := &model.Quiz{}
	var current *model.Question
	correct := 0

	finish := func() error {
		if current == nil {
			return nil
		}
		if len(current.Options) < 2 || correct != 1 {
			return fmt.Errorf("%w: question %q needs at least two options and exactly one correct", ErrInvalidQuizFormat, current.Text)
		}
		quiz.Questions = append(quiz.Questions, *current)
		current = nil
		correct = 0
		return nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case quiz.Title == "":
			quiz.Title = line
		case strings.HasPrefix(line, "?"):
			if err := finish(); err != nil {
				return nil, err
			}
			current = &model.Question{Text: strings.TrimSpace(line[1:])}
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "+"):
			if current == nil {
				return nil, fmt.Errorf("%w: option before first question", ErrInvalidQuizFormat)
			}
			if line[0] == '+' {
				current.CorrectIndex = len(current.Options)
				correct++
			}
			current.Options = append(current.Options, strings.TrimSpace(line[1:]))
		default:
			return nil, fmt.Errorf("%w: unexpected line %q", ErrInvalidQuizFormat, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read quiz: %w", err)
	}
	if err := finish(); err != nil {
		return nil, err
	}

	if quiz.Title == "" || len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: title and at least one question required", ErrInvalidQuizFormat)
	}
	return quiz, nil
}
