package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"go.uber.org/zap"
)

// CatalogAPI каталог курсов backend
type CatalogAPI interface {
	ListCourses(ctx context.Context) ([]model.Course, error)
	GetCourse(ctx context.Context, id string) (*model.Course, error)
}

type CourseService struct {
	api    CatalogAPI
	logger *zap.Logger
}

func NewCourseService(api CatalogAPI, logger *zap.Logger) *CourseService {
	return &CourseService{
		api:    api,
		logger: logger,
	}
}

// ListPublished опубликованные курсы, отсортированные по названию
func (s *CourseService) ListPublished(ctx context.Context, user *model.User) ([]model.Course, error) {
	courses, err := s.api.ListCourses(userCtx(ctx, user))
	if err != nil {
		return nil, err
	}

	published := make([]model.Course, 0, len(courses))
	for _, c := range courses {
		if c.Status == "" || c.Status == model.CourseStatusPublished {
			published = append(published, c)
		}
	}

	sort.SliceStable(published, func(i, j int) bool { return published[i].Title < published[j].Title })
	return published, nil
}

// ListByInstructor курсы учителя в любом статусе
func (s *CourseService) ListByInstructor(ctx context.Context, teacher *model.User) ([]model.Course, error) {
	if !teacher.IsTeacher() {
		return nil, ErrForbidden
	}

	courses, err := s.api.ListCourses(userCtx(ctx, teacher))
	if err != nil {
		return nil, err
	}

	var own []model.Course
	for _, c := range courses {
		if teacher.IsAdmin() || c.Instructor == teacher.PlatformUserID {
			own = append(own, c)
		}
	}
	return own, nil
}

// GetCourse получает курс по ID
func (s *CourseService) GetCourse(ctx context.Context, user *model.User, id string) (*model.Course, error) {
	course, err := s.api.GetCourse(userCtx(ctx, user), id)
	if err != nil {
		return nil, fmt.Errorf("get course %s: %w", id, err)
	}
	return course, nil
}

// userCtx запросы от имени пользователя, если у него есть токен платформы
func userCtx(ctx context.Context, user *model.User) context.Context {
	if user == nil {
		return ctx
	}
	return apiclient.WithToken(ctx, user.APIToken)
}
