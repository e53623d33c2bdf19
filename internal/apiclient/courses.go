package apiclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

// ListCourses GET /api/courses. На 429 - один повтор с задержкой.
func (c *Client) ListCourses(ctx context.Context) ([]model.Course, error) {
	var out []model.Course
	err := c.do(ctx, request{
		method:         "GET",
		path:           "/api/courses",
		out:            &out,
		retryRateLimit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return out, nil
}

// GetCourse GET /api/courses/:id
func (c *Client) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	var out model.Course
	err := c.do(ctx, request{
		method:         "GET",
		path:           "/api/courses/" + url.PathEscape(id),
		out:            &out,
		retryRateLimit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &out, nil
}

// EnrollInCourse POST /api/courses/:id/enroll
func (c *Client) EnrollInCourse(ctx context.Context, courseID, studentID string) error {
	err := c.do(ctx, request{
		method:     "POST",
		path:       "/api/courses/" + url.PathEscape(courseID) + "/enroll",
		body:       enrollRequest{StudentID: studentID},
		idempotent: true,
	})
	if err != nil {
		return fmt.Errorf("enroll in course: %w", err)
	}
	return nil
}
