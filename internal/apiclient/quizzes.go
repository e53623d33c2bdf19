package apiclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

type SubmitAttemptRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Answers   []int  `json:"answers" validate:"min=1"`
}

func quizPath(id string, suffix ...string) string {
	p := "/api/quizzes/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// ListQuizzes GET /api/quizzes?course=. На 429 - один повтор с задержкой.
func (c *Client) ListQuizzes(ctx context.Context, courseID string) ([]model.Quiz, error) {
	query := url.Values{}
	if courseID != "" {
		query.Set("course", courseID)
	}

	var out []model.Quiz
	err := c.do(ctx, request{
		method:         "GET",
		path:           "/api/quizzes",
		query:          query,
		out:            &out,
		retryRateLimit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return out, nil
}

// GetQuiz GET /api/quizzes/:id
func (c *Client) GetQuiz(ctx context.Context, id string) (*model.Quiz, error) {
	var out model.Quiz
	err := c.do(ctx, request{
		method:         "GET",
		path:           quizPath(id),
		out:            &out,
		retryRateLimit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return &out, nil
}

// CreateQuiz POST /api/quizzes
func (c *Client) CreateQuiz(ctx context.Context, quiz *model.Quiz) (*model.Quiz, error) {
	var out model.Quiz
	err := c.do(ctx, request{
		method:     "POST",
		path:       "/api/quizzes",
		body:       quiz,
		out:        &out,
		idempotent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	return &out, nil
}

// ListAttempts GET /api/quizzes/:id/attempts
func (c *Client) ListAttempts(ctx context.Context, quizID string) ([]model.QuizAttempt, error) {
	var out []model.QuizAttempt
	err := c.do(ctx, request{method: "GET", path: quizPath(quizID, "attempts"), out: &out})
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return out, nil
}

// SubmitAttempt POST /api/quizzes/:id/attempts
func (c *Client) SubmitAttempt(ctx context.Context, quizID string, req SubmitAttemptRequest) (*model.QuizAttempt, error) {
	var out model.QuizAttempt
	err := c.do(ctx, request{
		method:     "POST",
		path:       quizPath(quizID, "attempts"),
		body:       req,
		out:        &out,
		idempotent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("submit quiz attempt: %w", err)
	}
	return &out, nil
}
