package apiclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

const dateLayout = "2006-01-02"

// GetTeacherAvailability GET /api/teachers/:id/availability[?date=]
// Нулевая дата - только недельный шаблон без availableSlots.
func (c *Client) GetTeacherAvailability(ctx context.Context, teacherID string, date time.Time) (*model.Availability, error) {
	query := url.Values{}
	if !date.IsZero() {
		query.Set("date", date.Format(dateLayout))
	}

	var out model.Availability
	err := c.do(ctx, request{
		method: "GET",
		path:   "/api/teachers/" + url.PathEscape(teacherID) + "/availability",
		query:  query,
		out:    &out,
	})
	if err != nil {
		return nil, fmt.Errorf("get teacher availability: %w", err)
	}

	return &out, nil
}
