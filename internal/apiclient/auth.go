package apiclient

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

type LinkTelegramRequest struct {
	Code       string `json:"code" validate:"required"`
	TelegramID int64  `json:"telegramId" validate:"required"`
}

type LinkedUser struct {
	ID   string     `json:"id"`
	Role model.Role `json:"role"`
	Name string     `json:"name"`
}

type LinkTelegramResponse struct {
	User  LinkedUser `json:"user"`
	Token string     `json:"token"`
}

// LinkTelegram POST /api/auth/telegram/link - обмен одноразового кода из веб-кабинета
// на пользователя платформы и bearer токен
func (c *Client) LinkTelegram(ctx context.Context, req LinkTelegramRequest) (*LinkTelegramResponse, error) {
	var out LinkTelegramResponse
	err := c.do(ctx, request{
		method: "POST",
		path:   "/api/auth/telegram/link",
		body:   req,
		out:    &out,
	})
	if err != nil {
		return nil, fmt.Errorf("link telegram: %w", err)
	}
	return &out, nil
}
