package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"go.uber.org/zap"
)

// UserRepository хранилище привязок Telegram-аккаунтов
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Link(ctx context.Context, userID int64, platformUserID string, role model.Role, apiToken string) error
	Unlink(ctx context.Context, userID int64) error
}

// AuthAPI обмен кода привязки на пользователя платформы
type AuthAPI interface {
	LinkTelegram(ctx context.Context, req apiclient.LinkTelegramRequest) (*apiclient.LinkTelegramResponse, error)
}

type UserService struct {
	userRepo UserRepository
	auth     AuthAPI
	logger   *zap.Logger
}

func NewUserService(userRepo UserRepository, auth AuthAPI, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		auth:     auth,
		logger:   logger,
	}
}

// RegisterUser регистрирует или обновляет пользователя
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName, languageCode string) (*model.User, error) {
	// Проверяем существует ли пользователь
	existingUser, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	// Если пользователь уже существует, обновляем данные
	if existingUser != nil {
		existingUser.Username = username
		existingUser.FirstName = firstName
		existingUser.LastName = lastName
		existingUser.LanguageCode = languageCode

		err = s.userRepo.Update(ctx, existingUser)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		return existingUser, nil
	}

	// Новый пользователь - студент без привязки к платформе
	user := &model.User{
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		LanguageCode: languageCode,
		Role:         model.RoleStudent,
	}

	err = s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
	)

	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

// RequireLinked пользователь с привязанным аккаунтом платформы
func (s *UserService) RequireLinked(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || !user.IsLinked() {
		return nil, ErrNotLinked
	}
	return user, nil
}

// Link привязывает Telegram-аккаунт по одноразовому коду из веб-кабинета
func (s *UserService) Link(ctx context.Context, user *model.User, code string) (*model.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("empty link code")
	}

	resp, err := s.auth.LinkTelegram(ctx, apiclient.LinkTelegramRequest{
		Code:       code,
		TelegramID: user.TelegramID,
	})
	if err != nil {
		return nil, err
	}

	role := resp.User.Role
	if role == "" {
		role = model.RoleStudent
	}

	err = s.userRepo.Link(ctx, user.ID, resp.User.ID, role, resp.Token)
	if err != nil {
		return nil, fmt.Errorf("save link: %w", err)
	}

	user.PlatformUserID = resp.User.ID
	user.Role = role
	user.APIToken = resp.Token

	s.logger.Info("User linked to platform",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", user.TelegramID),
		zap.String("platform_user_id", user.PlatformUserID),
		zap.String("role", string(role)),
	)

	return user, nil
}

// Unlink удаляет привязку к платформе
func (s *UserService) Unlink(ctx context.Context, user *model.User) error {
	if err := s.userRepo.Unlink(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info("User unlinked",
		zap.Int64("user_id", user.ID),
		zap.String("platform_user_id", user.PlatformUserID),
	)

	user.PlatformUserID = ""
	user.Role = model.RoleStudent
	user.APIToken = ""
	return nil
}
