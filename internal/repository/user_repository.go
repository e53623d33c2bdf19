package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/Freeeeeet/tutoring_bot/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, telegram_id, username, first_name, last_name, language_code, platform_user_id, role, api_token, created_at`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(pool)}
}

func scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.LanguageCode,
		&user.PlatformUserID,
		&user.Role,
		&user.APIToken,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name, language_code, platform_user_id, role, api_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
		user.PlatformUserID,
		user.Role,
		user.APIToken,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.QueryRow(ctx, query, telegramID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}

	return user, nil
}

// GetByPlatformID получает пользователя по ID на платформе
func (r *UserRepository) GetByPlatformID(ctx context.Context, platformUserID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE platform_user_id = $1 ORDER BY id LIMIT 1`

	user, err := scanUser(r.QueryRow(ctx, query, platformUserID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by platform id: %w", err)
	}

	return user, nil
}

// Update обновляет профиль Telegram
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET username = $1, first_name = $2, last_name = $3, language_code = $4
		WHERE id = $5
	`

	affected, err := r.ExecAffected(
		ctx, query,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// Link привязывает Telegram-аккаунт к пользователю платформы
func (r *UserRepository) Link(ctx context.Context, userID int64, platformUserID string, role model.Role, apiToken string) error {
	query := `
		UPDATE users
		SET platform_user_id = $1, role = $2, api_token = $3
		WHERE id = $4
	`

	affected, err := r.ExecAffected(ctx, query, platformUserID, role, apiToken, userID)
	if err != nil {
		return fmt.Errorf("link user: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// Unlink удаляет привязку и токен
func (r *UserRepository) Unlink(ctx context.Context, userID int64) error {
	query := `
		UPDATE users
		SET platform_user_id = '', role = 'student', api_token = ''
		WHERE id = $1
	`

	if _, err := r.ExecAffected(ctx, query, userID); err != nil {
		return fmt.Errorf("unlink user: %w", err)
	}

	return nil
}
