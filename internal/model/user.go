package model

import "time"

// Role роль пользователя на платформе
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// User связывает Telegram-аккаунт с пользователем платформы
type User struct {
	ID             int64     `json:"id"`
	TelegramID     int64     `json:"telegram_id"`
	Username       string    `json:"username"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	LanguageCode   string    `json:"language_code"`
	PlatformUserID string    `json:"platform_user_id"` // пусто, пока аккаунт не привязан
	Role           Role      `json:"role"`
	APIToken       string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsLinked проверяет привязан ли аккаунт к платформе
func (u *User) IsLinked() bool {
	return u.PlatformUserID != ""
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
