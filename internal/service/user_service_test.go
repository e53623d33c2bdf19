package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

type memoryUserRepo struct {
	users  map[int64]*model.User
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]*model.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, user *model.User) error {
	r.nextID++
	user.ID = r.nextID
	c := *user
	r.users[user.TelegramID] = &c
	return nil
}

func (r *memoryUserRepo) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	u, ok := r.users[telegramID]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *memoryUserRepo) byID(id int64) *model.User {
	for _, u := range r.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (r *memoryUserRepo) Update(_ context.Context, user *model.User) error {
	u := r.byID(user.ID)
	u.Username, u.FirstName, u.LastName, u.LanguageCode = user.Username, user.FirstName, user.LastName, user.LanguageCode
	return nil
}

func (r *memoryUserRepo) Link(_ context.Context, userID int64, platformUserID string, role model.Role, apiToken string) error {
	u := r.byID(userID)
	u.PlatformUserID, u.Role, u.APIToken = platformUserID, role, apiToken
	return nil
}

func (r *memoryUserRepo) Unlink(_ context.Context, userID int64) error {
	u := r.byID(userID)
	u.PlatformUserID, u.Role, u.APIToken = "", model.RoleStudent, ""
	return nil
}

type fakeAuth struct {
	codes map[string]apiclient.LinkTelegramResponse
}

func (a *fakeAuth) LinkTelegram(_ context.Context, req apiclient.LinkTelegramRequest) (*apiclient.LinkTelegramResponse, error) {
	resp, ok := a.codes[req.Code]
	if !ok {
		return nil, apiclient.ErrNotFound
	}
	return &resp, nil
}

func TestUserService_RegisterAndLink(t *testing.T) {
	repo := newMemoryUserRepo()
	auth := &fakeAuth{codes: map[string]apiclient.LinkTelegramResponse{
		"ABC123": {User: apiclient.LinkedUser{ID: "t1", Role: model.RoleTeacher, Name: "Marie"}, Token: "jwt"},
	}}
	svc := NewUserService(repo, auth, zap.NewNop())
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, 42, "marie", "Marie", "", "fr")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, user.Role)
	assert.False(t, user.IsLinked())

	_, err = svc.RequireLinked(ctx, 42)
	assert.ErrorIs(t, err, ErrNotLinked)

	// Повторная регистрация обновляет профиль
	again, err := svc.RegisterUser(ctx, 42, "marie_d", "Marie", "D", "fr")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	_, err = svc.Link(ctx, user, "WRONG")
	assert.ErrorIs(t, err, apiclient.ErrNotFound)
	_, err = svc.Link(ctx, user, "  ")
	assert.Error(t, err)

	linked, err := svc.Link(ctx, user, " ABC123 ")
	require.NoError(t, err)
	assert.True(t, linked.IsTeacher())

	stored, err := svc.RequireLinked(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "t1", stored.PlatformUserID)
	assert.Equal(t, "jwt", stored.APIToken)
	assert.Equal(t, "marie_d", stored.Username)

	require.NoError(t, svc.Unlink(ctx, stored))
	_, err = svc.RequireLinked(ctx, 42)
	assert.ErrorIs(t, err, ErrNotLinked)
}
