package common

import (
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/callbacktypes"
)

func TestIsMessageNotModifiedError(t *testing.T) {
	assert.True(t, IsMessageNotModifiedError(errors.New("bad request, Bad Request: message is not modified")))
	assert.False(t, IsMessageNotModifiedError(errors.New("bad request, Bad Request: message to edit not found")))
	assert.False(t, IsMessageNotModifiedError(nil))
}

func TestRefresh_LogsEditFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := &callbacktypes.Handler{Logger: zap.New(core)}

	// Callback без сообщения: редактировать нечего
	callback := &models.CallbackQuery{ID: "cb1", From: models.User{ID: 1001}, Data: "bk_slot:0:0900"}
	hc := NewHandlerContext(context.Background(), nil, callback, h)

	hc.Refresh(Screen{Text: "Créneaux"})

	entries := logs.FilterMessage("Failed to refresh message").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1001), fields["telegram_id"])
	assert.Equal(t, "bk_slot:0:0900", fields["data"])
	assert.Equal(t, ErrNoMessage.Error(), fields["error"])
}
