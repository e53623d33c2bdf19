package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutoring_bot/internal/controller/state"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const linkCodePrompt = "🔗 <b>Liaison du compte</b>\n\n" +
	"Générez un code de liaison dans votre profil sur la plateforme, puis envoyez-le ici.\n\n" +
	"/cancel pour annuler."

// HandleStart обрабатывает команду /start, в том числе deep link "/start CODE"
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	chatID := update.Message.Chat.ID

	user, err := h.userService.RegisterUser(
		ctx,
		from.ID,
		from.Username,
		from.FirstName,
		from.LastName,
		from.LanguageCode,
	)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Une erreur est survenue lors de l'inscription. Réessayez plus tard.")
		return
	}

	h.stateManager.ClearState(from.ID)

	if code := startPayload(update.Message.Text); code != "" {
		h.linkAccount(ctx, b, chatID, user, code)
		return
	}

	h.sendMessage(ctx, b, chatID, greeting(from.FirstName, from.Username)+"\n"+
		"Ce bot vous permet de réserver vos cours, suivre vos séances et passer vos quiz.")

	if !user.IsLinked() {
		h.stateManager.Begin(from.ID, state.StateEnterLinkCode, nil)
		h.sendMessage(ctx, b, chatID, linkCodePrompt)
		return
	}

	h.sendScreen(ctx, b, chatID, common.MainMenu(user))
}

// linkAccount привязывает аккаунт по коду и показывает главное меню
func (h *Handlers) linkAccount(ctx context.Context, b *bot.Bot, chatID int64, user *model.User, code string) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > LinkCodeMaxLength || strings.ContainsAny(code, " \n\t") {
		h.sendError(ctx, b, chatID, "❌ Code de liaison invalide. Réessayez :")
		return
	}

	linked, err := h.userService.Link(ctx, user, code)
	if err != nil {
		h.logger.Warn("Failed to link account",
			zap.Int64("telegram_id", user.TelegramID),
			zap.Error(err))

		switch {
		case errors.Is(err, apiclient.ErrNotFound), errors.Is(err, apiclient.ErrUnauthorized):
			h.sendError(ctx, b, chatID, "❌ Code inconnu ou expiré. Générez-en un nouveau et réessayez :")
		default:
			h.sendError(ctx, b, chatID, common.ErrorMessage(err))
		}
		return
	}

	h.stateManager.ClearState(user.TelegramID)
	h.sendMessage(ctx, b, chatID, "✅ Compte lié avec succès !")
	h.sendScreen(ctx, b, chatID, common.MainMenu(linked))
}

// HandleMenu обрабатывает команду /menu
func (h *Handlers) HandleMenu(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	h.stateManager.ClearState(user.TelegramID)
	h.sendScreen(ctx, b, update.Message.Chat.ID, common.MainMenu(user))
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 <b>Aide</b>\n\n" +
		"<b>Élèves :</b>\n" +
		"/courses - Catalogue des cours et réservation\n" +
		"/mysessions - Mes prochaines séances\n" +
		"/quizzes - Mes quiz\n\n" +
		"<b>Enseignants :</b>\n" +
		"/teacher - Statistiques, séances, présence et quiz\n\n" +
		"<b>Administrateurs :</b>\n" +
		"/admin - Paiements, versements et modération\n\n" +
		"<b>Compte :</b>\n" +
		"/start CODE - Lier votre compte de la plateforme\n" +
		"/unlink - Délier le compte\n" +
		"/cancel - Annuler l'action en cours\n" +
		"/menu - Menu principal"

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Aucune action en cours.")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Action annulée.\n\n/help pour la liste des commandes.")
}

// HandleUnlink обрабатывает команду /unlink
func (h *Handlers) HandleUnlink(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireLinked(ctx, b, update)
	if !ok {
		return
	}

	// Незавершённая запись теряет токен, поэтому закрывается
	if _, err := h.bookingService.Close(ctx, user.TelegramID); err != nil && !errors.Is(err, service.ErrNoActiveBooking) {
		h.logger.Warn("Failed to close booking on unlink", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
	}
	h.stateManager.ClearState(user.TelegramID)

	if err := h.userService.Unlink(ctx, user); err != nil {
		h.sendFailure(ctx, b, update.Message.Chat.ID, err, "unlink")
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, "🔓 Compte délié. Utilisez /start CODE pour le lier à nouveau.")
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	// Игнорируем команды (они обрабатываются другими handlers)
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	h.logger.Debug("HandleTextMessage called",
		zap.Int64("telegram_id", telegramID),
		zap.String("state", string(currentState)))

	switch currentState {
	case state.StateEnterLinkCode:
		h.handleLinkCode(ctx, b, update)
	case state.StateEnterMeetingLink:
		h.handleMeetingLink(ctx, b, update)
	case state.StateCreateQuiz:
		h.handleCreateQuiz(ctx, b, update)
	case state.StateTakingQuiz:
		h.sendError(ctx, b, update.Message.Chat.ID, "📝 Répondez avec les boutons sous la question, ou /cancel pour abandonner.")
	default:
		h.sendMessage(ctx, b, update.Message.Chat.ID, "🤔 Je n'ai pas compris. /menu pour le menu principal, /help pour l'aide.")
	}
}
