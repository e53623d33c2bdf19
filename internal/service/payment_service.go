package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Freeeeeet/tutoring_bot/internal/apiclient"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentAPI вызовы backend к платёжному провайдеру
type PaymentAPI interface {
	CreatePaymentIntent(ctx context.Context, req apiclient.CreatePaymentIntentRequest) (*model.PaymentIntent, error)
	UpdatePaymentIntentMetadata(ctx context.Context, req apiclient.UpdatePaymentIntentMetadataRequest) error
}

const clientSecretPlaceholder = "{client_secret}"

// PaymentService мост к hosted-странице оплаты. Сам платёж обрабатывает провайдер,
// результат приходит в webhook.
type PaymentService struct {
	api         PaymentAPI
	currency    string
	checkoutURL string
	logger      *zap.Logger
}

func NewPaymentService(api PaymentAPI, currency, checkoutURL string, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		api:         api,
		currency:    currency,
		checkoutURL: checkoutURL,
		logger:      logger,
	}
}

// CreateIntent создаёт payment intent на стоимость курса с метаданными серии
func (s *PaymentService) CreateIntent(ctx context.Context, flow *Flow, seriesID uuid.UUID) (*model.PaymentIntent, error) {
	plan := flow.Plan()
	dates := make([]string, 0, len(plan))
	for _, p := range plan {
		dates = append(dates, p.Date.Format("2006-01-02")+" "+p.Slot.Start)
	}

	intent, err := s.api.CreatePaymentIntent(ctx, apiclient.CreatePaymentIntentRequest{
		Amount:   flow.Course.AmountInCents(),
		Currency: s.currency,
		Metadata: map[string]string{
			"courseId":  flow.Course.ID,
			"teacherId": flow.Course.Instructor,
			"studentId": flow.StudentID,
			"seriesId":  seriesID.String(),
			"dates":     strings.Join(dates, ","),
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment intent created",
		zap.String("payment_intent_id", intent.ID),
		zap.String("course_id", flow.Course.ID),
		zap.String("student_id", flow.StudentID),
		zap.Int64("amount", intent.Amount),
		zap.String("currency", intent.Currency),
	)

	return intent, nil
}

// Currency валюта платежей
func (s *PaymentService) Currency() string {
	return s.currency
}

// CheckoutURL ссылка на hosted-страницу оплаты для intent
func (s *PaymentService) CheckoutURL(intent *model.PaymentIntent) string {
	secret := url.QueryEscape(intent.ClientSecret)
	if strings.Contains(s.checkoutURL, clientSecretPlaceholder) {
		return strings.ReplaceAll(s.checkoutURL, clientSecretPlaceholder, secret)
	}

	sep := "?"
	if strings.Contains(s.checkoutURL, "?") {
		sep = "&"
	}
	return s.checkoutURL + sep + "client_secret=" + secret
}

// AttachSessions сохраняет ID созданных занятий в метаданных intent
func (s *PaymentService) AttachSessions(ctx context.Context, intentID string, sessions []model.Session) error {
	ids := make([]string, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}

	err := s.api.UpdatePaymentIntentMetadata(ctx, apiclient.UpdatePaymentIntentMetadataRequest{
		PaymentIntentID: intentID,
		Metadata: map[string]string{
			"sessionIds": strings.Join(ids, ","),
		},
	})
	if err != nil {
		return fmt.Errorf("attach sessions to payment: %w", err)
	}
	return nil
}
