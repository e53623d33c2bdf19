package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// SecretHeader заголовок с общим секретом платёжного webhook
const SecretHeader = "X-Webhook-Secret"

const maxBodySize = 64 << 10

// PaymentHandler принимает результат оплаты
type PaymentHandler interface {
	HandlePaymentResult(ctx context.Context, result model.PaymentResult) error
}

type paymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
	Status          string `json:"status" validate:"required,oneof=succeeded failed"`
	Error           *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Server HTTP: webhook оплаты, health-check и метрики
type Server struct {
	srv      *http.Server
	payments PaymentHandler
	secret   []byte
	validate *validator.Validate
	logger   *zap.Logger
}

func NewServer(addr, secret string, payments PaymentHandler, metrics http.Handler, logger *zap.Logger) *Server {
	s := &Server{
		payments: payments,
		secret:   []byte(secret),
		validate: validator.New(),
		logger:   logger,
	}

	r := httprouter.New()
	r.GET("/ping", s.ping)
	r.POST("/webhooks/payment", s.payment)
	if metrics != nil {
		r.Handler(http.MethodGet, "/metrics", metrics)
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler корневой обработчик (для тестов)
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run слушает до отмены ctx, затем graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Webhook server listening", zap.String("addr", s.srv.Addr))

	errChan := make(chan error, 1)
	go func() { errChan <- s.srv.ListenAndServe() }()

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown: %w", err)
		}
		s.logger.Info("Webhook server stopped")
		return nil
	}
}

func (s *Server) ping(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if _, err := w.Write([]byte("OK")); err != nil {
		s.logger.Warn("Failed to write ping response", zap.Error(err))
	}
}

func (s *Server) payment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), s.secret) != 1 {
		s.logger.Warn("Payment webhook with invalid secret", zap.String("remote", r.RemoteAddr))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := model.PaymentResult{
		PaymentIntentID: req.PaymentIntentID,
		Status:          model.PaymentStatus(req.Status),
		Error:           req.Error,
	}

	err := s.payments.HandlePaymentResult(r.Context(), result)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, service.ErrUnknownPayment):
		http.Error(w, "unknown payment intent", http.StatusNotFound)
	default:
		s.logger.Error("Failed to handle payment result",
			zap.String("payment_intent_id", req.PaymentIntentID),
			zap.Error(err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
