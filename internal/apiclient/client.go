package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	// maxAttempts общее число попыток для транспортных ошибок
	maxAttempts = 3

	defaultBackoffBase    = 200 * time.Millisecond
	defaultRateLimitDelay = 5 * time.Second
	defaultTimeout        = 15 * time.Second
)

// Observer получает события о повторах запросов (метрики)
type Observer interface {
	TransportRetry(method, path string)
	RateLimitRetry(path string)
}

type noopObserver struct{}

func (noopObserver) TransportRetry(string, string) {}
func (noopObserver) RateLimitRetry(string)         {}

// Client REST клиент backend платформы
type Client struct {
	baseURL        string
	httpClient     *http.Client
	serviceToken   string
	backoffBase    time.Duration
	rateLimitDelay time.Duration
	validate       *validator.Validate
	observer       Observer
	logger         *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithServiceToken токен бота, используется когда в контексте нет токена пользователя
func WithServiceToken(token string) Option {
	return func(c *Client) { c.serviceToken = token }
}

func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) { c.backoffBase = d }
}

// WithRateLimitDelay пауза перед единственным повтором после 429
func WithRateLimitDelay(d time.Duration) Option {
	return func(c *Client) { c.rateLimitDelay = d }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New создаёт клиент backend
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        baseURL,
		httpClient:     &http.Client{Timeout: defaultTimeout},
		backoffBase:    defaultBackoffBase,
		rateLimitDelay: defaultRateLimitDelay,
		validate:       validator.New(),
		observer:       noopObserver{},
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenKey struct{}

// WithToken кладёт bearer токен пользователя в контекст
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// request описание одного вызова API
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	out    any

	// idempotent добавляет Idempotency-Key (одинаковый для всех повторов)
	idempotent bool
	// retryRateLimit разрешает один отложенный повтор после 429
	retryRateLimit bool
}

func (c *Client) do(ctx context.Context, req request) error {
	var payload []byte
	if req.body != nil {
		if err := c.validateBody(req.body); err != nil {
			return fmt.Errorf("%s %s: invalid request: %w", req.method, req.path, err)
		}
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s %s: marshal body: %w", req.method, req.path, err)
		}
		payload = data
	}

	var idempotencyKey string
	if req.idempotent {
		idempotencyKey = uuid.NewString()
	}

	rateLimitRetried := false
	for {
		err := c.withRetry(ctx, req, func(ctx context.Context) error {
			return c.send(ctx, req, payload, idempotencyKey)
		})
		if err == nil {
			return nil
		}

		if errors.Is(err, ErrRateLimited) && req.retryRateLimit && !rateLimitRetried {
			rateLimitRetried = true
			c.observer.RateLimitRetry(req.path)
			c.logger.Warn("Rate limited, retrying once",
				zap.String("path", req.path),
				zap.Duration("delay", c.rateLimitDelay))

			if err := sleep(ctx, c.rateLimitDelay); err != nil {
				return err
			}
			continue
		}

		return err
	}
}

// withRetry повторяет только транспортные ошибки, 4xx/5xx возвращаются сразу
func (c *Client) withRetry(ctx context.Context, req request, f retry.RetryFunc) error {
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(c.backoffBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := f(ctx)
		if err != nil && IsTransport(err) {
			c.observer.TransportRetry(req.method, req.path)
			c.logger.Warn("Transport error",
				zap.String("method", req.method),
				zap.String("path", req.path),
				zap.Error(err))
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) send(ctx context.Context, req request, payload []byte, idempotencyKey string) error {
	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if token := c.token(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Method:     req.method,
			Path:       req.path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	if req.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, req.out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.method, req.path, err)
	}

	return nil
}

func (c *Client) token(ctx context.Context) string {
	if token := tokenFrom(ctx); token != "" {
		return token
	}
	return c.serviceToken
}

func (c *Client) validateBody(body any) error {
	v := reflect.ValueOf(body)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	return c.validate.Struct(body)
}

// errorMessage достаёт message/error из тела ошибки backend
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
