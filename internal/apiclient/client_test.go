package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// flakyTransport отдаёт транспортную ошибку первые failures вызовов
func flakyTransport(failures int32, calls *int32) http.RoundTripper {
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		n := atomic.AddInt32(calls, 1)
		if n <= failures {
			return nil, syscall.ECONNRESET
		}
		return http.DefaultTransport.RoundTrip(r)
	})
}

type countingObserver struct {
	transport int32
	rateLimit int32
}

func (o *countingObserver) TransportRetry(string, string) { atomic.AddInt32(&o.transport, 1) }
func (o *countingObserver) RateLimitRetry(string)         { atomic.AddInt32(&o.rateLimit, 1) }

func newTestClient(srv *httptest.Server, opts ...Option) *Client {
	base := []Option{
		WithBackoffBase(time.Millisecond),
		WithRateLimitDelay(10 * time.Millisecond),
	}
	return New(srv.URL, append(base, opts...)...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_RetriesTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.Course{{ID: "c1", Title: "Go"}})
	}))
	defer srv.Close()

	var calls int32
	obs := &countingObserver{}
	c := newTestClient(srv,
		WithHTTPClient(&http.Client{Transport: flakyTransport(2, &calls)}),
		WithObserver(obs),
	)

	courses, err := c.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Go", courses[0].Title)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	assert.EqualValues(t, 2, atomic.LoadInt32(&obs.transport))
}

func TestClient_GivesUpAfterThreeAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not reach the server")
	}))
	defer srv.Close()

	var calls int32
	c := newTestClient(srv, WithHTTPClient(&http.Client{Transport: flakyTransport(10, &calls)}))

	_, err := c.ListSessions(context.Background(), SessionFilter{Teacher: "t1"})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.EqualValues(t, maxAttempts, atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryHTTPErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError},
		{name: "bad request", status: http.StatusBadRequest},
		{name: "not found", status: http.StatusNotFound, wantErr: ErrNotFound},
		{name: "forbidden", status: http.StatusForbidden, wantErr: ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				writeJSON(w, tt.status, map[string]string{"message": "nope"})
			}))
			defer srv.Close()

			c := newTestClient(srv)
			err := c.DeleteSession(context.Background(), "s1")

			require.Error(t, err)
			assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, "nope", Message(err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestClient_RateLimitRetriesOnceAfterDelay(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"message": "slow down"})
			return
		}
		writeJSON(w, http.StatusOK, []model.Course{{ID: "c1"}})
	}))
	defer srv.Close()

	obs := &countingObserver{}
	c := newTestClient(srv, WithRateLimitDelay(50*time.Millisecond), WithObserver(obs))

	start := time.Now()
	courses, err := c.ListCourses(context.Background())
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
	assert.EqualValues(t, 1, atomic.LoadInt32(&obs.rateLimit))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestClient_PersistentRateLimitSurfaces(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv)

	_, err := c.ListCourses(context.Background())
	require.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestClient_RateLimitNotRetriedOutsideCatalog(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv)

	_, err := c.ListSessions(context.Background(), SessionFilter{Student: "s1"})
	require.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestClient_HeadersAndQuery(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sessions":
			if r.Method == http.MethodGet {
				assert.Equal(t, "t1", r.URL.Query().Get("teacher"))
				assert.Equal(t, "2026-10-19", r.URL.Query().Get("date"))
				assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
				writeJSON(w, http.StatusOK, []model.Session{})
				return
			}
			assert.Equal(t, "Bearer service-token", r.Header.Get("Authorization"))
			keys = append(keys, r.Header.Get("Idempotency-Key"))
			writeJSON(w, http.StatusCreated, model.Session{ID: "s1"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv, WithServiceToken("service-token"))

	ctx := WithToken(context.Background(), "user-token")
	date := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	_, err := c.ListSessions(ctx, SessionFilter{Teacher: "t1", Date: date})
	require.NoError(t, err)

	start := date.Add(9 * time.Hour)
	session, err := c.CreateSession(context.Background(), CreateSessionRequest{
		Course:    "c1",
		Teacher:   "t1",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    model.SessionStatusScheduled,
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	require.Len(t, keys, 1)
	assert.NotEmpty(t, keys[0])
}

func TestClient_IdempotencyKeyStableAcrossRetries(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.PaymentIntent{ID: "pi_1", ClientSecret: "secret"})
	}))
	defer srv.Close()

	var calls int32
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("connection reset by peer")
		}
		return http.DefaultTransport.RoundTrip(r)
	})
	c := newTestClient(srv, WithHTTPClient(&http.Client{Transport: transport}))

	intent, err := c.CreatePaymentIntent(context.Background(), CreatePaymentIntentRequest{
		Amount:   4500,
		Currency: "eur",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.EqualValues(t, 4500, intent.Amount)
	require.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1])
}

func TestClient_InvalidBodyIsRejectedLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid request must not be sent")
	}))
	defer srv.Close()

	c := newTestClient(srv)

	_, err := c.CreatePaymentIntent(context.Background(), CreatePaymentIntentRequest{Amount: 0, Currency: "eur"})
	assert.Error(t, err)

	_, err = c.UpdateMeetingLink(context.Background(), "s1", "not a link")
	assert.Error(t, err)
}

func TestClient_ContextCancelStopsRateLimitWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv, WithRateLimitDelay(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ListQuizzes(ctx, "c1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
