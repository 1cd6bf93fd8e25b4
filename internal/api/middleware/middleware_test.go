package middleware_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"game-api-server/internal/api/middleware"
	"game-api-server/internal/api/response"
	"game-api-server/internal/errcode"
	"game-api-server/internal/pkg/kv"
	"game-api-server/internal/session"
)

var publicPrefixes = []string{"/login", "/registerAccount", "/health"}

type fixture struct {
	kv       *kv.MemoryStore
	sessions *session.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := kv.NewMemoryStore()
	sessions := session.NewStore(store, time.Hour, 2*time.Second)
	require.NoError(t, sessions.Register(context.Background(), &session.Session{
		AccountID: 1,
		UserID:    7,
		AuthToken: "token-7",
		Email:     "a@b.com",
		CreatedAt: time.Now(),
	}))
	return &fixture{kv: store, sessions: sessions}
}

func (f *fixture) pipeline(h http.Handler) http.Handler {
	h = middleware.SingleFlight(f.sessions, 50*time.Millisecond)(h)
	h = middleware.Authenticate(f.sessions, publicPrefixes)(h)
	h = middleware.Recovery()(h)
	return middleware.StatusRewrite()(h)
}

type envelope struct {
	Code int    `json:"code"`
	Echo string `json:"echo,omitempty"`
}

func call(t *testing.T, h http.Handler, path, body string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	response.OK(w, nil)
})

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	h := f.pipeline(okHandler)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   errcode.Code
	}{
		{"public path needs no session", "/login", `{}`, http.StatusOK, errcode.Success},
		{"missing token", "/gameData", `{"email":"a@b.com"}`, http.StatusBadRequest, errcode.FailedParseAuthorizeInfo},
		{"non-string token", "/gameData", `{"email":"a@b.com","authToken":7}`, http.StatusBadRequest, errcode.FailedParseAuthorizeInfo},
		{"not json", "/gameData", `email=a@b.com`, http.StatusBadRequest, errcode.FailedParseAuthorizeInfo},
		{"unknown session", "/gameData", `{"email":"x@b.com","authToken":"token-7"}`, http.StatusUnauthorized, errcode.NotFoundSession},
		{"wrong token", "/gameData", `{"email":"a@b.com","authToken":"token-8"}`, http.StatusUnauthorized, errcode.FailedAuthorizeTokenVerify},
		{"valid", "/gameData", `{"email":"a@b.com","authToken":"token-7"}`, http.StatusOK, errcode.Success},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, h, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode.Sub(), env.Code)
		})
	}
}

func TestAuthenticateRestoresBodyAndAttachesSession(t *testing.T) {
	f := newFixture(t)
	h := f.pipeline(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.SessionFrom(r.Context())
		require.True(t, ok)
		assert.Equal(t, int64(7), sess.UserID)

		var req struct {
			Echo string `json:"echo"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		response.OK(w, envelope{Echo: req.Echo})
	}))

	status, env := call(t, h, "/gameData", `{"email":"a@b.com","authToken":"token-7","echo":"hi"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hi", env.Echo)
}

func TestSingleFlightFailsFast(t *testing.T) {
	f := newFixture(t)
	entered := make(chan struct{})
	proceed := make(chan struct{})
	h := f.pipeline(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-proceed
		response.OK(w, nil)
	}))
	body := `{"email":"a@b.com","authToken":"token-7"}`

	var wg sync.WaitGroup
	var firstStatus int
	wg.Add(1)
	go func() {
		defer wg.Done()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gameData", strings.NewReader(body)))
		firstStatus = rec.Code
	}()

	<-entered
	status, env := call(t, h, "/gameData", body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, errcode.AlreadyRequestInProgress.Sub(), env.Code)

	close(proceed)
	wg.Wait()
	assert.Equal(t, http.StatusOK, firstStatus)

	status, _ = call(t, f.pipeline(okHandler), "/gameData", body)
	assert.Equal(t, http.StatusOK, status, "the lock is released after the first request")
}

func TestSingleFlightRenewsBeyondTTL(t *testing.T) {
	f := newFixture(t)
	h := f.pipeline(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2500 * time.Millisecond)
		response.OK(w, nil)
	}))

	status, env := call(t, h, "/gameData", `{"email":"a@b.com","authToken":"token-7"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, env.Code)
}

func TestSingleFlightReportsLostLock(t *testing.T) {
	f := newFixture(t)
	h := f.pipeline(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, f.kv.Del(r.Context(), "lock:user:7"))
		response.OK(w, nil)
	}))

	status, env := call(t, h, "/gameData", `{"email":"a@b.com","authToken":"token-7"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, errcode.FailedReleaseLock.Sub(), env.Code)
}

func TestRecovery(t *testing.T) {
	f := newFixture(t)
	h := f.pipeline(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	status, env := call(t, h, "/gameData", `{"email":"a@b.com","authToken":"token-7"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, errcode.InternalServerError.Sub(), env.Code)

	status, _ = call(t, f.pipeline(okHandler), "/gameData", `{"email":"a@b.com","authToken":"token-7"}`)
	assert.Equal(t, http.StatusOK, status, "the lock is released after a panic")
}

func TestStatusRewriteRoundTrip(t *testing.T) {
	assert.Equal(t, errcode.Code(409003), errcode.New(409, 3))

	rapid.Check(t, func(rt *rapid.T) {
		status := rapid.IntRange(200, 599).Draw(rt, "status")
		sub := rapid.IntRange(0, 999).Draw(rt, "sub")
		recorded := rapid.Bool().Draw(rt, "recorded")
		code := errcode.New(status, sub)

		h := middleware.StatusRewrite()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if recorded {
				response.Write(w, code, envelope{Echo: "x"})
				return
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = io.WriteString(w, `{"echo":"x","code":`+strconv.Itoa(int(code))+`}`)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		var env envelope
		require.NoError(rt, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(rt, status, rec.Code)
		assert.Equal(rt, sub, env.Code)
		assert.Equal(rt, "x", env.Echo)
	})
}

func TestStatusRewritePassesThrough(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"plain text", "text/plain", "OK"},
		{"json without code", "application/json", `{"ok":true}`},
		{"string code", "application/json", `{"code":"409003"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := middleware.StatusRewrite()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = io.WriteString(w, tt.body)
			}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}
