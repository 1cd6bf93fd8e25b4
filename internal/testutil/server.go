package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"game-api-server/internal/api"
)

// Server is the full HTTP pipeline over an Env.
type Server struct {
	*Env
	HTTP *httptest.Server
}

// NewServer starts an httptest server with the production router.
func NewServer(t testing.TB) *Server {
	t.Helper()
	env := NewEnv(t)
	router := api.NewRouter(api.Options{
		Services:          env.Services,
		Sessions:          env.Sessions,
		Logger:            zerolog.Nop(),
		LockRenewInterval: time.Second,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &Server{Env: env, HTTP: srv}
}

// Reply is a decoded response: the HTTP status plus the raw JSON body.
type Reply struct {
	Status int
	Body   gjson.Result
}

// Code is the body's sub-code after status rewriting.
func (r Reply) Code() int {
	return int(r.Body.Get("code").Int())
}

// Post sends body as JSON to path.
func (s *Server) Post(t testing.TB, path string, body any) Reply {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := s.HTTP.Client().Post(s.HTTP.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(out), "invalid JSON: %s", out)
	return Reply{Status: resp.StatusCode, Body: gjson.ParseBytes(out)}
}

// Client carries a logged-in user's credentials into every request body.
type Client struct {
	srv       *Server
	Email     string
	UserID    int64
	AuthToken string
}

// RegisterAndLogin creates an account through the API and logs it in.
func (s *Server) RegisterAndLogin(t testing.TB, email, password string) *Client {
	t.Helper()
	creds := map[string]any{"email": email, "password": password}

	reply := s.Post(t, "/registerAccount", creds)
	require.Equal(t, http.StatusOK, reply.Status, reply.Body.Raw)

	reply = s.Post(t, "/login", creds)
	require.Equal(t, http.StatusOK, reply.Status, reply.Body.Raw)
	token := reply.Body.Get("authToken").String()
	require.NotEmpty(t, token)

	return &Client{
		srv:       s,
		Email:     email,
		UserID:    reply.Body.Get("userId").Int(),
		AuthToken: token,
	}
}

// Post sends fields plus the client's email and authToken to path.
func (c *Client) Post(t testing.TB, path string, fields map[string]any) Reply {
	t.Helper()
	body := map[string]any{"email": c.Email, "authToken": c.AuthToken}
	for k, v := range fields {
		body[k] = v
	}
	return c.srv.Post(t, path, body)
}
