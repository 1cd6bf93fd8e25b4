// Package middleware implements the request pipeline: session
// authentication, per-user single flight and the response status rewrite,
// plus recovery and request logging.
package middleware

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/tidwall/gjson"

	"game-api-server/internal/api/response"
	"game-api-server/internal/errcode"
	"game-api-server/internal/session"
)

// MaxBodyBytes bounds request bodies read by the pipeline.
const MaxBodyBytes = 1 << 20

type contextKey string

const (
	sessionKey      contextKey = "session"
	lockRequiredKey contextKey = "lockRequired"
)

// SessionFinder looks sessions up by email.
type SessionFinder interface {
	Get(ctx context.Context, email string) (*session.Session, error)
}

// SessionFrom returns the session Authenticate attached to ctx.
func SessionFrom(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*session.Session)
	return sess, ok
}

// WithSession attaches sess to ctx as Authenticate does.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey, sess)
	return context.WithValue(ctx, lockRequiredKey, true)
}

func lockRequired(ctx context.Context) bool {
	required, _ := ctx.Value(lockRequiredKey).(bool)
	return required
}

// Authenticate resolves the session named by the body's email field and
// checks the body's authToken against it. Paths under a public prefix pass
// through without a session. The body is restored for the handler.
func Authenticate(sessions SessionFinder, publicPrefixes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path, publicPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
			if err != nil {
				response.Write(w, errcode.FailedParseAuthorizeInfo, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(raw))

			email, token, ok := authFields(raw)
			if !ok {
				response.Write(w, errcode.FailedParseAuthorizeInfo, nil)
				return
			}

			sess, err := sessions.Get(r.Context(), email)
			if err != nil {
				if errors.Is(err, session.ErrSessionNotFound) {
					response.Write(w, errcode.NotFoundSession, nil)
					return
				}
				hlog.FromRequest(r).Error().Err(err).Str("email", email).Msg("Session lookup failed")
				response.Write(w, errcode.FailedLookupSession, nil)
				return
			}

			if subtle.ConstantTimeCompare([]byte(sess.AuthToken), []byte(token)) != 1 {
				response.Write(w, errcode.FailedAuthorizeTokenVerify, nil)
				return
			}

			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Int64("user_id", sess.UserID)
			})
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// authFields extracts email and authToken; both must be non-empty strings.
func authFields(body []byte) (email, token string, ok bool) {
	if !gjson.ValidBytes(body) {
		return "", "", false
	}
	fields := gjson.GetManyBytes(body, "email", "authToken")
	if fields[0].Type != gjson.String || fields[1].Type != gjson.String {
		return "", "", false
	}
	email, token = fields[0].String(), fields[1].String()
	return email, token, email != "" && token != ""
}

func isPublic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
