package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/hlog"

	"game-api-server/internal/api/response"
	"game-api-server/internal/errcode"
)

// Recovery recovers from panics in handlers and answers with
// InternalServerError. It must run inside StatusRewrite so the envelope is
// rewritten like any other.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				hlog.FromRequest(r).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("Recovered from panic in handler")
				response.Write(w, errcode.InternalServerError, nil)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
