package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"game-api-server/internal/api/response"
	"game-api-server/internal/errcode"
	"game-api-server/internal/pkg/lock"
)

// SessionLocker takes the per-user lease.
type SessionLocker interface {
	Lock(ctx context.Context, userID int64) (*lock.Lease, error)
}

// SingleFlight lets at most one authenticated request per user run at a
// time. A request arriving while another one of the same user is in flight
// is rejected at once with AlreadyRequestInProgress. The lease is renewed
// every renewInterval while the handler runs and released afterwards. When
// the release fails the client gets FailedReleaseLock, even though the
// handler's writes are already committed.
func SingleFlight(locker SessionLocker, renewInterval time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFrom(r.Context())
			if !ok || !lockRequired(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}

			logger := hlog.FromRequest(r)
			lease, err := locker.Lock(r.Context(), sess.UserID)
			if err != nil {
				if errors.Is(err, lock.ErrLockHeld) {
					response.Write(w, errcode.AlreadyRequestInProgress, nil)
					return
				}
				logger.Error().Err(err).Int64("user_id", sess.UserID).Msg("Failed to acquire user lock")
				response.Write(w, errcode.FailedAcquireLock, nil)
				return
			}

			buf := newResponseBuffer()
			var releaseErr error
			func() {
				keepCtx, stop := context.WithCancel(r.Context())
				renewed := make(chan struct{})
				go func() {
					defer close(renewed)
					if err := lease.KeepAlive(keepCtx, renewInterval); err != nil {
						logger.Warn().Err(err).Int64("user_id", sess.UserID).Msg("User lock lost while handling request")
					}
				}()

				defer func() {
					stop()
					<-renewed
					releaseErr = lease.Release(context.WithoutCancel(r.Context()))
				}()
				next.ServeHTTP(buf, r)
			}()

			if releaseErr != nil {
				logger.Error().Err(releaseErr).Int64("user_id", sess.UserID).Msg("Failed to release user lock")
				response.Write(w, errcode.FailedReleaseLock, nil)
				return
			}
			buf.flush(w)
		})
	}
}
