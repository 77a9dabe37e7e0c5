package rest

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ctxKey string

const (
	userKey      ctxKey = "user"
	requestIDKey ctxKey = "requestID"
)

// UserFromContext returns the principal stored by the auth middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// RequestIDFromContext returns the id assigned to the current request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID tags each request with an id, reusing a client-supplied one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog logs one line per request after it completes.
func accessLog(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info(r.Context(), "http_request",
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"ip", r.RemoteAddr,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// recoverer turns a handler panic into a logged 500.
func recoverer(logger logging.Logger) func(http.Handler) http.Handler {
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
				logger.Error(r.Context(), "panic serving request",
					"request_id", RequestIDFromContext(r.Context()),
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				writeDetail(w, http.StatusInternalServerError, DetailServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// tokenFromHeader extracts the token of an "Authorization: Token <value>"
// header. On failure detail holds the message for the 401 body.
func tokenFromHeader(h string) (token, detail string) {
	parts := strings.Fields(h)
	if len(parts) == 0 || !strings.EqualFold(parts[0], common.TokenKeyword) {
		return "", DetailNotProvided
	}
	switch len(parts) {
	case 1:
		return "", DetailNoCredentials
	case 2:
		return parts[1], ""
	default:
		return "", DetailTokenSpaces
	}
}

// requireUser rejects requests without a valid token and stores the
// authenticated user in the request context.
func requireUser(a Authenticator, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, detail := tokenFromHeader(r.Header.Get(common.AuthorizationHeaderName))
			if detail != "" {
				writeUnauthorized(w, detail)
				return
			}

			user, err := a.Authenticate(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
				writeUnauthorized(w, DetailInvalidToken)
				return
			case errors.Is(err, common.ErrorUnauthorized):
				writeUnauthorized(w, DetailUserInactive)
				return
			default:
				logger.Error(r.Context(), "authentication failed",
					"request_id", RequestIDFromContext(r.Context()),
					"error", err.Error(),
				)
				writeDetail(w, http.StatusInternalServerError, DetailServerError)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
