package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ledger/internal/core"
	"ledger/internal/log"
)

type contextKey string

const (
	ownerContextKey contextKey = "ownerID"
	kindContextKey  contextKey = "kind"
)

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "missing bearer token", log.ErrorTypeAuth)
			return
		}
		ownerID, err := s.verifier.Verify(token)
		if err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected bearer token",
				log.FieldErrorType, log.ErrorTypeAuth, log.FieldError, err)
			writeMessage(w, http.StatusUnauthorized, "invalid token", log.ErrorTypeAuth)
			return
		}

		ctx := context.WithValue(r.Context(), ownerContextKey, ownerID)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldOwnerID, ownerID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func ownerID(ctx context.Context) string {
	id, _ := ctx.Value(ownerContextKey).(string)
	return id
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	if s.requestTimeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func kindMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind, err := core.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			writeMessage(w, http.StatusNotFound, "route not found", log.ErrorTypeNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), kindContextKey, kind)))
	})
}

func kindFrom(ctx context.Context) core.Kind {
	k, _ := ctx.Value(kindContextKey).(core.Kind)
	return k
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldErrorType, log.ErrorTypeRateLimit)
	writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded, try again later", log.ErrorTypeRateLimit)
}
