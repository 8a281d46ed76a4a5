package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go-firestore-estate/internal/auth"
	"go-firestore-estate/internal/model"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type ctxKey int

const identityKey ctxKey = iota

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// authenticate attaches the identity of a valid bearer token. Requests without a token pass
// through anonymously; a rejected token is answered with 401.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || h.tokens == nil {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := h.tokens.Verify(r.Context(), token)
		if err != nil {
			log.Debug().Err(err).Msg("bearer token rejected")
			writeFailure(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, &identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityKey).(*model.Identity)
	return identity
}

func requireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identityFrom(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin resolves the caller's role before anything else runs, so no admin handler is
// reached while the role is unknown.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := identityFrom(r.Context())
		if identity == nil {
			writeError(w, http.StatusUnauthorized, "sign in required")
			return
		}

		state := auth.Resolve(r.Context(), h.users, identity)
		switch state.Access() {
		case auth.AccessGranted:
			next.ServeHTTP(w, r)
		case auth.AccessDenied:
			log.Warn().Msgf("admin access denied, uid: %s", identity.UID)
			writeError(w, http.StatusForbidden, "admin access required")
		default:
			writeError(w, http.StatusServiceUnavailable, "access could not be resolved")
		}
	})
}
