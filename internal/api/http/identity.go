package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/actor"
)

// Identity headers set by the authenticating gateway in front of this service.
const (
	headerUserID    = "X-User-ID"
	headerUserRoles = "X-User-Roles"
)

type actorContextKey struct{}

func withActor(ctx context.Context, a actor.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, a)
}

func actorFromContext(ctx context.Context) (actor.Actor, bool) {
	a, ok := ctx.Value(actorContextKey{}).(actor.Actor)
	return a, ok
}

// requireActor builds the actor from the identity headers.
func (s *Server) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(headerUserID))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid "+headerUserID)
			return
		}
		roles, err := actor.ParseRoles(r.Header.Get(headerUserRoles))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor.New(id, roles...))))
	})
}

func (s *Server) requireRole(role actor.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := actorFromContext(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
				return
			}
			if !a.Has(role) {
				respondError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
