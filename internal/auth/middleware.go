package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"shelfdesk/internal/backend"
	"shelfdesk/internal/web"
)

type userKey struct{}

// UserFromContext returns the authenticated account placed on the
// context by RequireSession.
func UserFromContext(ctx context.Context) (*backend.User, bool) {
	user, ok := ctx.Value(userKey{}).(*backend.User)
	return user, ok
}

// RequireSession rejects requests without a valid bearer token before
// any handler logic runs. On success the collaborator-verified user and
// the raw token ride on the request context.
func RequireSession(service Service, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				web.RespondError(w, log, web.Unauthorized(""))
				return
			}

			ctx := backend.WithToken(r.Context(), token)
			user, err := service.Verify(ctx)
			if err != nil {
				web.RespondError(w, log, web.Unauthorized(""))
				return
			}

			ctx = context.WithValue(ctx, userKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
