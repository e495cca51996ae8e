package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const adminKey ctxKey = "admin_identity"

func AdminFromContext(ctx context.Context) (AdminIdentity, bool) {
	v := ctx.Value(adminKey)
	id, ok := v.(AdminIdentity)
	return id, ok
}

// RequireAdmin accepts either an admin session token or the scheduler's
// pre-shared secret, and stores the resulting AdminIdentity in the request
// context for the handler to thread into service calls.
func RequireAdmin(jwtSvc *JWT, cronSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(h, "Bearer ")

			var admin AdminIdentity
			if cronSecret != "" && token == cronSecret {
				admin = Scheduler()
			} else {
				sub, err := jwtSvc.Verify(token)
				if err != nil {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				admin = AdminIdentity{Subject: sub, Via: ViaSession}
			}

			ctx := context.WithValue(r.Context(), adminKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
