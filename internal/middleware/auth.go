package middleware

import (
	"net/http"
	"strings"

	"github.com/mlahtinen/paced/internal/auth"
	"github.com/mlahtinen/paced/internal/store"
)

// RequireAuth validates the Authorization bearer token and resolves the
// caller to a local user row, provisioning one on first sight. The resolved
// identity is placed on the request context.
func RequireAuth(verifier *auth.Verifier, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			id, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := users.GetOrCreate(id.ExternalID, id.Name, id.Email, id.ImageURL)
			if err != nil {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			id.UserID = user.ID

			ctx := auth.WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
