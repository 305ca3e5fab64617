package middleware

import (
	"context"
	"net/http"
	"strings"

	"ctfbot/internal/common"
	"ctfbot/internal/common/security"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const ServiceCtxKey contextKey = "service"

// Authenticator gates the interactions webhook: only a caller holding a
// valid service token (the gateway connector) may deliver commands.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())

		if err != nil {
			if strings.Contains(err.Error(), "token not found") || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}

		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		service, err := security.GetServiceFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), ServiceCtxKey, service)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetServiceFromContext(ctx context.Context) (string, bool) {
	service, ok := ctx.Value(ServiceCtxKey).(string)
	return service, ok
}
