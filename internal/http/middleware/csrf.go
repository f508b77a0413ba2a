package middleware

import (
	"errors"
	"net/http"

	"github.com/alltechdigital/leads-api/internal/csrf"
	"github.com/alltechdigital/leads-api/internal/security"
)

// CSRF validates the double-submit token on mutating methods. Reads pass
// through untouched.
func CSRF(handler *csrf.Handler, events *security.EventLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			if err := handler.ValidateRequest(r); err != nil {
				if errors.Is(err, csrf.ErrTokenExpired) {
					if events != nil {
						events.Log(r, security.CategoryCSRFProtection, "csrf_token_expired",
							"token CSRF expirado", security.LevelWarning, nil)
					}
					writeError(w, http.StatusForbidden, "Token de segurança expirado. Recarregue a página.", "CSRF_TOKEN_EXPIRED")
					return
				}
				if events != nil {
					events.Log(r, security.CategoryCSRFProtection, "csrf_validation_failed",
						"falha na validação do token CSRF", security.LevelWarning, nil)
				}
				writeError(w, http.StatusForbidden, "Falha na validação de segurança. Recarregue a página e tente novamente.", "CSRF_VALIDATION_FAILED")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
