package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/cleanse/internal/config"
	"github.com/JonMunkholm/cleanse/internal/logging"
)

// errorBody matches the error responses written by the handlers.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var (
	missingKey = errorBody{
		Error:   "missing API key",
		Message: "An API key is required",
		Action:  "Send the key in the X-API-Key header or as a Bearer token",
		Code:    "AUTH_MISSING_KEY",
	}
	invalidKey = errorBody{
		Error:   "invalid API key",
		Message: "The API key is not valid",
		Code:    "AUTH_INVALID_KEY",
	}
)

// APIKeyAuth rejects requests without one of cfg.APIKeys when
// cfg.RequireAPIKey is set. With no keys configured every request fails.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			switch key := requestKey(r); {
			case key == "":
				reject(w, r, http.StatusUnauthorized, missingKey)
			case !isValidAPIKey(key, cfg.APIKeys):
				reject(w, r, http.StatusForbidden, invalidKey)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// requestKey reads X-API-Key, falling back to an Authorization Bearer token.
func requestKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func reject(w http.ResponseWriter, r *http.Request, status int, body errorBody) {
	logging.FromContext(r.Context()).Warn("auth: "+body.Error,
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
	)
	render.Status(r, status)
	render.JSON(w, r, body)
}

// isValidAPIKey compares key against every configured key in constant time.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
