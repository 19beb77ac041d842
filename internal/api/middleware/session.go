package middleware

import (
	"net/http"
	"strings"

	"github.com/royalhouse/server/internal/api/problem"
	"github.com/royalhouse/server/internal/auth"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// SessionValidator checks a session token.
type SessionValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// PageGate applies the dashboard redirect policy. "/" goes to the dashboard,
// dashboard pages need a valid session or bounce to the login page, and a
// signed-in visitor skips the login page. Other paths pass through.
func PageGate(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			switch {
			case path == "/":
				http.Redirect(w, r, DashboardPath, http.StatusFound)
				return
			case isUnder(path, DashboardPath):
				claims := sessionClaims(r, sessions)
				if claims == nil {
					http.Redirect(w, r, LoginPath, http.StatusFound)
					return
				}
				r = r.WithContext(auth.WithClaims(r.Context(), claims))
			case isUnder(path, LoginPath):
				if sessionClaims(r, sessions) != nil {
					http.Redirect(w, r, DashboardPath, http.StatusFound)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession guards API handlers, answering 401 problem JSON when the
// session cookie is missing or invalid.
func RequireSession(sessions SessionValidator, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromRequest(r)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env)
				return
			}
			claims, err := sessions.Validate(token)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func sessionClaims(r *http.Request, sessions SessionValidator) *auth.Claims {
	token, err := auth.TokenFromRequest(r)
	if err != nil {
		return nil
	}
	claims, err := sessions.Validate(token)
	if err != nil {
		return nil
	}
	return claims
}

func isUnder(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
