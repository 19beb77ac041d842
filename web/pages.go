package web

import (
	_ "embed"
	"net/http"
)

//go:embed login.html
var loginHTML []byte

//go:embed dashboard.html
var dashboardHTML []byte

//go:embed robots.txt
var robotsTxt []byte

// LoginHandler serves the one-time-code sign in page.
func LoginHandler() http.Handler {
	return page(loginHTML, "text/html; charset=utf-8", "no-store")
}

// DashboardHandler serves the dashboard shell. The session gate runs in front
// of it, so the handler itself does not look at cookies.
func DashboardHandler() http.Handler {
	return page(dashboardHTML, "text/html; charset=utf-8", "no-store")
}

// RobotsTxtHandler serves robots.txt. Nothing on this host is meant for crawlers.
func RobotsTxtHandler() http.Handler {
	return page(robotsTxt, "text/plain; charset=utf-8", "public, max-age=86400")
}

func page(body []byte, contentType, cacheControl string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", cacheControl)
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(body) // Error is ignored as WriteHeader already sent status
	})
}
