package api

import (
	"net/http"
	"strings"

	"github.com/bhavanagoud111/The-Robot-driver/pkg/httpx"
)

// withAuth guards task submission with a shared token. An empty configured
// token leaves the endpoint open.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(s.authToken) == "" || requestHasToken(r, s.authToken) {
			next.ServeHTTP(w, r)
			return
		}
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid api token")
	})
}

func requestHasToken(r *http.Request, expected string) bool {
	want := strings.TrimSpace(expected)
	if want == "" {
		return true
	}
	if strings.TrimSpace(r.Header.Get("X-API-Key")) == want {
		return true
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") && strings.TrimSpace(auth[7:]) == want {
		return true
	}
	return false
}
