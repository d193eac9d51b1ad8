package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// dummyHandler returns a simple 200 OK handler used as the "next" handler in middleware tests.
func dummyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func Test_NewAuthMiddleware_Cases(t *testing.T) {
	const correctToken = "correct-token"

	tests := []struct {
		name           string
		configToken    string
		authHeader     string
		setAuthHeader  bool
		wantStatusCode int
	}{
		{
			name:           "valid bearer token passes through",
			configToken:    correctToken,
			authHeader:     "Bearer correct-token",
			setAuthHeader:  true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing header returns 401",
			configToken:    correctToken,
			authHeader:     "",
			setAuthHeader:  false,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "wrong token returns 401",
			configToken:    correctToken,
			authHeader:     "Bearer wrong-token",
			setAuthHeader:  true,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "malformed header returns 401",
			configToken:    correctToken,
			authHeader:     "NotBearer token",
			setAuthHeader:  true,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "empty token config disables auth - no header",
			configToken:    "",
			authHeader:     "",
			setAuthHeader:  false,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "empty token config disables auth - any header",
			configToken:    "",
			authHeader:     "Bearer anything",
			setAuthHeader:  true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "Bearer with extra spaces returns 401",
			configToken:    correctToken,
			authHeader:     "Bearer  correct-token",
			setAuthHeader:  true,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "empty Authorization header returns 401",
			configToken:    correctToken,
			authHeader:     "",
			setAuthHeader:  true,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "Bearer prefix with no token returns 401",
			configToken:    correctToken,
			authHeader:     "Bearer ",
			setAuthHeader:  true,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "only Bearer word returns 401",
			configToken:    correctToken,
			authHeader:     "Bearer",
			setAuthHeader:  true,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "case sensitive Bearer prefix",
			configToken:    correctToken,
			authHeader:     "bearer correct-token",
			setAuthHeader:  true,
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := NewAuthMiddleware(tt.configToken)
			handler := middleware(dummyHandler())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.setAuthHeader {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatusCode {
				t.Errorf("status code = %d, want %d", rr.Code, tt.wantStatusCode)
			}
		})
	}
}

func Test_NewAuthMiddleware_ChallengeHeader(t *testing.T) {
	handler := NewAuthMiddleware("my-token")(dummyHandler())

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("WWW-Authenticate"); got != `Bearer realm="catalog-mcp"` {
		t.Errorf("WWW-Authenticate = %q", got)
	}
}

func Test_NewAuthMiddleware_ChiGroup(t *testing.T) {
	var reached bool
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Group(func(r chi.Router) {
		r.Use(NewAuthMiddleware("my-token"))
		r.Post("/mcp", func(w http.ResponseWriter, _ *http.Request) {
			reached = true
			w.WriteHeader(http.StatusOK)
		})
	})

	tests := []struct {
		name     string
		method   string
		path     string
		header   string
		wantCode int
		wantNext bool
	}{
		{name: "health is public", method: http.MethodGet, path: "/healthz", wantCode: http.StatusOK},
		{name: "mcp without token", method: http.MethodPost, path: "/mcp", wantCode: http.StatusUnauthorized},
		{name: "mcp with token", method: http.MethodPost, path: "/mcp", header: "Bearer my-token", wantCode: http.StatusOK, wantNext: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if reached != tt.wantNext {
				t.Errorf("next reached = %v, want %v", reached, tt.wantNext)
			}
		})
	}
}
