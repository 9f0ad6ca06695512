package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestInternalAuthMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		configuredKey  string
		providedKey    string
		expectedStatus int
	}{
		{
			name:           "valid key passes",
			configuredKey:  "secret-key",
			providedKey:    "secret-key",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong key rejected",
			configuredKey:  "secret-key",
			providedKey:    "wrong-key",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing key rejected",
			configuredKey:  "secret-key",
			providedKey:    "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unconfigured key disables internal routes",
			configuredKey:  "",
			providedKey:    "anything",
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := InternalAuthMiddleware(tt.configuredKey)(okHandler)
			req := httptest.NewRequest(http.MethodPost, "/internal/users", nil)
			if tt.providedKey != "" {
				req.Header.Set("X-Internal-Api-Key", tt.providedKey)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}
}

func TestClerkAuthMiddlewareRejectsMalformedHeaders(t *testing.T) {
	handler := ClerkAuthMiddleware("https://example.invalid/jwks.json")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached without a valid token")
	}))

	tests := []struct {
		name       string
		authHeader string
	}{
		{name: "missing header", authHeader: ""},
		{name: "not a bearer token", authHeader: "Basic dXNlcjpwYXNz"},
		{name: "garbage bearer token", authHeader: "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/rewards/level", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", rr.Code)
			}
		})
	}
}

func TestGetAuthUserID(t *testing.T) {
	userID := uuid.New()
	ctx := context.WithValue(context.Background(), authUserIDKey, userID)

	got, ok := GetAuthUserID(ctx)
	if !ok {
		t.Fatal("expected user id to be present in context")
	}
	if got != userID {
		t.Fatalf("expected %s, got %s", userID, got)
	}

	if _, ok := GetAuthUserID(context.Background()); ok {
		t.Fatal("expected no user id in empty context")
	}
}
