package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"rxops/internal/domain"
	"rxops/internal/domain/models"
	"rxops/internal/httputil"

	"github.com/golang-jwt/jwt/v5"
)

type stubVerifier struct {
	claims *models.MemberClaims
}

func (v *stubVerifier) VerifyToken(tokenString string) (*models.MemberClaims, error) {
	if v.claims == nil || tokenString != "valid-token" {
		return nil, domain.ErrUnauthorized
	}
	return v.claims, nil
}

func (v *stubVerifier) Close() error { return nil }

func TestAuthMiddleware(t *testing.T) {
	claims := &models.MemberClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "member-1"},
		OrgID:            "org-a",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var gotMember, gotOrg string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMember = httputil.GetMemberID(r)
		gotOrg = httputil.GetOrgID(r)
		w.WriteHeader(http.StatusOK)
	})
	handler := Auth(&stubVerifier{claims: claims}, logger)(next)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer valid-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMember, gotOrg = "", ""
			r := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotMember != "member-1" || gotOrg != "org-a" {
					t.Errorf("context: member=%q org=%q", gotMember, gotOrg)
				}
			} else if gotMember != "" {
				t.Error("handler ran despite rejected auth")
			}
		})
	}
}

func TestAuthMiddlewareVerifierError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := Auth(&stubVerifier{}, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	r.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
