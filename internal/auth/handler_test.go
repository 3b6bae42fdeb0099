package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// The validation paths never reach the store, so a nil-store service is
// enough to exercise them.
func newTestHandler() *Handler {
	return NewHandler(NewService(nil, "test-secret"))
}

func TestRegister_Validation(t *testing.T) {
	h := newTestHandler()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", "{", http.StatusBadRequest},
		{"missing display name", `{"email":"a@b.c","password":"longenough"}`, http.StatusBadRequest},
		{"missing password", `{"email":"a@b.c","displayName":"Ada"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@b.c","password":"short","displayName":"Ada"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tt.body))
			h.Register(w, r)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q, want application/json", ct)
			}
		})
	}
}

func TestLogin_Validation(t *testing.T) {
	h := newTestHandler()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.c"}`))
	h.Login(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDecodeCredentials_NormalizesEmail(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"  Ada@Example.COM ","password":"pw"}`))

	creds, err := decodeCredentials(w, r)
	if err != nil {
		t.Fatalf("decodeCredentials: %v", err)
	}
	if creds.Email != "ada@example.com" {
		t.Errorf("email = %q, want lowercased and trimmed", creds.Email)
	}
}
