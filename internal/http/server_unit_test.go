package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fyp-portal/internal/auth"
	"fyp-portal/internal/config"
	"fyp-portal/internal/ratelimit"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		Env:        "test",
		JWTSecret:  "test-secret",
		JWTIssuer:  "test-issuer",
		SessionTTL: time.Hour,
	}
	return NewServer(cfg, nil, ratelimit.NewLoginLimiter(nil, cfg))
}

func mustToken(t *testing.T, s *Server, subjectID, role string, ttl time.Duration) string {
	t.Helper()
	token, err := auth.NewSessionToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, ttl, auth.Claims{
		SubjectID: subjectID,
		Role:      role,
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	return token
}

func doJSON(t *testing.T, handler http.Handler, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode error: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := testServer(t)
	router := s.Router()

	for _, target := range []string{"/requests", "/projects", "/me"} {
		rec := doJSON(t, router, http.MethodGet, target, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token, got %d", target, rec.Code)
		}
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	s := testServer(t)
	router := s.Router()

	expired := mustToken(t, s, "2021-00042", auth.RoleStudent, -time.Minute)
	rec := doJSON(t, router, http.MethodGet, "/requests", expired, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp["error"] != "token_expired" {
		t.Fatalf("expected token_expired, got %q", resp["error"])
	}
}

func TestStudentCannotTransitionOrDelete(t *testing.T) {
	s := testServer(t)
	router := s.Router()
	studentToken := mustToken(t, s, "2021-00042", auth.RoleStudent, time.Hour)

	requestID := "2f0851f2-9f61-4d2a-b9c1-0a4f52e2f8f3"
	rec := doJSON(t, router, http.MethodPut, "/requests/"+requestID, studentToken,
		map[string]string{"status": "approved"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student transition, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/requests/"+requestID, studentToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student delete, got %d", rec.Code)
	}
}

func TestAdminCannotBorrow(t *testing.T) {
	s := testServer(t)
	router := s.Router()
	adminToken := mustToken(t, s, "admin-1", auth.RoleAdmin, time.Hour)

	projectID := "2f0851f2-9f61-4d2a-b9c1-0a4f52e2f8f3"
	rec := doJSON(t, router, http.MethodPost, "/projects/"+projectID+"/borrow", adminToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin borrow, got %d", rec.Code)
	}
}

func TestTransitionRejectsInvalidStatus(t *testing.T) {
	s := testServer(t)
	router := s.Router()
	adminToken := mustToken(t, s, "admin-1", auth.RoleAdmin, time.Hour)
	requestID := "2f0851f2-9f61-4d2a-b9c1-0a4f52e2f8f3"

	for _, status := range []string{"pending", "open", ""} {
		rec := doJSON(t, router, http.MethodPut, "/requests/"+requestID, adminToken,
			map[string]string{"status": status})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %q: expected 400, got %d", status, rec.Code)
		}
	}
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	s := testServer(t)
	router := s.Router()
	studentToken := mustToken(t, s, "2021-00042", auth.RoleStudent, time.Hour)
	adminToken := mustToken(t, s, "admin-1", auth.RoleAdmin, time.Hour)

	rec := doJSON(t, router, http.MethodPost, "/projects/not-a-uuid/borrow", studentToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed project id, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodDelete, "/requests/not-a-uuid", adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed request id, got %d", rec.Code)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	s := testServer(t)
	router := s.Router()

	rec := doJSON(t, router, http.MethodPost, "/session", "",
		map[string]string{"role": "student", "identifier": "", "secret": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing credentials, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/session", "",
		map[string]string{"role": "staff", "identifier": "x", "secret": "y"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc":  "abc",
		"Basic abc":   "",
		"Bearer":      "",
		"":            "",
		"Bearer  abc": "abc",
	}
	for header, expect := range cases {
		if got := bearerToken(header); got != expect {
			t.Fatalf("header %q: expected %q, got %q", header, expect, got)
		}
	}
}

func TestStorageLocationPattern(t *testing.T) {
	valid := []string{"6C4R", "12C1R", "1C12R"}
	for _, loc := range valid {
		if !storageLocationPattern.MatchString(loc) {
			t.Fatalf("expected %q to be valid", loc)
		}
	}
	invalid := []string{"C4R", "6C4", "6c4r", "shelf-6", ""}
	for _, loc := range invalid {
		if storageLocationPattern.MatchString(loc) {
			t.Fatalf("expected %q to be invalid", loc)
		}
	}
}

func TestHealth(t *testing.T) {
	s := testServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
