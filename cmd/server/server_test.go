package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Simplici0/qc.works/internal/db"
	"github.com/Simplici0/qc.works/internal/migrations"
	"github.com/Simplici0/qc.works/internal/seed"
)

const (
	testAdminEmail    = "admin@qc.works"
	testAdminPassword = "s3nha"
)

func newTestServer(t *testing.T) *server {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "server-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if _, err := migrations.Up(ctx, database, ""); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(ctx, database, seed.Config{AdminEmail: testAdminEmail, AdminPassword: testAdminPassword}); err != nil {
		t.Fatalf("seed database: %v", err)
	}

	return &server{
		auth: newAuthService(database, "test-secret", false),
		db:   database,
		log:  zap.NewNop(),
	}
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func assertContains(t *testing.T, body string, expected ...string) {
	t.Helper()
	for _, e := range expected {
		if !strings.Contains(body, e) {
			t.Fatalf("expected body to contain %q, got: %s", e, body)
		}
	}
}

func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()

	rr := postForm(t, h, "/login", url.Values{"email": {testAdminEmail}, "password": {testAdminPassword}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("login status=%d, want 303; body=%s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("login did not set %s cookie", sessionCookieName)
	return nil
}

func TestHealthReportsSchemaVersion(t *testing.T) {
	h := newTestServer(t).routes()

	rr := get(t, h, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rr.Code)
	}
	assertContains(t, rr.Body.String(), `"status":"ok"`, `"schema_version":1`)
}

func TestStaticAssetsAreServed(t *testing.T) {
	h := newTestServer(t).routes()

	rr := get(t, h, "/static/style.css")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rr.Code)
	}
	assertContains(t, rr.Body.String(), ".banner")
}

func TestAdminRequiresLogin(t *testing.T) {
	h := newTestServer(t).routes()

	for _, path := range []string{"/admin/settings", "/admin/suppliers"} {
		rr := get(t, h, path)
		if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
			t.Fatalf("%s: status=%d location=%q, want redirect to /login", path, rr.Code, rr.Header().Get("Location"))
		}
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newTestServer(t).routes()

	rr := postForm(t, h, "/login", url.Values{"email": {testAdminEmail}, "password": {"nope"}})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", rr.Code)
	}
	assertContains(t, rr.Body.String(), "Credenciais inválidas")
}

func TestLogoutClearsSession(t *testing.T) {
	h := newTestServer(t).routes()

	rr := postForm(t, h, "/logout", url.Values{})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status=%d, want 303", rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired session cookie, got %+v", cookies)
	}
}
