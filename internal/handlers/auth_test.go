package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newAuthApp() (*fiber.App, *AuthHandler) {
	app := fiber.New()
	h := NewAuthHandler("admin", "secret")
	app.Post("/login", h.Login)
	app.Get("/private", h.Middleware, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app, h
}

func login(t *testing.T, app *fiber.App, body string) (int, string) {
	t.Helper()

	req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&payload)
	return resp.StatusCode, payload.Token
}

func TestLogin_IssuesToken(t *testing.T) {
	app, _ := newAuthApp()

	status, token := login(t, app, `{"username":"admin","password":"secret"}`)
	if status != 200 {
		t.Fatalf("status = %d, want 200", status)
	}
	if token == "" {
		t.Fatal("no token issued")
	}

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("authorized request status = %d, want 200", resp.StatusCode)
	}
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	app, _ := newAuthApp()

	for _, body := range []string{
		`{"username":"admin","password":"wrong"}`,
		`{"username":"someone","password":"secret"}`,
		`{}`,
	} {
		if status, _ := login(t, app, body); status != 401 {
			t.Errorf("login %s: status = %d, want 401", body, status)
		}
	}
}

func TestMiddleware_RejectsMissingOrBogusToken(t *testing.T) {
	app, _ := newAuthApp()

	req := httptest.NewRequest("GET", "/private", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("no token: status = %d, want 401", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer not-a-session")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("bogus token: status = %d, want 401", resp.StatusCode)
	}
}
