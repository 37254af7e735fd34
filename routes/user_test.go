package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

// buildAuthTestApp wires only the unauthenticated user routes, enough
// to exercise input validation without a database.
func buildAuthTestApp() *iris.Application {
	app := iris.New()
	app.Validator = validator.New()

	user := app.Party("/api/user")
	{
		user.Post("/register", Register)
		user.Post("/login", Login)
	}

	app.Build()
	return app
}

func postJSON(app *iris.Application, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	app := buildAuthTestApp()

	resp := postJSON(app, "/api/user/register", `{"email": "donor@example.com"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Validation error") {
		t.Fatalf("expected validation problem body, got %s", resp.Body.String())
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	app := buildAuthTestApp()

	resp := postJSON(app, "/api/user/register", `{
		"name": "Ana",
		"email": "ana@example.com",
		"password": "supersecret",
		"role": "astronaut"
	}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", resp.Code)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	app := buildAuthTestApp()

	resp := postJSON(app, "/api/user/register", `{
		"name": "Ana",
		"email": "ana@example.com",
		"password": "short",
		"role": "donor"
	}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", resp.Code)
	}
}

func TestLoginRejectsMalformedEmail(t *testing.T) {
	app := buildAuthTestApp()

	resp := postJSON(app, "/api/user/login", `{"email": "not-an-email", "password": "whatever"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed email, got %d", resp.Code)
	}
}
