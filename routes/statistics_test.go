package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"food-donation-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// buildStatisticsTestApp mounts the statistics party behind the real
// access-token verifier and admin gate.
func buildStatisticsTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	app := iris.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	statistics := app.Party("/api/statistics", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		statistics.Get("/total_donations", TotalDonations)
		statistics.Get("/donations_report", DonationsReport)
	}

	app.Build()
	return app
}

func signStatisticsToken(role string) string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, _ := signer.Sign(utils.AccessToken{ID: 1, Role: role})
	return string(token)
}

func TestStatisticsRequireToken(t *testing.T) {
	app := buildStatisticsTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/statistics/total_donations", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}
}

func TestStatisticsForbiddenForNonAdmins(t *testing.T) {
	app := buildStatisticsTestApp()

	for _, role := range []string{"donor", "charity"} {
		req := httptest.NewRequest(http.MethodGet, "/api/statistics/total_donations", nil)
		req.Header.Set("Authorization", "Bearer "+signStatisticsToken(role))
		resp := httptest.NewRecorder()
		app.ServeHTTP(resp, req)
		if resp.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for role %s, got %d", role, resp.Code)
		}
	}
}

func TestDonationsReportValidatesDateRange(t *testing.T) {
	app := buildStatisticsTestApp()

	cases := []string{
		"",
		"?start_date=2026-01-01",
		"?start_date=bad&end_date=2026-01-31",
		"?start_date=2026-02-01&end_date=2026-01-01",
	}
	for _, qs := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/statistics/donations_report"+qs, nil)
		req.Header.Set("Authorization", "Bearer "+signStatisticsToken("admin"))
		resp := httptest.NewRecorder()
		app.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for query %q, got %d", qs, resp.Code)
		}
	}
}
