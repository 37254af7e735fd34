package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kataras/iris/v12"
)

func TestJSONPageEnvelopeAndLinks(t *testing.T) {
	app := iris.New()
	app.Get("/items", func(ctx iris.Context) {
		JSONPage(ctx, []string{"a", "b"}, 2, 2, 5)
	})
	app.Build()

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	var body struct {
		Meta  PageMeta          `json:"meta"`
		Links map[string]string `json:"links"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}

	if body.Meta.TotalPages != 3 {
		t.Fatalf("expected 3 total pages for 5 items at 2 per page, got %d", body.Meta.TotalPages)
	}
	if body.Links["prev"] != "/items?page=1&per_page=2" {
		t.Fatalf("unexpected prev link %q", body.Links["prev"])
	}
	if body.Links["next"] != "/items?page=3&per_page=2" {
		t.Fatalf("unexpected next link %q", body.Links["next"])
	}
}

func TestJSONPageFirstAndLastPagesOmitDeadLinks(t *testing.T) {
	app := iris.New()
	app.Get("/first", func(ctx iris.Context) { JSONPage(ctx, nil, 1, 2, 5) })
	app.Get("/last", func(ctx iris.Context) { JSONPage(ctx, nil, 3, 2, 5) })
	app.Build()

	for path, absent := range map[string]string{"/first": "prev", "/last": "next"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		app.ServeHTTP(resp, req)

		var body struct {
			Links map[string]string `json:"links"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal envelope for %s: %v", path, err)
		}
		if _, ok := body.Links[absent]; ok {
			t.Fatalf("expected no %s link on %s, got %q", absent, path, body.Links[absent])
		}
	}
}
