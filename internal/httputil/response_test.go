package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusCreated, map[string]int{"examples": 4})

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["examples"] != 4 {
		t.Errorf("body = %s (%v)", rr.Body.String(), err)
	}
}

func TestWriteJSONError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONError(rr, http.StatusNotFound, "no output for video")

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rr.Code != http.StatusNotFound || body["error"] != "no output for video" {
		t.Errorf("got %d %v", rr.Code, body)
	}
}

func TestRequireGET(t *testing.T) {
	rr := httptest.NewRecorder()
	if !RequireGET(rr, httptest.NewRequest(http.MethodGet, "/api/runs", nil)) {
		t.Error("GET rejected")
	}
	rr = httptest.NewRecorder()
	if RequireGET(rr, httptest.NewRequest(http.MethodDelete, "/api/runs", nil)) {
		t.Error("DELETE accepted")
	}
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestRequireParam(t *testing.T) {
	rr := httptest.NewRecorder()
	v, ok := RequireParam(rr, httptest.NewRequest(http.MethodGet, "/api/subvideos?run_id=r1", nil), "run_id")
	if !ok || v != "r1" {
		t.Errorf("got %q, %v", v, ok)
	}

	rr = httptest.NewRecorder()
	if _, ok := RequireParam(rr, httptest.NewRequest(http.MethodGet, "/api/subvideos", nil), "run_id"); ok {
		t.Error("missing parameter accepted")
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"?limit=5", 5},
		{"?limit=0", 20},
		{"?limit=501", 20},
		{"?limit=abc", 20},
		{"?limit=500", 500},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/runs"+tt.query, nil)
		if got := QueryInt(r, "limit", 20, 1, 500); got != tt.want {
			t.Errorf("QueryInt(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
