// Package httputil holds the JSON response and query helpers shared by the
// inspect server handlers.
package httputil

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
)

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

// WriteJSONError writes {"error": msg} with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// RequireGET answers 405 and returns false for anything but GET.
func RequireGET(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// RequireParam returns a non-empty query parameter or answers 400.
func RequireParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("missing '%s' parameter", name))
		return "", false
	}
	return v, true
}

// QueryInt parses an integer query parameter in [lo, hi]. Absent or
// out-of-range values yield def.
func QueryInt(r *http.Request, name string, def, lo, hi int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < lo || v > hi {
		return def
	}
	return v
}
