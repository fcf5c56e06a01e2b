// Package handlers provides HTTP handlers for the streambuf admin API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// ContentTypeProblemJSON is the Content-Type for problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// problemTypeBase prefixes the per-status problem type, e.g.
// "urn:streambuf:problem:not-found".
const problemTypeBase = "urn:streambuf:problem:"

// WriteProblem writes a problem for r. The title is the status text and
// the instance is the request path.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	title := http.StatusText(status)
	p := Problem{
		Type:   problemTypeBase + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Title:  title,
		Status: status,
		Detail: detail,
	}
	if r != nil {
		p.Instance = r.URL.Path
	}
	writeBody(w, ContentTypeProblemJSON, status, p)
}

// BadRequest writes a 400 problem.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	WriteProblem(w, r, http.StatusBadRequest, detail)
}

// NotFound writes a 404 problem.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	WriteProblem(w, r, http.StatusNotFound, detail)
}

// ServiceUnavailable writes a 503 problem.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	WriteProblem(w, r, http.StatusServiceUnavailable, detail)
}

// WriteJSON writes data as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	writeBody(w, "application/json", status, data)
}

// WriteJSONOK writes data as a 200 JSON response.
func WriteJSONOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteNoContent writes an empty 204.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeBody(w http.ResponseWriter, contentType string, status int, body any) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
