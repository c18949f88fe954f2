package httpx

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Callback pages carry authorization codes in their URL, so they must not be cached.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: sans-serif; margin: 4em auto; max-width: 32em;">
<h1>{{.Title}}</h1><p>{{.Message}}</p>
</body></html>
`))

// WriteHTMLPage writes a minimal, escaped HTML page. Used for the page shown
// in the browser after the loopback redirect completes.
func WriteHTMLPage(w http.ResponseWriter, code int, title, message string) {
	NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = pageTemplate.Execute(w, struct{ Title, Message string }{title, message})
}

// ParseSpaceDelimitedFields splits a space-delimited string into fields.
// Returns nil if the input string is empty or contains only whitespace.
func ParseSpaceDelimitedFields(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
