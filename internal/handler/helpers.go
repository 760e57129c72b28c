package handler

import (
	"net/http"
	"strings"
)

// pathID returns the trimmed {id} path segment
func pathID(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("id"))
}
