package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		detail string
		want   string
	}{
		{
			name:   "bad gateway with detail",
			status: http.StatusBadGateway,
			detail: "assistant is unavailable",
			want:   `{"type":"https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.3","title":"Bad Gateway","status":502,"detail":"assistant is unavailable"}`,
		},
		{
			name:   "empty detail is omitted",
			status: http.StatusNotFound,
			want:   `{"type":"https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.4","title":"Not Found","status":404}`,
		},
		{
			name:   "unmapped status",
			status: http.StatusTeapot,
			detail: "short and stout",
			want:   `{"type":"about:blank","title":"I'm a teapot","status":418,"detail":"short and stout"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tt.status, tt.detail)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}
