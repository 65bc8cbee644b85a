package clientip

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		trustProxy bool
		want       string
	}{
		{"direct connection", "203.0.113.7:54321", "", "", false, "203.0.113.7"},
		{"forwarded header ignored when proxy untrusted", "10.0.0.1:80", "203.0.113.7", "", false, "10.0.0.1"},
		{"first forwarded hop wins", "10.0.0.1:80", "203.0.113.7, 10.0.0.2", "", true, "203.0.113.7"},
		{"single forwarded hop", "10.0.0.1:80", "203.0.113.7", "", true, "203.0.113.7"},
		{"x-real-ip fallback", "10.0.0.1:80", "", "203.0.113.9", true, "203.0.113.9"},
		{"no port in remote addr", "203.0.113.7", "", "", false, "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, RealClientIP(r, tt.trustProxy))
		})
	}
}
