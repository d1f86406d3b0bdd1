package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestApplyHeadersDefaults(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig())
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	want := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Content-Security-Policy":      "default-src 'none'; frame-ancestors 'none'",
		"Cache-Control":                "no-store",
		"Cross-Origin-Resource-Policy": "same-origin",
	}
	for name, value := range want {
		if got := rr.Header().Get(name); got != value {
			t.Errorf("header %s = %q, want %q", name, got, value)
		}
	}

	// Plain HTTP request, no HSTS
	if got := rr.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Strict-Transport-Security = %q on non-TLS request, want empty", got)
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   bool
	}{
		{"clean api request", http.MethodGet, "/api/documents?year=2024&month=7", "anggaranctl/1.0", false},
		{"curl is a legitimate client", http.MethodGet, "/api/dashboard", "curl/8.5.0", false},
		{"path traversal", http.MethodGet, "/api/../../etc/passwd", "", true},
		{"wordpress probe", http.MethodGet, "/wp-admin/setup.php", "", true},
		{"sql injection in query", http.MethodGet, "/api/documents?search=union%20select", "", true},
		{"scanner user agent", http.MethodGet, "/api/documents", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/api/documents", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.agent != "" {
				r.Header.Set("User-Agent", tt.agent)
			}
			if got := d.DetectSuspiciousRequest(r); got != tt.want {
				t.Errorf("DetectSuspiciousRequest(%s %s) = %v, want %v", tt.method, tt.target, got, tt.want)
			}
		})
	}
}

func TestDetectLongURL(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest(http.MethodGet, "/api/documents?search="+strings.Repeat("a", 3000), nil)
	if !d.DetectSuspiciousRequest(r) {
		t.Error("excessively long URL should be suspicious")
	}
	if d.GetMetrics().SuspiciousRequests != 1 {
		t.Errorf("SuspiciousRequests = %d, want 1", d.GetMetrics().SuspiciousRequests)
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct connection", "203.0.113.7:4312", "", "", "203.0.113.7"},
		{"trusted proxy honors xff", "127.0.0.1:4312", "203.0.113.7, 10.0.0.1", "", "203.0.113.7"},
		{"trusted proxy honors x-real-ip", "10.0.0.5:80", "", "203.0.113.9", "203.0.113.9"},
		{"untrusted peer cannot spoof", "203.0.113.7:4312", "10.0.0.1", "", "203.0.113.7"},
		{"garbage xff falls back", "127.0.0.1:4312", "not-an-ip", "", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("198.51.100.0/24"); err != nil {
		t.Fatalf("AddTrustedProxy valid CIDR: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "198.51.100.30:9000"
	r.Header.Set("X-Forwarded-For", "203.0.113.50")
	if got := d.ExtractClientIP(r); got != "203.0.113.50" {
		t.Errorf("ExtractClientIP() = %q, want forwarded IP after trusting proxy", got)
	}

	if err := d.AddTrustedProxy("not a cidr"); err == nil {
		t.Error("AddTrustedProxy should reject malformed CIDR")
	}
}
