package internal

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestApplySecurityHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers SecurityHeaders
		want    map[string]string
	}{
		{
			name: "all enabled",
			headers: SecurityHeaders{
				ContentTypeOptions:    true,
				FrameOptions:          "DENY",
				ReferrerPolicy:        "same-origin",
				HSTSMaxAge:            31536000,
				ContentSecurityPolicy: "default-src 'self'",
			},
			want: map[string]string{
				"X-Content-Type-Options":    "nosniff",
				"X-Frame-Options":           "DENY",
				"Referrer-Policy":           "same-origin",
				"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
				"Content-Security-Policy":   "default-src 'self'",
			},
		},
		{
			name:    "none enabled",
			headers: SecurityHeaders{},
			want: map[string]string{
				"X-Content-Type-Options":    "",
				"X-Frame-Options":           "",
				"Strict-Transport-Security": "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ApplySecurityHeaders(w, tt.headers)
			for k, v := range tt.want {
				if got := w.Header().Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestApplyCORSHeaders_CredentialsEchoOrigin(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "http://localhost:5173")

	ok := ApplyCORSHeaders(w, r, CORSOptions{AllowedOrigins: []string{"*"}, AllowCredentials: true})
	if !ok {
		t.Fatal("wildcard should allow the origin")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q, want echoed origin", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("expected Allow-Credentials")
	}
}

func TestApplyCORSHeaders_NoOrigin(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	if ApplyCORSHeaders(w, r, CORSOptions{AllowedOrigins: []string{"*"}}) {
		t.Error("same-origin requests carry no CORS headers")
	}
}

func TestStatusRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &StatusRecorder{ResponseWriter: w}
	rec.Write([]byte("hello"))
	rec.WriteHeader(http.StatusTeapot)

	if rec.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200 after implicit write", rec.Status)
	}
	if rec.Bytes != 5 {
		t.Errorf("Bytes = %d, want 5", rec.Bytes)
	}
}

func TestBindForm(t *testing.T) {
	type form struct {
		Name     string `form:"name"`
		Remember bool   `form:"remember"`
		Page     int    `form:"page"`
		Ignored  string
	}

	values := url.Values{"name": {" bob "}, "remember": {"on"}, "page": {"3"}, "Ignored": {"x"}}
	var f form
	if err := BindForm(values, &f); err != nil {
		t.Fatalf("BindForm() error = %v", err)
	}
	if f.Name != "bob" || !f.Remember || f.Page != 3 || f.Ignored != "" {
		t.Errorf("bound = %+v", f)
	}

	if err := BindForm(url.Values{"page": {"x"}}, &f); err == nil {
		t.Error("expected parse error for non-numeric page")
	}
	if err := BindForm(values, f); err == nil {
		t.Error("expected error for non-pointer target")
	}
}
