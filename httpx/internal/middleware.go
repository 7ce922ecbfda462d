// Package internal provides internal implementation details for httpx.
package internal

import (
	"fmt"
	"net/http"
	"strings"
)

// SecurityHeaders lists the headers applied to every shell response.
type SecurityHeaders struct {
	ContentTypeOptions    bool
	FrameOptions          string
	ReferrerPolicy        string
	HSTSMaxAge            int
	ContentSecurityPolicy string
}

// ApplySecurityHeaders applies security headers to the response writer.
func ApplySecurityHeaders(w http.ResponseWriter, headers SecurityHeaders) {
	h := w.Header()
	if headers.ContentTypeOptions {
		h.Set("X-Content-Type-Options", "nosniff")
	}
	if headers.FrameOptions != "" {
		h.Set("X-Frame-Options", headers.FrameOptions)
	}
	if headers.ReferrerPolicy != "" {
		h.Set("Referrer-Policy", headers.ReferrerPolicy)
	}
	if headers.HSTSMaxAge > 0 {
		h.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", headers.HSTSMaxAge))
	}
	if headers.ContentSecurityPolicy != "" {
		h.Set("Content-Security-Policy", headers.ContentSecurityPolicy)
	}
}

// CORSOptions configures CORS behavior.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// ApplyCORSHeaders writes CORS headers when the request origin is allowed.
// Credentialed responses always echo the origin, never "*".
func ApplyCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}

	wildcard := false
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			wildcard = true
		}
		if o == "*" || strings.EqualFold(o, origin) {
			allowed = true
		}
	}
	if !allowed {
		return false
	}

	h := w.Header()
	if wildcard && !opts.AllowCredentials {
		h.Set("Access-Control-Allow-Origin", "*")
	} else {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
	}
	if len(opts.AllowedMethods) > 0 {
		h.Set("Access-Control-Allow-Methods", strings.Join(opts.AllowedMethods, ", "))
	}
	if len(opts.AllowedHeaders) > 0 {
		h.Set("Access-Control-Allow-Headers", strings.Join(opts.AllowedHeaders, ", "))
	}
	if opts.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if opts.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", fmt.Sprintf("%d", opts.MaxAge))
	}
	return true
}

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
	Bytes  int
}

// WriteHeader records the status.
func (s *StatusRecorder) WriteHeader(code int) {
	if s.Status == 0 {
		s.Status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

// Write records the body size, defaulting the status to 200.
func (s *StatusRecorder) Write(b []byte) (int, error) {
	if s.Status == 0 {
		s.Status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.Bytes += n
	return n, err
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (s *StatusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
