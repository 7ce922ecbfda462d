// Package httpx provides HTTP utilities for the front-end shell server.
//
// Overview:
//   - Responsibility: Request binding and validation, JSON responses, error mapping,
//     security/CORS headers, request metadata and access logging middleware
//   - Key Types: ErrorResponse, SecurityHeaders, CORSOptions
//   - Concurrency Model: All functions are safe for concurrent use
//   - Error Semantics: Structured errors map to HTTP statuses via StatusFor
//   - Performance Notes: JSON goes through sonic; one shared validator instance
//
// Usage:
//
//	var form LoginForm
//	if err := httpx.BindAndValidate(r, &form); err != nil {
//	  httpx.WriteError(w, err)
//	  return
//	}
package httpx

import (
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"go.barcircle.dev/web/core/errors"
	"go.barcircle.dev/web/core/identity"
	"go.barcircle.dev/web/core/log"
	"go.barcircle.dev/web/httpx/internal"
	"go.barcircle.dev/web/logx"
)

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

const maxFormBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrorResponse represents a standard JSON error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// BindAndValidate decodes a JSON or form body into target and validates it.
// Form fields use `form` tags, JSON fields use `json` tags, rules use `validate` tags.
// Failures are CodeInvalidArgument errors; validation failures list fields in Details.
func BindAndValidate(r *http.Request, target any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.New(errors.CodeInvalidArgument, "request body is empty")
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(nil, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			return errors.Wrap(errors.CodeInvalidArgument, "parse form", err)
		}
		if err := internal.BindForm(r.PostForm, target); err != nil {
			return errors.Wrap(errors.CodeInvalidArgument, "bind form", err)
		}
	default:
		decoder := sonic.ConfigStd.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(target); err != nil {
			return errors.Wrapf(errors.CodeInvalidArgument, "decode json", err, "invalid JSON")
		}
	}

	return Validate(target)
}

// Validate runs the struct rules of target.
func Validate(target any) error {
	err := validate.Struct(target)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(errors.CodeInvalidArgument, "validate", err)
	}

	b := errors.Build(errors.CodeInvalidArgument).WithOp("validate").WithErr(err).WithMsg("validation failed")
	for _, fe := range verrs {
		b.WithDetails(fe.Field(), fe.Tag())
	}
	return b.Err()
}

// StatusFor maps a structured error to the status the shell answers with.
func StatusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.CodeInvalidArgument:
		return http.StatusBadRequest
	case errors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case errors.CodePermissionDenied:
		return http.StatusForbidden
	case errors.CodeHTTPStatus:
		if s := errors.StatusOf(err); s >= 400 && s < 500 {
			return s
		}
		return http.StatusBadGateway
	case errors.CodeApplication:
		if errors.AppCodeOf(err) == http.StatusUnauthorized {
			return http.StatusUnauthorized
		}
		return http.StatusUnprocessableEntity
	case errors.CodeConnection:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}
	return sonic.ConfigStd.NewEncoder(w).Encode(data)
}

// WriteError writes err as an ErrorResponse with the status chosen by StatusFor.
func WriteError(w http.ResponseWriter, err error) error {
	status := StatusFor(err)
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: errors.MessageOf(err),
	}

	var e *errors.E
	if errors.As(err, &e) && len(e.Details) > 0 {
		response.Details = make(map[string]string, len(e.Details)/2)
		for i := 0; i+1 < len(e.Details); i += 2 {
			response.Details[fmt.Sprint(e.Details[i])] = fmt.Sprint(e.Details[i+1])
		}
	}

	return WriteJSON(w, status, response)
}

// NotFoundHandler returns a standard 404 JSON response.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "Not Found",
			Message: fmt.Sprintf("Path %s not found", r.URL.Path),
		})
	}
}

// MethodNotAllowedHandler returns a standard 405 JSON response.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Error:   "Method Not Allowed",
			Message: fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path),
		})
	}
}

// SecurityHeaders configures the headers added to every response.
type SecurityHeaders struct {
	ContentTypeOptions    bool   // X-Content-Type-Options: nosniff
	FrameOptions          string // X-Frame-Options value, empty to omit
	ReferrerPolicy        string // Referrer-Policy value, empty to omit
	HSTSMaxAge            int    // Strict-Transport-Security max-age, 0 to omit
	ContentSecurityPolicy string // Optional CSP header
}

// DefaultSecurityHeaders returns the headers the shell server sends.
// HSTS is left to the ingress.
func DefaultSecurityHeaders() SecurityHeaders {
	return SecurityHeaders{
		ContentTypeOptions:    true,
		FrameOptions:          "DENY",
		ReferrerPolicy:        "same-origin",
		ContentSecurityPolicy: "default-src 'self'",
	}
}

// SecureMiddleware adds security headers to responses.
func SecureMiddleware(headers SecurityHeaders) func(http.Handler) http.Handler {
	internalHeaders := internal.SecurityHeaders(headers)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			internal.ApplySecurityHeaders(w, internalHeaders)
			next.ServeHTTP(w, r)
		})
	}
}

// CORSOptions configures CORS for the JSON endpoints used by a separately served UI.
type CORSOptions struct {
	AllowedOrigins   []string // Allowed origins; empty disables CORS
	AllowedMethods   []string // Allowed methods (default: GET, POST, OPTIONS)
	AllowedHeaders   []string // Allowed headers (default: Content-Type, X-Request-ID)
	AllowCredentials bool     // Allow the session cookie
	MaxAge           int      // Preflight cache duration in seconds
}

// DefaultCORSOptions returns CORS options for the given origins.
func DefaultCORSOptions(origins ...string) CORSOptions {
	return CORSOptions{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           600,
	}
}

// CORSMiddleware adds CORS headers and answers preflight requests.
func CORSMiddleware(opts CORSOptions) func(http.Handler) http.Handler {
	internalOpts := internal.CORSOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed := internal.ApplyCORSHeaders(w, r, internalOpts)
			if allowed && r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestMetaMiddleware attaches identity.RequestMeta to the request context.
// The request ID is taken from X-Request-ID or generated, and echoed on the response.
func RequestMetaMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		meta := &identity.RequestMeta{
			RequestID: id,
			RemoteIP:  clientIP(r),
			UserAgent: r.UserAgent(),
			Page:      r.URL.Path,
		}
		next.ServeHTTP(w, r.WithContext(identity.WithMeta(r.Context(), meta)))
	})
}

// AccessLogMiddleware logs one line per request with status and duration.
func AccessLogMiddleware(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &internal.StatusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.Status
			if status == 0 {
				status = http.StatusOK
			}
			logx.FromContext(r.Context(), logger).Info("request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", rec.Bytes,
				"duration", time.Since(start),
			)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}
