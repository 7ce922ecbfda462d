// Package handler serves the application shell over HTTP.
//
// Overview:
//   - Responsibility: Route page requests through the navigation guard and expose
//     the login, logout, navigation and notice endpoints
//   - Key Types: Server wiring the API client, guard, route table and notice queue
//   - Concurrency Model: Safe for concurrent use; the process holds one backend session
//   - Error Semantics: Failures are written with httpx.WriteError; backend failures
//     have already raised a notice through the gateway
//   - Performance Notes: Every page request runs one guard evaluation
//
// Usage:
//
//	srv := handler.New(api, g, table, queue, logger)
//	http.ListenAndServe(":8080", srv.Routes(nil))
package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.barcircle.dev/web/core/errors"
	"go.barcircle.dev/web/core/log"
	"go.barcircle.dev/web/core/notice"
	"go.barcircle.dev/web/httpx"
	"go.barcircle.dev/web/internal/client"
	"go.barcircle.dev/web/internal/flash"
	"go.barcircle.dev/web/internal/guard"
	"go.barcircle.dev/web/internal/routes"
	"go.barcircle.dev/web/internal/session"
	"go.barcircle.dev/web/logx"
)

// Shell endpoints outside the route table.
const (
	NavPath     = "/_nav"
	NoticesPath = "/_notices"
	LogoutPath  = "/logout"
)

// View is the JSON envelope answered for every page.
type View struct {
	Route   string            `json:"route"`
	Params  map[string]string `json:"params,omitempty"`
	Session session.Snapshot  `json:"session"`
	Notices []notice.Notice   `json:"notices,omitempty"`
}

// Server is the shell's HTTP surface.
type Server struct {
	api     *client.Client
	guard   *guard.Guard
	table   *routes.Table
	notices *flash.Queue
	logger  log.Logger
}

// New creates a Server. It panics on nil dependencies since the shell cannot start without them.
func New(api *client.Client, g *guard.Guard, table *routes.Table, notices *flash.Queue, logger log.Logger) *Server {
	if api == nil || g == nil || table == nil || notices == nil {
		panic("handler.New: api, guard, table and notices are required")
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Server{api: api, guard: g, table: table, notices: notices, logger: logger}
}

// Routes builds the handler tree. CORS headers are added only when origins is non-empty.
func (s *Server) Routes(origins []string) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = s.guard.Middleware(http.HandlerFunc(s.view))
	r.MethodNotAllowedHandler = httpx.MethodNotAllowedHandler()

	r.HandleFunc(routes.LoginPath, s.login).Methods(http.MethodPost)
	r.HandleFunc(LogoutPath, s.logout).Methods(http.MethodPost)
	r.HandleFunc(NavPath, s.nav).Methods(http.MethodGet)
	r.HandleFunc(NoticesPath, s.drain).Methods(http.MethodGet)

	page := s.guard.Middleware(http.HandlerFunc(s.view))
	for _, route := range s.table.Routes() {
		r.Handle(route.Path, page).Methods(http.MethodGet, http.MethodHead).Name(route.Name)
	}

	var h http.Handler = r
	if len(origins) > 0 {
		h = httpx.CORSMiddleware(httpx.DefaultCORSOptions(origins...))(h)
	}
	h = httpx.SecureMiddleware(httpx.DefaultSecurityHeaders())(h)
	h = httpx.AccessLogMiddleware(s.logger)(h)
	return httpx.RequestMetaMiddleware(h)
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) {
	d, ok := guard.DecisionFrom(r.Context())
	if !ok {
		httpx.WriteError(w, errors.New(errors.CodeInternal, "request was not evaluated"))
		return
	}

	v := View{Params: d.Params, Session: d.Session, Notices: s.notices.Drain()}
	status := http.StatusOK
	if d.Action == guard.ActionNotFound || d.Route == nil {
		v.Route = "not_found"
		status = http.StatusNotFound
	} else {
		v.Route = d.Route.Name
	}
	s.write(w, r, status, v)
}

type loginForm struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Redirect string `json:"redirect,omitempty" form:"redirect"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	logger := logx.FromContext(r.Context(), s.logger)

	var form loginForm
	if err := httpx.BindAndValidate(r, &form); err != nil {
		s.fail(w, r, err)
		return
	}

	u, err := s.api.Auth.Login(r.Context(), client.Credentials{Username: form.Username, Password: form.Password})
	if err != nil {
		logger.Info("login rejected", "username", form.Username, "error", err)
		s.fail(w, r, err)
		return
	}

	if u != nil {
		s.guard.Store().SetUser(u)
	} else if _, err := s.guard.Refresh(r.Context()); err != nil {
		logger.Warn("session refresh after login failed", "error", err)
	}
	logger.Info("signed in", "username", form.Username)
	http.Redirect(w, r, routes.SafeRedirect(form.Redirect), http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.api.Auth.Logout(r.Context()); err != nil {
		logx.FromContext(r.Context(), s.logger).Warn("backend logout failed", "error", err)
	}
	s.guard.Store().Reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) nav(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("path")
	if target == "" {
		s.fail(w, r, errors.New(errors.CodeInvalidArgument, "path is required"))
		return
	}
	d, err := s.guard.Evaluate(r.Context(), target)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, http.StatusOK, d)
}

func (s *Server) drain(w http.ResponseWriter, r *http.Request) {
	s.write(w, r, http.StatusOK, map[string][]notice.Notice{"notices": s.notices.Drain()})
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := httpx.WriteJSON(w, status, v); err != nil {
		logx.FromContext(r.Context(), s.logger).Error(err, "write response")
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if werr := httpx.WriteError(w, err); werr != nil {
		logx.FromContext(r.Context(), s.logger).Error(werr, "write error response")
	}
}
