// Package routes declares the front-end views and resolves paths against them.
package routes

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"go.barcircle.dev/web/core/identity"
)

// Names of the built-in routes.
const (
	Home             = "Home"
	BeverageList     = "BeverageList"
	BeverageDetail   = "BeverageDetail"
	AnnouncementList = "AnnouncementList"
	Login            = "Login"
	Register         = "Register"
	Circle           = "Circle"
	WikiIndex        = "WikiIndex"
	WikiPage         = "WikiPage"
	BarDetail        = "BarDetail"
	ActivityCreate   = "ActivityCreate"
	ActivityDetail   = "ActivityDetail"
	UserProfile      = "UserProfile"
	Messages         = "Messages"
	SellerCenter     = "SellerCenter"
	AdminModeration  = "AdminModeration"
)

// LoginPath is where unauthenticated visitors of protected views are sent.
const LoginPath = "/login"

// Route describes one view. It is immutable once the table is built.
type Route struct {
	Name         string        `json:"name"`
	Path         string        `json:"path"`
	RequiresAuth bool          `json:"requiresAuth"`
	RequiresRole identity.Role `json:"requiresRole,omitempty"`
}

// Protected reports whether the route needs an identity.
func (r Route) Protected() bool {
	return r.RequiresAuth || r.RequiresRole != ""
}

// Default returns the application's route list. Order matters: literal
// segments are listed before the parameterized routes they would shadow.
func Default() []Route {
	return []Route{
		{Name: Home, Path: "/"},
		{Name: BeverageList, Path: "/beverages"},
		{Name: BeverageDetail, Path: "/beverages/{id:[0-9]+}"},
		{Name: AnnouncementList, Path: "/announcements"},
		{Name: Login, Path: LoginPath},
		{Name: Register, Path: "/register"},
		{Name: Circle, Path: "/circle"},
		{Name: WikiIndex, Path: "/wiki"},
		{Name: WikiPage, Path: "/wiki/{slug}"},
		{Name: BarDetail, Path: "/bars/{id:[0-9]+}"},
		{Name: ActivityCreate, Path: "/activities/create", RequiresAuth: true},
		{Name: ActivityDetail, Path: "/activities/{id:[0-9]+}"},
		{Name: UserProfile, Path: "/user/profile", RequiresAuth: true},
		{Name: Messages, Path: "/messages", RequiresAuth: true},
		{Name: SellerCenter, Path: "/seller", RequiresAuth: true, RequiresRole: identity.RoleSeller},
		{Name: AdminModeration, Path: "/admin/moderation", RequiresAuth: true, RequiresRole: identity.RoleAdmin},
	}
}

// Match is a resolved route with its path parameters.
type Match struct {
	Route  Route
	Params map[string]string
}

// Table resolves paths to routes.
type Table struct {
	router *mux.Router
	routes []Route
	byName map[string]Route
}

// NewTable builds a table from routes. Names must be unique and paths valid templates.
func NewTable(routes []Route) (*Table, error) {
	t := &Table{
		router: mux.NewRouter(),
		routes: append([]Route(nil), routes...),
		byName: make(map[string]Route, len(routes)),
	}
	for _, r := range routes {
		if r.Name == "" {
			return nil, fmt.Errorf("route %q has no name", r.Path)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("duplicate route name %q", r.Name)
		}
		if r.RequiresRole != "" && !r.RequiresRole.Valid() {
			return nil, fmt.Errorf("route %q: unknown role %q", r.Name, r.RequiresRole)
		}
		route := t.router.NewRoute().Name(r.Name).Path(r.Path)
		if err := route.GetError(); err != nil {
			return nil, fmt.Errorf("route %q: %w", r.Name, err)
		}
		t.byName[r.Name] = r
	}
	return t, nil
}

// MustDefault builds the default table and panics on error.
func MustDefault() *Table {
	t, err := NewTable(Default())
	if err != nil {
		panic(err)
	}
	return t
}

// Routes returns the routes in declaration order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Lookup returns the route with the given name.
func (t *Table) Lookup(name string) (Route, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// Resolve matches the path component of target, ignoring any query or fragment.
// A trailing slash is tolerated.
func (t *Table) Resolve(target string) (Match, bool) {
	p := PathOf(target)
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}

	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: p}}
	var m mux.RouteMatch
	if !t.router.Match(req, &m) || m.Route == nil {
		return Match{}, false
	}
	r, ok := t.byName[m.Route.GetName()]
	if !ok {
		return Match{}, false
	}
	return Match{Route: r, Params: m.Vars}, true
}

// URL builds the path of a named route from key/value pairs.
func (t *Table) URL(name string, pairs ...string) (string, error) {
	route := t.router.Get(name)
	if route == nil {
		return "", fmt.Errorf("unknown route %q", name)
	}
	u, err := route.URLPath(pairs...)
	if err != nil {
		return "", fmt.Errorf("build %q: %w", name, err)
	}
	return u.Path, nil
}

// PathOf returns the path component of a front-end location such as
// "/messages?tab=unread". Empty input is treated as "/".
func PathOf(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return "/"
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return target
}

// IsAuthPage reports whether target is the login or register view.
func IsAuthPage(target string) bool {
	p := PathOf(target)
	return p == LoginPath || strings.HasPrefix(p, LoginPath+"/") ||
		p == "/register" || strings.HasPrefix(p, "/register/")
}

// LoginRedirect returns the login location carrying the intended target.
func LoginRedirect(target string) string {
	return LoginPath + "?redirect=" + url.QueryEscape(target)
}

// SafeRedirect returns target when it is a local absolute path, otherwise "/".
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
