package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Conventional route defaults.
const (
	DefaultRouteName    = "default"
	DefaultRoutePattern = "{controller=Home}/{action=Index}/{id?}"
	DefaultController   = "Home"
	DefaultAction       = "Index"
)

// Action handles one controller action. A returned error is passed to the
// error boundary.
type Action func(w http.ResponseWriter, r *http.Request) error

// Controller groups actions under a name. Names are matched case-insensitively.
type Controller struct {
	Name    string
	Actions map[string]Action
}

type namedRoute struct {
	name    string
	method  string
	pattern string
	action  Action
}

// Routes is the routing table: explicit named routes first, then the
// conventional controller route. It is built at startup and only read while
// serving.
type Routes struct {
	named       []namedRoute
	controllers map[string]map[string]Action
}

// NewRoutes returns an empty routing table.
func NewRoutes() *Routes {
	return &Routes{controllers: make(map[string]map[string]Action)}
}

// Handle registers an explicit route ahead of the conventional one.
func (rt *Routes) Handle(name, method, pattern string, action Action) {
	rt.named = append(rt.named, namedRoute{name: name, method: method, pattern: pattern, action: action})
}

// Register adds c to the conventional route. Registering the same name
// twice merges the action sets.
func (rt *Routes) Register(c Controller) {
	key := strings.ToLower(c.Name)
	actions, ok := rt.controllers[key]
	if !ok {
		actions = make(map[string]Action, len(c.Actions))
		rt.controllers[key] = actions
	}
	for name, a := range c.Actions {
		actions[strings.ToLower(name)] = a
	}
}

// Lookup resolves a controller/action pair, applying the defaults for empty names.
func (rt *Routes) Lookup(controller, action string) (Action, bool) {
	if controller == "" {
		controller = DefaultController
	}
	if action == "" {
		action = DefaultAction
	}
	a, ok := rt.controllers[strings.ToLower(controller)][strings.ToLower(action)]
	return a, ok
}

// Routing dispatches matched requests to actions. Unmatched requests,
// including unknown controllers or actions, continue to the next stage.
func Routing(rt *Routes) Stage {
	return Stage{Name: StageRouting, Wrap: func(next http.Handler) http.Handler {
		if rt == nil {
			return next
		}
		return rt.handler(next)
	}}
}

func (rt *Routes) handler(next http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.NotFound(next.ServeHTTP)
	r.MethodNotAllowed(next.ServeHTTP)

	for _, nr := range rt.named {
		r.MethodFunc(nr.method, nr.pattern, dispatch(nr.action))
	}

	conventional := func(w http.ResponseWriter, req *http.Request) {
		action, ok := rt.Lookup(chi.URLParam(req, "controller"), chi.URLParam(req, "action"))
		if !ok {
			next.ServeHTTP(w, req)
			return
		}
		dispatch(action)(w, req)
	}
	r.HandleFunc("/", conventional)
	r.HandleFunc("/{controller}", conventional)
	r.HandleFunc("/{controller}/{action}", conventional)
	r.HandleFunc("/{controller}/{action}/{id}", conventional)

	return r
}

func dispatch(action Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := action(w, r); err != nil {
			if !ReportError(r, err) {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}
	}
}

// RouteID returns the optional {id} segment of the conventional route.
func RouteID(r *http.Request) string {
	return chi.URLParam(r, "id")
}
