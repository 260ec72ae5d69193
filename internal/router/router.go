package router

import (
	"net/http"
	"strings"
)

// Router wires HTTP handlers without relying on ServeMux so custom 404 logic
// and per-method dispatch for the API endpoints stay possible.
type Router struct {
	exact    map[string]http.Handler
	methods  map[string]map[string]http.Handler // path -> method -> handler
	prefixes []prefixHandler
	notFound http.Handler
}

type prefixHandler struct {
	prefix  string
	handler http.Handler
}

// New constructs a fresh Router.
func New() *Router {
	return &Router{
		exact:   make(map[string]http.Handler),
		methods: make(map[string]map[string]http.Handler),
	}
}

// Handle registers an exact path match for all methods.
func (r *Router) Handle(path string, handler http.Handler) {
	if path == "" || handler == nil {
		return
	}
	r.exact[path] = handler
}

// HandleFunc registers an exact path match via a function.
func (r *Router) HandleFunc(path string, fn http.HandlerFunc) {
	if fn == nil {
		return
	}
	r.Handle(path, http.HandlerFunc(fn))
}

// HandleMethod registers a handler for one HTTP method on an exact path.
// Requests to the path with an unregistered method receive 405 with an
// Allow header listing the methods that are registered.
func (r *Router) HandleMethod(method, path string, handler http.Handler) {
	if method == "" || path == "" || handler == nil {
		return
	}
	byMethod, ok := r.methods[path]
	if !ok {
		byMethod = make(map[string]http.Handler)
		r.methods[path] = byMethod
	}
	byMethod[strings.ToUpper(method)] = handler
}

// HandlePrefix registers a prefix match (e.g. for static assets).
func (r *Router) HandlePrefix(prefix string, handler http.Handler) {
	if prefix == "" || handler == nil {
		return
	}
	r.prefixes = append(r.prefixes, prefixHandler{prefix: prefix, handler: handler})
}

// NotFound sets the fallback handler.
func (r *Router) NotFound(handler http.Handler) {
	r.notFound = handler
}

// ServeHTTP satisfies http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if byMethod, ok := r.methods[req.URL.Path]; ok {
		if handler, ok := byMethod[req.Method]; ok {
			handler.ServeHTTP(w, req)
			return
		}
		w.Header().Set("Allow", allowHeader(byMethod))
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if handler, ok := r.exact[req.URL.Path]; ok {
		handler.ServeHTTP(w, req)
		return
	}

	for _, ph := range r.prefixes {
		if ph.handler == nil {
			continue
		}
		if strings.HasPrefix(req.URL.Path, ph.prefix) {
			ph.handler.ServeHTTP(w, req)
			return
		}
	}

	if r.notFound != nil {
		r.notFound.ServeHTTP(w, req)
		return
	}

	http.NotFound(w, req)
}

func allowHeader(byMethod map[string]http.Handler) string {
	methods := make([]string, 0, len(byMethod))
	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions} {
		if _, ok := byMethod[m]; ok {
			methods = append(methods, m)
		}
	}
	return strings.Join(methods, ", ")
}
