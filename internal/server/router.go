package server

import (
	"net/http"
	"strings"
)

// BasicRouter implements [Router] on top of [http.ServeMux].
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
	}
}

// Use appends middleware. The first one added is the outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method and path. GET routes also answer HEAD.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	wrapped := r.Apply(allowMethods(handler, method))
	r.mux.Handle(path, wrapped)
}

// Handler registers h for every pattern in [Handler.Routes].
func (r *BasicRouter) Handler(h Handler) {
	wrapped := r.Apply(h)
	for _, route := range h.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

// allowMethods rejects requests whose method is not in methods with 405.
func allowMethods(next http.Handler, methods ...string) http.Handler {
	allowed := make([]string, 0, len(methods)+1)
	for _, m := range methods {
		allowed = append(allowed, strings.ToUpper(m))
		if strings.EqualFold(m, http.MethodGet) {
			allowed = append(allowed, http.MethodHead)
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		for _, m := range allowed {
			if strings.EqualFold(req.Method, m) {
				next.ServeHTTP(w, req)
				return
			}
		}
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}
