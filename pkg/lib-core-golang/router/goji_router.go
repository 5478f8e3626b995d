package router

import (
	"net/http"

	"goji.io"
	"goji.io/middleware"
	"goji.io/pat"
)

type gojiRouter struct {
	mux *goji.Mux
}

func (g *gojiRouter) Handle(method string, pattern string, handler http.Handler) {
	g.mux.Handle(pat.NewWithMethods(pattern, method), handler)
}

func (g *gojiRouter) Use(mw MiddlewareFunc) {
	g.mux.Use(mw)
}

func (g *gojiRouter) pathParam(r *http.Request, name string) string {
	return pat.Param(r, name)
}

func (g *gojiRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

// notFound replaces default plain text response of goji for unmatched routes
func notFound(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.Handler(r.Context()) == nil {
			logger.Info(r.Context(), "No route for %v %v", r.Method, r.URL.Path)
			ResourceNotFoundError("Route not found: " + r.Method + " " + r.URL.Path).(HTTPError).Send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func createGojiRouter() *gojiRouter {
	mux := goji.NewMux()
	mux.Use(notFound)
	return &gojiRouter{mux: mux}
}
