package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gopkg.in/go-playground/validator.v9"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
)

var logger = diag.CreateLogger()

type contextKey string

const (
	validatorRequestKey   contextKey = "validator"
	pathParamValueFuncKey contextKey = "path-param-value-func"
)

type pathParamValueFunc func(req *http.Request, name string) string

// MiddlewareFunc is a function that can be injected into a request chain
type MiddlewareFunc func(next http.Handler) http.Handler

// Router is a layer to abstract underlying http router implementation
// so we could swap it with relatively low efforts
type Router interface {
	// Handle registers a handler. Path params are declared as
	// /v1/accounts/:id and read with PathParam of a params binder
	Handle(method string, pattern string, handler http.Handler)

	// Use appends a middleware. Middlewares run after routing and
	// only for matched routes
	Use(mw MiddlewareFunc)

	pathParam(r *http.Request, name string) string

	ServeHTTP(http.ResponseWriter, *http.Request)
}

type routerCfg struct {
	validations map[string]validator.Func
}

// RouterOpt is an option of the router
type RouterOpt func(cfg *routerCfg)

// WithValidation registers custom validation to be used in validate tags
// of params and payloads
func WithValidation(tag string, fn validator.Func) RouterOpt {
	return func(cfg *routerCfg) {
		cfg.validations[tag] = fn
	}
}

// recoverer responds with a consistent 500 error if a handler panics
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.
				WithData(diag.MsgData{"panic": fmt.Sprint(rec)}).
				Error(r.Context(), "Request handler panic")
			newHTTPErrorFromError(fmt.Errorf("internal server error")).Send(w)
		}()
		next.ServeHTTP(w, r)
	})
}

// toolsInjector puts tools required by ToolkitHandlerFunc into request context
func toolsInjector(vdt *structValidator, pathParam pathParamValueFunc) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), validatorRequestKey, vdt)
			ctx = context.WithValue(ctx, pathParamValueFuncKey, pathParam)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CreateRouter returns default router implementation. Unmatched
// requests get a json 404 response and handler panics a json 500 one
func CreateRouter(opts ...RouterOpt) Router {
	cfg := &routerCfg{validations: map[string]validator.Func{}}
	for _, opt := range opts {
		opt(cfg)
	}

	router := createGojiRouter()
	router.Use(recoverer)
	router.Use(toolsInjector(newStructValidator(cfg.validations), router.pathParam))
	return router
}

// NewServer returns http server for a given handler. The caller is responsible to
// ListenAndServe and Shutdown it
func NewServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%v", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
