package diag

import (
	"net/http"

	uuid "github.com/satori/go.uuid"
)

// Note: router can not be referenced here since it would create cyclic imports
// so middlewares are plain func(http.Handler) http.Handler

// RequestIDHeader is a header used to pass request id between services
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength limits ids accepted from clients
const maxRequestIDLength = 128

type requestIDMiddlewareCfg struct {
	newRequestID func() string
}

type requestIDMiddlewareSetup func(cfg *requestIDMiddlewareCfg)

func withRequestIDGenerator(gen func() string) requestIDMiddlewareSetup {
	return func(cfg *requestIDMiddlewareCfg) {
		cfg.newRequestID = gen
	}
}

// acceptableRequestID reports if id of a client can be logged and echoed back as is
func acceptableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

// NewRequestIDMiddleware creates a middleware that puts request id into
// the request context and the response header. Id of a client is reused
// if acceptable, a new one is generated otherwise
func NewRequestIDMiddleware(setup ...requestIDMiddlewareSetup) func(next http.Handler) http.Handler {
	cfg := requestIDMiddlewareCfg{
		newRequestID: func() string { return uuid.NewV4().String() },
	}
	for _, setupFn := range setup {
		setupFn(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			requestID := req.Header.Get(RequestIDHeader)
			if !acceptableRequestID(requestID) {
				requestID = cfg.newRequestID()
			}
			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, req.WithContext(ContextWithRequestID(req.Context(), requestID)))
		})
	}
}
