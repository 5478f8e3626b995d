package diag

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// responseRecorder captures what a handler has sent
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *responseRecorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

type logRequestsMiddlewareCfg struct {
	ignorePaths      map[string]bool
	obfuscateHeaders []string
	logger           Logger
	runtimeMemMb     func() float64
	now              func() time.Time
}

// LogRequestsMiddlewareOpt is a type used to supply various opts
// for requests logger middleware
type LogRequestsMiddlewareOpt func(*logRequestsMiddlewareCfg)

// IgnorePath option specify paths to skip log requests for
func IgnorePath(path string) LogRequestsMiddlewareOpt {
	return func(cfg *logRequestsMiddlewareCfg) {
		cfg.ignorePaths[path] = true
	}
}

// ObfuscateHeaders option provides a list of headers to log without values
func ObfuscateHeaders(headers ...string) LogRequestsMiddlewareOpt {
	return func(cfg *logRequestsMiddlewareCfg) {
		cfg.obfuscateHeaders = append(cfg.obfuscateHeaders, headers...)
	}
}

func obfuscated(val string) string {
	return fmt.Sprint("*obfuscated, length=", len(val), "*")
}

func flattenAndObfuscate(values map[string][]string, obfuscateKeys ...string) map[string]string {
	hidden := make(map[string]bool, len(obfuscateKeys))
	for _, key := range obfuscateKeys {
		hidden[http.CanonicalHeaderKey(key)] = true
	}
	flattened := make(map[string]string, len(values))
	for key, val := range values {
		joined := strings.Join(val, ", ")
		if hidden[http.CanonicalHeaderKey(key)] {
			joined = obfuscated(joined)
		}
		flattened[key] = joined
	}
	return flattened
}

func runtimeMemMb() float64 {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	return math.Round(float64(memStats.Alloc)/1024.0/1024.0*1000) / 1000
}

func splitRemoteAddr(addr string) (ip string, port string, ok bool) {
	ip, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, "", false
	}
	return ip, port, true
}

// NewLogRequestsMiddleware logs start and end of every request. End of
// a failed request is logged as error for 5xx and as warning for 4xx
func NewLogRequestsMiddleware(opts ...LogRequestsMiddlewareOpt) func(next http.Handler) http.Handler {
	cfg := logRequestsMiddlewareCfg{
		ignorePaths:      map[string]bool{"/v1/healthcheck/ping": true},
		obfuscateHeaders: []string{"Authorization"},
		runtimeMemMb:     runtimeMemMb,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = CreateLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			path := req.URL.Path
			if cfg.ignorePaths[path] {
				next.ServeHTTP(w, req)
				return
			}
			ctx := req.Context()

			ip, port, ok := splitRemoteAddr(req.RemoteAddr)
			if !ok {
				cfg.logger.Warn(ctx, "Can not parse remote addr: %v", req.RemoteAddr)
			}
			cfg.logger.
				WithData(MsgData{
					"method":        req.Method,
					"url":           req.URL.RequestURI(),
					"path":          path,
					"userAgent":     req.UserAgent(),
					"headers":       flattenAndObfuscate(req.Header, cfg.obfuscateHeaders...),
					"query":         flattenAndObfuscate(req.URL.Query()),
					"remoteAddress": ip,
					"remotePort":    port,
					"memoryUsageMb": cfg.runtimeMemMb(),
				}).
				Info(ctx, "BEGIN REQ: %s %s", req.Method, path)

			recorder := &responseRecorder{ResponseWriter: w}
			startedAt := cfg.now()
			next.ServeHTTP(recorder, req)
			duration := cfg.now().Sub(startedAt)

			status := recorder.statusCode()
			endLogger := cfg.logger.WithData(MsgData{
				"statusCode":    status,
				"bytesWritten":  recorder.bytes,
				"headers":       flattenAndObfuscate(w.Header()),
				"duration":      duration.Seconds(),
				"memoryUsageMb": cfg.runtimeMemMb(),
			})
			logEnd := endLogger.Info
			switch {
			case status >= http.StatusInternalServerError:
				logEnd = endLogger.Error
			case status >= http.StatusBadRequest:
				logEnd = endLogger.Warn
			}
			logEnd(ctx, "END REQ: %v - %v", status, path)
		})
	}
}
