package diag

import "context"

type contextKeys string

const (
	requestIDKey contextKeys = "requestID"
	tenantIDKey  contextKeys = "tenantID"
)

// ContextWithRequestID - create context with requestID
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDValue - returns requestID value taken from context
func RequestIDValue(ctx context.Context) string {
	val, _ := ctx.Value(requestIDKey).(string)
	return val
}

// ContextWithTenantID - create context with tenantID so every
// log message of the request is tagged with it
func ContextWithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantIDValue - returns tenantID value taken from context
func TenantIDValue(ctx context.Context) string {
	val, _ := ctx.Value(tenantIDKey).(string)
	return val
}

func contextFields(ctx context.Context) map[string]string {
	if ctx == nil {
		return nil
	}
	var fields map[string]string
	add := func(key, val string) {
		if val == "" {
			return
		}
		if fields == nil {
			fields = make(map[string]string, 2)
		}
		fields[key] = val
	}
	add("requestID", RequestIDValue(ctx))
	add("tenantID", TenantIDValue(ctx))
	return fields
}
