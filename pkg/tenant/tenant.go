package tenant

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
)

// ErrTenantContextMissing is returned when an operation runs without a tenant
var ErrTenantContextMissing = errors.New("tenant context is missing")

// ErrInvalidTenantID is returned when a raw tenant id is not a valid uuid
var ErrInvalidTenantID = errors.New("tenant id is invalid")

type contextKey string

const tenantKey contextKey = "tenant"

// WithTenant returns a context scoped to a given tenant.
// The tenant is also attached to the diag context so logs are tagged with it
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	ctx = context.WithValue(ctx, tenantKey, tenantID)
	return diag.ContextWithTenantID(ctx, tenantID.String())
}

// FromContext returns tenant of a given context. Nil uuid is treated as missing tenant
func FromContext(ctx context.Context) (uuid.UUID, error) {
	if ctx == nil {
		return uuid.Nil, ErrTenantContextMissing
	}
	tenantID, ok := ctx.Value(tenantKey).(uuid.UUID)
	if !ok || uuid.Equal(tenantID, uuid.Nil) {
		return uuid.Nil, ErrTenantContextMissing
	}
	return tenantID, nil
}

// ParseID parses raw tenant id
func ParseID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, ErrTenantContextMissing
	}
	tenantID, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, errors.Wrap(ErrInvalidTenantID, err.Error())
	}
	if uuid.Equal(tenantID, uuid.Nil) {
		return uuid.Nil, ErrInvalidTenantID
	}
	return tenantID, nil
}

// Provider exposes the tenant an operation runs for
type Provider interface {
	CurrentTenant(ctx context.Context) (uuid.UUID, error)
}

type contextProvider struct{}

func (contextProvider) CurrentTenant(ctx context.Context) (uuid.UUID, error) {
	return FromContext(ctx)
}

// NewContextProvider returns a provider that reads tenant from a context.
// See WithTenant
func NewContextProvider() Provider {
	return contextProvider{}
}
