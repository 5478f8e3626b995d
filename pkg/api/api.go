// Package api exposes the ledger and accounts services over http
package api

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/go-playground/validator.v9"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/accounts"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/router"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/money"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/tenant"
)

var logger = diag.CreateLogger()

// TenantIDHeader is a header that scopes a request to a tenant
const TenantIDHeader = "X-Tenant-ID"

const pingPath = "/v1/healthcheck/ping"

// maxAmount is a max amount accepted for a single charge or payment
var maxAmount = decimal.RequireFromString("999999.99")

// maxServiceDateAhead is how far in the future a service date may be
const maxServiceDateAhead = 24 * time.Hour

type api struct {
	ledger   ledger.Service
	accounts accounts.Service
	now      func() time.Time
}

// Opt is an option of the api
type Opt func(a *api)

// WithLedger sets the ledger service
func WithLedger(svc ledger.Service) Opt {
	return func(a *api) {
		a.ledger = svc
	}
}

// WithAccounts sets the accounts service
func WithAccounts(svc accounts.Service) Opt {
	return func(a *api) {
		a.accounts = svc
	}
}

// WithNow sets a clock used to validate dates
func WithNow(now func() time.Time) Opt {
	return func(a *api) {
		a.now = now
	}
}

func (a *api) notInFuture(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !value.After(a.now().Add(maxServiceDateAhead))
}

// NewTenantMiddleware rejects requests without a valid tenant header
// and scopes the request context to the tenant
func NewTenantMiddleware() router.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path == pingPath {
				next.ServeHTTP(w, req)
				return
			}
			tenantID, err := tenant.ParseID(req.Header.Get(TenantIDHeader))
			if err != nil {
				logger.WithError(err).Info(req.Context(), "Rejecting request without valid tenant")
				var httpErr router.HTTPError
				if errors.As(mapError(err), &httpErr) {
					httpErr.Send(w)
				}
				return
			}
			next.ServeHTTP(w, req.WithContext(tenant.WithTenant(req.Context(), tenantID)))
		})
	}
}

// mapError translates domain errors to http errors,
// unknown errors are returned as is and result in 500
func mapError(err error) error {
	switch {
	case errors.Is(err, tenant.ErrTenantContextMissing):
		return router.NewCodedHTTPError(http.StatusBadRequest, router.CodeMissingTenantID,
			TenantIDHeader+" header is required")
	case errors.Is(err, tenant.ErrInvalidTenantID):
		return router.NewCodedHTTPError(http.StatusBadRequest, router.CodeInvalidTenantID,
			TenantIDHeader+" header must be a valid uuid")
	case errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, ledger.ErrInvalidReference),
		errors.Is(err, ledger.ErrInvalidDateRange),
		errors.Is(err, accounts.ErrInvalidAccount):
		return router.BadRequestError(err.Error())
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, accounts.ErrAccountNotFound):
		return router.ResourceNotFoundError(err.Error())
	case errors.Is(err, accounts.ErrDuplicateCode),
		errors.Is(err, accounts.ErrAccountClosed):
		return router.ConflictError(err.Error())
	}
	return err
}

func handle(fn router.ToolkitHandlerFunc) router.ToolkitHandlerFunc {
	return func(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
		return mapError(fn(w, req, h))
	}
}

// NewRouter returns a router with all api routes
func NewRouter(opts ...Opt) router.Router {
	a := &api{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	r := router.CreateRouter(router.WithValidation("notinfuture", a.notInFuture))
	r.Use(NewTenantMiddleware())

	r.Handle("GET", pingPath, router.ToolkitHandlerFunc(ping))

	r.Handle("POST", "/v1/ledger/charges", handle(a.recordRideCharge))
	r.Handle("POST", "/v1/ledger/payments", handle(a.recordPayment))
	r.Handle("GET", "/v1/ledger/transactions/:id", handle(a.getTransaction))

	r.Handle("POST", "/v1/accounts", handle(a.createAccount))
	r.Handle("GET", "/v1/accounts", handle(a.listAccounts))
	r.Handle("GET", "/v1/accounts/:id", handle(a.getAccount))
	r.Handle("PUT", "/v1/accounts/:id", handle(a.updateAccount))
	r.Handle("POST", "/v1/accounts/:id/activate", handle(a.activateAccount))
	r.Handle("POST", "/v1/accounts/:id/deactivate", handle(a.deactivateAccount))
	r.Handle("POST", "/v1/accounts/:id/close", handle(a.closeAccount))
	r.Handle("GET", "/v1/accounts/:id/balance", handle(a.getAccountBalance))
	r.Handle("GET", "/v1/accounts/:id/transactions", handle(a.listAccountTransactions))

	return r
}

func ping(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	return h.WriteJSON(map[string]string{"status": "ok"})
}
