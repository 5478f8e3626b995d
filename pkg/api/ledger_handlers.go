package api

import (
	"net/http"
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/router"
)

type rideChargePayload struct {
	AccountID   uuid.UUID       `json:"accountId" validate:"required"`
	RideID      string          `json:"rideId" validate:"required,max=100"`
	Fare        decimal.Decimal `json:"fare"`
	ServiceDate time.Time       `json:"serviceDate" validate:"required,notinfuture"`
	FleetID     string          `json:"fleetId" validate:"max=100"`
}

type paymentPayload struct {
	AccountID          uuid.UUID       `json:"accountId" validate:"required"`
	PaymentReferenceID string          `json:"paymentReferenceId" validate:"required,max=100"`
	Amount             decimal.Decimal `json:"amount"`
	PaymentDate        time.Time       `json:"paymentDate" validate:"required"`
	PaymentMode        string          `json:"paymentMode" validate:"max=50"`
}

// decimals are structs so validate tags do not apply to them
func validateAmount(amount decimal.Decimal) error {
	if amount.GreaterThan(maxAmount) {
		return router.BadRequestError("ValidationFailed: amount must not exceed " + maxAmount.String())
	}
	return nil
}

func writeRecordResult(h router.HandlerToolkit, result *ledger.RecordResult) error {
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return h.WriteJSON(
		newTransactionResponse(result.Transaction),
		h.WithHeader("Location", "/v1/ledger/transactions/"+result.Transaction.ID().String()),
		h.WithStatus(status),
	)
}

func (a *api) recordRideCharge(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	var payload rideChargePayload
	if err := h.BindPayload(&payload); err != nil {
		return err
	}
	if err := validateAmount(payload.Fare); err != nil {
		return err
	}
	result, err := a.ledger.RecordRideCharge(req.Context(), ledger.RecordRideChargeCmd{
		AccountID:   payload.AccountID,
		RideID:      payload.RideID,
		Fare:        payload.Fare,
		ServiceDate: payload.ServiceDate,
		FleetID:     payload.FleetID,
	})
	if err != nil {
		return err
	}
	return writeRecordResult(h, result)
}

func (a *api) recordPayment(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	var payload paymentPayload
	if err := h.BindPayload(&payload); err != nil {
		return err
	}
	if err := validateAmount(payload.Amount); err != nil {
		return err
	}
	result, err := a.ledger.RecordPayment(req.Context(), ledger.RecordPaymentCmd{
		AccountID:          payload.AccountID,
		PaymentReferenceID: payload.PaymentReferenceID,
		Amount:             payload.Amount,
		PaymentDate:        payload.PaymentDate,
		PaymentMode:        payload.PaymentMode,
	})
	if err != nil {
		return err
	}
	return writeRecordResult(h, result)
}

func (a *api) getTransaction(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	transactionID, err := bindID(h)
	if err != nil {
		return err
	}
	trx, err := a.ledger.GetTransaction(req.Context(), transactionID)
	if err != nil {
		return err
	}
	return h.WriteJSON(newTransactionResponse(trx))
}

func (a *api) getAccountBalance(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	accountID, err := bindID(h)
	if err != nil {
		return err
	}
	balance, err := a.ledger.GetAccountBalance(req.Context(), accountID)
	if err != nil {
		return err
	}
	return h.WriteJSON(balanceResponse{AccountID: accountID, Balance: balance})
}

type listTransactionsParams struct {
	From   time.Time
	To     time.Time
	Limit  int `validate:"min=0,max=500"`
	Offset int `validate:"min=0"`
}

func (a *api) listAccountTransactions(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	var accountID uuid.UUID
	var params listTransactionsParams
	if err := h.BindParams().
		PathParam("id").UUID(&accountID).
		QueryParam("from").Time(&params.From).
		QueryParam("to").Time(&params.To).
		QueryParam("limit").Int(&params.Limit).
		QueryParam("offset").Int(&params.Offset).
		Validate(&params); err != nil {
		return err
	}
	trxs, err := a.ledger.ListAccountTransactions(req.Context(), accountID, ledger.TransactionsQuery{
		From:   params.From,
		To:     params.To,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return err
	}
	res := make([]transactionResponse, 0, len(trxs))
	for _, trx := range trxs {
		res = append(res, newTransactionResponse(trx))
	}
	return h.WriteJSON(res)
}
