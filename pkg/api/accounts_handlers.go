package api

import (
	"net/http"

	uuid "github.com/satori/go.uuid"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/accounts"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/router"
)

func bindID(h router.HandlerToolkit) (uuid.UUID, error) {
	var id uuid.UUID
	err := h.BindParams().PathParam("id").UUID(&id).Validate(nil)
	return id, err
}

type createAccountPayload struct {
	Code            string     `json:"code" validate:"required"`
	Name            string     `json:"name" validate:"required"`
	Description     string     `json:"description"`
	Type            string     `json:"type" validate:"required"`
	Currency        string     `json:"currency"`
	ParentAccountID *uuid.UUID `json:"parentAccountId"`
}

type updateAccountPayload struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (a *api) createAccount(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	var payload createAccountPayload
	if err := h.BindPayload(&payload); err != nil {
		return err
	}
	accountType, err := accounts.ParseType(payload.Type)
	if err != nil {
		return err
	}
	cmd := accounts.CreateAccountCmd{
		Code:        payload.Code,
		Name:        payload.Name,
		Description: payload.Description,
		Type:        accountType,
		Currency:    payload.Currency,
	}
	if payload.ParentAccountID != nil {
		cmd.ParentAccountID = uuid.NullUUID{UUID: *payload.ParentAccountID, Valid: true}
	}
	account, err := a.accounts.CreateAccount(req.Context(), cmd)
	if err != nil {
		return err
	}
	return h.WriteJSON(
		newAccountResponse(account),
		h.WithHeader("Location", "/v1/accounts/"+account.ID().String()),
		h.WithStatus(http.StatusCreated),
	)
}

type listAccountsParams struct {
	Type       string
	Status     string
	PageNumber int `validate:"min=0"`
	PageSize   int `validate:"min=0,max=500"`
}

func (a *api) listAccounts(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	var params listAccountsParams
	if err := h.BindParams().
		QueryParam("type").String(&params.Type).
		QueryParam("status").String(&params.Status).
		QueryParam("pageNumber").Int(&params.PageNumber).
		QueryParam("pageSize").Int(&params.PageSize).
		Validate(&params); err != nil {
		return err
	}
	query := accounts.ListQuery{PageNumber: params.PageNumber, PageSize: params.PageSize}
	var err error
	if params.Type != "" {
		if query.Type, err = accounts.ParseType(params.Type); err != nil {
			return err
		}
	}
	if params.Status != "" {
		if query.Status, err = accounts.ParseStatus(params.Status); err != nil {
			return err
		}
	}
	list, err := a.accounts.ListAccounts(req.Context(), query)
	if err != nil {
		return err
	}
	res := make([]accountResponse, 0, len(list))
	for _, account := range list {
		res = append(res, newAccountResponse(account))
	}
	return h.WriteJSON(res)
}

func (a *api) getAccount(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	accountID, err := bindID(h)
	if err != nil {
		return err
	}
	account, err := a.accounts.GetAccount(req.Context(), accountID)
	if err != nil {
		return err
	}
	return h.WriteJSON(newAccountResponse(account))
}

func (a *api) updateAccount(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	accountID, err := bindID(h)
	if err != nil {
		return err
	}
	var payload updateAccountPayload
	if err := h.BindPayload(&payload); err != nil {
		return err
	}
	cmd := accounts.UpdateAccountCmd{Name: payload.Name, Description: payload.Description}
	if payload.Status != nil {
		status, err := accounts.ParseStatus(*payload.Status)
		if err != nil {
			return err
		}
		cmd.Status = &status
	}
	account, err := a.accounts.UpdateAccount(req.Context(), accountID, cmd)
	if err != nil {
		return err
	}
	return h.WriteJSON(newAccountResponse(account))
}

type accountAction func(svc accounts.Service, req *http.Request, accountID uuid.UUID) (*accounts.Account, error)

func (a *api) accountAction(h router.HandlerToolkit, req *http.Request, action accountAction) error {
	accountID, err := bindID(h)
	if err != nil {
		return err
	}
	account, err := action(a.accounts, req, accountID)
	if err != nil {
		return err
	}
	return h.WriteJSON(newAccountResponse(account))
}

func (a *api) activateAccount(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	return a.accountAction(h, req, func(svc accounts.Service, req *http.Request, id uuid.UUID) (*accounts.Account, error) {
		return svc.ActivateAccount(req.Context(), id)
	})
}

func (a *api) deactivateAccount(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	return a.accountAction(h, req, func(svc accounts.Service, req *http.Request, id uuid.UUID) (*accounts.Account, error) {
		return svc.DeactivateAccount(req.Context(), id)
	})
}

func (a *api) closeAccount(w http.ResponseWriter, req *http.Request, h router.HandlerToolkit) error {
	return a.accountAction(h, req, func(svc accounts.Service, req *http.Request, id uuid.UUID) (*accounts.Account, error) {
		return svc.CloseAccount(req.Context(), id)
	})
}
