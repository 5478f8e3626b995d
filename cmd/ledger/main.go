package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/app"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/tenant"
)

var logger = diag.CreateLogger()

var cliArgs struct {
	cmd     string
	tenant  string
	account string
	ref     string
	amount  string
	date    string
	mode    string
	fleet   string
}

func init() {
	flag.StringVar(&cliArgs.cmd, "cmd", "", "Command to run. Available commands: charge, payment, balance")
	flag.StringVar(&cliArgs.tenant, "tenant", "", "Tenant id")
	flag.StringVar(&cliArgs.account, "account", "", "Account id")
	flag.StringVar(&cliArgs.ref, "ref", "", "Ride id of a charge or reference id of a payment")
	flag.StringVar(&cliArgs.amount, "amount", "", "Fare of a charge or amount of a payment")
	flag.StringVar(&cliArgs.date, "date", "", "Service or payment date (RFC3339), now if empty")
	flag.StringVar(&cliArgs.mode, "mode", "", "Payment mode")
	flag.StringVar(&cliArgs.fleet, "fleet", "", "Fleet id of a charge")

	flag.Parse()
}

func showHelpAndExit() {
	flag.PrintDefaults()
	os.Exit(1)
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

type recordedTransaction struct {
	ID             uuid.UUID       `json:"id"`
	IdempotencyKey string          `json:"idempotencyKey"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Replayed       bool            `json:"replayed"`
}

func printResult(result *ledger.RecordResult) error {
	return printJSON(recordedTransaction{
		ID:             result.Transaction.ID(),
		IdempotencyKey: result.Transaction.IdempotencyKey(),
		Description:    result.Transaction.Description(),
		Amount:         result.Transaction.TotalDebit(),
		Replayed:       result.Replayed,
	})
}

func parseRecordArgs() (decimal.Decimal, time.Time, error) {
	amount, err := decimal.NewFromString(cliArgs.amount)
	if err != nil {
		return decimal.Zero, time.Time{}, errors.Wrap(err, "Failed to parse amount")
	}
	date := time.Now()
	if cliArgs.date != "" {
		if date, err = time.Parse(time.RFC3339, cliArgs.date); err != nil {
			return decimal.Zero, time.Time{}, errors.Wrap(err, "Failed to parse date")
		}
	}
	return amount, date, nil
}

func run(ctx context.Context, svc ledger.Service, accountID uuid.UUID) error {
	switch cliArgs.cmd {
	case "charge":
		fare, serviceDate, err := parseRecordArgs()
		if err != nil {
			return err
		}
		result, err := svc.RecordRideCharge(ctx, ledger.RecordRideChargeCmd{
			AccountID:   accountID,
			RideID:      cliArgs.ref,
			Fare:        fare,
			ServiceDate: serviceDate,
			FleetID:     cliArgs.fleet,
		})
		if err != nil {
			return err
		}
		return printResult(result)
	case "payment":
		amount, paymentDate, err := parseRecordArgs()
		if err != nil {
			return err
		}
		result, err := svc.RecordPayment(ctx, ledger.RecordPaymentCmd{
			AccountID:          accountID,
			PaymentReferenceID: cliArgs.ref,
			Amount:             amount,
			PaymentDate:        paymentDate,
			PaymentMode:        cliArgs.mode,
		})
		if err != nil {
			return err
		}
		return printResult(result)
	case "balance":
		balance, err := svc.GetAccountBalance(ctx, accountID)
		if err != nil {
			return err
		}
		fmt.Println(balance.StringFixed(2))
		return nil
	}
	showHelpAndExit()
	return nil
}

func main() {
	if cliArgs.cmd == "" || cliArgs.account == "" {
		showHelpAndExit()
	}
	ctx := context.Background()

	tenantID, err := tenant.ParseID(cliArgs.tenant)
	if err != nil {
		logger.WithError(err).Error(ctx, "Invalid tenant: %q", cliArgs.tenant)
		os.Exit(1)
	}
	accountID, err := uuid.FromString(cliArgs.account)
	if err != nil {
		logger.WithError(err).Error(ctx, "Invalid account: %q", cliArgs.account)
		os.Exit(1)
	}
	ctx = tenant.WithTenant(ctx, tenantID)

	appCfg, err := app.LoadConfig()
	if err != nil {
		logger.WithError(err).Error(ctx, "Failed to load app config")
		os.Exit(1)
	}

	injector := app.BootstrapServices(ctx, appCfg)
	if err := injector(func(svc ledger.Service) error {
		return run(ctx, svc, accountID)
	}); err != nil {
		logger.WithError(err).Error(ctx, "Failed to run %v", cliArgs.cmd)
		os.Exit(1)
	}
	if err := app.Shutdown(injector); err != nil {
		logger.WithError(err).Warn(ctx, "Failed to release services")
	}
}
