package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/app"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/router"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/version"
)

var logger = diag.CreateLogger()

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	appCfg, err := app.LoadConfig()
	if err != nil {
		logger.WithError(err).Error(ctx, "Failed to load app config")
		os.Exit(1)
	}

	injector := app.BootstrapServices(ctx, appCfg)

	if err := injector(func(r router.Router) error {
		handler := diag.NewRequestIDMiddleware()(diag.NewLogRequestsMiddleware()(r))
		server := router.NewServer(appCfg.Server.Port.Value(), handler)

		group, groupCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			logger.Info(ctx, "Starting %v (%v) on %v", version.AppName, version.Version, server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		group.Go(func() error {
			<-groupCtx.Done()
			logger.Info(ctx, "Shutting down the server")
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancelShutdown()
			return server.Shutdown(shutdownCtx)
		})
		return group.Wait()
	}); err != nil {
		logger.WithError(err).Error(ctx, "Server failed")
		os.Exit(1)
	}

	if err := app.Shutdown(injector); err != nil {
		logger.WithError(err).Error(ctx, "Failed to release services")
		os.Exit(1)
	}
	logger.Info(ctx, "Server stopped")
}
