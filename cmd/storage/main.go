package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/app"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/dal"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
)

var logger = diag.CreateLogger()

type command struct {
	description string
	run         func(ctx context.Context, injector app.Injector) error
}

var commands = map[string]command{
	"setup": {
		description: "create tables and indexes of the ledger",
		run: func(ctx context.Context, injector app.Injector) error {
			return injector(func(storage dal.Storage) error {
				return storage.Setup(ctx)
			})
		},
	},
	"check": {
		description: "verify the database is reachable",
		run: func(ctx context.Context, injector app.Injector) error {
			return injector(func(db *sql.DB) error {
				pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				return db.PingContext(pingCtx)
			})
		},
	},
}

func usage() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%v - %v", name, commands[name].description))
	}
	return "Command to run: " + strings.Join(lines, "; ")
}

func main() {
	cmdName := flag.String("cmd", "", usage())
	flag.Parse()

	cmd, ok := commands[*cmdName]
	if !ok {
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg, err := app.LoadConfig()
	if err != nil {
		logger.WithError(err).Error(ctx, "Failed to load app config")
		os.Exit(1)
	}

	injector := app.BootstrapServices(ctx, appCfg)
	if err := cmd.run(ctx, injector); err != nil {
		logger.WithError(err).Error(ctx, "Storage command %v failed", *cmdName)
		os.Exit(1)
	}
	if err := app.Shutdown(injector); err != nil {
		logger.WithError(err).Warn(ctx, "Failed to release services")
	}
	logger.Info(ctx, "Storage command %v completed", *cmdName)
}
