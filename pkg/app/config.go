package app

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/evgeny-myasishchev/ledger.accounting/config"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
)

// LoadConfig loads .env files if present, then app config and
// setups logging according to it
func LoadConfig(envFiles ...string) (*config.AppConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "Failed to load env file %v", envFile)
		}
	}

	appCfg, err := config.LoadAppConfig()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to load app config")
	}

	diag.SetupLoggingSystem(func(setup diag.LoggingSystemSetup) {
		setup.SetLogLevel(appCfg.Log.Level.Value())
	})
	return appCfg, nil
}
