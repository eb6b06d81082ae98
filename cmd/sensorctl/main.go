// sensorctl bulk-manages BACnet and Modbus sensor definitions and their
// sensor mappings on a remote building-management platform.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edgeops/sensorctl/internal/api"
	"github.com/edgeops/sensorctl/internal/auth"
	"github.com/edgeops/sensorctl/internal/config"
	"github.com/edgeops/sensorctl/internal/logging"
)

var (
	debugLevel string
	cfgPath    string

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:          "sensorctl",
	Short:        "Bulk-manage BACnet and Modbus sensor definitions",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(debugLevel)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&debugLevel, "debug-level", "l", "error",
		fmt.Sprintf("log verbosity, one of %v", logging.Levels))
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"config file (default $HOME/.sensorctl/config.yaml)")
}

// configPath resolves the --config override or the per-user default.
func configPath() (string, error) {
	if cfgPath != "" {
		return cfgPath, nil
	}
	return config.DefaultPath()
}

func loadConfig() (*config.Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// newClient wires the OAuth2 token source into an API client. Token
// exchanges run under each request's context.
func newClient(cfg *config.Config) *api.Client {
	bearer := auth.New(cfg.ClientID, cfg.ClientSecret, cfg.TokenURL, cfg.Scope)
	return api.NewClient(cfg.InstanceURL, bearer, log)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
