package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jask/finplan/internal/config"
	"github.com/jask/finplan/internal/devserver"
	"github.com/jask/finplan/internal/logging"
)

var devAddr string

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Serve the finplan API locally from a SQLite database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		addr := cfg.DevServer.Addr
		if devAddr != "" {
			addr = devAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return devserver.Run(ctx, devserver.Config{
			Addr:         addr,
			DatabasePath: cfg.DevServer.DatabasePath,
		}, logging.New(os.Stderr, level), cmd.OutOrStdout())
	},
}

func init() {
	devserverCmd.Flags().StringVar(&devAddr, "addr", "", "listen address (overrides devserver.addr)")
	rootCmd.AddCommand(devserverCmd)
}
