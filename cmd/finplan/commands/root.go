package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jask/finplan/internal/api"
	"github.com/jask/finplan/internal/config"
	"github.com/jask/finplan/internal/logging"
	"github.com/jask/finplan/internal/tui"
	"github.com/jask/finplan/internal/view"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "finplan",
	Short: "Terminal client for the personal finance planner",
	Long: `finplan tracks debtors, their installment debts, recurring expenses and
the monthly salary plan against a finplan backend.

Run without a subcommand to open the terminal UI. "finplan devserver" starts
a local backend backed by SQLite.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// a missing .env is fine
		_ = godotenv.Load()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/finplan/config.toml)")
}

func runTUI(ctx context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// the terminal belongs to the UI, so logs go to a file
	logger, closer, err := logging.OpenFile(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closer.Close()

	loc, err := time.LoadLocation(cfg.UI.Timezone)
	if err != nil {
		logger.Warn("using local timezone", "timezone", cfg.UI.Timezone, "err", err)
		loc = time.Local
	}

	client := api.New(cfg.API.BaseURL, api.WithLogger(logger))
	model := view.New(ctx, client, view.Options{Logger: logger, ReportsDir: cfg.Reports.Dir})
	logger.Info("starting finplan", slog.String("api", cfg.API.BaseURL))

	p := tea.NewProgram(tui.New(ctx, model, cfg, cfgFile, loc), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
