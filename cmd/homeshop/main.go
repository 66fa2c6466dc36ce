package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/githubixx/homeshop-go/internal/infrastructure/config"
	"github.com/githubixx/homeshop-go/internal/infrastructure/logging"

	// The display zone must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type globalFlags struct {
	configPath string
	envFiles   []string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "homeshop",
		Short:         "Home-shopping broadcast dashboard",
		Long:          "homeshop classifies home-shopping broadcasts as live, upcoming or ended in KST and serves the dashboard API.",
		Version:       fmt.Sprintf("%s (%s %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "config.yaml", "path to configuration file")
	root.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", []string{".env"}, "dotenv files loaded before the environment is read")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(flags),
		newNowCmd(flags),
		newConfigCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "homeshop-go v%s (%s %s)\n", version, commit, date)
		},
	}
}

// loadConfig reads dotenv files, the config file and the environment, in
// that order, and builds the logger from the result.
func loadConfig(flags *globalFlags) (*config.Config, *slog.Logger, error) {
	if err := config.LoadDotEnv(flags.envFiles...); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
