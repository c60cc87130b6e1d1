package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/bp-insights/internal/app"
	"github.com/vcscsvcscs/bp-insights/internal/config"
	"go.uber.org/zap"
)

// cli carries global flags and the components built from them
type cli struct {
	configPath string
	storePath  string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	app    *app.App
	now    func() time.Time
}

func newRootCmd() *cobra.Command {
	c := &cli{now: time.Now}

	root := &cobra.Command{
		Use:           "bpctl",
		Short:         "Record blood pressure readings and summarize trends",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to a YAML config file (default $"+config.ConfigFileEnv+")")
	root.PersistentFlags().StringVar(&c.storePath, "file", "", "Path to the reading store, overrides storage.path")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log at info level to stderr")

	root.AddCommand(
		newClassifyCmd(c),
		newAddCmd(c),
		newListCmd(c),
		newSummaryCmd(c),
		newImportCmd(c),
		newExportCmd(c),
		newClearCmd(c),
		newKeygenCmd(),
	)

	return root
}

func (c *cli) init() error {
	path := c.configPath
	if path == "" {
		path = os.Getenv(config.ConfigFileEnv)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if c.storePath != "" {
		cfg.Storage.Path = c.storePath
	}

	cfg.Logging.Format = "console"
	if !c.verbose {
		cfg.Logging.Level = "warn"
	}
	logger, err := app.NewLogger(cfg)
	if err != nil {
		return err
	}

	components, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	c.cfg = cfg
	c.logger = logger
	c.app = components
	return nil
}
