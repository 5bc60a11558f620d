package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"radar/internal/config"
	"radar/internal/logging"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:           "radar",
		Short:         "Send one new data engineering article summary per run to Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "HCL config file (default ./radar.hcl, ./radar.local.hcl)")

	root.AddCommand(
		runCmd(),
		serveCmd(),
		historyCmd(),
	)

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("radar failed")
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger. It fails when a
// required credential is missing, before anything else is started.
func setup() (config.Config, *logrus.Logger, error) {
	files := config.DefaultFiles
	if configFile != "" {
		files = []string{configFile}
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, nil, err
	}

	return cfg, logging.New(cfg.LogLevel, cfg.LogFormat), nil
}
