package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/hubheight/cmd/elevation"
	"github.com/tphakala/hubheight/cmd/estimate"
	"github.com/tphakala/hubheight/cmd/sun"
	"github.com/tphakala/hubheight/cmd/validate"
	"github.com/tphakala/hubheight/internal/buildinfo"
	"github.com/tphakala/hubheight/internal/conf"
	"github.com/tphakala/hubheight/internal/logger"
)

// RootCommand creates and returns the root command. Settings are loaded once
// flags are parsed so that --config can name the file; all subcommands share
// the same Settings value.
func RootCommand(info *buildinfo.Context) *cobra.Command {
	settings := &conf.Settings{}
	var configFile string
	var debug bool
	var centralLogger *logger.CentralLogger

	rootCmd := &cobra.Command{
		Use:           "hubheight",
		Short:         "Estimate wind turbine hub heights from aerial shadows",
		Version:       info.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")

	rootCmd.AddCommand(
		estimate.Command(settings),
		validate.Command(settings),
		sun.Command(settings),
		elevation.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := conf.Load(configFile)
		if err != nil {
			return err
		}
		*settings = *loaded
		if debug {
			settings.Debug = true
		}

		centralLogger, err = initLogging(settings)
		return err
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return centralLogger.Close()
	}

	return rootCmd
}

// initLogging installs the central logger described by settings as the global logger
func initLogging(settings *conf.Settings) (*logger.CentralLogger, error) {
	cfg := settings.Logging
	if settings.Debug {
		cfg.DefaultLevel = string(logger.LogLevelDebug)
		if cfg.Console != nil {
			console := *cfg.Console
			console.Level = string(logger.LogLevelDebug)
			cfg.Console = &console
		}
	}

	cl, err := logger.NewCentralLogger(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(cl)
	return cl, nil
}
