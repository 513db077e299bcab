/*
Copyright 2023 AmidaWare Inc.

Licensed under the Tactical RMM License Version 1.0 (the “License”).
You may only use the Licensed Software in accordance with the License.
A copy of the License is available at:

https://license.tacticalrmm.com

*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/amidaware/schedctl/console"
	"github.com/amidaware/schedctl/console/api"
	"github.com/amidaware/schedctl/console/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "0.4.0"
	log     = logrus.New()
	logFile *os.File
	cons    *console.Console
)

var (
	cfgFile   string
	logLevel  string
	logTo     string
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "schedctl",
	Short: "Operator console for the gogo scheduler",
	Long: `schedctl manages scripts and tasks on a gogo scheduler backend.

Log in once with 'schedctl login', then list, create and run scripts,
inspect their task runs, or keep a live view open with 'schedctl watch'.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.SetVersionTemplate("schedctl {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: search /etc, ~/.schedctl and . for schedctl.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "INFO", "The log level")
	rootCmd.PersistentFlags().StringVar(&logTo, "logto", "stderr", "Where to log to: stderr, stdout or file")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep the session in memory only")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build info",
	// no config or session needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		console.ShowVersionInfo(cmd.OutOrStdout(), version)
	},
}

func setup(cmd *cobra.Command, args []string) error {
	v := config.NewViper(cfgFile)
	cfg, err := config.NewConsoleConfig(v)
	if err != nil {
		return err
	}

	setupLogging(logLevel, logTo, cfg)

	opts := console.Options{Ephemeral: ephemeral, Toasts: cmd.ErrOrStderr()}
	if cmd == watchCmd {
		opts.Toasts = nil
	}
	cons, err = console.New(cfg, v, log, version, opts)
	if err != nil {
		return err
	}
	return cons.Guard.Check(cmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if cons != nil {
		cons.Close()
	}
	if logFile != nil {
		logFile.Close()
	}

	if err != nil {
		// backend errors were already shown as notifications
		var apiErr *api.Error
		if !errors.As(err, &apiErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func setupLogging(level, to string, cfg *config.ConsoleConfig) {
	ll, err := logrus.ParseLevel(level)
	if err != nil {
		ll = logrus.InfoLevel
	}
	log.SetLevel(ll)

	switch to {
	case "stdout":
		log.SetOutput(os.Stdout)
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath()), 0700); err != nil {
			log.Warnln(err)
			return
		}
		logFile, err = os.OpenFile(cfg.LogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			log.Warnln(err)
			return
		}
		log.SetOutput(logFile)
	default:
		log.SetOutput(os.Stderr)
	}
}
