package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/form3tech-oss/pact-builder/internal/app/configuration"
	"github.com/form3tech-oss/pact-builder/internal/app/pactffi"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "pact-builder",
		Short:        "Build pact contracts over HTTP",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand(), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version recorded in pact metadata",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), pactffi.Version)
		},
	}
}

func newServeCommand() *cobra.Command {
	var (
		adminPort int
		pactDir   string
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API",
		Long: `Run the admin API that builds pacts.

Configuration is read from ADMIN_PORT, PACT_DIR, LOG_LEVEL, TLS_CERT_FILE,
TLS_KEY_FILE and TLS_CA_FILE. Flags override the environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := configuration.NewFromEnv()
			if err != nil {
				return err
			}
			applyFlags(cmd, &config, adminPort, pactDir, logLevel)

			if err := configuration.ConfigureLogging(config); err != nil {
				return err
			}

			adminServer, err := configuration.ServeAdminAPI(config)
			if err != nil {
				return err
			}

			c := make(chan os.Signal, 2)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			<-c

			log.Info("shutting down admin API")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return adminServer.Shutdown(ctx)
		},
	}

	cmd.Flags().IntVar(&adminPort, "admin-port", 8080, "port the admin API listens on")
	cmd.Flags().StringVar(&pactDir, "pact-dir", "", "directory pact files are written to")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	return cmd
}

func applyFlags(cmd *cobra.Command, config *configuration.Config, adminPort int, pactDir, logLevel string) {
	if cmd.Flags().Changed("admin-port") {
		config.AdminPort = adminPort
	}
	if cmd.Flags().Changed("pact-dir") {
		config.PactDir = pactDir
	}
	if cmd.Flags().Changed("log-level") {
		config.LogLevel = logLevel
	}
}
