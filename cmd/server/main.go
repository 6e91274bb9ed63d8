package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/okamoto/ackchat/internal/config"
	"github.com/okamoto/ackchat/internal/logging"
	"github.com/okamoto/ackchat/internal/server"
	"github.com/spf13/cobra"
)

func main() {
	if err := newServerCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newServerCommand() *cobra.Command {
	var (
		configPath string
		port       int
		debug      bool
	)

	cmd := &cobra.Command{
		Use:          "ackchat-server",
		Short:        "Accept one TCP client and acknowledge every message it sends",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if debug {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}

			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync()

			// SIGINT/SIGTERM release the connection and listener, then exit 0.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session := server.NewSession(&cfg.Server, server.NewConnectionManager(logger), logger, cmd.OutOrStdout())
			if err := session.Run(ctx); err != nil {
				logging.Failure(logger, err)
				return err
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	cmd.Flags().IntVarP(&port, "port", "p", config.Default().Server.Port, "TCP port to listen on")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}
