package main

import (
	"net"
	"os"
	"strconv"

	"github.com/okamoto/ackchat/internal/client"
	"github.com/okamoto/ackchat/internal/config"
	"github.com/okamoto/ackchat/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	if err := newClientCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newClientCommand() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
		debug      bool
	)

	cmd := &cobra.Command{
		Use:          "ackchat-client",
		Short:        "Send operator input to the server and print its acknowledgements",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("address") {
				cfg.Client.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Client.Port = port
			}
			if debug {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.ValidateClient(); err != nil {
				return err
			}

			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync()

			c := client.NewClient(&cfg.Client, logger, cmd.InOrStdin(), cmd.OutOrStdout())

			conn, err := c.ConnectTo(cmd.Context(), net.JoinHostPort(cfg.Client.Host, strconv.Itoa(cfg.Client.Port)))
			if err != nil {
				logging.Failure(logger, err)
				return err
			}
			defer conn.Close()

			// No signal handler here: an interrupt terminates the process outright.
			if err := c.InteractiveLoop(cmd.Context(), conn); err != nil {
				logging.Failure(logger, err)
				return err
			}

			return nil
		},
	}

	defaults := config.Default().Client
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	cmd.Flags().StringVarP(&host, "address", "a", defaults.Host, "server IPv4 address")
	cmd.Flags().IntVarP(&port, "port", "p", defaults.Port, "server TCP port")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}
