package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/spf13/cobra"
)

// app is the state shared by all subcommands of one invocation.
type app struct {
	configFile string
	serverURL  string
	grpcAddr   string
	transport  string
	tokenFile  string

	getenv    func(string) string
	newClient func(*config.Config) (client.Client, error)

	cfg *config.Config
}

// NewRootCmd creates the authctl root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(os.Getenv, client.New)
}

func newRootCmd(getenv func(string) string, newClient func(*config.Config) (client.Client, error)) *cobra.Command {
	a := &app{getenv: getenv, newClient: newClient}

	cmd := &cobra.Command{
		Use:   "authctl",
		Short: "authctl - command-line client of the auth service",
		Long: `authctl registers accounts and logs in against the auth service,
stores the issued access token locally and checks it against the
protected endpoint.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "c", "", "config file path")
	pf.StringVar(&a.serverURL, "server", "", "REST base URL of the server")
	pf.StringVar(&a.grpcAddr, "grpc", "", "gRPC address of the server")
	pf.StringVar(&a.transport, "transport", "", `transport to use, "http" or "grpc"`)
	pf.StringVar(&a.tokenFile, "token-file", "", "file the access token is kept in")

	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newWhoAmICmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig layers defaults, the config file, the environment and the
// flags that were set explicitly.
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	if a.configFile != "" {
		if err := cfg.LoadFile(a.configFile); err != nil {
			return err
		}
	}
	cfg.ApplyEnv(a.getenv)

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = a.serverURL
	}
	if flags.Changed("grpc") {
		cfg.GRPCAddr = a.grpcAddr
	}
	if flags.Changed("transport") {
		cfg.Transport = a.transport
	}
	if flags.Changed("token-file") {
		cfg.TokenFile = a.tokenFile
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}

// withClient opens a client for the configured transport, runs fn with a
// request deadline and closes the client.
func (a *app) withClient(ctx context.Context, fn func(context.Context, client.Client) error) error {
	c, err := a.newClient(a.cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()

	return fn(ctx, c)
}
