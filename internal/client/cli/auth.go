package cli

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/spf13/cobra"
)

type credentialsOptions struct {
	passwordStdin bool
}

func newRegisterCmd(a *app) *cobra.Command {
	opts := &credentialsOptions{}

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account and store its access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(cmd.InOrStdin(), cmd.ErrOrStderr(), opts.passwordStdin, true)
			if err != nil {
				return err
			}
			return a.authenticate(cmd, args[0], func(ctx context.Context, c client.Client) (string, error) {
				return c.Register(ctx, args[0], pw)
			}, "Registered")
		},
	}
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from standard input")

	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	opts := &credentialsOptions{}

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and store the access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(cmd.InOrStdin(), cmd.ErrOrStderr(), opts.passwordStdin, false)
			if err != nil {
				return err
			}
			return a.authenticate(cmd, args[0], func(ctx context.Context, c client.Client) (string, error) {
				return c.Login(ctx, args[0], pw)
			}, "Logged in as")
		},
	}
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from standard input")

	return cmd
}

// authenticate obtains a token with call and stores it in the token file.
func (a *app) authenticate(cmd *cobra.Command, email string, call func(context.Context, client.Client) (string, error), done string) error {
	var token string
	err := a.withClient(cmd.Context(), func(ctx context.Context, c client.Client) error {
		var err error
		token, err = call(ctx, c)
		return err
	})
	if err != nil {
		return err
	}

	if err := saveToken(a.cfg.TokenFile, token); err != nil {
		return err
	}
	cmd.Printf("%s %s\n", done, email)
	return nil
}
