package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/filex"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/spf13/cobra"
)

var ErrTokenRejected = errors.New("stored token was rejected, run `authctl login` again")

func newWhoAmICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user the stored token belongs to",
		Long: `Sends the stored access token to the protected endpoint and prints
the claims the server accepted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := loadToken(a.cfg.TokenFile)
			if err != nil {
				return err
			}

			var claims *auth.Claims
			err = a.withClient(cmd.Context(), func(ctx context.Context, c client.Client) error {
				var err error
				claims, err = c.WhoAmI(ctx, token)
				return err
			})
			if errors.Is(err, client.ErrUnauthorized) {
				return ErrTokenRejected
			}
			if err != nil {
				return err
			}

			cmd.Printf("User ID: %s\n", claims.UserID)
			cmd.Printf("Email: %s\n", claims.Email)
			if !claims.ExpiresAt.IsZero() {
				cmd.Printf("Expires: %s\n", claims.ExpiresAt.Local().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			removed, err := filex.RemoveSecret(a.cfg.TokenFile)
			if err != nil {
				return err
			}
			if removed {
				cmd.Println("Logged out")
			} else {
				cmd.Println("Not logged in")
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		Args:  cobra.NoArgs,
		// Build metadata does not depend on the configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}
