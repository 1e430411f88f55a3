package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to a Gmail account",
		Long: `Authorize inboxmatrix to read a Gmail account.

The OAuth client is read from GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.
Tokens are stored per account (--account) in the user cache directory.

  1. inboxmatrix auth url --account work
  2. open the URL, approve and copy the code
  3. inboxmatrix auth save --account work CODE`,
	}

	cmd.AddCommand(newAuthURLCmd(), newAuthSaveCmd(), newAuthStatusCmd())
	return cmd
}

func newAuthURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the authorization URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			auth, err := newAuthenticator(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)))
			if err != nil {
				return err
			}
			url, err := auth.AuthURL(cfg.Account)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newAuthSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save CODE",
		Short: "Exchange an authorization code and store the token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			auth, err := newAuthenticator(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)))
			if err != nil {
				return err
			}
			if err := auth.Exchange(cmd.Context(), cfg.Account, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token for account %q\n", cfg.Account)
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the account has a stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			auth, err := newAuthenticator(slog.New(slog.NewTextHandler(io.Discard, nil)))
			if err != nil {
				return err
			}
			if auth.HasTokenForAccount(cfg.Account) {
				fmt.Fprintf(cmd.OutOrStdout(), "Account %q is authorized (%s)\n", cfg.Account, auth.Tokens().Path(cfg.Account))
				return nil
			}
			return fmt.Errorf("account %q is not authorized: run \"inboxmatrix auth url --account %s\"", cfg.Account, cfg.Account)
		},
	}
}
