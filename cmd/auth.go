package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/calslack/internal/config"
	"github.com/teemow/calslack/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		account      string
		code         string
		clientID     string
		clientSecret string
		tokenDir     string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize a Google account for the calendar tools",
		Long: `Run the Google OAuth consent flow for one account and store its token.

The command prints the consent URL, then reads the authorization code from
--code or standard input. Tokens are stored per account so tools can select
them with the 'account' argument.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("client-id") {
				cfg.Google.ClientID = clientID
			}
			if cmd.Flags().Changed("client-secret") {
				cfg.Google.ClientSecret = clientSecret
			}
			if cmd.Flags().Changed("token-dir") {
				cfg.Google.TokenDir = tokenDir
			}
			if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
				return fmt.Errorf("google.clientid and google.clientsecret must be configured (or pass --client-id and --client-secret)")
			}

			auth := google.NewAuth(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.TokenDir)
			if auth.HasToken(account) && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "A token for account %q already exists in %s (use --force to replace it)\n", account, auth.TokenDir())
				return nil
			}
			return runAuth(cmd.Context(), auth, account, code, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&account, "account", google.DefaultAccount, "Account name the token is stored under")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code (read from stdin when empty)")
	cmd.Flags().StringVar(&clientID, "client-id", "", "Google OAuth Client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Google OAuth Client Secret")
	cmd.Flags().StringVar(&tokenDir, "token-dir", "", "Directory holding Google token files (default: user cache directory)")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing token")

	return cmd
}

// runAuth prints the consent URL, obtains the authorization code and stores
// the exchanged token for account.
func runAuth(ctx context.Context, auth *google.Auth, account, code string, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprintf(out, "Visit this URL to authorize account %q:\n\n%s\n\n", account, auth.AuthURL(account))

	if code == "" {
		fmt.Fprint(out, "Enter the authorization code: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read authorization code: %w", err)
		}
		code = strings.TrimSpace(line)
	}
	if code == "" {
		return fmt.Errorf("authorization code is required")
	}

	if err := auth.SaveToken(ctx, account, code); err != nil {
		return err
	}

	fmt.Fprintf(out, "Token for account %q saved to %s\n", account, auth.TokenDir())
	return nil
}
