package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/reelscout/reelscout/internal/appctx"
	"github.com/reelscout/reelscout/internal/auth"
	"github.com/reelscout/reelscout/internal/output"
	"github.com/reelscout/reelscout/internal/tmdb"
	"github.com/reelscout/reelscout/internal/tui"
)

// NewAuthCmd creates the auth command group.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage API credentials",
		Long: `Manage the TMDB read access token and the Appwrite API key.

Secrets are kept in the system keyring, or in credentials.json under the
config directory when no keyring is available. TMDB_API_KEY and
APPWRITE_API_KEY take precedence over stored secrets.`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
		newAuthMigrateCmd(),
	)

	return cmd
}

func secretName(appwrite bool) string {
	if appwrite {
		return auth.Appwrite
	}
	return auth.TMDB
}

func secretLabel(name string) string {
	if name == auth.Appwrite {
		return "Appwrite API key"
	}
	return "TMDB token"
}

func newAuthLoginCmd() *cobra.Command {
	var token string
	var appwrite bool
	var noValidate bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API credential",
		Long: `Store the TMDB read access token, or the Appwrite API key with --appwrite.

Without --token you are prompted for the secret. TMDB tokens are checked
against the API before they are saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}
			name := secretName(appwrite)
			interactive := app.IsInteractive()

			if token == "" {
				if !interactive {
					return output.ErrUsage("--token is required when not running in a terminal")
				}
				var err error
				token, err = promptSecret(name)
				if err != nil {
					return err
				}
			}

			if name == auth.TMDB && !noValidate {
				if err := validateTMDBToken(cmd.Context(), app, token, interactive); err != nil {
					return err
				}
			}

			if err := app.Auth.Login(name, token); err != nil {
				return err
			}

			backend := string(auth.SourceFile)
			if app.Auth.Store().UsingKeyring() {
				backend = string(auth.SourceKeyring)
			}
			result := map[string]any{
				"name":    name,
				"status":  "logged_in",
				"backend": backend,
				"masked":  auth.Mask(token),
			}

			summary := "Saved " + secretLabel(name)
			if env := auth.EnvVar(name); env != "" {
				if _, src, _ := app.Auth.Resolve(name); src == auth.SourceEnv {
					summary += fmt.Sprintf(" (%s is set and takes precedence)", env)
				}
			}

			return app.OK(result,
				output.WithSummary(summary),
				output.WithBreadcrumbs(
					output.Breadcrumb{
						Action:      "status",
						Cmd:         "reelscout auth status",
						Description: "Check credentials",
					},
				),
			)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Secret to store (prompted when omitted)")
	cmd.Flags().BoolVar(&appwrite, "appwrite", false, "Store the Appwrite API key instead of the TMDB token")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "Save the TMDB token without checking it")

	return cmd
}

func promptSecret(name string) (string, error) {
	if name == auth.Appwrite {
		return tui.SecretInput("Appwrite API key", "Create one under your project's API keys")
	}
	return tui.SecretInput("TMDB read access token", "Find it at https://www.themoviedb.org/settings/api")
}

// validateTMDBToken makes one discover request with token.
func validateTMDBToken(ctx context.Context, app *appctx.App, token string, interactive bool) error {
	client := tmdb.NewClient(tmdb.Options{
		BaseURL:  app.Config.APIBaseURL,
		Token:    token,
		Language: app.Config.Language,
		Hooks:    app.Hooks,
	})
	check := func() (string, error) {
		_, err := client.DiscoverMovies(ctx)
		return "Token accepted", err
	}

	var err error
	if interactive {
		_, err = tui.NewSpinner("Checking token with TMDB...", tui.NewStyles(), tea.WithOutput(app.Stderr())).Run(check)
	} else {
		_, err = check()
	}
	if err == nil {
		return nil
	}

	if e := output.AsError(err); e.Code == output.CodeAuth {
		return output.ErrTokenRejected(err)
	}
	return err
}

func newAuthLogoutCmd() *cobra.Command {
	var appwrite bool
	var force bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove a stored credential",
		Long:  "Remove the stored TMDB token, or the Appwrite API key with --appwrite.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}
			name := secretName(appwrite)

			if !force && app.IsInteractive() {
				ok, err := tui.Confirm(fmt.Sprintf("Remove the stored %s?", secretLabel(name)), false)
				if err != nil {
					return err
				}
				if !ok {
					return app.OK(map[string]string{
						"name":   name,
						"status": "canceled",
					}, output.WithSummary("Logout canceled"))
				}
			}

			removed, err := app.Auth.Logout(name)
			if err != nil {
				return err
			}

			if !removed {
				return app.OK(map[string]string{
					"name":   name,
					"status": "not_logged_in",
				}, output.WithSummary("No stored "+secretLabel(name)))
			}
			return app.OK(map[string]string{
				"name":   name,
				"status": "logged_out",
			}, output.WithSummary("Removed "+secretLabel(name)))
		},
	}

	cmd.Flags().BoolVar(&appwrite, "appwrite", false, "Remove the Appwrite API key instead of the TMDB token")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Don't ask for confirmation")

	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show credential status",
		Long:  "Show which credentials are configured and where they come from.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			statuses, err := app.Auth.Status()
			if err != nil {
				return err
			}

			summary := "No TMDB token configured"
			for _, st := range statuses {
				if st.Name == auth.TMDB && st.Present {
					summary = fmt.Sprintf("TMDB token configured (%s)", st.Source)
				}
			}

			backend := string(auth.SourceFile)
			if app.Auth.Store().UsingKeyring() {
				backend = string(auth.SourceKeyring)
			}

			opts := []output.ResponseOption{
				output.WithSummary(summary),
				output.WithMeta("backend", backend),
			}
			if summary == "No TMDB token configured" {
				opts = append(opts, output.WithBreadcrumbs(output.Breadcrumb{
					Action:      "login",
					Cmd:         "reelscout auth login",
					Description: "Store a TMDB token",
				}))
			}
			return app.OK(statuses, opts...)
		},
	}
}

func newAuthMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Move file credentials into the keyring",
		Long:  "Copy secrets from credentials.json into the system keyring and remove the file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appctx.FromContext(cmd.Context())
			if app == nil {
				return fmt.Errorf("app not initialized")
			}

			store := app.Auth.Store()
			if !store.UsingKeyring() {
				return output.ErrUsageHint("System keyring is not available",
					"Unset REELSCOUT_NO_KEYRING or install a keyring service")
			}
			if err := store.MigrateToKeyring(); err != nil {
				return err
			}

			return app.OK(map[string]string{
				"status": "migrated",
				"path":   store.Path(),
			}, output.WithSummary("Credentials moved to the system keyring"))
		},
	}
}
