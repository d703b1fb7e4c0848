package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stock-admin/internal/client"
	"stock-admin/internal/config"
	"stock-admin/internal/pkg/entity"

	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in: run stockctl login first")

type globalOptions struct {
	apiURL      string
	sessionFile string
	timeout     time.Duration
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stockctl_session"
	}
	return filepath.Join(home, ".stockctl_session")
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	apiDefault, timeoutDefault := "http://127.0.0.1:8080", 10*time.Second
	if cfg, err := config.Load(); err == nil {
		apiDefault, timeoutDefault = cfg.APIBaseURL, cfg.HTTPTimeout
	}

	root := &cobra.Command{
		Use:           "stockctl",
		Short:         "Manage stocks through the admin API",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", apiDefault, "API base URL")
	root.PersistentFlags().StringVar(&opts.sessionFile, "session-file", defaultSessionFile(), "where the login session is kept")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", timeoutDefault, "HTTP timeout")

	root.AddCommand(
		newLoginCmd(opts),
		newStocksCmd(opts),
		newOrgsCmd(opts),
		newResolveCmd(),
	)
	return root
}

func (o *globalOptions) client() *client.Client {
	return client.New(client.Config{BaseURL: o.apiURL, Timeout: o.timeout})
}

// authed returns a client bound to the saved session.
func (o *globalOptions) authed() (*client.Client, error) {
	b, err := os.ReadFile(o.sessionFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	sid := strings.TrimSpace(string(b))
	if sid == "" {
		return nil, errNotLoggedIn
	}
	return o.client().WithSession(sid), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			authed, who, err := opts.client().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := os.WriteFile(opts.sessionFile, []byte(authed.SessionID()), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", who.Email, who.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", os.Getenv("STOCKCTL_PASSWORD"), "account password (or STOCKCTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <segment>",
		Short: "Print the entity name a route segment maps to",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), entity.FromRoute(args[0]))
		},
	}
}
