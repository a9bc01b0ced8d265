// Command podsub is a CLI client for the podsub API.
package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/podsub/internal/feedid"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

type cliOptions struct {
	addr     string
	insecure bool
	timeout  time.Duration
	now      func() time.Time
}

func (o *cliOptions) client() *apiClient {
	hc := &http.Client{Timeout: o.timeout}
	if o.insecure {
		hc.Transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}} //nolint:gosec // dev flag
	}
	return newAPIClient(o.addr, hc)
}

// authedClient returns a client carrying a live access token, refreshing it first when needed.
func (o *cliOptions) authedClient(ctx context.Context) (*apiClient, error) {
	s, err := loadSession()
	if err != nil {
		return nil, err
	}
	c := o.client()
	if s.expired(o.now()) {
		if s.RefreshToken == "" {
			return nil, errLoginRequired
		}
		tp, err := c.refresh(ctx, s.Username, s.RefreshToken)
		if err != nil {
			if isStatus(err, http.StatusBadRequest) {
				return nil, errLoginRequired
			}
			return nil, fmt.Errorf("refresh: %w", err)
		}
		s.AccessToken = tp.AccessToken
		s.ExpiresAt = o.now().Add(tp.lifetime())
		if err := saveSession(s); err != nil {
			return nil, err
		}
	}
	c.bearer = s.AccessToken
	return c, nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &cliOptions{now: time.Now}
	defAddr := os.Getenv("PODSUB_ADDR")
	if defAddr == "" {
		defAddr = "http://localhost:8080"
	}

	root := &cobra.Command{
		Use:           "podsub",
		Short:         "Client for the podsub podcast subscription service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.addr, "addr", defAddr, "server base URL (env PODSUB_ADDR)")
	root.PersistentFlags().BoolVar(&opts.insecure, "insecure", false, "skip TLS certificate verification (dev)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		versionCmd(),
		registerCmd(opts),
		loginCmd(opts),
		refreshCmd(opts),
		logoutCmd(opts),
		subscribeCmd(opts),
		subscriptionsCmd(opts),
		unsubscribeCmd(opts),
		feedUUIDCmd(opts),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "podsub %s (%s)\n", version, buildDate)
		},
	}
}

func credentialFlags(cmd *cobra.Command, user, pass *string) {
	cmd.Flags().StringVarP(user, "username", "u", "", "username")
	cmd.Flags().StringVarP(pass, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
}

func registerCmd(opts *cliOptions) *cobra.Command {
	var user, pass string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := opts.client().register(cmd.Context(), user, pass)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	credentialFlags(cmd, &user, &pass)
	return cmd
}

func loginCmd(opts *cliOptions) *cobra.Command {
	var user, pass string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tp, err := opts.client().login(cmd.Context(), user, pass)
			if err != nil {
				return err
			}
			s := session{
				Username:     user,
				AccessToken:  tp.AccessToken,
				RefreshToken: tp.RefreshToken,
				ExpiresAt:    opts.now().Add(tp.lifetime()),
			}
			if err := saveSession(s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged in as", user)
			return nil
		},
	}
	credentialFlags(cmd, &user, &pass)
	return cmd
}

func refreshCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			tp, err := opts.client().refresh(cmd.Context(), s.Username, s.RefreshToken)
			if err != nil {
				return err
			}
			s.AccessToken = tp.AccessToken
			s.ExpiresAt = opts.now().Add(tp.lifetime())
			if err := saveSession(s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "access token valid until", s.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
}

func logoutCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored refresh token and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSession()
			if err != nil {
				return err
			}
			if err := opts.client().logout(cmd.Context(), s.Username, s.RefreshToken); err != nil {
				return err
			}
			if err := os.Remove(sessionPath()); err != nil && !os.IsNotExist(err) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func subscribeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe <feed-url>",
		Short: "Subscribe to a podcast feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := feedid.DeriveUUID(args[0])
			if err != nil {
				return err
			}
			c, err := opts.authedClient(cmd.Context())
			if err != nil {
				return err
			}
			sub, err := c.subscribe(cmd.Context(), args[0], local.String())
			if err != nil {
				return err
			}
			if sub.UUIDMismatch {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: server derived %s, client derived %s\n", sub.UUID, local)
			}
			return printJSON(cmd.OutOrStdout(), sub)
		},
	}
}

func subscriptionsCmd(opts *cliOptions) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "List your subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.authedClient(cmd.Context())
			if err != nil {
				return err
			}
			subs, err := c.subscriptions(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), subs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func unsubscribeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unsubscribe <feed-uuid>",
		Short: "Remove a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.authedClient(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.unsubscribe(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "unsubscribed", args[0])
			return nil
		},
	}
}

func feedUUIDCmd(opts *cliOptions) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "feed-uuid <feed-url>",
		Short: "Print the deterministic UUID of a feed URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				f, err := opts.client().feedUUID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), f)
			}
			canonical, err := feedid.Canonicalize(args[0])
			if err != nil {
				return err
			}
			id, err := feedid.DeriveUUID(canonical)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), feedUUID{URL: args[0], Canonical: canonical, UUID: id.String()})
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the server instead of deriving locally")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
