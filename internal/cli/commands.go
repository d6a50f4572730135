package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/dashboard"
	"github.com/ConfabulousDev/resume-insights/internal/insights"
	"github.com/ConfabulousDev/resume-insights/internal/logger"
	"github.com/ConfabulousDev/resume-insights/internal/source"
)

// NewRootCmd builds the resumectl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "resumectl",
		Short: "View resume analysis insights from the terminal",
		Long: `resumectl shows the resume analytics dashboard for your account:
match scores, skill distributions and the CSV export.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newDashboardCmd(),
		newExportCmd(),
		newWatchCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	restore := logger.SetOutput(os.Stderr)
	defer restore()

	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		restore()
		os.Exit(1)
	}
}

func newLoginCmd() *cobra.Command {
	var token, server string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a session token",
		Long: `Stores the bearer token issued by the web app so later commands can use it.

The token is decoded locally to show who it belongs to; the server verifies it
on every request.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return errors.New("--token is required")
			}
			session, err := auth.DecodeUnverified(token)
			if err != nil {
				return fmt.Errorf("failed to read token: %w", err)
			}
			if !session.HasIdentity() {
				return errors.New("token does not carry a user id")
			}
			if err := SaveConfig(&Config{ServerURL: server, Token: session.Token}); err != nil {
				return err
			}
			logger.Info("Credential saved", "user_id", session.UserID)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Logged in as user %d", session.UserID)
			if session.Email != "" {
				fmt.Fprintf(out, " (%s)", session.Email)
			}
			fmt.Fprintln(out)
			if !session.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "Token expires %s\n", session.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "session token (JWT)")
	cmd.Flags().StringVar(&server, "server", DefaultServerURL, "resume-insights server URL")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireLogin()
			if errors.Is(err, ErrNotLoggedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			if err != nil {
				return err
			}
			if err := NewClient(cfg).Logout(cmd.Context()); err != nil {
				// The local credential is removed regardless.
				logger.Warn("Server logout failed", "error", err)
			}
			if err := ClearConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity behind the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireLogin()
			if err != nil {
				return err
			}
			me, err := NewClient(cfg).Me(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:   %d\n", me.UserID)
			if me.Email != "" {
				fmt.Fprintf(out, "Email:  %s\n", me.Email)
			}
			fmt.Fprintf(out, "Server: %s\n", cfg.ServerURL)
			return nil
		},
	}
}

// addRangeFlags registers --start and --end and returns a parser for them.
func addRangeFlags(cmd *cobra.Command) func() (insights.DateRange, error) {
	var start, end string
	cmd.Flags().StringVar(&start, "start", "", "first day included (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day included (YYYY-MM-DD)")
	return func() (insights.DateRange, error) {
		return insights.ParseDateRange(start, end)
	}
}

func newDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the analytics dashboard",
	}
	parseRange := addRangeFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		rng, err := parseRange()
		if err != nil {
			return err
		}
		cfg, err := requireLogin()
		if err != nil {
			return err
		}
		d, err := NewClient(cfg).Dashboard(cmd.Context(), rng)
		var apiErr *APIError
		if errors.As(err, &apiErr) && d != nil {
			// The server still sends the empty views with its message.
			RenderDashboard(cmd.OutOrStdout(), d, apiErr.Message)
			return nil
		}
		if err != nil {
			return err
		}
		RenderDashboard(cmd.OutOrStdout(), d, "")
		return nil
	}
	return cmd
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the filtered records as CSV",
	}
	parseRange := addRangeFlags(cmd)
	cmd.Flags().StringVar(&out, "out", insights.ExportFilename, "output file")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		rng, err := parseRange()
		if err != nil {
			return err
		}
		cfg, err := requireLogin()
		if err != nil {
			return err
		}
		body, err := NewClient(cfg).Export(cmd.Context(), rng)
		if err != nil {
			return err
		}
		if body == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No records in this range; nothing exported.")
			return nil
		}
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(out, body, 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s (%d bytes)\n", out, len(body))
		return nil
	}
	return cmd
}

func newWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the dashboard periodically",
	}
	parseRange := addRangeFlags(cmd)
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "refresh interval")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if interval <= 0 {
			return errors.New("--interval must be positive")
		}
		rng, err := parseRange()
		if err != nil {
			return err
		}
		cfg, err := requireLogin()
		if err != nil {
			return err
		}
		session, err := auth.DecodeUnverified(cfg.Token)
		if err != nil {
			return fmt.Errorf("stored token is unreadable, log in again: %w", err)
		}

		ctrl := dashboard.NewController(source.NewHTTPSource(source.HTTPConfig{
			BaseURL: cfg.ServerURL,
			Path:    "/api/v1/analytics/records",
		}))
		ctrl.SetSession(session)
		ctrl.SetRange(rng)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watch(ctx, cmd, ctrl, interval)
	}
	return cmd
}

// watch refreshes ctrl every interval and re-renders until ctx is done.
func watch(ctx context.Context, cmd *cobra.Command, ctrl *dashboard.Controller, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	out := cmd.OutOrStdout()
	for {
		if err := ctrl.Refresh(ctx); err != nil && !errors.Is(err, dashboard.ErrStaleFetch) {
			logger.Warn("Refresh failed", "error", err)
		}
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(out, "\n%s\n", mutedStyle.Render("Updated "+time.Now().Format(time.Kitchen)))
		RenderDashboard(out, ctrl.Dashboard(), ctrl.Message())

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
