package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sufyan2618/project-management/internal/access"
	"github.com/sufyan2618/project-management/internal/app"
	"github.com/sufyan2618/project-management/internal/config"
)

var (
	jsonOutput bool
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "taskflow",
		Short: "TaskFlow - project and task management client",
		Long: `taskflow is a command-line client for a TaskFlow server.

Sign in with "taskflow login", then browse projects, manage tasks and move
cards across the kanban board. "taskflow serve" starts the local web front-end.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "taskflow %s\n", rootCmd.Version)
	},
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(resendOTPCmd)
	rootCmd.AddCommand(forgotPasswordCmd)
	rootCmd.AddCommand(resetPasswordCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// errNotSignedIn and errForbidden are returned when the route guard turns a
// command away
var (
	errNotSignedIn = errors.New("not signed in; run \"taskflow login\" first")
	errForbidden   = errors.New("this command is not available for your role")
)

// openApp loads configuration and opens the application context
func openApp() (*app.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.Open(cfg)
}

// withApp opens the context, checks path against the route guard (skipped
// when path is empty) and runs fn
func withApp(cmd *cobra.Command, path string, fn func(ctx context.Context, a *app.Context) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if path != "" {
		if err := requireRoute(a, path); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, a)
}

// requireRoute resolves path for the current session and fails when the
// guard would redirect elsewhere
func requireRoute(a *app.Context, path string) error {
	target := a.Navigate(path)
	switch {
	case target == path:
		return nil
	case target == access.LoginPath:
		return errNotSignedIn
	default:
		return errForbidden
	}
}

func requireCapability(a *app.Context, c access.Capability) error {
	if !access.Can(a.State().Role(), c) {
		return errForbidden
	}
	return nil
}
