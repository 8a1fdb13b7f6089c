package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sufyan2618/project-management/internal/access"
	"github.com/sufyan2618/project-management/internal/app"
	"github.com/sufyan2618/project-management/pkg/types"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE:  runRegister,
}

var verifyCmd = &cobra.Command{
	Use:   "verify [code]",
	Short: "Verify your email with the 6-digit code",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

var resendOTPCmd = &cobra.Command{
	Use:   "resend-otp",
	Short: "Request a new verification code",
	RunE:  runResendOTP,
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password reset code",
	RunE:  runForgotPassword,
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password [code]",
	Short: "Set a new password with the emailed code",
	Args:  cobra.ExactArgs(1),
	RunE:  runResetPassword,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List all users (admin)",
	RunE:  runUsers,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd, verifyCmd, resendOTPCmd, forgotPasswordCmd, resetPasswordCmd} {
		c.Flags().String("email", "", "Account email")
		c.MarkFlagRequired("email")
	}
	loginCmd.Flags().String("password", "", "Password (prompted when omitted)")
	registerCmd.Flags().String("password", "", "Password (prompted when omitted)")
	registerCmd.Flags().String("name", "", "Full name")
	resetPasswordCmd.Flags().String("password", "", "New password (prompted when omitted)")
}

// passwordFlag returns --password or reads one line from stdin
func passwordFlag(cmd *cobra.Command, out io.Writer) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password != "" {
		return password, nil
	}
	fmt.Fprint(out, "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	out := cmd.OutOrStdout()
	password, err := passwordFlag(cmd, out)
	if err != nil {
		return err
	}
	return withApp(cmd, "", func(ctx context.Context, a *app.Context) error {
		return login(ctx, a, out, types.Credentials{Email: email, Password: password})
	})
}

func login(ctx context.Context, a *app.Context, out io.Writer, creds types.Credentials) error {
	if _, err := a.Login(ctx, creds); err != nil {
		return err
	}
	user := a.State().User
	fmt.Fprintf(out, "Signed in as %s (%s)\n", user.DisplayName(), user.Role)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	return withApp(cmd, "", func(ctx context.Context, a *app.Context) error {
		if _, err := a.Logout(); err != nil {
			return err
		}
		printNotifications(cmd.OutOrStdout(), a.Notify)
		return nil
	})
}

func runRegister(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	out := cmd.OutOrStdout()
	password, err := passwordFlag(cmd, out)
	if err != nil {
		return err
	}
	return withApp(cmd, "", func(ctx context.Context, a *app.Context) error {
		if _, _, err := a.Register(ctx, types.RegisterRequest{Email: email, Password: password, FullName: name}); err != nil {
			return err
		}
		printNotifications(out, a.Notify)
		fmt.Fprintf(out, "Next: taskflow verify --email %s <code>\n", email)
		return nil
	})
}

func runVerify(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	return withApp(cmd, "", func(ctx context.Context, a *app.Context) error {
		if _, err := a.VerifyEmail(ctx, email, args[0]); err != nil {
			return err
		}
		printNotifications(cmd.OutOrStdout(), a.Notify)
		return nil
	})
}

func runResendOTP(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	return withApp(cmd, "", func(ctx context.Context, a *app.Context) error {
		if err := a.ResendOTP(ctx, email); err != nil {
			return err
		}
		printNotifications(cmd.OutOrStdout(), a.Notify)
		return nil
	})
}

func runForgotPassword(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	out := cmd.OutOrStdout()
	return withApp(cmd, "", func(ctx context.Context, a *app.Context) error {
		if _, err := a.ForgotPassword(ctx, email); err != nil {
			return err
		}
		printNotifications(out, a.Notify)
		fmt.Fprintf(out, "Next: taskflow reset-password --email %s <code>\n", email)
		return nil
	})
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	out := cmd.OutOrStdout()
	password, err := passwordFlag(cmd, out)
	if err != nil {
		return err
	}
	return withApp(cmd, "", func(ctx context.Context, a *app.Context) error {
		if _, err := a.ResetPassword(ctx, email, args[0], password); err != nil {
			return err
		}
		printNotifications(out, a.Notify)
		return nil
	})
}

func runWhoami(cmd *cobra.Command, args []string) error {
	return withApp(cmd, access.DashboardPath, func(ctx context.Context, a *app.Context) error {
		return whoami(ctx, a, cmd.OutOrStdout())
	})
}

func whoami(ctx context.Context, a *app.Context, out io.Writer) error {
	user, err := a.Profile(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, user)
	}
	fmt.Fprintf(out, "%s <%s>\n", user.DisplayName(), user.Email)
	fmt.Fprintf(out, "  Role:    %s\n", user.Role)
	fmt.Fprintf(out, "  Initials: %s\n", user.Initials())
	if !user.CreatedAt.IsZero() {
		fmt.Fprintf(out, "  Joined:  %s\n", user.CreatedAt.Display())
	}
	return nil
}

func runUsers(cmd *cobra.Command, args []string) error {
	return withApp(cmd, access.DashboardPath, func(ctx context.Context, a *app.Context) error {
		if err := requireCapability(a, access.ListUsers); err != nil {
			return err
		}
		users, err := a.Users(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, users)
		}
		w := newTable(out)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.DisplayName(), u.Email, u.Role)
		}
		return w.Flush()
	})
}
