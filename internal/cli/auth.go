package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justestif/habit-garden/internal/forms"
)

func (a *app) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to your garden",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.session(ctx)
			if err != nil {
				return err
			}

			form := forms.Login{Email: email}
			if form.Email == "" {
				if form.Email, err = a.prompt(cmd, "Email: "); err != nil {
					return err
				}
			}
			if form.Password, err = a.promptPassword(cmd, "Password: "); err != nil {
				return err
			}
			if err := forms.Validate(&form); err != nil {
				return err
			}

			if err := sess.Login(ctx, form.Email, form.Password); err != nil {
				return err
			}

			user := sess.User()
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Logged in as %s (%s)", user.FullName, user.Email)))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	return cmd
}

func (a *app) signupCmd() *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.session(ctx)
			if err != nil {
				return err
			}

			form := forms.Signup{FullName: name, Email: email}
			if form.FullName == "" {
				if form.FullName, err = a.prompt(cmd, "Full name: "); err != nil {
					return err
				}
			}
			if form.Email == "" {
				if form.Email, err = a.prompt(cmd, "Email: "); err != nil {
					return err
				}
			}
			if form.Password, err = a.promptPassword(cmd, "Password: "); err != nil {
				return err
			}
			if form.ConfirmPassword, err = a.promptPassword(cmd, "Confirm password: "); err != nil {
				return err
			}
			if err := forms.Validate(&form); err != nil {
				return err
			}

			if err := sess.Signup(ctx, form.Email, form.Password, form.FullName); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("🌱 Welcome to your garden, %s!", form.FullName)))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	cmd.Flags().StringVar(&name, "name", "", "full name (prompted when empty)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			sess.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.authenticated(cmd.Context())
			if err != nil {
				return err
			}
			user := sess.User()
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.FullName, user.Email)
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("API: "+sess.Client().BaseURL()))
			return nil
		},
	}
}

func (a *app) forgotPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password EMAIL",
		Short: "Request a password reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.session(ctx)
			if err != nil {
				return err
			}

			form := forms.ForgotPassword{Email: args[0]}
			if err := forms.Validate(&form); err != nil {
				return err
			}
			if err := sess.ForgotPassword(ctx, form.Email); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "If an account exists with %s, a password reset link has been generated.\n", form.Email)
			return nil
		},
	}
}

func (a *app) resetPasswordCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with a reset token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.session(ctx)
			if err != nil {
				return err
			}

			form := forms.ResetPassword{Token: token}
			if err := forms.CheckResetToken(token); err != nil {
				return err
			}
			if form.Password, err = a.promptPassword(cmd, "New password: "); err != nil {
				return err
			}
			if form.ConfirmPassword, err = a.promptPassword(cmd, "Confirm new password: "); err != nil {
				return err
			}
			if err := forms.Validate(&form); err != nil {
				return err
			}

			if err := sess.ResetPassword(ctx, form.Token, form.Password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Password reset successfully! Please log in."))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "reset token from the email link")
	return cmd
}
