package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) signupCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.password(password, "Password: ")
			if err != nil {
				return err
			}
			if err := a.client.Signup(cmd.Context(), username, email, pw); err != nil {
				return err
			}
			a.success("Account created. Logged in as %s.", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.password(password, "Password: ")
			if err != nil {
				return err
			}
			user, err := a.client.Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			a.success("Logged in as %s (%s).", user.Username, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the server and locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.client.Session().IsAuthenticated {
				fmt.Fprintln(a.out, a.styles.subtle.Render("Not logged in."))
				return nil
			}
			if err := a.client.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logged out locally, server logout failed: %w", err)
			}
			a.success("Logged out.")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s <%s>\n", p.Username, p.Email)
			fmt.Fprintln(a.out, a.styles.subtle.Render("id "+p.ID))
			return nil
		},
	}
}

func (a *app) forgotPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Email a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.ForgotPassword(cmd.Context(), email); err != nil {
				return err
			}
			a.success("If %s has an account, a reset link is on its way.", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) resetPasswordCmd() *cobra.Command {
	var token, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the token from the reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				return errors.New("--token is required")
			}
			pw, err := a.password(password, "New password: ")
			if err != nil {
				return err
			}
			if err := a.client.ResetPassword(cmd.Context(), token, pw); err != nil {
				return err
			}
			a.success("Password updated. Log in with the new password.")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Reset token from the emailed link")
	cmd.Flags().StringVar(&password, "password", "", "New password (prompted when omitted)")
	return cmd
}

func (a *app) success(format string, args ...any) {
	fmt.Fprintln(a.out, a.styles.success.Render(fmt.Sprintf(format, args...)))
}
