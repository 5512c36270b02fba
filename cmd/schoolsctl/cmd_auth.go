package main

import (
	"errors"
	"fmt"

	"github.com/aanand-mishra/schools-api/internal/session"
	"github.com/spf13/cobra"
)

type credentialFlags struct {
	email    string
	password string
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "account email")
	cmd.Flags().StringVar(&f.password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
}

func newLoginCmd(a *app) *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.session.Login(cmd.Context(), f.email, f.password)
			return a.reportAuth(res, "Logged in as %s\n", f.email)
		},
	}
	f.bind(cmd)
	return cmd
}

func newSignupCmd(a *app) *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.session.Signup(cmd.Context(), f.email, f.password)
			return a.reportAuth(res, "Account created for %s\n", f.email)
		},
	}
	f.bind(cmd)
	return cmd
}

func (a *app) reportAuth(res session.Result, format, email string) error {
	if !res.Success {
		return errors.New(res.Error)
	}
	fmt.Fprintf(a.out, format, email)
	return nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.Logout(cmd.Context())
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.LoggedIn() {
				return errNotLoggedIn
			}
			if user, ok := a.session.User(); ok {
				fmt.Fprintln(a.out, user.Email)
			} else {
				fmt.Fprintln(a.out, "logged in")
			}
			return nil
		},
	}
}
