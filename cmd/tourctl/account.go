package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spec-kit/tour-booking/internal/domain"
	apperrors "github.com/spec-kit/tour-booking/pkg/util"
)

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login EMAIL",
		Short: "Sign in and keep the session on this device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.state.Session.Login(cmd.Context(), args[0], password); err != nil {
				return describe(err)
			}
			printUser(cmd.OutOrStdout(), c.state.Session.User())
			fmt.Fprintf(cmd.OutOrStdout(), "session valid until %s\n", c.state.Session.ExpiresAt().Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var reg domain.Registration
	cmd := &cobra.Command{
		Use:   "register EMAIL",
		Short: "Create a customer account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg.Email = args[0]
			if err := c.state.Session.Register(cmd.Context(), reg); err != nil {
				return describe(err)
			}
			printUser(cmd.OutOrStdout(), c.state.Session.User())
			return nil
		},
	}
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&reg.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&reg.Phone, "phone", "", "phone number")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out; the cart is kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.state.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !c.state.Session.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			user := c.state.Session.User()
			if refresh {
				fresh, err := c.state.Session.RefreshUser(cmd.Context())
				if err != nil {
					return describe(err)
				}
				user = fresh
			}
			printUser(cmd.OutOrStdout(), user)
			fmt.Fprintf(cmd.OutOrStdout(), "session valid until %s\n", c.state.Session.ExpiresAt().Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the profile from the backend first")
	return cmd
}

func (c *cli) passwdCmd() *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the password; the session window restarts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.state.Session.ChangePassword(cmd.Context(), current, next); err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password changed")
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func (c *cli) profileCmd() *cobra.Command {
	var update domain.ProfileUpdate
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the profile name and phone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.state.Session.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return describe(err)
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}
	cmd.Flags().StringVar(&update.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&update.Phone, "phone", "", "phone number")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func printUser(w io.Writer, u *domain.User) {
	if u == nil {
		fmt.Fprintln(w, "no profile cached")
		return
	}
	fmt.Fprintf(w, "%s <%s> (%s)\n", u.FullName, u.Email, u.Role)
}

// describe turns client errors into their user-facing message, with field
// details when the backend sent any.
func describe(err error) error {
	var ce *apperrors.ClientError
	if !errors.As(err, &ce) {
		return err
	}
	msg := ce.Message
	for field, reason := range ce.Details {
		msg += fmt.Sprintf("\n  %s: %v", field, reason)
	}
	return errors.New(msg)
}
