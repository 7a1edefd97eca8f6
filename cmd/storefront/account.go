package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// readLine prompts on stderr and reads one line from stdin.
func (c *cli) readLine(prompt string) (string, error) {
	fmt.Fprint(c.errOut, prompt)
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				var err error
				if password, err = c.readLine("Password: "); err != nil {
					return err
				}
			}
			u, err := c.app.Account.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Welcome back, %s!\n", u.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (c *cli) signupCmd() *cobra.Command {
	var name, email, password, confirm string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				var err error
				if password, err = c.readLine("Password: "); err != nil {
					return err
				}
				confirm = password
			}
			if confirm != "" && confirm != password {
				return apperrors.Validation("Passwords do not match", map[string]string{"confirmPassword": "must match password"})
			}
			u, err := c.app.Account.Signup(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Account created. Welcome, %s!\n", u.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "your name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 6 characters (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "repeat the password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Account.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Signed out.")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, ok := c.app.Session.User()
			if !ok || !c.app.Session.Authenticated() {
				return apperrors.Unauthenticated("you are not signed in")
			}
			fmt.Fprintf(c.out, "%s <%s>\n", u.Name, u.Email)
			return nil
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.app.Account.Profile(cmd.Context())
			if err != nil {
				return err
			}
			c.printProfile(p)
			return nil
		},
	}
	cmd.AddCommand(c.profileUpdateCmd(), c.passwordCmd())
	return cmd
}

func (c *cli) profileUpdateCmd() *cobra.Command {
	var p domain.Profile
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit profile fields; omitted flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			current, err := c.app.Account.Profile(cmd.Context())
			if err != nil {
				return err
			}
			merged := *current
			flags := cmd.Flags()
			set := func(name string, dst *string, v string) {
				if flags.Changed(name) {
					*dst = v
				}
			}
			set("name", &merged.Name, p.Name)
			set("email", &merged.Email, p.Email)
			set("phone", &merged.Phone, p.Phone)
			set("birth-date", &merged.DateOfBirth, p.DateOfBirth)
			set("bio", &merged.Bio, p.Bio)
			set("picture", &merged.ProfilePicture, p.ProfilePicture)
			set("street", &merged.Address.Street, p.Address.Street)
			set("city", &merged.Address.City, p.Address.City)
			set("state", &merged.Address.State, p.Address.State)
			set("zip", &merged.Address.ZipCode, p.Address.ZipCode)
			set("country", &merged.Address.Country, p.Address.Country)

			saved, err := c.app.Account.UpdateProfile(cmd.Context(), merged)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Profile updated.")
			c.printProfile(saved)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.Name, "name", "", "full name")
	f.StringVar(&p.Email, "email", "", "email address")
	f.StringVar(&p.Phone, "phone", "", "phone number")
	f.StringVar(&p.DateOfBirth, "birth-date", "", "date of birth (YYYY-MM-DD)")
	f.StringVar(&p.Bio, "bio", "", "short bio")
	f.StringVar(&p.ProfilePicture, "picture", "", "profile picture URL")
	f.StringVar(&p.Address.Street, "street", "", "street address")
	f.StringVar(&p.Address.City, "city", "", "city")
	f.StringVar(&p.Address.State, "state", "", "state")
	f.StringVar(&p.Address.ZipCode, "zip", "", "ZIP code")
	f.StringVar(&p.Address.Country, "country", "", "country")
	return cmd
}

func (c *cli) passwordCmd() *cobra.Command {
	var current, next, confirm string
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Account.ChangePassword(cmd.Context(), current, next, confirm); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Password changed.")
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password, at least 6 characters")
	cmd.Flags().StringVar(&confirm, "confirm", "", "repeat the new password")
	return cmd
}

func (c *cli) printProfile(p *domain.Profile) {
	fmt.Fprintf(c.out, "Name:     %s\n", p.Name)
	fmt.Fprintf(c.out, "Email:    %s\n", p.Email)
	if p.Phone != "" {
		fmt.Fprintf(c.out, "Phone:    %s\n", p.Phone)
	}
	if p.DateOfBirth != "" {
		fmt.Fprintf(c.out, "Born:     %s\n", p.DateOfBirth)
	}
	if p.Bio != "" {
		fmt.Fprintf(c.out, "Bio:      %s\n", p.Bio)
	}
	a := p.Address
	if a != (domain.Address{}) {
		fmt.Fprintf(c.out, "Address:  %s, %s, %s %s, %s\n", a.Street, a.City, a.State, a.ZipCode, a.Country)
	}
}

func (c *cli) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle]",
		Short:     "Show or change the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"dark", "light", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				var dark bool
				switch args[0] {
				case "dark":
					dark = true
				case "light":
				case "toggle":
					dark = !c.app.Session.DarkMode()
				default:
					return apperrors.InvalidInput("theme must be dark, light or toggle")
				}
				if err := c.app.Session.SetDarkMode(cmd.Context(), dark); err != nil {
					return err
				}
			}
			theme := "light"
			if c.app.Session.DarkMode() {
				theme = "dark"
			}
			fmt.Fprintf(c.out, "Theme: %s\n", theme)
			return nil
		},
	}
}
