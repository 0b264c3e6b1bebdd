package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

func (a *App) signupCommand() *Command {
	var (
		email, name, role, password string
	)
	return &Command{
		Name:    "signup",
		Summary: "Create an account as an attendee or an organizer",
		Usage:   "eventix signup --email <email> --name <full name> --role attend|organize",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("signup")
			fs.StringVar(&email, "email", "", "email address")
			fs.StringVar(&name, "name", "", "full name")
			fs.StringVar(&role, "role", string(model.RoleAttendee), "account type: attend or organize")
			fs.StringVar(&password, "password", "", "password (prompted when omitted)")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("%w: --name is required", model.ErrInvalidInput)
			}
			userType, err := model.ParseRole(role)
			if err != nil {
				return err
			}
			confirm := password
			if password == "" {
				if password, err = a.readSecret("Password: "); err != nil {
					return err
				}
				if confirm, err = a.readSecret("Confirm password: "); err != nil {
					return err
				}
			}
			email = model.NormalizeEmail(email)
			if err := model.ValidateSignUp(email, password, confirm, userType); err != nil {
				return err
			}

			ident, err := a.session.SignUp(ctx, model.SignUpRequest{
				Email:    email,
				Password: password,
				Data:     model.UserMetadata{FullName: name, UserType: userType},
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, successStyle.Render("Account created for "+ident.Email+"."))
			fmt.Fprintln(a.out, "Sign in with 'eventix login --email "+ident.Email+"'.")
			return nil
		},
	}
}

func (a *App) loginCommand() *Command {
	var email, password, returnTo string
	return &Command{
		Name:    "login",
		Summary: "Sign in",
		Flags: func() *pflag.FlagSet {
			fs := newFlagSet("login")
			fs.StringVar(&email, "email", "", "email address")
			fs.StringVar(&password, "password", "", "password (prompted when omitted)")
			fs.StringVar(&returnTo, "return", "", "command to run after signing in")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			var err error
			if email == "" {
				fmt.Fprint(a.errOut, "Email: ")
				if email, err = a.readLine(); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.readSecret("Password: "); err != nil {
					return err
				}
			}
			email = model.NormalizeEmail(email)
			if err := model.ValidateCredentials(email, password); err != nil {
				return err
			}
			if _, err := a.session.SignIn(ctx, email, password); err != nil {
				return err
			}

			st, err := a.resolved(ctx)
			if err != nil {
				return err
			}
			name := email
			if st.Profile != nil && st.Profile.FullName != "" {
				name = st.Profile.FullName
			}
			fmt.Fprintln(a.out, successStyle.Render("Welcome back, "+name+"!"))

			if ret := strings.Fields(returnTo); len(ret) > 0 {
				return a.Root().Execute(ctx, ret)
			}
			return nil
		},
	}
}

func (a *App) logoutCommand() *Command {
	return &Command{
		Name:    "logout",
		Summary: "Sign out",
		Run: func(ctx context.Context, _ []string) error {
			a.session.SignOut(ctx)
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func (a *App) whoamiCommand() *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Show who is signed in",
		Run: func(ctx context.Context, _ []string) error {
			st, err := a.resolved(ctx)
			if err != nil {
				return err
			}
			if st.Identity == nil {
				fmt.Fprintln(a.out, mutedStyle.Render("Not signed in."))
				return nil
			}
			renderProfile(a.out, st.Identity, st.Profile, a.now())
			return nil
		},
	}
}
