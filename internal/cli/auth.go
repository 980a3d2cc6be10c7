package cli

import (
	"fmt"

	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/navigation"
	"github.com/spf13/cobra"
)

func newLoginCmd(e *env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = e.prompt(cmd, "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = e.prompt(cmd, "Password: "); err != nil {
					return err
				}
			}
			sess, err := e.app.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			role := "user"
			if sess.IsAdmin {
				role = "admin"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s), session valid until %s\n",
				sess.Email, role, sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return view(cmd, navigation.PathAuth)
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e.app.Session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newRegisterCmd(e *env) *cobra.Command {
	var req models.RegisterRequest
	var autoLogin bool
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e.app.Session.AutoLogin = autoLogin
			sess, err := e.app.Session.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			if sess == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Account created, run 'flyeazy login' to continue")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created, logged in as %s\n", sess.Email)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "full name")
	f.StringVar(&req.Email, "email", "", "email")
	f.StringVar(&req.Phone, "phone", "", "phone number")
	f.StringVar(&req.Password, "password", "", "password, at least 6 characters")
	f.StringVar(&req.DateOfBirth, "dob", "", "date of birth (YYYY-MM-DD)")
	f.BoolVar(&autoLogin, "login", true, "log in when the server does not return a token")
	return view(cmd, navigation.PathAuth)
}

func newProfileCmd(e *env) *cobra.Command {
	cmd := view(&cobra.Command{
		Use:   "profile",
		Short: "Show the logged-in user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := e.app.Session.FetchProfile(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}, navigation.PathBookings)

	var name, phone string
	update := view(&cobra.Command{
		Use:   "update",
		Short: "Change name or phone",
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := map[string]any{}
			if name != "" {
				patch["name"] = name
			}
			if phone != "" {
				patch["phone"] = phone
			}
			if len(patch) == 0 {
				return fmt.Errorf("nothing to update, pass --name or --phone")
			}
			user, err := e.app.Session.UpdateProfile(cmd.Context(), patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}, navigation.PathBookings)
	update.Flags().StringVar(&name, "name", "", "new name")
	update.Flags().StringVar(&phone, "phone", "", "new phone number")
	cmd.AddCommand(update)
	return cmd
}
