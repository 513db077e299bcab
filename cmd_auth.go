package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/amidaware/schedctl/console/forms"
	"github.com/amidaware/schedctl/console/guard"
	"github.com/spf13/cobra"
)

var loginCmd = guard.Annotate(&cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}, guard.Login)

var registerCmd = guard.Annotate(&cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}, guard.Register)

var logoutCmd = guard.Annotate(&cobra.Command{
	Use:   "logout",
	Short: "Forget the current session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}, guard.Dashboard)

var whoamiCmd = guard.Annotate(&cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}, guard.Dashboard)

var passwdCmd = guard.Annotate(&cobra.Command{
	Use:   "passwd",
	Short: "Change your password",
	Args:  cobra.NoArgs,
	RunE:  runPasswd,
}, guard.Dashboard)

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringP("username", "u", "", "Username (prompted when empty)")
		c.Flags().StringP("password", "p", "", "Password (prompted when empty)")
	}
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, passwdCmd)
}

// prompter reads answers from one buffered reader so several prompts can
// share piped input
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.ErrOrStderr()}
}

func (p *prompter) ask(label, current string) (string, error) {
	if current != "" {
		return current, nil
	}
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	p := newPrompter(cmd)
	var err error
	form := forms.LoginForm{}
	if form.Username, err = p.ask("Username", username); err != nil {
		return err
	}
	if form.Password, err = p.ask("Password", password); err != nil {
		return err
	}
	if err := form.Validate(); err != nil {
		return err
	}

	resp, err := cons.API.Login(cmd.Context(), form.Username, form.Password).Unwrap()
	if err != nil {
		cons.Notifier.Error(err.Error())
		return err
	}
	if err := cons.Session.Begin(resp); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in as %s\n", resp.User.Username)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	p := newPrompter(cmd)
	var err error
	form := forms.RegisterForm{}
	if form.Username, err = p.ask("Username", username); err != nil {
		return err
	}
	if form.Password, err = p.ask("Password", password); err != nil {
		return err
	}
	if form.Confirm, err = p.ask("Confirm Password", password); err != nil {
		return err
	}
	if err := form.Validate(); err != nil {
		return err
	}

	user, err := cons.API.Register(cmd.Context(), form.Username, form.Password).Unwrap()
	if err != nil {
		cons.Notifier.Error(err.Error())
		return err
	}

	name := user.Username
	if name == "" {
		name = form.Username
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Registered %s, run 'schedctl login' to start a session\n", name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	dest, err := cons.Guard.Logout()
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	log.Debugln("redirect", dest)
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	u := cons.Session.User()
	fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d)\n", u.Username, u.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "Server: %s\n", cons.Config.BaseURL())
	if since := cons.Session.Since(); !since.IsZero() {
		fmt.Fprintf(cmd.OutOrStdout(), "Since: %s\n", since.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runPasswd(cmd *cobra.Command, args []string) error {
	p := newPrompter(cmd)
	form := forms.ChangePasswordForm{}
	var err error
	if form.Old, err = p.ask("Current Password", ""); err != nil {
		return err
	}
	if form.New, err = p.ask("New Password", ""); err != nil {
		return err
	}
	if form.Confirm, err = p.ask("Confirm Password", ""); err != nil {
		return err
	}

	err = form.Submit(func(oldPassword, newPassword string) error {
		if err := cons.API.ChangePassword(cmd.Context(), oldPassword, newPassword).Err(); err != nil {
			cons.Notifier.Error(err.Error())
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Password changed")
	return nil
}
