package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"travelapp/internal/forms"
	"travelapp/internal/nav"
)

var (
	authUsername string
	authPassword string
	authEmail    string
)

// loginCmd signs in and stores the credential
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the credential",
	Long: `Signs in against the API and stores the returned credential in the
state directory, where the interactive UI and other commands pick it up.

Missing flags are prompted for; the password is read without echo.

Example:
  travel login -u budi`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd clears the stored credential
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credential and cached trip",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

// registerCmd creates an account
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

// whoamiCmd shows the signed-in user
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func registerAuthCommands() {
	loginCmd.Flags().StringVarP(&authUsername, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&authPassword, "password", "p", "", "Password (prompted when omitted)")

	registerCmd.Flags().StringVarP(&authUsername, "username", "u", "", "Username")
	registerCmd.Flags().StringVarP(&authEmail, "email", "e", "", "Email address")
	registerCmd.Flags().StringVarP(&authPassword, "password", "p", "", "Password, at least 6 characters (prompted when omitted)")

	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd)
}

// outcomeError carries a form message as the command error.
type outcomeError struct {
	msg string
	err error
}

func (e *outcomeError) Error() string { return e.msg }
func (e *outcomeError) Unwrap() error { return e.err }

func outcomeErr(o forms.Outcome) error {
	return &outcomeError{msg: o.Message, err: o.Err}
}

// prompter reads answers from the command's input.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(cmd *cobra.Command) *prompter {
	p := &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout(), fd: -1}
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		p.fd = int(f.Fd())
		p.tty = term.IsTerminal(p.fd)
	}
	return p
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) secret(label string) (string, error) {
	if !p.tty {
		return p.line(label)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// fill prompts for every empty value in order.
func (p *prompter) fill(fields ...promptField) error {
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		var err error
		if f.secret {
			*f.value, err = p.secret(f.label)
		} else {
			*f.value, err = p.line(f.label)
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", strings.ToLower(f.label), err)
		}
	}
	return nil
}

type promptField struct {
	label  string
	value  *string
	secret bool
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	username, password := authUsername, authPassword
	if err := newPrompter(cmd).fill(
		promptField{label: "Username", value: &username},
		promptField{label: "Password", value: &password, secret: true},
	); err != nil {
		return err
	}

	out := forms.LoginForm{Username: username, Password: password}.Submit(ctx, a.client, a.sessions)
	if !out.OK() {
		return outcomeErr(out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.Message)
	if u := a.sessions.State().User; u != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", u.Username, roleOrDash(u.Role))
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.router.Logout()
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	username, email, password := authUsername, authEmail, authPassword
	if err := newPrompter(cmd).fill(
		promptField{label: "Username", value: &username},
		promptField{label: "Email", value: &email},
		promptField{label: "Password", value: &password, secret: true},
	); err != nil {
		return err
	}

	out := forms.RegisterForm{Username: username, Email: email, Password: password}.Submit(ctx, a.client)
	if !out.OK() {
		return outcomeErr(out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.Message)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	st := a.sessions.State()
	if err := nav.RequireLogin(st); err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Username: %s\n", st.User.Username)
	if st.User.Name != "" {
		fmt.Fprintf(w, "Name:     %s\n", st.User.Name)
	}
	if st.User.Email != "" {
		fmt.Fprintf(w, "Email:    %s\n", st.User.Email)
	}
	fmt.Fprintf(w, "Role:     %s\n", roleOrDash(st.User.Role))
	return nil
}

func roleOrDash(role string) string {
	if role == "" {
		return "-"
	}
	return role
}
