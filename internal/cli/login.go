package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/me/ccfeedback/internal/auth"
	"github.com/me/ccfeedback/internal/session"
	"github.com/me/ccfeedback/internal/token"
)

func newLoginCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the feedback backend",
		Long: "Sign in with your username and password. The password is read without echo\n" +
			"from a terminal, or as a single line from standard input otherwise.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			in := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Username: ")
				line, err := readLine(in)
				if err != nil {
					return fmt.Errorf("read username: %w", err)
				}
				username = line
			}
			password, err := readPassword(cmd, in)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			policy := cfg.RetryPolicy()
			if sleep != nil {
				policy = policy.WithSleep(sleep)
			}
			flow := auth.NewFlow(client, logger).WithPolicy(policy)
			flow.OnRetry = func(_ int, msg string) {
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
			}

			res, err := flow.Login(cmd.Context(), store, username, password)
			if err != nil {
				logger.Debug("login failed", "kind", auth.KindOf(err), "error", err)
				return errors.New(auth.Message(err))
			}

			fmt.Fprintf(out, "Logged in as %s.\n", res.Role.Label())
			fmt.Fprintf(out, "  Dashboard: %s\n", res.Route)
			if res.Attempts > 1 {
				fmt.Fprintf(out, "  Attempts:  %d\n", res.Attempts)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Logout(cmd.Context(), store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			sess, err := session.Load(cmd.Context(), store, logger)
			if err != nil {
				return err
			}
			if !sess.Authenticated {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}

			fmt.Fprintf(out, "Role:      %s\n", sess.Role.Label())
			fmt.Fprintf(out, "Dashboard: %s\n", sess.Role.Route())

			info, err := token.Inspect(sess.Token)
			if err != nil {
				logger.Debug("token is not inspectable", "error", err)
				return nil
			}
			if info.Subject != "" {
				fmt.Fprintf(out, "User:      %s\n", info.Subject)
			}
			if p := info.Profile; !p.Empty() {
				if p.FullName != "" {
					fmt.Fprintf(out, "Name:      %s\n", p.FullName)
				}
				if p.StudentID != "" {
					fmt.Fprintf(out, "Student:   %s\n", p.StudentID)
				}
				if d := p.Department(); d != "" {
					fmt.Fprintf(out, "Dept:      %s\n", d)
				}
				if p.Year > 0 {
					fmt.Fprintf(out, "Year:      %s\n", humanize.Ordinal(p.Year))
				}
				if p.Email != "" {
					fmt.Fprintf(out, "Email:     %s\n", p.Email)
				}
			}
			if !info.ExpiresAt.IsZero() {
				state := "expires"
				if info.Expired(time.Now()) {
					state = "expired"
				}
				fmt.Fprintf(out, "Token:     %s %s\n", state, humanize.Time(info.ExpiresAt))
			}
			return nil
		},
	}
}

// readPassword reads without echo from a terminal, or one line from in.
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}
	return readLine(in)
}

// readLine returns the next line without its terminator. A final line
// without a newline is accepted.
func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
