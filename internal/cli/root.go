// Package cli implements ccf, the command-line front end of the feedback
// system. One OS user holds one persisted session file.
package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/ccfeedback/internal/api"
	"github.com/me/ccfeedback/internal/config"
	"github.com/me/ccfeedback/internal/logging"
	"github.com/me/ccfeedback/internal/retry"
	"github.com/me/ccfeedback/internal/session"
)

var (
	flagServer      string
	flagAuthScheme  string
	flagConfig      string
	flagSessionFile string
	flagDebug       bool
	flagLogLevel    string
	flagLogFormat   string

	logger *slog.Logger
	cfg    config.ClientConfig
	client *api.Client
	store  *session.FileStore

	// sleep waits between login attempts; nil means a real timer.
	sleep retry.SleepFunc

	// clock tells the meeting schedule what time it is.
	clock = time.Now
)

// NewRootCmd creates the root cobra command for the ccf CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ccf",
		Short: "ccf, the Class Committee feedback client",
		Long: "ccf logs in to the feedback backend and runs the dashboard actions of your role:\n" +
			"answering questions, sending questions, following committee meetings,\n" +
			"and downloading or sharing reports.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(flagLogLevel), flagLogFormat, cmd.ErrOrStderr())
			return setup(cmd)
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flagServer, "server", "", "Backend URL (or CCF_BACKEND_URL env, default http://localhost:8080)")
	pf.StringVar(&flagAuthScheme, "auth-scheme", "", "Token header: bearer, x-access-token or both (or CCF_AUTH_SCHEME env)")
	pf.StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	pf.StringVar(&flagSessionFile, "session-file", "", "Session file (default ~/.ccf/session.json)")
	pf.BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newQuestionsCmd(),
		newFeedbackCmd(),
		newReportCmd(),
		newDirectoryCmd(),
		newMeetingsCmd(),
	)

	return root
}

// setup layers flags over the config file, .env and environment, and
// builds the backend client and session store shared by every command.
func setup(cmd *cobra.Command) error {
	var err error
	cfg, err = config.LoadClient(flagConfig, ".env")
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("server") {
		cfg.BackendURL = flagServer
	}
	if cmd.Flags().Changed("auth-scheme") {
		cfg.AuthScheme = flagAuthScheme
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	scheme, _ := api.ParseAuthScheme(cfg.AuthScheme)
	client = api.NewClient(cfg.BackendURL, logger).WithTimeout(cfg.Timeout).WithAuthScheme(scheme)

	path := flagSessionFile
	if path == "" {
		if path, err = session.DefaultFilePath(); err != nil {
			return err
		}
	}
	store = session.NewFileStore(path)
	logger.Debug("cli ready", "backend", cfg.BackendURL, "session_file", path)
	return nil
}
