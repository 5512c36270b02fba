// Command schoolsctl is the command-line client for the schools API: it
// keeps a login session on disk, submits new schools and prints the
// listing.
package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aanand-mishra/schools-api/internal/client/api"
	"github.com/aanand-mishra/schools-api/internal/session"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8082"

// errReported means the command already printed why it failed.
var errReported = errors.New("reported")

type app struct {
	server     string
	authServer string
	statePath  string
	timeout    time.Duration

	out    io.Writer
	errOut io.Writer
	http   *http.Client

	session *session.Session
}

func (a *app) api() *api.Client {
	return api.New(a.server, a.http, a.session)
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "schoolsctl",
		Short:         "Add and browse schools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.session != nil {
				a.session.Teardown()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.server, "server", envOr("SCHOOLS_SERVER", defaultServer), "schools API base URL")
	root.PersistentFlags().StringVar(&a.authServer, "auth-server", os.Getenv("SCHOOLS_AUTH_SERVER"), "credential service base URL (default: --server)")
	root.PersistentFlags().StringVar(&a.statePath, "session-file", envOr("SCHOOLS_SESSION_FILE", defaultStatePath()), "where the login session is kept")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "HTTP client timeout")

	root.AddCommand(
		newLoginCmd(a),
		newSignupCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newAddCmd(a),
		newListCmd(a),
	)
	return root
}

func (a *app) open() error {
	store, err := session.OpenFileStore(a.statePath)
	if err != nil {
		return fmt.Errorf("open session state: %w", err)
	}

	if a.http == nil {
		a.http = &http.Client{Timeout: a.timeout}
	}
	authServer := a.authServer
	if authServer == "" {
		authServer = a.server
	}

	a.session = session.New(store, session.NewHTTPCredentials(authServer, a.http))
	a.session.Init()
	return nil
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".schoolsctl.yaml"
	}
	return filepath.Join(dir, "schoolsctl", "state.yaml")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
