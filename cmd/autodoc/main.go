package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/autodoc-cli/autodoc/internal/config"
	"github.com/autodoc-cli/autodoc/internal/export"
	"github.com/autodoc-cli/autodoc/internal/logger"
	"github.com/autodoc-cli/autodoc/internal/render"
	"github.com/autodoc-cli/autodoc/internal/session"
	"github.com/autodoc-cli/autodoc/internal/tui"
	"github.com/autodoc-cli/autodoc/pkg/client"
	"github.com/autodoc-cli/autodoc/pkg/domain"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var (
	errSessionExpired = errors.New("session expired, run autodoc login")
	errNotLoggedIn    = errors.New("not logged in, run autodoc login")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	logLevel   string
}

// env is everything a command needs, built from the config.
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	store   session.Store
	guard   *session.Guard
	client  *client.Client
	logFile io.Closer
}

func (o *options) load() (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}

	f, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	log := logger.Setup(f, logger.ParseLevel(level)).With(slog.String("version", version))

	var store session.Store
	if cfg.Token != "" {
		store = session.NewMemoryStore(cfg.Token)
	} else {
		store = session.NewFileStore(cfg.StateDir)
	}
	guard := session.NewGuard(store, log)
	c := client.New(cfg.APIURL, guard,
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(log),
		client.WithRateLimit(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	)

	return &env{
		cfg:     cfg,
		log:     log,
		store:   store,
		guard:   guard,
		client:  c,
		logFile: f,
	}, nil
}

func (e *env) Close() {
	e.logFile.Close() //nolint:errcheck
}

// withEnv adapts a command body that needs an env to cobra's RunE.
func withEnv(o *options, fn func(cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := o.load()
		if err != nil {
			return err
		}
		defer e.Close()
		return fn(cmd, e, args)
	}
}

// rejected clears the session after the backend refused its token.
func (e *env) rejected(token string) error {
	if _, err := e.guard.OnAuthRejected(token); err != nil {
		e.log.Error("clear rejected token", logger.Err(err))
	}
	return errSessionExpired
}

func rootCmd() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "autodoc",
		Short: "Generate documentation from source files",
		Long: `autodoc talks to a documentation backend: sign up, log in, upload a
source file and get documentation back, then render it to PDF.

Run without a subcommand to open the interactive terminal UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withEnv(o, func(cmd *cobra.Command, e *env, args []string) error {
			settings := tui.Settings{
				OutputDir: e.cfg.OutputDir,
				Logger:    e.log,
			}
			if fs, ok := e.store.(*session.FileStore); ok && e.cfg.WatchSession {
				w, err := fs.Watch(e.log)
				if err != nil {
					e.log.Warn("session watch disabled", logger.Err(err))
				} else {
					defer w.Close() //nolint:errcheck
					settings.SessionChanges = w.Changes()
				}
			}
			app := tui.NewApp(e.client, e.guard, settings)
			e.log.Info("starting tui", slog.String("api", e.cfg.APIURL), slog.String("state", e.guard.State().String()))
			p := tea.NewProgram(app, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("tui error: %w", err)
			}
			return nil
		}),
	}

	cmd.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "config file path (YAML), also "+config.EnvConfigPath)
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		loginCmd(o),
		signupCmd(o),
		logoutCmd(o),
		statusCmd(o),
		uploadCmd(o),
		envCmd(),
		versionCmd(),
	)
	return cmd
}

func loginCmd(o *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(cmd *cobra.Command, e *env, args []string) error {
			if password == "" && email != "" {
				p, err := readPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}
			creds := domain.Credentials{Email: strings.TrimSpace(email), Password: password}
			if err := domain.Validate(creds); err != nil {
				return err
			}

			resp, err := e.client.Login(cmd.Context(), creds)
			if err != nil {
				e.log.Warn("login failed", logger.Err(err))
				return errors.New(client.UserMessage(err, "Login failed. Try again."))
			}
			if err := e.guard.OnLoginSuccess(resp.Access); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Login successful! Logged in as %s.\n", creds.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when omitted)")
	return cmd
}

func signupCmd(o *options) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(cmd *cobra.Command, e *env, args []string) error {
			if password == "" && name != "" && email != "" {
				p, err := readPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}
			req := domain.SignupRequest{
				Name:     strings.TrimSpace(name),
				Email:    strings.TrimSpace(email),
				Password: password,
			}
			if err := domain.Validate(req); err != nil {
				return err
			}
			if err := e.client.Signup(cmd.Context(), req); err != nil {
				e.log.Warn("signup failed", logger.Err(err))
				return errors.New(client.UserMessage(err, "Signup failed. Try again."))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signup successful! Run autodoc login to continue.")
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when omitted)")
	return cmd
}

func logoutCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session token",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(cmd *cobra.Command, e *env, args []string) error {
			out := cmd.OutOrStdout()
			if !e.guard.IsAuthenticated() {
				fmt.Fprintln(out, "Already logged out.")
				return nil
			}
			if _, err := e.guard.OnLogout(); err != nil {
				return err
			}
			fmt.Fprintln(out, "Logged out.")
			if e.cfg.Token != "" {
				fmt.Fprintln(out, "AUTODOC_TOKEN is still set and will be used next time.")
			}
			return nil
		}),
	}
}

func statusCmd(o *options) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(cmd *cobra.Command, e *env, args []string) error {
			out := cmd.OutOrStdout()
			token := e.guard.Token()

			if fs, ok := e.store.(*session.FileStore); ok {
				fmt.Fprintf(out, "token file: %s\n", fs.Path())
			} else {
				fmt.Fprintln(out, "token: from AUTODOC_TOKEN")
			}
			if token != "" {
				if claims, err := session.PeekClaims(token); err == nil {
					if claims.Subject != "" {
						fmt.Fprintf(out, "subject:    %s\n", claims.Subject)
					}
					if !claims.ExpiresAt.IsZero() {
						note := ""
						if claims.Expired(time.Now()) {
							note = " (expired)"
						}
						fmt.Fprintf(out, "expires:    %s%s\n", claims.ExpiresAt.Local().Format(time.RFC3339), note)
					}
				}
			}

			if verify && token != "" {
				p, err := e.client.Dashboard(cmd.Context())
				if err != nil {
					if client.IsAuthRejected(err) {
						fmt.Fprintf(out, "session:    %s\n", session.Anonymous)
						return e.rejected(token)
					}
					return fmt.Errorf("verify session: %w", err)
				}
				e.guard.OnProtectedSuccess(token)
				fmt.Fprintf(out, "user:       %s <%s>\n", p.Username, p.Email)
			}
			fmt.Fprintf(out, "session:    %s\n", e.guard.State())
			return nil
		}),
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check the token against the backend")
	return cmd
}

func uploadCmd(o *options) *cobra.Command {
	var (
		pdf    bool
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload source files and print their documentation",
		Long: `Upload each file and print the generated documentation. Arguments may be
glob patterns, including ** for any depth (quote them so the shell leaves
them alone). --pdf needs exactly one file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: withEnv(o, func(cmd *cobra.Command, e *env, args []string) error {
			if _, redirected := e.guard.Protect(session.RouteUpload); redirected {
				return errNotLoggedIn
			}
			files, err := expandUploads(args)
			if err != nil {
				return fmt.Errorf("upload: %w", err)
			}
			if pdf && len(files) != 1 {
				return fmt.Errorf("upload: --pdf needs exactly one file, got %d", len(files))
			}

			out := cmd.OutOrStdout()
			token := e.guard.Token()
			var doc *domain.Documentation
			for i, path := range files {
				doc, err = e.client.UploadFile(cmd.Context(), path)
				if err != nil {
					if client.IsAuthRejected(err) {
						return e.rejected(token)
					}
					return fmt.Errorf("file upload failed: %s: %s", path, client.Reason(err))
				}
				e.guard.OnProtectedSuccess(token)
				e.log.Info("uploaded", slog.String("path", path))

				if len(files) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "==> %s <==\n", path)
				}
				fmt.Fprintln(out, render.Documentation(doc.Text, 0))
			}
			if !pdf {
				return nil
			}

			data, err := e.client.GeneratePDF(cmd.Context(), *doc)
			if err != nil {
				if client.IsAuthRejected(err) {
					return e.rejected(token)
				}
				return fmt.Errorf("pdf generation failed: %s", client.Reason(err))
			}
			if outDir == "" {
				outDir = e.cfg.OutputDir
			}
			path, err := export.SavePDF(outDir, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "PDF saved to %s\n", path)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&pdf, "pdf", false, "also generate and save a PDF")
	cmd.Flags().StringVar(&outDir, "out", "", "directory for the PDF (default from config)")
	return cmd
}

func envCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables autodoc reads",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Usage())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "autodoc "+version)
		},
	}
}

// readPassword reads one line from the command's stdin, prompting on stderr.
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
