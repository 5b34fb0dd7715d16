package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ledgerly/finance-tracker/pkg/client"
)

// app carries the I/O streams and the lazily built API client shared by all
// subcommands.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	lookuper envconfig.Lookuper
	cfg      cliConfig
	client   *client.Client
	styles   styles

	apiURL  string
	verbose bool
	stdin   *bufio.Reader
}

type styles struct {
	title   lipgloss.Style
	success lipgloss.Style
	subtle  lipgloss.Style
	err     lipgloss.Style
	income  lipgloss.Style
	expense lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		subtle:  r.NewStyle().Foreground(lipgloss.Color("241")),
		err:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		income:  r.NewStyle().Foreground(lipgloss.Color("42")),
		expense: r.NewStyle().Foreground(lipgloss.Color("203")),
	}
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:       in,
		out:      out,
		errOut:   errOut,
		lookuper: envconfig.OsLookuper(),
		styles:   newStyles(out),
	}
}

func (a *app) execute(args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(a.errOut, a.styles.err.Render("Error: ")+describe(err))
		return err
	}
	return nil
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledger",
		Short:         "Track earnings and expenses from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (overrides LEDGER_API_URL)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log HTTP and session events to stderr")

	root.AddCommand(
		a.signupCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.forgotPasswordCmd(),
		a.resetPasswordCmd(),
		a.addCmd(),
		a.listCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.monthlyCmd(),
		a.summaryCmd(),
		a.categoriesCmd(),
	)
	return root
}

// setup loads configuration and builds the API client.
func (a *app) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(ctx, a.lookuper)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	a.cfg = cfg

	log := zerolog.Nop()
	if a.verbose {
		log = zerolog.New(zerolog.ConsoleWriter{Out: a.errOut, NoColor: true}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}

	c, err := client.New(cfg.APIURL, client.NewFileStore(cfg.SessionFile),
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(log),
	)
	if err != nil {
		return err
	}
	a.client = c
	return nil
}

// password returns value when set, otherwise prompts for it without echo.
func (a *app) password(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}

	fmt.Fprint(a.out, prompt)
	pw, err := a.readSecret()
	fmt.Fprintln(a.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if strings.TrimSpace(pw) == "" {
		return "", errors.New("password cannot be empty")
	}
	return pw, nil
}

func (a *app) readSecret() (string, error) {
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Not a terminal (pipes, tests): read one line.
	if a.stdin == nil {
		a.stdin = bufio.NewReader(a.in)
	}
	line, err := a.stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// describe turns API errors into a short human message.
func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNotAuthenticated):
		return "not logged in, run `ledger login` first"
	case errors.As(err, &apiErr) && apiErr.StatusCode == 401:
		return "session expired, run `ledger login` again"
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return err.Error()
	}
}
