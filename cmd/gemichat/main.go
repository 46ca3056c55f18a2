// Package main provides the gemichat CLI: a terminal chat client for the
// /ask-gemini backend, plus one-shot commands for scripting.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gemichat/internal/clipboard"
	"gemichat/internal/config"
	"gemichat/internal/controller"
	"gemichat/internal/gateway"
	"gemichat/internal/identity"
	"gemichat/internal/logger"
	"gemichat/internal/output"
	"gemichat/internal/render"
	"gemichat/internal/tui"
	"gemichat/internal/version"
)

// errReported marks failures already shown to the user.
var errReported = errors.New("already reported")

var errEmptyMessage = errors.New("message must not be empty")

// app holds what the commands share: the viper instance the flags are bound to and
// the resolved configuration.
type app struct {
	v         *viper.Viper
	configDir string
	plain     bool
	json      bool
	silent    bool
	stdout    io.Writer

	cfg     *config.Config
	printer *output.Printer
}

func newApp(stdout io.Writer) *app {
	return &app{v: viper.New(), stdout: stdout}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(newApp(os.Stdout)).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gemichat",
		Short: "gemichat - terminal chat client",
		Long: `gemichat is a terminal chat client for a Gemini-backed chat service.
Replies are rendered as Markdown; click a code block (or press ctrl+y) to copy it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runChat, // Default behavior is the interactive chat
	}

	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyEndpoint, config.DefaultEndpoint, "Backend API base URL")
	flags.String(config.KeyCookieFile, "", "Cookie store file [default: <config-dir>/cookies.yaml]")
	flags.Bool(config.KeyMultipart, false, "Always send multipart bodies")
	flags.Bool(config.KeyGuard, true, "Refuse a new request while one is in flight")
	flags.String(config.KeyStyle, "auto", "Markdown style (auto|dark|light|notty|ascii)")
	flags.Int(config.KeyWordWrap, 80, "Word wrap width for one-shot output")
	flags.Duration(config.KeyTimeout, 0, "Request timeout for one-shot commands (0 = none)")
	flags.String(config.KeyLogLevel, "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String(config.KeyLogFile, "", "Write logs to file instead of stderr")
	flags.Bool(config.KeyTestMode, false, "Run in deterministic test mode")
	flags.StringVar(&a.configDir, "config-dir", "", "Configuration directory [default: ~/.config/gemichat]")
	flags.BoolVar(&a.plain, "plain", false, "Plain output without colors")
	flags.BoolVar(&a.json, "json", false, "JSON output for one-shot commands")
	flags.BoolVarP(&a.silent, "quiet", "q", false, "Print nothing from one-shot commands; report through the exit status")

	for _, key := range []string{
		config.KeyEndpoint, config.KeyCookieFile, config.KeyMultipart, config.KeyGuard,
		config.KeyStyle, config.KeyWordWrap, config.KeyTimeout,
		config.KeyLogLevel, config.KeyLogFile, config.KeyTestMode,
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(fmt.Sprintf("binding %s flag: %v", key, err))
		}
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "chat",
			Short: "Start the interactive chat",
			Args:  cobra.NoArgs,
			RunE:  a.runChat,
		},
		newAskCmd(a),
		&cobra.Command{
			Use:   "reset",
			Short: "Reset the conversation on the backend",
			Args:  cobra.NoArgs,
			RunE:  a.runReset,
		},
		newTokenCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// setup loads the configuration and configures logging and output. quiet keeps the
// logger off the terminal while the TUI draws on it.
func (a *app) setup(quiet bool) error {
	loader := config.NewLoader(a.v)
	if a.configDir != "" {
		loader = loader.WithConfigDir(a.configDir)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Configure(logger.Options{
		Level:    cfg.LogLevel,
		File:     cfg.LogFile,
		TestMode: cfg.TestMode,
		Quiet:    quiet,
	}); err != nil {
		return fmt.Errorf("error configuring logger: %w", err)
	}

	opts := []output.Option{output.WithWriter(a.stdout)}
	switch {
	case a.json:
		opts = append(opts, output.JSON())
	case cfg.TestMode:
		opts = append(opts, output.TestMode())
	case a.plain:
		opts = append(opts, output.PlainText())
	default:
		opts = append(opts, output.WithStyles(output.NewTheme()))
	}
	if a.silent {
		opts = append(opts, output.Silent())
	}
	a.printer = output.NewPrinter(opts...)
	logger.Debug("Output configured", "printer", a.printer)
	return nil
}

// session builds the cookie store, token provider and gateway for the configured
// backend. Only one-shot commands get a request timeout.
func (a *app) session(oneShot bool) (*identity.Provider, *gateway.Gateway) {
	store := identity.NewFileStore(a.cfg.CookieFile)
	opts := []gateway.Option{
		gateway.WithCookieJar(store),
		gateway.WithGuard(a.cfg.Guard),
		gateway.WithMultipart(a.cfg.Multipart),
	}
	if oneShot {
		opts = append(opts, gateway.WithTimeout(a.cfg.Timeout))
	}
	return identity.NewProvider(store), gateway.New(a.cfg.Endpoint, opts...)
}

func (a *app) runChat(cmd *cobra.Command, _ []string) error {
	if err := a.setup(true); err != nil {
		return err
	}
	logger.Info("Starting gemichat", "version", version.Version, "endpoint", a.cfg.Endpoint)

	renderer, err := render.NewMarkdown(a.cfg.Style, a.cfg.WordWrap)
	if err != nil {
		return err
	}
	provider, gw := a.session(false)

	model := tui.New(cmd.Context(), tui.Options{
		Requests:  gw,
		Tokens:    provider,
		Renderer:  renderer,
		Clipboard: clipboard.New(),
		Endpoint:  a.cfg.Endpoint,
	})
	return tui.Run(cmd.Context(), model)
}

func newAskCmd(a *app) *cobra.Command {
	var imagePath string
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd.Context(), strings.Join(args, " "), imagePath)
		},
	}
	cmd.Flags().StringVar(&imagePath, "image", "", "Attach an image file")
	return cmd
}

func (a *app) runAsk(ctx context.Context, message, imagePath string) error {
	if message == "" {
		return errEmptyMessage
	}
	if err := a.setup(false); err != nil {
		return err
	}
	renderer, err := render.NewMarkdown(a.cfg.Style, a.cfg.WordWrap)
	if err != nil {
		return err
	}

	provider, gw := a.session(true)
	conv := newPrintedConversation(a.printer, renderer)
	c := controller.New(gw, provider, conv)

	p, ok := c.Submit(ctx, controller.Input{Text: message, ImagePath: imagePath})
	if !ok {
		return a.reported(conv, errors.New("message was not sent"))
	}
	return a.reported(conv, c.Wait(ctx, p))
}

func (a *app) runReset(cmd *cobra.Command, _ []string) error {
	if err := a.setup(false); err != nil {
		return err
	}
	provider, gw := a.session(true)
	conv := newPrintedConversation(a.printer, nil)
	conv.reply = a.printer.Success
	c := controller.New(gw, provider, conv)

	p, ok := c.Reset(cmd.Context())
	if !ok {
		return a.reported(conv, errors.New("reset was not sent"))
	}
	return a.reported(conv, c.Wait(cmd.Context(), p))
}

// reported marks err as already shown when the conversation printed a failure.
func (a *app) reported(conv *printedConversation, err error) error {
	if err == nil {
		return nil
	}
	logger.Debug("Command failed", "error", err)
	if conv.failed {
		return fmt.Errorf("%w: %w", errReported, err)
	}
	return err
}

func newTokenCmd(a *app) *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print the session token, creating it if needed",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.setup(false); err != nil {
				return err
			}
			store := identity.NewFileStore(a.cfg.CookieFile)
			token := identity.NewProvider(store).GetOrCreateToken()
			if reveal {
				a.printer.Println(token)
				return nil
			}
			a.printer.Info(fmt.Sprintf("Session token: %s (stored in %s)", identity.Mask(token), store.Path()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print the full token")
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	var detailed bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if detailed {
				_, err := fmt.Fprintln(a.stdout, version.GetDetailedVersion())
				return err
			}
			_, err := fmt.Fprintln(a.stdout, version.GetFormattedVersion())
			return err
		},
	}
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Show build details")
	return cmd
}
