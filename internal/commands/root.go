// Package commands provides the klosachat command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/diogo/klosachat/internal/config"
	"github.com/diogo/klosachat/internal/logging"
	"github.com/diogo/klosachat/internal/tui"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootOptions holds the flag values shared by all commands
type rootOptions struct {
	endpoint   string
	configPath string
	logLevel   string

	file   string
	output string
	raw    bool
	copy   bool
}

// reportedError marks an error that was already shown to the user
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// NewRootCmd builds the command tree on top of deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "klosachat [prompt]",
		Short: "Terminal chat client for the KlosaNow assistant",
		Long: `klosachat talks to a KlosaNow chat endpoint from the terminal.
Every request carries the whole conversation; the endpoint answers with
a single reply.

The endpoint comes from --endpoint, the KLOSANOW_AI_ENDPOINT_URL
environment variable or endpoint_url in ~/.klosachat/config.toml.

Examples:
  klosachat                           Start interactive chat
  klosachat chat                      Start interactive chat
  klosachat "What are your hours?"    Send a single message
  klosachat -f question.md            Read the message from a file
  cat question.md | klosachat         Read the message from stdin
  klosachat "Hello" -o reply.txt      Save the reply to a file
  klosachat config                    Show the effective configuration`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "klosachat %s (built %s)\n", Version, BuildTime)
				return nil
			}

			prompt, ok, err := readPrompt(deps, opts, args)
			if err != nil {
				return err
			}

			if !ok {
				if deps.StdoutIsTTY() {
					return withApp(cmd.Context(), deps, opts, false, runChat)
				}
				return cmd.Help()
			}

			return withApp(cmd.Context(), deps, opts, true, func(ctx context.Context, deps *Dependencies, a *app) error {
				return runQuery(ctx, deps, a, prompt, queryOptions{
					raw:    opts.raw,
					output: opts.output,
					copy:   opts.copy,
				})
			})
		},
	}

	cmd.SetIn(deps.Stdin)
	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	cmd.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "Chat endpoint URL (overrides "+config.EndpointEnvVar+")")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a config file (.toml or .json)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read the message from file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Save the raw reply to file")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print the reply as plain text without decoration")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the reply to the clipboard")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(newChatCmd(deps, opts))
	cmd.AddCommand(NewConfigCmd(deps, opts))

	return cmd
}

// readPrompt picks the one-shot message from -f, piped stdin or the
// positional argument, in that order. ok is false when there is none.
func readPrompt(deps *Dependencies, opts *rootOptions, args []string) (string, bool, error) {
	var prompt string

	switch {
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		prompt = string(data)

	case deps.StdinIsPipe():
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		prompt = string(data)

	case len(args) > 0:
		prompt = args[0]

	default:
		return "", false, nil
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", false, fmt.Errorf("message cannot be empty")
	}
	return prompt, true, nil
}

// app is the validated runtime shared by chat and one-shot mode
type app struct {
	cfg    config.Config
	log    *logging.Logger
	client ExchangeClient
}

// loadConfig reads the config file and environment, then applies flags
func (o *rootOptions) loadConfig() (config.Config, error) {
	var cfg config.Config
	var err error

	if o.configPath != "" {
		if _, statErr := os.Stat(o.configPath); statErr != nil {
			return cfg, fmt.Errorf("config file: %w", statErr)
		}
		cfg, err = config.LoadConfigFrom(o.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return cfg, err
	}

	if o.endpoint != "" {
		cfg.EndpointURL = o.endpoint
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

// withApp validates the configuration, opens the log and the client,
// runs fn and releases everything afterwards. With oneShot set and a debug
// level, log lines are mirrored to stderr.
func withApp(ctx context.Context, deps *Dependencies, opts *rootOptions, oneShot bool, fn func(context.Context, *Dependencies, *app) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logPath, err := config.GetLogPath(cfg)
	if err != nil {
		return err
	}
	logOpts := logging.Options{Level: cfg.LogLevel, Path: logPath}
	if oneShot && logging.ParseLevel(cfg.LogLevel) <= zerolog.DebugLevel {
		logOpts.Console = deps.Stderr
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		return err
	}
	defer logger.Close()

	client, err := deps.NewClient(cfg, logger.Component("api"))
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	a := &app{cfg: cfg, log: logger, client: client}
	applyTheme(a)

	logger.Info().Str("endpoint", client.Endpoint()).Msg("starting")
	return fn(ctx, deps, a)
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd(NewDependencies()).ExecuteContext(ctx); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, tui.FormatError(err))
		}
		stop()
		os.Exit(1)
	}
}
