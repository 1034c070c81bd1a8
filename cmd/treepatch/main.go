package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/treepatch/internal/config"
	"github.com/vango-dev/treepatch/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	noColor    bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "treepatch",
		Short: "Apply structural patches to HTML trees",
		Long: `treepatch applies batches of tree edits to an HTML tree and
serializes the result.

Batches are written as YAML scripts or encoded in a compact binary
form. They can be applied once from the command line or streamed to
a live host over HTTP and WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file (default: treepatch.yaml in the working directory, if present)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		applyCmd(opts),
		encodeCmd(opts),
		decodeCmd(opts),
		serveCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

// setup loads configuration and installs the default logger.
func (o *globalOptions) setup(stderr io.Writer) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	o.cfg = cfg

	if o.noColor {
		color.NoColor = true
		errors.DisableColors()
	}

	handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})
	slog.SetDefault(slog.New(handler))
	return nil
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	cfg, err := config.Load(".")
	if err != nil {
		if errors.HasCode(err, errors.CodeConfigRead) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}
