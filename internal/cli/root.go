// Package cli implements the todo command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Makepad-fr/todolist/internal/config"
	"github.com/Makepad-fr/todolist/internal/logging"
	"github.com/Makepad-fr/todolist/internal/ui"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// Exit codes: 0 ok, 1 error, 2 usage.
const (
	exitOK      = 0
	exitRuntime = 1
	exitUsage   = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageErr(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

func runtimeErr(err error) error {
	return &exitError{code: exitRuntime, err: err}
}

// runner carries state shared by all subcommands of one invocation.
type runner struct {
	configDir string
	verbose   bool

	cfg config.Config
	log *zap.Logger
}

// NewRootCmd creates the "todo" command with its global flags and
// subcommands.
func NewRootCmd() *cobra.Command {
	r := &runner{log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "todo",
		Short: "todo - a tiny list of things to do",
		Long: `todo keeps a short list of items you can add, tick off and remove.
The list is saved locally after every change.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = r.log.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&r.configDir, "config-dir", "", "configuration directory (default: <user config dir>/todo)")
	pf.String("data-dir", "", "data directory (default: platform data dir)")
	pf.String("backend", "", "storage backend: file, sqlite or memory")
	pf.String("theme", "", "output theme: classic, neon or mono")
	pf.String("color", "", "color output: auto, always or never")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.BoolVarP(&r.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		r.newAddCmd(),
		r.newListCmd(),
		r.newDoneCmd(),
		r.newRemoveCmd(),
		r.newUICmd(),
		newVersionCmd(),
	)
	return root
}

func (r *runner) setup(cmd *cobra.Command) error {
	dir, err := config.ResolveConfigDir(r.configDir)
	if err != nil {
		return runtimeErr(fmt.Errorf("config dir: %w", err))
	}
	cfg, err := config.Load(dir, cmd.Flags())
	if err != nil {
		if errors.Is(err, config.ErrInvalid) {
			return &exitError{code: exitUsage, err: err}
		}
		return runtimeErr(err)
	}
	if r.verbose {
		cfg.LogLevel = zapcore.DebugLevel
	}
	r.cfg = cfg

	ui.SetColorMode(cfg.Color)
	ui.SetTheme(cfg.Theme)

	// the interactive UI owns the terminal and opens its own file logger
	if cmd.Name() == "ui" {
		return nil
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return runtimeErr(err)
	}
	r.log = log
	return nil
}

// Run executes the command line args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return exitOK
	}
	ui.Fail(stderr, err.Error())
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// anything cobra rejected before our code ran: unknown command, bad flags, arg count
	fmt.Fprintln(stderr)
	fmt.Fprint(stderr, root.UsageString())
	return exitUsage
}

// Execute runs os.Args and exits.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}
