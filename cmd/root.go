package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/josephlewis42/aorta/commands"
	"github.com/josephlewis42/aorta/core/config"
	"github.com/josephlewis42/aorta/core/history"
	"github.com/josephlewis42/aorta/core/shell"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgPath string
	quiet   bool
	debug   bool
	command string
	noRC    bool

	exitCode int
)

func newLogger(cmd *cobra.Command) *log.Logger {
	if debug {
		return log.New(cmd.ErrOrStderr(), "[aorta] ", log.Ltime|log.Lmicroseconds)
	}
	return log.New(io.Discard, "", 0)
}

func configDir() (string, error) {
	if cfgPath != "" {
		return cfgPath, nil
	}
	return config.DefaultDir()
}

// loadConfig loads the configuration, creating the directory so history can
// be written to it. If that fails the built-in defaults are used.
func loadConfig(logger *log.Logger) (*config.Configuration, error) {
	dir, err := configDir()
	if err != nil {
		logger.Printf("Couldn't find config dir, using defaults: %v", err)
		return config.Default(), nil
	}

	fsys := afero.NewOsFs()
	if err := fsys.MkdirAll(dir, 0700); err != nil {
		logger.Printf("Couldn't create %s, using defaults: %v", dir, err)
		return config.Default(), nil
	}

	return config.Load(fsys, dir)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aorta",
	Short: "An interactive command interpreter",
	Long: `aorta reads command lines and runs them.

Lines may chain commands with |, &&, ||, ; and >. Builtins such as cd,
export, alias, source and history run inside the shell, everything else is
started as a program from $PATH.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx := context.Background()
		logger := newLogger(cmd)

		cfg, err := loadConfig(logger)
		if err != nil {
			return err
		}

		printer := &commands.ColorPrinter{Mode: cfg.Color}
		printer.Apply()

		state := commands.NewState()
		state.Quiet = quiet || cfg.Quiet

		hist, err := history.Open(cfg.Fs(), cfg.HistoryFile, cfg.HistorySize)
		if err != nil {
			if !state.Quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: couldn't load history: %v\n", err)
			}
			hist = history.InMemory(cfg.HistorySize)
		}
		state.History = hist

		d := commands.NewDispatcher(state)
		d.Printer = printer
		d.Log = logger

		sh := commands.NewShell(d)
		sh.Prompt = cfg.Prompt
		sh.Stdin = cmd.InOrStdin()
		sh.Stdout = cmd.OutOrStdout()
		sh.Stderr = cmd.ErrOrStderr()

		if !noRC {
			stdio := shell.IO{Stdin: sh.Stdin, Stdout: sh.Stdout, Stderr: sh.Stderr}
			loader := &config.RCLoader{
				Fs:      afero.NewOsFs(),
				Env:     state.Env,
				Aliases: state.Aliases,
				Runner: config.RunnerFunc(func(ctx context.Context, line string) error {
					_, err := d.Run(ctx, line, stdio)
					if errors.Is(err, commands.ErrExit) {
						return config.ErrStopLoading
					}
					return err
				}),
				Log: logger,
			}
			err := loader.Load(ctx, cfg.RCFiles...)
			if err != nil && !errors.Is(err, config.ErrStopLoading) && !state.Quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: startup files: %v\n", err)
			}
		}

		switch {
		case sh.Quit():
			exitCode = sh.ExitCode()
		case cmd.Flags().Changed("command"):
			exitCode = sh.RunCommand(ctx, command)
		case isTerminal(sh.Stdin):
			exitCode = sh.Interactive(ctx)
		default:
			exitCode = sh.RunLines(ctx, sh.Stdin)
		}
		return nil
	},
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
	os.Exit(exitCode)
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config directory (default is $XDG_CONFIG_HOME/aorta)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "log debugging information to stderr")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress warnings and error messages")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run a single command line and exit")
	rootCmd.Flags().BoolVar(&noRC, "norc", false, "don't read startup files")
}
