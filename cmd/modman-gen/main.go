// cmd/modman-gen/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"modgen/internal/config"
	"modgen/internal/generator"
	"modgen/internal/journal"
	"modgen/internal/logging"
	"modgen/internal/manifest"
	"modgen/internal/workspace"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every command needs, set up in PersistentPreRunE
type app struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	logger  *logging.Logger
	journal *journal.Store
}

var state = &app{}

var rootCmd = &cobra.Command{
	Use:   "modman-gen",
	Short: "Generate a modman manifest for the current module",
	Long: `modman-gen compares a module checked out under <project>/.modman/<module>
with the project it overlays and prints the modman mappings for everything the
module adds, collapsing sibling paths into directory globs where that is safe.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(state.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if state.logLevel != "" {
		cfg.LogLevel = state.logLevel
	}
	state.cfg = cfg

	state.logger, err = logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	if cfg.Journal.Enabled {
		state.journal, err = journal.Open(cfg.Journal.Path, journal.DefaultCompressionOptions())
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
	}
	return nil
}

func (a *app) close() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			return fmt.Errorf("closing journal: %w", err)
		}
		a.journal = nil
	}
	return nil
}

func (a *app) generator() (*generator.Generator, error) {
	var opts []generator.Option
	if a.journal != nil {
		opts = append(opts, generator.WithRecorder(a.journal))
	}
	return generator.New(a.cfg, a.logger, opts...)
}

func (a *app) requireJournal() (*journal.Store, error) {
	if a.journal == nil {
		return nil, fmt.Errorf("journal disabled: enable it in the config or set MODMAN_JOURNAL_PATH")
	}
	return a.journal, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&state.configPath, "config", "c", "modman-gen.json", "Config file")
	rootCmd.PersistentFlags().StringVar(&state.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return state.close()
	}

	generateCmd := newGenerateCmd()
	rootCmd.RunE = generateCmd.RunE
	rootCmd.Flags().AddFlagSet(generateCmd.Flags())

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(newAllCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newShowCmd())
}

func logFailure(err error) {
	if state.logger != nil {
		state.logger.Error("command failed", zap.Error(err))
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logFailure(err)
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		state.close()
		stop()
		os.Exit(1)
	}
}

// resolveDirs uses explicit flags when given, the working directory otherwise.
func resolveDirs(module, target string) (workspace.Dirs, error) {
	if module == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return workspace.Dirs{}, fmt.Errorf("getting current directory: %w", err)
		}
		if target == "" {
			return workspace.Resolve(cwd)
		}
		module = cwd
	}
	if target == "" {
		return workspace.Resolve(module)
	}
	moduleAbs, err := filepath.Abs(module)
	if err != nil {
		return workspace.Dirs{}, fmt.Errorf("getting absolute path for %s: %w", module, err)
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return workspace.Dirs{}, fmt.Errorf("getting absolute path for %s: %w", target, err)
	}
	return workspace.Dirs{Name: filepath.Base(moduleAbs), Module: moduleAbs, Target: targetAbs}, nil
}

// writeManifest prints to stdout or replaces the file at output.
func writeManifest(cmd *cobra.Command, output string, res *generator.Result, opts []manifest.Option) error {
	if output == "" || output == "-" {
		return manifest.NewWriter(cmd.OutOrStdout(), opts...).Write(res.Mappings)
	}
	return manifest.WriteFile(output, res.Mappings, opts...)
}
