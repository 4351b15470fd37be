package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"modgen/internal/journal"
	"modgen/internal/manifest"
	"modgen/internal/workspace"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var (
		module    string
		target    string
		output    string
		stripRoot bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print the manifest of the module in the current directory",
		Long: `Print the manifest of a module. By default the module is the current
directory, which must sit directly inside a .modman directory; the project
containing that .modman directory is the target.`,
		Example: `  cd shop/.modman/Vendor_Module && modman-gen > modman
  modman-gen generate --module ./Vendor_Module --target /srv/shop -o modman`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := resolveDirs(module, target)
			if err != nil {
				return err
			}
			if stripRoot {
				state.cfg.StripRoot = true
			}

			g, err := state.generator()
			if err != nil {
				return err
			}
			res, err := g.Generate(cmd.Context(), dirs)
			if err != nil {
				return err
			}

			if err := writeManifest(cmd, output, res, g.WriterOptions()); err != nil {
				return err
			}
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %d entries (%d globs)\n",
					color.GreenString("wrote"), output, len(res.Mappings), res.Globs())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&module, "module", "m", "", "Module directory (default: current directory)")
	cmd.Flags().StringVarP(&target, "target", "t", "", "Target directory (default: derived from the .modman layout)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the manifest to this file instead of stdout")
	cmd.Flags().BoolVar(&stripRoot, "strip-root", false, "Omit the leading slash of every pattern")

	return cmd
}

func newAllCmd() *cobra.Command {
	var (
		write     bool
		stripRoot bool
	)

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Generate manifests for every module of the project",
		Long: `Find the .modman directory above the current directory and generate the
manifest of every module in it. With --write each manifest replaces the
module's modman file; otherwise all manifests are printed under a header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := workspace.FindRoot(".")
			if err != nil {
				return err
			}
			if stripRoot {
				state.cfg.StripRoot = true
			}

			g, err := state.generator()
			if err != nil {
				return err
			}
			results, err := g.GenerateAll(cmd.Context(), root)
			if err != nil {
				return err
			}

			header := color.New(color.FgCyan, color.Bold)
			for _, res := range results {
				if write {
					path := filepath.Join(res.Dirs.Module, "modman")
					if err := manifest.WriteFile(path, res.Mappings, g.WriterOptions()...); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d entries (%d globs)\n",
						color.GreenString("✓"), res.Dirs.Name, len(res.Mappings), res.Globs())
					continue
				}

				header.Fprintf(cmd.OutOrStdout(), "# %s\n", res.Dirs.Name)
				if err := manifest.NewWriter(cmd.OutOrStdout(), g.WriterOptions()...).Write(res.Mappings); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}

			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No modules found in", filepath.Join(root, workspace.ModmanDir))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Replace each module's modman file")
	cmd.Flags().BoolVar(&stripRoot, "strip-root", false, "Omit the leading slash of every pattern")

	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled manifest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.requireJournal()
			if err != nil {
				return err
			}

			runs, err := store.List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			blue := color.New(color.FgBlue).SprintFunc()
			for i, run := range runs {
				if limit > 0 && i >= limit {
					break
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %d entries (%d globs)\n",
					yellow(shortID(run.ID)),
					run.CreatedAt.Local().Format(time.RFC3339),
					blue(run.Module),
					run.Entries,
					run.Globs,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many runs (0 for all)")
	return cmd
}

func newShowCmd() *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print the manifest of a journaled run",
		Long: `Print the manifest of a journaled run, given its id or an unambiguous
prefix of it. Without an id the latest run of the current module is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := state.requireJournal()
			if err != nil {
				return err
			}

			var run *journal.Run
			if len(args) == 1 {
				run, err = store.Find(args[0])
			} else {
				var dirs workspace.Dirs
				if dirs, err = resolveDirs(module, ""); err != nil {
					return err
				}
				run, err = store.Latest(dirs.Module)
			}
			if err != nil {
				return err
			}

			body, err := store.Manifest(run)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}

	cmd.Flags().StringVarP(&module, "module", "m", "", "Module whose latest run is shown (default: current directory)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var (
		module    string
		target    string
		stripRoot bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare the module's modman file with a fresh manifest",
		Long: `Generate the manifest of a module and compare it with the modman file the
module already has. Lines the fresh manifest adds are printed with "+", lines
it no longer contains with "-". Exits with an error when they differ.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := resolveDirs(module, target)
			if err != nil {
				return err
			}
			if stripRoot {
				state.cfg.StripRoot = true
			}

			existing, err := os.ReadFile(filepath.Join(dirs.Module, "modman"))
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("reading modman file: %w", err)
			}

			g, err := state.generator()
			if err != nil {
				return err
			}
			res, err := g.Generate(cmd.Context(), dirs)
			if err != nil {
				return err
			}

			drift := manifest.Compare(existing, res.Mappings, state.cfg.StripRoot)
			if drift.Clean() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s is up to date\n", color.GreenString("✓"), dirs.Name)
				return nil
			}

			green := color.New(color.FgGreen).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()
			for _, c := range drift.Changes {
				switch c.Op {
				case manifest.Add:
					fmt.Fprintln(cmd.OutOrStdout(), green("+ "+c.Line))
				case manifest.Drop:
					fmt.Fprintln(cmd.OutOrStdout(), red("- "+c.Line))
				}
			}
			return fmt.Errorf("%s: modman file is out of date (%d added, %d dropped)", dirs.Name, drift.Added, drift.Dropped)
		},
	}

	cmd.Flags().StringVarP(&module, "module", "m", "", "Module directory (default: current directory)")
	cmd.Flags().StringVarP(&target, "target", "t", "", "Target directory (default: derived from the .modman layout)")
	cmd.Flags().BoolVar(&stripRoot, "strip-root", false, "Compare against patterns without the leading slash")

	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
