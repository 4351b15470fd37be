// internal/generator/generator.go
package generator

import (
	"bytes"
	"context"
	"fmt"

	"modgen/internal/compact"
	"modgen/internal/config"
	"modgen/internal/differ"
	"modgen/internal/journal"
	"modgen/internal/logging"
	"modgen/internal/manifest"
	"modgen/internal/tree"
	"modgen/internal/workspace"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Recorder keeps generated manifests, see journal.Store.
type Recorder interface {
	Record(run *journal.Run, manifest []byte) error
}

// Result is the manifest generated for one module.
type Result struct {
	Dirs     workspace.Dirs
	Unique   differ.UniqueSet
	Mappings []compact.Mapping
	RunID    string
}

// Globs counts directory glob mappings.
func (r *Result) Globs() int {
	n := 0
	for _, m := range r.Mappings {
		if m.Glob {
			n++
		}
	}
	return n
}

// Generator runs diffing and compaction for modman modules
type Generator struct {
	cfg      *config.Config
	source   tree.Source
	ignore   tree.IgnoreSet
	recorder Recorder
	logger   *logging.Logger
	differ   *differ.Differ
}

type Option func(*Generator)

func WithSource(source tree.Source) Option {
	return func(g *Generator) {
		g.source = source
	}
}

func WithIgnoreSet(set tree.IgnoreSet) Option {
	return func(g *Generator) {
		g.ignore = set
	}
}

func WithRecorder(r Recorder) Option {
	return func(g *Generator) {
		g.recorder = r
	}
}

func New(cfg *config.Config, logger *logging.Logger, opts ...Option) (*Generator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	g := &Generator{
		cfg:    cfg,
		source: tree.NewFS(),
		ignore: tree.DefaultIgnoreSet(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}

	differOpts := []differ.Option{
		differ.WithIgnoreSet(g.ignore),
		differ.WithLogger(logger.Logger),
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, bool](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating lookup cache: %w", err)
		}
		differOpts = append(differOpts, differ.WithLookupCache(cache))
	}
	g.differ = differ.New(g.source, differOpts...)

	return g, nil
}

// Generate computes the manifest of one module.
func (g *Generator) Generate(ctx context.Context, dirs workspace.Dirs) (*Result, error) {
	log := g.logger.WithModule(dirs.Name)

	unique, err := g.differ.Diff(ctx, dirs.Module, dirs.Target)
	if err != nil {
		return nil, fmt.Errorf("diffing %s against %s: %w", dirs.Module, dirs.Target, err)
	}

	mappings, err := compact.Compact(unique.Entries())
	if err != nil {
		return nil, fmt.Errorf("compacting %s: %w", dirs.Module, err)
	}

	res := &Result{
		Dirs:     dirs,
		Unique:   unique,
		Mappings: mappings,
	}
	log.Info("manifest generated",
		zap.String("module_dir", dirs.Module),
		zap.Int("unique_dirs", len(unique.Directories)),
		zap.Int("unique_files", len(unique.Files)),
		zap.Int("entries", len(mappings)),
		zap.Int("globs", res.Globs()))

	g.record(log, res)
	return res, nil
}

// GenerateAll computes manifests for every module of the project at root. The
// results follow module name order; any failure discards the whole batch.
func (g *Generator) GenerateAll(ctx context.Context, root string) ([]*Result, error) {
	modules, err := workspace.ListModules(root)
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(modules))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for i, dirs := range modules {
		eg.Go(func() error {
			res, err := g.Generate(ctx, dirs)
			if err != nil {
				return fmt.Errorf("module %s: %w", dirs.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.logger.Info("batch generated", zap.String("root", root), zap.Int("modules", len(results)))
	return results, nil
}

// record journals res when a recorder is configured. Failures are logged, the
// manifest is returned regardless.
func (g *Generator) record(log *zap.Logger, res *Result) {
	if g.recorder == nil {
		return
	}

	var body bytes.Buffer
	if err := manifest.NewWriter(&body, g.WriterOptions()...).Write(res.Mappings); err != nil {
		log.Warn("rendering manifest for journal", zap.Error(err))
		return
	}

	run := &journal.Run{
		Module:    res.Dirs.Name,
		ModuleDir: res.Dirs.Module,
		TargetDir: res.Dirs.Target,
		Entries:   len(res.Mappings),
		Globs:     res.Globs(),
	}
	if err := g.recorder.Record(run, body.Bytes()); err != nil {
		log.Warn("recording run", zap.Error(err))
		return
	}
	res.RunID = run.ID
}

// WriterOptions returns the manifest options matching the configuration.
func (g *Generator) WriterOptions() []manifest.Option {
	if g.cfg.StripRoot {
		return []manifest.Option{manifest.WithStripRoot()}
	}
	return nil
}
