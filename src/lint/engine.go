package lint

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/supernova/pipboy-build/src/config"
)

// Engine runs the registered modules over the project files selected by
// the lint include patterns.
type Engine struct {
	Config  config.LintConfig
	RootDir string
	Modules []Module
	Logger  *zap.Logger
}

// NewEngine creates an engine with every registered module that the
// config does not disable.
func NewEngine(cfg config.LintConfig, rootDir string, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var modules []Module
	for _, name := range All() {
		if mc, ok := cfg.Modules[name]; ok && mc.Enabled != nil && !*mc.Enabled {
			continue
		}
		m, err := Get(name)
		if err != nil {
			return nil, err
		}
		if err := configureModule(m, cfg, name); err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}

	if len(modules) == 0 {
		return nil, fmt.Errorf("no lint modules selected")
	}

	return &Engine{
		Config:  cfg,
		RootDir: rootDir,
		Modules: modules,
		Logger:  logger,
	}, nil
}

// CollectFiles returns every regular file under RootDir matched by an
// include pattern and by no exclude pattern, sorted by path.
func (e *Engine) CollectFiles() ([]FileInfo, error) {
	fsys := os.DirFS(e.RootDir)
	seen := make(map[string]bool)
	var files []FileInfo

	for _, pattern := range e.Config.Include {
		err := doublestar.GlobWalk(fsys, pattern, func(path string, d fs.DirEntry) error {
			if seen[path] || !d.Type().IsRegular() || e.isExcluded(path) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			seen[path] = true
			files = append(files, FileInfo{
				Path:    path,
				AbsPath: filepath.Join(e.RootDir, filepath.FromSlash(path)),
				Size:    info.Size(),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("collecting %s: %w", pattern, err)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Run executes all modules against the given files and returns findings.
// Module errors are collected; the first one is returned alongside every
// finding that was produced.
func (e *Engine) Run(ctx context.Context, files []FileInfo) ([]Finding, error) {
	var (
		mu       sync.Mutex
		findings []Finding
		errs     []error
		wg       sync.WaitGroup
	)

	sem := semaphore.NewWeighted(int64(runtime.NumCPU() * 2))

	for _, file := range files {
		for _, mod := range e.Modules {
			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return findings, err
			}
			wg.Add(1)
			go func(m Module, f FileInfo) {
				defer wg.Done()
				defer sem.Release(1)

				results, err := m.Check(ctx, f)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %s: %w", m.Name(), f.Path, err))
					return
				}
				findings = append(findings, results...)
			}(mod, file)
		}
	}

	wg.Wait()

	e.Logger.Debug("lint finished",
		zap.Int("files", len(files)),
		zap.Int("modules", len(e.Modules)),
		zap.Int("findings", len(findings)),
		zap.Int("errors", len(errs)),
	)

	if len(errs) > 0 {
		return findings, fmt.Errorf("%d module errors (first: %w)", len(errs), errs[0])
	}
	return findings, nil
}

// ModuleNames returns the names of all active modules in this engine.
func (e *Engine) ModuleNames() []string {
	names := make([]string, len(e.Modules))
	for i, m := range e.Modules {
		names[i] = m.Name()
	}
	return names
}

func (e *Engine) isExcluded(path string) bool {
	for _, pattern := range e.Config.Exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// configureModule passes YAML options to modules that implement
// Configurable. The filesize threshold falls back to lint.large_files_max.
func configureModule(m Module, cfg config.LintConfig, name string) error {
	cm, ok := m.(Configurable)
	if !ok {
		return nil
	}

	opts := map[string]any{}
	if mc, exists := cfg.Modules[name]; exists {
		for k, v := range mc.Options {
			opts[k] = v
		}
	}
	if name == "filesize" {
		if _, set := opts["max_bytes"]; !set && cfg.LargeFilesMax > 0 {
			opts["max_bytes"] = cfg.LargeFilesMax
		}
	}
	return cm.Configure(opts)
}
