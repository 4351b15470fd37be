// internal/workspace/layout.go
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	errs "modgen/internal/errors"
)

// ModmanDir is the directory holding one checkout per module.
const ModmanDir = ".modman"

// Dirs is one module and the project it overlays.
type Dirs struct {
	Name   string // module directory name
	Module string
	Target string
}

// Resolve derives the module and target directories from a module checkout
// at <project>/.modman/<module>.
func Resolve(dir string) (Dirs, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Dirs{}, fmt.Errorf("getting absolute path for %s: %w", dir, err)
	}

	parent := filepath.Dir(abs)
	if filepath.Base(parent) != ModmanDir || parent == abs {
		return Dirs{}, errs.ValidationError("not in a modman module directory", abs)
	}

	return Dirs{
		Name:   filepath.Base(abs),
		Module: abs,
		Target: filepath.Dir(parent),
	}, nil
}

// FindRoot searches upward from startDir for the project holding a ".modman" directory.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, ModmanDir)); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errs.NotFound(fmt.Sprintf("no %s directory found above %s", ModmanDir, startDir))
}

// ListModules returns every module checked out under root/.modman, sorted by name.
func ListModules(root string) ([]Dirs, error) {
	modman := filepath.Join(root, ModmanDir)
	entries, err := os.ReadDir(modman)
	if err != nil {
		return nil, errs.Filesystem("listing modules", modman, err)
	}

	var modules []Dirs
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		d, err := Resolve(filepath.Join(modman, e.Name()))
		if err != nil {
			return nil, err
		}
		modules = append(modules, d)
	}

	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Name < modules[j].Name
	})
	return modules, nil
}
