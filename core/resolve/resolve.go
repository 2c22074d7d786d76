// Package resolve expands Reference operators into the operators of the
// files they point to.
package resolve

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ctf"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/logging"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/validation"
)

// Loader reads the operators of one located file. References in the
// result are expanded by the Resolver.
type Loader interface {
	Load(path string) ([]ops.Op, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(path string) ([]ops.Op, error)

func (f LoaderFunc) Load(path string) ([]ops.Op, error) { return f(path) }

// AliasResolver maps a Reference alias to a file path.
type AliasResolver func(alias string) (string, error)

// Config controls how references are located.
type Config struct {
	// SearchPaths are tried in order after the directory of the
	// referencing file. Relative entries are relative to WorkingDir.
	SearchPaths []string
	// WorkingDir defaults to the process working directory.
	WorkingDir string
	// Aliases resolves alias references. Without it an alias is an error.
	Aliases AliasResolver
	// Env expands $VAR and ${VAR} in reference paths; nil uses os.Getenv.
	Env func(string) string
}

// Resolver expands references. It is not safe for concurrent use.
type Resolver struct {
	cfg    Config
	loader Loader
	// loaded keeps the operators of every file read so far, keyed by
	// normalized path, so a file referenced twice is read once.
	loaded map[string][]ops.Op
	// stack holds the normalized paths being resolved.
	stack []string
}

// New returns a Resolver. A nil loader reads CTF and CLF files.
func New(cfg Config, loader Loader) *Resolver {
	if loader == nil {
		loader = LoaderFunc(LoadCTF)
	}
	if cfg.WorkingDir == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.WorkingDir = wd
		}
	}
	if cfg.Env == nil {
		cfg.Env = os.Getenv
	}
	return &Resolver{cfg: cfg, loader: loader, loaded: map[string][]ops.Op{}}
}

// LoadCTF reads a CTF or CLF file and returns its operators.
func LoadCTF(path string) ([]ops.Op, error) {
	data, err := validation.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	t, err := ctf.Read(bytes.NewReader(data), path)
	if err != nil {
		return nil, err
	}
	return t.Ops, nil
}

// Resolve returns the operators of t with every Reference expanded,
// inverted as a whole when dir is Inverse. References are located
// relative to the working directory first.
func (r *Resolver) Resolve(t *ctf.Transform, dir ops.Direction) ([]ops.Op, error) {
	list, err := r.expand(t.Ops, r.cfg.WorkingDir)
	if err != nil {
		return nil, err
	}
	return r.direct(list, dir)
}

// ResolveFile loads path and returns its expanded operators. The file
// itself counts for cycle detection.
func (r *Resolver) ResolveFile(path string, dir ops.Direction) ([]ops.Op, error) {
	list, err := r.file(path, path)
	if err != nil {
		return nil, err
	}
	return r.direct(list, dir)
}

// ResolveOps expands a list read from the file at path.
func (r *Resolver) ResolveOps(list []ops.Op, path string, dir ops.Direction) ([]ops.Op, error) {
	norm := validation.NormalizePath(r.cfg.WorkingDir, path)
	r.stack = append(r.stack, norm)
	out, err := r.expand(list, filepath.Dir(norm))
	r.stack = r.stack[:len(r.stack)-1]
	if err != nil {
		return nil, err
	}
	return r.direct(out, dir)
}

func (r *Resolver) direct(list []ops.Op, dir ops.Direction) ([]ops.Op, error) {
	if dir == ops.Inverse {
		return ops.Reverse(list)
	}
	return list, nil
}

// expand replaces every Reference in list. baseDir is the directory of
// the file list was read from.
func (r *Resolver) expand(list []ops.Op, baseDir string) ([]ops.Op, error) {
	out := make([]ops.Op, 0, len(list))
	for _, op := range list {
		ref, ok := op.(*ops.Reference)
		if !ok {
			out = append(out, op)
			continue
		}
		sub, err := r.reference(ref, baseDir)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func (r *Resolver) reference(ref *ops.Reference, baseDir string) ([]ops.Op, error) {
	target := ref.Path
	if ref.Alias != "" {
		if r.cfg.Aliases == nil {
			return nil, errors.NewSemantic("", "",
				fmt.Sprintf("Reference alias '%s' cannot be resolved without an alias resolver.", ref.Alias))
		}
		p, err := r.cfg.Aliases(ref.Alias)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving reference alias '%s'", ref.Alias)
		}
		target = p
	}

	found, err := r.locate(target, baseDir)
	if err != nil {
		return nil, err
	}
	list, err := r.file(found, target)
	if err != nil {
		return nil, err
	}
	return r.direct(list, ref.Direction)
}

// file returns the expanded operators of the located file path. shown is
// the spelling used in messages.
func (r *Resolver) file(path, shown string) ([]ops.Op, error) {
	norm := validation.NormalizePath(r.cfg.WorkingDir, path)
	for _, p := range r.stack {
		if p == norm {
			return nil, errors.NewRecursion(shown)
		}
	}

	if list, ok := r.loaded[norm]; ok {
		return cloneAll(list), nil
	}

	raw, err := r.loader.Load(norm)
	if err != nil {
		return nil, err
	}

	r.stack = append(r.stack, norm)
	list, err := r.expand(raw, filepath.Dir(norm))
	r.stack = r.stack[:len(r.stack)-1]
	if err != nil {
		return nil, err
	}

	r.loaded[norm] = list
	logging.ReferenceResolved(norm, len(r.stack), len(list))
	return cloneAll(list), nil
}

// locate finds the file a reference names. Absolute paths must exist as
// given; relative ones are tried against baseDir then each search path.
func (r *Resolver) locate(path, baseDir string) (string, error) {
	if err := validation.ValidatePath(path); err != nil {
		return "", errors.Wrapf(err, "invalid reference path '%s'", path)
	}
	expanded := os.Expand(path, r.cfg.Env)
	expanded = filepath.FromSlash(strings.ReplaceAll(expanded, `\`, "/"))

	if filepath.IsAbs(expanded) {
		if exists(expanded) {
			return filepath.Clean(expanded), nil
		}
		return "", errors.NewReferenceNotFound(path)
	}

	for _, dir := range r.searchDirs(baseDir) {
		candidate := filepath.Join(dir, expanded)
		if exists(candidate) {
			return candidate, nil
		}
	}
	return "", errors.NewReferenceNotFound(path)
}

func (r *Resolver) searchDirs(baseDir string) []string {
	dirs := make([]string, 0, len(r.cfg.SearchPaths)+1)
	if baseDir != "" {
		dirs = append(dirs, baseDir)
	}
	for _, sp := range r.cfg.SearchPaths {
		sp = os.Expand(sp, r.cfg.Env)
		if !filepath.IsAbs(sp) {
			sp = filepath.Join(r.cfg.WorkingDir, sp)
		}
		dirs = append(dirs, sp)
	}
	return dirs
}

func exists(path string) bool {
	_, err := validation.StatFile(path)
	return err == nil
}

func cloneAll(list []ops.Op) []ops.Op {
	out := make([]ops.Op, len(list))
	for i, op := range list {
		out[i] = op.Clone()
	}
	return out
}
