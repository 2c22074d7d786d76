package plugins

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/cache"
	apperrors "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/resolve"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/logging"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/validation"
)

type loaded struct {
	format Format
	file   CachedFile
}

// Loader reads LUT files through the registered formats and keeps the
// parsed results in a content-addressed cache. It is safe for concurrent
// use.
type Loader struct {
	// Resolve locates the files Reference operators point to.
	Resolve resolve.Config

	formats func() []Format
	files   *cache.FileCache[loaded]
}

// NewLoader returns a Loader over the registered formats.
func NewLoader(cfg cache.Config) *Loader {
	return &Loader{
		formats: Formats,
		files:   cache.NewFileCache[loaded](cfg),
	}
}

// newLoaderWith is NewLoader over a fixed format list.
func newLoaderWith(cfg cache.Config, formats ...Format) *Loader {
	l := NewLoader(cfg)
	l.formats = func() []Format { return formats }
	return l
}

// Load reads path, trying first the formats registered for its extension
// and then every other format.
func (l *Loader) Load(path string, interp ops.Interpolation) (CachedFile, Format, error) {
	data, err := validation.ReadFile(path)
	if err != nil {
		return nil, nil, apperrors.Wrapf(err,
			"The specified FileTransform srcfile, '%s', could not be opened", path)
	}
	if validation.Sniff(data) == validation.FileTypeBinary {
		return nil, nil, apperrors.NewInvalidFormat("", path,
			fmt.Sprintf("The specified transform file '%s' is not a text LUT file.", path))
	}

	key := cache.KeyFor(data, interp.String()+"|"+filepath.Base(path))
	res, err := l.files.GetOrLoad(key, func() (loaded, error) {
		return l.read(data, path, interp)
	})
	if err != nil {
		return nil, nil, err
	}
	return res.file, res.format, nil
}

func (l *Loader) read(data []byte, path string, interp ops.Interpolation) (loaded, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	all := l.formats()

	var primary, others []Format
	for _, f := range all {
		if handlesExtension(f, ext) {
			primary = append(primary, f)
		} else {
			others = append(others, f)
		}
	}

	var primaryErr error
	for _, f := range primary {
		cf, err := f.Read(bytes.NewReader(data), path, interp)
		if err == nil {
			logging.Debug("loaded primary format", "file", path, "format", cf.FormatName())
			return loaded{format: f, file: cf}, nil
		}
		if primaryErr == nil {
			primaryErr = err
		}
		logging.Debug("failed primary format", "file", path, "format", formatName(f), "error", err)
	}
	for _, f := range others {
		cf, err := f.Read(bytes.NewReader(data), path, interp)
		if err == nil {
			logging.Debug("loaded alternate format", "file", path, "format", cf.FormatName())
			return loaded{format: f, file: cf}, nil
		}
		logging.Debug("failed alternate format", "file", path, "format", formatName(f), "error", err)
	}

	msg := fmt.Sprintf("The specified transform file '%s' could not be loaded.", path)
	if primaryErr != nil {
		msg += " All formats have been tried including formats registered for the given extension."
		return loaded{}, &apperrors.FormatError{
			Kind:    apperrors.KindOf(primaryErr),
			Message: msg + " These formats gave the following errors: " + primaryErr.Error(),
			Err:     primaryErr,
		}
	}
	return loaded{}, apperrors.NewInvalidFormat("", path, msg)
}

// BuildOps loads the file ft names and returns its operators with every
// reference expanded.
func (l *Loader) BuildOps(ft processor.FileTransform, dir ops.Direction) ([]ops.Op, error) {
	list, err := l.fileOps(ft, dir)
	if err != nil {
		return nil, err
	}
	if !hasReference(list) {
		return list, nil
	}
	r := resolve.New(l.Resolve, resolve.LoaderFunc(func(path string) ([]ops.Op, error) {
		return l.fileOps(processor.File{Path: path, Interp: ft.Interpolation()}, ops.Forward)
	}))
	// Reversal only reorders references and flips their direction, so the
	// list can be expanded as read.
	return r.ResolveOps(list, ft.Src(), ops.Forward)
}

func (l *Loader) fileOps(ft processor.FileTransform, dir ops.Direction) ([]ops.Op, error) {
	cf, f, err := l.Load(ft.Src(), ft.Interpolation())
	if err != nil {
		return nil, err
	}
	list, err := f.BuildOps(cf, ft, ops.Compose(ft.Direction(), dir))
	if err != nil {
		return nil, err
	}
	logging.FileLoaded(cf.FormatName(), ft.Src(), len(list))
	return list, nil
}

// Stats reports the file cache counters.
func (l *Loader) Stats() cache.Stats { return l.files.Stats() }

// ClearCache drops every cached file.
func (l *Loader) ClearCache() { l.files.Clear() }

func handlesExtension(f Format, ext string) bool {
	for _, fi := range f.Info() {
		if fi.CanRead() && strings.EqualFold(fi.Extension, ext) {
			return true
		}
	}
	return false
}

func formatName(f Format) string {
	if info := f.Info(); len(info) > 0 {
		return info[0].Name
	}
	return "unknown"
}

func hasReference(list []ops.Op) bool {
	for _, op := range list {
		if op.Type() == ops.TypeReference {
			return true
		}
	}
	return false
}
