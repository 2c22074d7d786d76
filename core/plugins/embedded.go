// Package plugins defines the LUT file format interface and the registry
// of formats compiled into the binary. Format packages register
// themselves from an init function; internal/embedded imports them all.
package plugins

import (
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
)

// Capability is a bit set of what a format supports.
type Capability int

const (
	CapRead Capability = 1 << iota
	CapBake
)

// FormatInfo describes one named format a Format implements. A Format may
// expose several, e.g. flame and lustre share the 3dl reader.
type FormatInfo struct {
	Name         string
	Extension    string
	Capabilities Capability
}

func (fi FormatInfo) CanRead() bool { return fi.Capabilities&CapRead != 0 }
func (fi FormatInfo) CanBake() bool { return fi.Capabilities&CapBake != 0 }

// CachedFile is the parsed content of a file. It is immutable once Read
// returns and may be shared between goroutines.
type CachedFile interface {
	FormatName() string
}

// Format reads, and optionally bakes, one family of LUT files.
type Format interface {
	Info() []FormatInfo

	// Read parses r. filename is used in error messages and, for some
	// formats, to infer settings.
	Read(r io.Reader, filename string, interp ops.Interpolation) (CachedFile, error)

	// Bake samples the host transform in ctx and writes formatName to w.
	Bake(ctx processor.BakerContext, formatName string, w io.Writer) error

	// BuildOps returns the operators a cached file contributes in
	// direction dir. Reference operators are left for the caller.
	BuildOps(cf CachedFile, ft processor.FileTransform, dir ops.Direction) ([]ops.Op, error)
}

var (
	registryMu sync.RWMutex
	registry   []Format
)

// Register adds f to the registry. Formats are tried in registration order.
func Register(f Format) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, f)
}

// Formats returns the registered formats in registration order.
func Formats() []Format {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return append([]Format(nil), registry...)
}

// ByName returns the format implementing the named format, matched
// case-insensitively.
func ByName(name string) (Format, FormatInfo, bool) {
	for _, f := range Formats() {
		for _, fi := range f.Info() {
			if strings.EqualFold(fi.Name, name) {
				return f, fi, true
			}
		}
	}
	return nil, FormatInfo{}, false
}

// ByExtension returns the readable formats registered for ext, with or
// without its leading dot.
func ByExtension(ext string) []Format {
	ext = strings.TrimPrefix(ext, ".")
	var out []Format
	for _, f := range Formats() {
		for _, fi := range f.Info() {
			if fi.CanRead() && strings.EqualFold(fi.Extension, ext) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// ForPath is ByExtension applied to the extension of path.
func ForPath(path string) []Format {
	return ByExtension(filepath.Ext(path))
}

// List returns every registered FormatInfo sorted by name.
func List() []FormatInfo {
	var out []FormatInfo
	for _, f := range Formats() {
		out = append(out, f.Info()...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Clear empties the registry (for testing).
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = nil
}
