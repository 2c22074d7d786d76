// Package spi3d provides the embedded handler for Sony Pictures Imageworks
// .spi3d files, whose cube entries carry their own grid indices.
package spi3d

import (
	"io"
	"strconv"
	"strings"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/plugins"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/base"
)

// FormatName is the display name used in messages.
const FormatName = "spi3d"

// Handler reads .spi3d files.
type Handler struct{}

// File is a parsed .spi3d file.
type File struct {
	Lut *ops.Lut3D
}

func (*File) FormatName() string { return FormatName }

// Register registers this format with the embedded registry.
func Register() {
	plugins.Register(&Handler{})
}

func init() {
	Register()
}

// Info implements plugins.Format.
func (h *Handler) Info() []plugins.FormatInfo {
	return []plugins.FormatInfo{
		{Name: "spi3d", Extension: "spi3d", Capabilities: plugins.CapRead},
	}
}

// Read implements plugins.Format. Entries may come in any order, but each
// grid point must be given exactly once.
func (h *Handler) Read(r io.Reader, filename string, interp ops.Interpolation) (plugins.CachedFile, error) {
	lines, err := base.ReadLines(r)
	if err != nil {
		return nil, err
	}
	rep := base.Reporter{Format: FormatName, Path: filename}

	if len(lines) == 0 || !strings.HasPrefix(strings.ToLower(lines[0].Text), "spilut") {
		found := ""
		if len(lines) > 0 {
			found = lines[0].Text
		}
		return nil, rep.Invalid("LUT does not appear to be valid spilut format. Expected 'SPILUT'. Found: '%s'.", found)
	}
	// The second line is not used.
	if len(lines) < 3 {
		return nil, rep.Semantic("Error while reading LUT size. Found: ''.")
	}
	sizeLine := lines[2]
	sizes, ok := base.ParseInts(sizeLine.Fields)
	if !ok || len(sizes) < 3 {
		return nil, rep.Syntax(sizeLine, "Error while reading LUT size. Found: '%s'.", sizeLine.Text)
	}
	n := sizes[0]
	if n != sizes[1] || n != sizes[2] {
		return nil, rep.Syntax(sizeLine, "LUT size should be the same for all components. Found: '%s'.", sizeLine.Text)
	}
	if n < 2 {
		return nil, rep.Syntax(sizeLine, "LUT size must be at least 2. Found: '%s'.", sizeLine.Text)
	}

	lut := &ops.Lut3D{GridSize: n, Values: make([]float32, n*n*n*3)}
	lut.FileOutBitDepth = bitdepth.F32
	seen := make([]bool, n*n*n)
	remaining := n * n * n
	for _, l := range lines[3:] {
		idx, rgb, ok := parseEntry(l.Fields)
		if !ok {
			continue
		}
		if idx[0] < 0 || idx[0] >= n || idx[1] < 0 || idx[1] >= n || idx[2] < 0 || idx[2] >= n {
			return nil, rep.Syntax(l, "Data is invalid. A LUT entry is specified (%d %d %d) that falls outside of the cube.",
				idx[0], idx[1], idx[2])
		}
		i := lut.Index(idx[0], idx[1], idx[2])
		if seen[i/3] {
			return nil, rep.Syntax(l, "Data is invalid. A LUT entry is specified multiple times (%d %d %d).",
				idx[0], idx[1], idx[2])
		}
		seen[i/3] = true
		copy(lut.Values[i:i+3], rgb[:])
		remaining--
	}
	if remaining > 0 {
		return nil, rep.Semantic("Not enough entries found.")
	}

	if lut.IsValidInterpolation(interp) {
		lut.Interpolation = interp
	}
	return &File{Lut: lut}, nil
}

// parseEntry reads "r g b R G B". Extra fields are ignored.
func parseEntry(fields []string) (idx [3]int, rgb [3]float32, ok bool) {
	if len(fields) < 6 {
		return idx, rgb, false
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return idx, rgb, false
		}
		idx[i] = v
	}
	vals, ok := base.ParseFloats(fields[3:6])
	if !ok {
		return idx, rgb, false
	}
	for i, v := range vals {
		rgb[i] = float32(v)
	}
	return idx, rgb, true
}

// Bake implements plugins.Format; spi3d is read-only.
func (h *Handler) Bake(processor.BakerContext, string, io.Writer) error {
	return base.NotBakeable(FormatName)
}

// BuildOps implements plugins.Format.
func (h *Handler) BuildOps(cf plugins.CachedFile, ft processor.FileTransform, dir ops.Direction) ([]ops.Op, error) {
	f, ok := cf.(*File)
	if !ok {
		return nil, base.InvalidCache("Spi3D")
	}
	interp := ft.Interpolation()
	lut, used := ops.HandleLUT3D(f.Lut, interp)
	base.WarnIfUnused(FormatName, ft.Src(), interp, used)
	return base.Direct([]ops.Op{lut}, dir)
}
