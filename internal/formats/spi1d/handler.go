// Package spi1d provides the embedded handler for Sony Pictures Imageworks
// .spi1d files.
package spi1d

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
const FormatName = "spi1d"

// Handler reads .spi1d files.
type Handler struct{}

// File is a parsed .spi1d file.
type File struct {
	Lut *ops.Lut1D
	// FromMin and FromMax are the input domain of the table.
	FromMin, FromMax float64
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
		{Name: "spi1d", Extension: "spi1d", Capabilities: plugins.CapRead},
	}
}

// Read implements plugins.Format.
func (h *Handler) Read(r io.Reader, filename string, interp ops.Interpolation) (plugins.CachedFile, error) {
	lines, err := base.ReadLines(r)
	if err != nil {
		return nil, err
	}
	rep := base.Reporter{Format: FormatName, Path: filename}

	version, length, components := -1, -1, -1
	f := &File{FromMin: 0, FromMax: 1}

	// Header, up to and including the line opening the table.
	body := len(lines)
	for i, l := range lines {
		if strings.HasPrefix(l.Text, "{") {
			body = i + 1
			break
		}
		var tagErr error
		switch {
		case strings.HasPrefix(l.Text, "Version"):
			if version, tagErr = intTag(l); tagErr != nil {
				return nil, rep.Syntax(l, "Invalid 'Version' Tag.")
			}
			if version != 1 {
				return nil, rep.Syntax(l, "Only format version 1 supported.")
			}
		case strings.HasPrefix(l.Text, "From"):
			vals, ok := base.ParseFloats(l.Fields[1:])
			if !ok || len(vals) < 2 {
				return nil, rep.Syntax(l, "Invalid 'From' Tag.")
			}
			f.FromMin, f.FromMax = vals[0], vals[1]
		case strings.HasPrefix(l.Text, "Components"):
			if components, tagErr = intTag(l); tagErr != nil {
				return nil, rep.Syntax(l, "Invalid 'Components' Tag.")
			}
		case strings.HasPrefix(l.Text, "Length"):
			if length, tagErr = intTag(l); tagErr != nil {
				return nil, rep.Syntax(l, "Invalid 'Length' Tag.")
			}
		}
	}

	switch {
	case version == -1:
		return nil, rep.Semantic("Could not find 'Version' Tag.")
	case length == -1:
		return nil, rep.Semantic("Could not find 'Length' Tag.")
	case components == -1:
		return nil, rep.Semantic("Could not find 'Components' Tag.")
	case components < 1 || components > 3:
		return nil, rep.Semantic("Components must be [1,2,3].")
	}

	values := make([]float32, 0, max(length, 0)*3)
	count := 0
	for _, l := range lines[body:] {
		if count == length {
			break
		}
		// Lines that do not start with enough numbers, such as the
		// closing brace, are skipped.
		if len(l.Fields) < components {
			continue
		}
		vals, ok := base.ParseFloats(l.Fields[:components])
		if !ok {
			continue
		}
		switch components {
		case 1:
			v := float32(vals[0])
			values = append(values, v, v, v)
		case 2:
			values = append(values, float32(vals[0]), float32(vals[1]), 0)
		case 3:
			values = append(values, float32(vals[0]), float32(vals[1]), float32(vals[2]))
		}
		count++
	}
	if count != length {
		return nil, rep.Semantic("Not enough entries found.")
	}

	f.Lut = &ops.Lut1D{Components: 3, Values: values}
	if components == 1 {
		f.Lut.Components = 1
	}
	f.Lut.FileOutBitDepth = bitdepth.F32
	if f.Lut.IsValidInterpolation(interp) {
		f.Lut.Interpolation = interp
	}
	return f, nil
}

func intTag(l base.Line) (int, error) {
	if len(l.Fields) < 2 {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(l.Fields[1])
}

// Bake implements plugins.Format; spi1d is read-only.
func (h *Handler) Bake(processor.BakerContext, string, io.Writer) error {
	return base.NotBakeable(FormatName)
}

// BuildOps implements plugins.Format. A From domain other than 0..1 is
// applied by a Range ahead of the table.
func (h *Handler) BuildOps(cf plugins.CachedFile, ft processor.FileTransform, dir ops.Direction) ([]ops.Op, error) {
	f, ok := cf.(*File)
	if !ok {
		return nil, base.InvalidCache("Spi1D")
	}
	interp := ft.Interpolation()
	lut, used := ops.HandleLUT1D(f.Lut, interp)
	base.WarnIfUnused(FormatName, ft.Src(), interp, used)

	var list []ops.Op
	if f.FromMin != 0 || f.FromMax != 1 {
		list = append(list, base.DomainRange(f.FromMin, f.FromMax))
	}
	list = append(list, lut)
	return base.Direct(list, dir)
}
