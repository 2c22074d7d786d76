// Package discreet1dl provides the embedded handler for Discreet (Autodesk)
// 1D .lut files: one, three or four integer tables, optionally tagged with
// the depth they scale to.
package discreet1dl

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/plugins"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/base"
)

// FormatName is the display name used in messages.
const FormatName = "Discreet .lut"

// legacyLength is the table length of a file without a LUT: header.
const legacyLength = 256

// Handler reads Discreet 1D LUT files.
type Handler struct{}

// File is a parsed Discreet 1D LUT.
type File struct {
	Lut *ops.Lut1D
	// Tables is the number of tables in the file, before monochrome
	// expansion.
	Tables int
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
		{Name: "Discreet 1D LUT", Extension: "lut", Capabilities: plugins.CapRead},
	}
}

// depthFromSize maps a table size to the depth it encodes. A 65536 entry
// table is 16-bit unless isFloat says it holds half values.
func depthFromSize(size int, isFloat bool) bitdepth.BitDepth {
	switch size {
	case 256:
		return bitdepth.UInt8
	case 1024:
		return bitdepth.UInt10
	case 4096:
		return bitdepth.UInt12
	case 65536:
		if isFloat {
			return bitdepth.F16
		}
		return bitdepth.UInt16
	}
	return bitdepth.Unknown
}

// DepthFromFileName looks for a "to<bits>[f]" token in the base name of
// path, e.g. "log_to16f.lut".
func DepthFromFileName(path string) bitdepth.BitDepth {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	i := strings.Index(name, "to")
	if i < 0 {
		return bitdepth.Unknown
	}
	rest := name[i+2:]
	switch {
	case strings.HasPrefix(rest, "8"):
		return bitdepth.UInt8
	case strings.HasPrefix(rest, "10"):
		return bitdepth.UInt10
	case strings.HasPrefix(rest, "12"):
		return bitdepth.UInt12
	case strings.HasPrefix(rest, "16f"):
		return bitdepth.F16
	case strings.HasPrefix(rest, "16"):
		return bitdepth.UInt16
	case strings.HasPrefix(rest, "32f"):
		return bitdepth.F32
	}
	return bitdepth.Unknown
}

// leadingInt parses the decimal digits at the start of s. ok is false when
// s does not start with a digit.
func leadingInt(s string) (v int, rest string, ok bool) {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n == 0 {
		return 0, s, false
	}
	v, err := strconv.Atoi(s[:n])
	if err != nil {
		return 0, s, false
	}
	return v, s[n:], true
}

type header struct {
	tables, length int
	target         bitdepth.BitDepth
	// first holds the table entry carried by a legacy header line.
	first []int
}

func parseHeader(rep base.Reporter, l base.Line) (header, error) {
	if v, _, ok := leadingInt(l.Text); ok {
		return header{tables: 1, length: legacyLength, first: []int{v}}, nil
	}

	syntaxErr := rep.Syntax(l, "Syntax error reading LUT file")
	if len(l.Fields) < 3 || !strings.EqualFold(l.Fields[0], "LUT:") {
		return header{}, syntaxErr
	}
	tables, err1 := strconv.Atoi(l.Fields[1])
	length, err2 := strconv.Atoi(l.Fields[2])
	if err1 != nil || err2 != nil || length <= 0 {
		return header{}, syntaxErr
	}
	if tables != 1 && tables != 3 && tables != 4 {
		return header{}, syntaxErr
	}
	hd := header{tables: tables, length: length}
	if len(l.Fields) > 3 {
		size, suffix, ok := leadingInt(l.Fields[3])
		isFloat := strings.HasPrefix(suffix, "f") || strings.HasPrefix(suffix, "F")
		if hd.target = depthFromSize(size, isFloat); !ok || hd.target == bitdepth.Unknown {
			return header{}, syntaxErr
		}
	}
	return hd, nil
}

// Read implements plugins.Format.
func (h *Handler) Read(r io.Reader, filename string, interp ops.Interpolation) (plugins.CachedFile, error) {
	lines, err := base.ReadLines(r)
	if err != nil {
		return nil, err
	}
	rep := base.Reporter{Format: FormatName, Path: filename}

	var content []base.Line
	for _, l := range lines {
		if !l.IsBlank() && !l.IsComment() {
			content = append(content, l)
		}
	}
	if len(content) == 0 {
		return nil, rep.Semantic("Premature EOF reading LUT file")
	}
	hd, err := parseHeader(rep, content[0])
	if err != nil {
		return nil, err
	}

	total := hd.tables * hd.length
	raw := make([]int, 0, total)
	raw = append(raw, hd.first...)
	next := 1
	for ; next < len(content) && len(raw) < total; next++ {
		l := content[next]
		v, _, ok := leadingInt(l.Text)
		if !ok || v > 0xFFFF {
			return nil, rep.Syntax(l, "Syntax error reading LUT file")
		}
		raw = append(raw, v)
	}
	if len(raw) < total {
		return nil, rep.Semantic("Premature EOF reading LUT file")
	}
	if next < len(content) {
		return nil, rep.Syntax(content[next], "Syntax error reading LUT file")
	}

	target := hd.target
	if target == bitdepth.Unknown {
		target = DepthFromFileName(filename)
	}
	if target == bitdepth.Unknown {
		target = depthFromSize(hd.length, false)
	}
	if target == bitdepth.Unknown {
		maxCode := 0
		for _, v := range raw {
			maxCode = max(maxCode, v)
		}
		if target, err = bitdepth.InferBitDepth(maxCode); err != nil {
			return nil, rep.Semantic("Cannot determine the output bit depth of a %d entry table.", hd.length)
		}
	}

	lut := &ops.Lut1D{Components: 3, Values: make([]float32, hd.length*3), Interpolation: ops.InterpLinear}
	lut.FileInBitDepth = depthFromSize(hd.length, true)
	lut.FileOutBitDepth = target
	lut.HalfDomain = lut.FileInBitDepth == bitdepth.F16
	lut.RawHalfs = target == bitdepth.F16
	if hd.tables == 1 {
		lut.Components = 1
	}
	scale := bitdepth.MaxValue(target)
	for i := 0; i < hd.length; i++ {
		for c := 0; c < 3; c++ {
			v := raw[min(c, hd.tables-1)*hd.length+i]
			if lut.RawHalfs {
				lut.Values[i*3+c] = bitdepth.HalfBitsToFloat32(uint16(v))
			} else {
				lut.Values[i*3+c] = float32(float64(v) / scale)
			}
		}
	}
	if lut.IsValidInterpolation(interp) && interp != ops.InterpDefault {
		lut.Interpolation = interp
	}
	return &File{Lut: lut, Tables: hd.tables}, nil
}

// Bake implements plugins.Format; Discreet LUTs are read-only.
func (h *Handler) Bake(processor.BakerContext, string, io.Writer) error {
	return base.NotBakeable(FormatName)
}

// BuildOps implements plugins.Format.
func (h *Handler) BuildOps(cf plugins.CachedFile, ft processor.FileTransform, dir ops.Direction) ([]ops.Op, error) {
	f, ok := cf.(*File)
	if !ok {
		return nil, base.InvalidCache(".lut")
	}
	interp := ft.Interpolation()
	lut, used := ops.HandleLUT1D(f.Lut, interp)
	base.WarnIfUnused(FormatName, ft.Src(), interp, used)
	return base.Direct([]ops.Op{lut}, dir)
}
