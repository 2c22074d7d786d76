// Package resolvecube provides the embedded handler for DaVinci Resolve
// .cube files: an optional 1D LUT and an optional 3D LUT, each with its own
// input range.
package resolvecube

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	apperrors "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/plugins"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/base"
)

// FormatName is the display name used in messages.
const FormatName = "Resolve .cube"

// Bake defaults.
const (
	Default1DSize     = 4096
	DefaultShaperSize = 4096
	Default3DSize     = 64
)

// Handler reads and bakes Resolve .cube files.
type Handler struct{}

// InputRange is the domain a LUT is sampled over.
type InputRange struct {
	Min, Max float64
}

// IsDefault reports whether the range is 0..1.
func (r InputRange) IsDefault() bool { return r.Min == 0 && r.Max == 1 }

// File is a parsed .cube file. Either LUT may be nil.
type File struct {
	Lut1D   *ops.Lut1D
	Range1D InputRange
	Lut3D   *ops.Lut3D
	Range3D InputRange
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
		{Name: "resolve_cube", Extension: "cube", Capabilities: plugins.CapRead | plugins.CapBake},
	}
}

// header collects the tags seen before the first triple.
type header struct {
	size1D, size3D   int
	has1D, has3D     bool
	range1D, range3D InputRange
}

// parseTag handles a header keyword line. ok is false when the line is not
// a keyword and should be read as a triple.
func (hd *header) parseTag(rep base.Reporter, l base.Line) (ok bool, err error) {
	switch key := strings.ToLower(l.Fields[0]); key {
	case "title":
		return true, rep.Syntax(l, "Unsupported tag: 'TITLE'.")
	case "lut_2d_size":
		return true, rep.Syntax(l, "Unsupported tag: 'LUT_2D_SIZE'.")
	case "lut_1d_size", "lut_3d_size":
		if len(l.Fields) != 2 {
			return true, rep.Syntax(l, "Malformed %s tag.", strings.ToUpper(key))
		}
		n, convErr := strconv.Atoi(l.Fields[1])
		if convErr != nil {
			return true, rep.Syntax(l, "Malformed %s tag.", strings.ToUpper(key))
		}
		if key == "lut_1d_size" {
			hd.size1D, hd.has1D = n, true
		} else {
			hd.size3D, hd.has3D = n, true
		}
		return true, nil
	case "lut_1d_input_range", "lut_3d_input_range":
		vals, valid := base.ParseFloats(l.Fields[1:])
		if !valid || len(vals) != 2 {
			return true, rep.Syntax(l, "Malformed %s tag.", strings.ToUpper(key))
		}
		r := InputRange{Min: vals[0], Max: vals[1]}
		if key == "lut_1d_input_range" {
			hd.range1D = r
		} else {
			hd.range3D = r
		}
		return true, nil
	}
	return false, nil
}

// Read implements plugins.Format.
func (h *Handler) Read(r io.Reader, filename string, interp ops.Interpolation) (plugins.CachedFile, error) {
	lines, err := base.ReadLines(r)
	if err != nil {
		return nil, err
	}
	rep := base.Reporter{Format: FormatName, Path: filename}

	hd := header{range1D: InputRange{0, 1}, range3D: InputRange{0, 1}}
	var raw1D, raw3D []float32
	headerComplete := false
	triplet := 0
	for _, l := range lines {
		if l.IsComment() {
			if headerComplete {
				return nil, rep.Syntax(l, "Comments not allowed after header.")
			}
			continue
		}
		if l.IsBlank() {
			continue
		}
		isTag, err := hd.parseTag(rep, l)
		if err != nil {
			return nil, err
		}
		if isTag {
			continue
		}

		headerComplete = true
		vals, ok := base.ParseFloats(l.Fields)
		if !ok || len(vals) != 3 {
			return nil, rep.Syntax(l, "Malformed color triples specified.")
		}
		rgb := []float32{float32(vals[0]), float32(vals[1]), float32(vals[2])}
		if hd.has1D && triplet < hd.size1D {
			raw1D = append(raw1D, rgb...)
		} else {
			raw3D = append(raw3D, rgb...)
		}
		triplet++
	}

	if !hd.has1D && !hd.has3D {
		return nil, rep.Semantic("Lut type (1D/3D) unspecified.")
	}

	f := &File{Range1D: hd.range1D, Range3D: hd.range3D}
	if hd.has1D {
		if got := len(raw1D) / 3; got != hd.size1D {
			return nil, rep.Semantic("Incorrect number of lut1d entries. Found %d, expected %d.", got, hd.size1D)
		}
		if hd.size1D > 0 {
			f.Lut1D = &ops.Lut1D{Components: 3, Values: raw1D, Interpolation: ops.InterpLinear}
			f.Lut1D.FileOutBitDepth = bitdepth.F32
		}
	}
	if hd.has3D {
		want := hd.size3D * hd.size3D * hd.size3D
		if got := len(raw3D) / 3; got != want {
			return nil, rep.Semantic("Incorrect number of lut3d entries. Found %d, expected %d.", got, want)
		}
		f.Lut3D = ops.NewLut3DFromRedFastest(hd.size3D, raw3D)
		f.Lut3D.FileOutBitDepth = bitdepth.F32
		if f.Lut3D.IsValidInterpolation(interp) {
			f.Lut3D.Interpolation = interp
		}
	}
	return f, nil
}

// Bake implements plugins.Format.
func (h *Handler) Bake(ctx processor.BakerContext, formatName string, w io.Writer) error {
	if formatName != "resolve_cube" {
		return base.UnknownFormatName("cube", formatName)
	}

	oneDSize := ctx.CubeSize()
	if oneDSize == -1 {
		oneDSize = Default1DSize
	}
	if oneDSize < 2 {
		return apperrors.NewSemanticf("1D LUT size must be higher than 2 (was %d)", oneDSize)
	}
	cubeSize := ctx.CubeSize()
	if cubeSize == -1 {
		cubeSize = Default3DSize
	}
	cubeSize = max(2, cubeSize)
	shaperSize := ctx.ShaperSize()
	if shaperSize < 0 {
		shaperSize = DefaultShaperSize
	}
	if err := base.CheckShaperSize(ctx, shaperSize); err != nil {
		return err
	}

	s, err := base.Sample(ctx, base.Sizes{Cube: cubeSize, Shaper: shaperSize, OneD: oneDSize}, base.RedFastest)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if notes := ctx.Comments(); len(notes) > 0 {
		for _, c := range notes {
			fmt.Fprintf(bw, "# %s\n", c)
		}
		bw.WriteByte('\n')
	}

	switch s.Layout {
	case base.Layout1D:
		fmt.Fprintf(bw, "LUT_1D_SIZE %d\n", oneDSize)
	case base.Layout1D3D:
		fmt.Fprintf(bw, "LUT_1D_SIZE %d\n", shaperSize)
		if r := (InputRange{float64(s.ShaperMin), float64(s.ShaperMax)}); !r.IsDefault() {
			fmt.Fprintf(bw, "LUT_1D_INPUT_RANGE %s %s\n", base.Fixed(s.ShaperMin), base.Fixed(s.ShaperMax))
		}
	}
	if s.Layout != base.Layout1D {
		fmt.Fprintf(bw, "LUT_3D_SIZE %d\n", cubeSize)
	}

	writeTriples(bw, s.OneD)
	writeTriples(bw, s.Shaper)
	writeTriples(bw, s.Cube)
	return bw.Flush()
}

func writeTriples(bw *bufio.Writer, rgb []float32) {
	for i := 0; i+2 < len(rgb); i += 3 {
		fmt.Fprintf(bw, "%s %s %s\n", base.Fixed(rgb[i]), base.Fixed(rgb[i+1]), base.Fixed(rgb[i+2]))
	}
}

// BuildOps implements plugins.Format. Each LUT is preceded by the Range
// bringing its input range onto the LUT domain. The requested
// interpolation goes to the cube, or to the 1D LUT of a cube-less file.
func (h *Handler) BuildOps(cf plugins.CachedFile, ft processor.FileTransform, dir ops.Direction) ([]ops.Op, error) {
	f, ok := cf.(*File)
	if !ok {
		return nil, base.InvalidCache(FormatName)
	}
	interp := ft.Interpolation()

	lut1D, lut3D := f.Lut1D, f.Lut3D
	var used bool
	switch {
	case lut3D != nil:
		lut3D, used = ops.HandleLUT3D(lut3D, interp)
		base.WarnIfUnused(FormatName, ft.Src(), interp, used)
	case lut1D != nil:
		lut1D, used = ops.HandleLUT1D(lut1D, interp)
		base.WarnIfUnused(FormatName, ft.Src(), interp, used)
	}

	var list []ops.Op
	if lut1D != nil {
		list = append(list, base.DomainRange(f.Range1D.Min, f.Range1D.Max), lut1D)
	}
	if lut3D != nil {
		list = append(list, base.DomainRange(f.Range3D.Min, f.Range3D.Max), lut3D)
	}
	return base.Direct(list, dir)
}
