// Package houdini provides the embedded handler for Houdini .lut files: a
// key/value header ended by "LUT:", then named {} blocks of values.
package houdini

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	apperrors "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/plugins"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/base"
)

// FormatName is the display name used in messages.
const FormatName = "Houdini .lut"

// Bake defaults.
const (
	DefaultShaperSize = 1024
	DefaultCubeSize   = 64
	Default1DSize     = 1024
)

// LUT types, as lower-cased in the Type header.
const (
	Type1D     = "c"
	TypeRGB    = "rgb"
	Type3D     = "3d"
	Type3DPre  = "3d+1d"
	blockPre   = "pre"
	block3D    = "3d"
	blockRGB   = "rgb"
	blockRed   = "r"
	blockGreen = "g"
	blockBlue  = "b"
)

// Handler reads and bakes Houdini LUTs.
type Handler struct{}

// File is a parsed Houdini LUT.
type File struct {
	Version, Format, Type string
	FromMin, FromMax      float64
	ToMin, ToMax          float64
	Black, White          float64

	Lut1D *ops.Lut1D
	Lut3D *ops.Lut3D
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
		{Name: "houdini", Extension: "lut", Capabilities: plugins.CapRead | plugins.CapBake},
	}
}

// lutSection is everything after the "LUT:" line.
type lutSection struct {
	Blocks []*lutBlock `parser:"@@*"`
}

// lutBlock is "Name { values }"; a block without a name is the cube.
type lutBlock struct {
	Pos    lexer.Position
	Name   string      `parser:"@Word? \"{\""`
	Values []*lutValue `parser:"@@* \"}\""`
}

type lutValue struct {
	Pos  lexer.Position
	Text string `parser:"@Word"`
}

var lutLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Brace", Pattern: `[{}]`},
	{Name: "Word", Pattern: `[^\s{}]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var lutParser = participle.MustBuild[lutSection](
	participle.Lexer(lutLexer),
	participle.Elide("Whitespace"),
)

// headers maps lower-cased keys to their lower-cased values.
type headers map[string][]string

func (hs headers) item(key string, minVals, maxVals int) ([]string, error) {
	vals, ok := hs[key]
	if !ok {
		return nil, apperrors.NewSemanticf("'%s' line not found", key)
	}
	if len(vals) < minVals || len(vals) > maxVals {
		want := strconv.Itoa(minVals)
		if minVals != maxVals {
			want = fmt.Sprintf("between %d and %d", minVals, maxVals)
		}
		return nil, apperrors.NewSemanticf("Incorrect number of chunks (%d) after '%s' line, expected %s",
			len(vals), key, want)
	}
	return vals, nil
}

func (hs headers) floats(key, display string, n int) ([]float64, error) {
	vals, err := hs.item(key, n, n)
	if err != nil {
		return nil, err
	}
	out, ok := base.ParseFloats(vals)
	if !ok {
		quoted := make([]string, len(vals))
		for i, v := range vals {
			quoted[i] = "'" + v + "'"
		}
		if n == 1 {
			return nil, apperrors.NewSemanticf("Invalid float value on '%s' line, %s", display, quoted[0])
		}
		return nil, apperrors.NewSemanticf("Invalid float value(s) on '%s' line, %s",
			display, strings.Join(quoted, " and "))
	}
	return out, nil
}

// Read implements plugins.Format.
func (h *Handler) Read(r io.Reader, filename string, interp ops.Interpolation) (plugins.CachedFile, error) {
	lines, err := base.ReadLines(r)
	if err != nil {
		return nil, err
	}
	rep := base.Reporter{Format: FormatName, Path: filename}

	hs := headers{}
	body := len(lines)
	for i, l := range lines {
		if l.IsBlank() {
			continue
		}
		key := strings.ToLower(l.Fields[0])
		if key == "lut:" {
			body = i + 1
			break
		}
		vals := make([]string, len(l.Fields)-1)
		for j, v := range l.Fields[1:] {
			vals[j] = strings.ToLower(v)
		}
		hs[key] = vals
	}

	f, sizes, err := readHeader(hs)
	if err != nil {
		return nil, apperrors.WithContext(err, FormatName, filename, 0)
	}

	blocks, err := parseBlocks(rep, lines, body)
	if err != nil {
		return nil, err
	}

	switch f.Type {
	case Type3DPre:
		pre, ok := blocks[blockPre]
		if !ok {
			return nil, rep.Semantic("3D+1D LUT should contain Pre{} LUT section")
		}
		if len(pre) != sizes[1] {
			return nil, rep.Semantic("Pre{} LUT was %d values long, expected %d values", len(pre), sizes[1])
		}
		f.Lut1D = newLut1D(pre, pre, pre, interp)
		fallthrough
	case Type3D:
		cube, ok := blocks[block3D]
		if !ok {
			return nil, rep.Semantic("3D LUT section not found")
		}
		n := sizes[0]
		if want := n * n * n * 3; len(cube) != want {
			return nil, rep.Semantic("3D LUT contains incorrect number of values. "+
				"Contained %d values (%d lines), expected %d values (%d lines)",
				len(cube), len(cube)/3, want, want/3)
		}
		f.Lut3D = ops.NewLut3DFromRedFastest(n, cube)
		f.Lut3D.FileOutBitDepth = bitdepth.F32
		if f.Lut3D.IsValidInterpolation(interp) {
			f.Lut3D.Interpolation = interp
		}
	case Type1D:
		if f.Lut1D, err = read1D(rep, blocks, sizes[0], interp); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// readHeader validates the header keys. sizes holds the cube or 1D size,
// then the prelut size for 3D+1D files.
func readHeader(hs headers) (*File, []int, error) {
	f := &File{}
	for _, s := range []struct {
		key string
		dst *string
	}{{"version", &f.Version}, {"format", &f.Format}, {"type", &f.Type}} {
		v, err := hs.item(s.key, 1, 1)
		if err != nil {
			return nil, nil, err
		}
		*s.dst = v[0]
	}

	for _, fl := range []struct {
		key, display string
		dst          []*float64
	}{
		{"from", "From", []*float64{&f.FromMin, &f.FromMax}},
		{"to", "To", []*float64{&f.ToMin, &f.ToMax}},
		{"black", "Black", []*float64{&f.Black}},
		{"white", "White", []*float64{&f.White}},
	} {
		vals, err := hs.floats(fl.key, fl.display, len(fl.dst))
		if err != nil {
			return nil, nil, err
		}
		for i, d := range fl.dst {
			*d = vals[i]
		}
	}

	switch f.Type {
	case Type3D, Type3DPre, Type1D:
	case TypeRGB:
		// Written by bakers for 1D LUTs; read as C.
		f.Type = Type1D
	default:
		return nil, nil, apperrors.NewSemanticf("Unsupported Houdini LUT type: '%s'", f.Type)
	}

	minLen := 1
	if f.Type == Type3DPre {
		minLen = 2
	}
	vals, err := hs.item("length", minLen, 2)
	if err != nil {
		return nil, nil, err
	}
	sizes, ok := base.ParseInts(vals)
	if !ok {
		return nil, nil, apperrors.NewSemanticf("Invalid integer on 'Length' line: '%s'", strings.Join(vals, " "))
	}
	return f, sizes, nil
}

// parseBlocks parses the lines from body on and returns the values of each
// block by lower-cased name.
func parseBlocks(rep base.Reporter, lines []base.Line, body int) (map[string][]float32, error) {
	if body >= len(lines) {
		return map[string][]float32{}, nil
	}
	offset := lines[body].Num - 1
	texts := make([]string, 0, len(lines)-body)
	for _, l := range lines[body:] {
		texts = append(texts, l.Text)
	}
	lineAt := func(pos lexer.Position) base.Line {
		n := pos.Line + offset
		for _, l := range lines[body:] {
			if l.Num == n {
				return l
			}
		}
		return base.Line{Num: n}
	}

	section, err := lutParser.ParseString(rep.Path, strings.Join(texts, "\n"))
	if err != nil {
		var perr participle.Error
		if apperrors.As(err, &perr) {
			return nil, rep.Syntax(lineAt(perr.Position()), "Malformed LUT - %s", perr.Message())
		}
		return nil, rep.Semantic("Malformed LUT - %v", err)
	}

	out := map[string][]float32{}
	for _, b := range section.Blocks {
		name := strings.ToLower(b.Name)
		if name == "" {
			name = block3D
		}
		for _, v := range b.Values {
			x, err := strconv.ParseFloat(v.Text, 64)
			if err != nil {
				return nil, rep.Syntax(lineAt(v.Pos), "Invalid float value in %s LUT, '%s'", name, v.Text)
			}
			out[name] = append(out[name], float32(x))
		}
	}
	return out, nil
}

// read1D accepts a single RGB{} block or one block per channel.
func read1D(rep base.Reporter, blocks map[string][]float32, size int, interp ops.Interpolation) (*ops.Lut1D, error) {
	if mono, ok := blocks[blockRGB]; ok {
		if len(mono) != size {
			return nil, rep.Semantic("RGB{} LUT was %d values long, expected %d values", len(mono), size)
		}
		lut := newLut1D(mono, mono, mono, interp)
		lut.Components = 1
		return lut, nil
	}
	var channels [3][]float32
	for i, name := range []string{blockRed, blockGreen, blockBlue} {
		ch, ok := blocks[name]
		if !ok {
			return nil, rep.Semantic("1D LUT should contain an RGB{} section or R{}, G{} and B{} sections")
		}
		if len(ch) != size {
			return nil, rep.Semantic("%s{} LUT was %d values long, expected %d values", strings.ToUpper(name), len(ch), size)
		}
		channels[i] = ch
	}
	return newLut1D(channels[0], channels[1], channels[2], interp), nil
}

func newLut1D(r, g, b []float32, interp ops.Interpolation) *ops.Lut1D {
	lut := &ops.Lut1D{Components: 3, Values: make([]float32, len(r)*3)}
	for i := range r {
		lut.Values[i*3], lut.Values[i*3+1], lut.Values[i*3+2] = r[i], g[i], b[i]
	}
	lut.FileOutBitDepth = bitdepth.F32
	if lut.IsValidInterpolation(interp) {
		lut.Interpolation = interp
	}
	return lut
}

// Bake implements plugins.Format.
func (h *Handler) Bake(ctx processor.BakerContext, formatName string, w io.Writer) error {
	if formatName != "houdini" {
		return base.UnknownFormatName("hdl", formatName)
	}

	cubeSize := ctx.CubeSize()
	if cubeSize < 0 {
		cubeSize = DefaultCubeSize
	}
	if cubeSize < 2 {
		return apperrors.NewSemanticf("Cube size must be 2 or larger (was %d)", cubeSize)
	}
	shaperSize := ctx.ShaperSize()
	if shaperSize < 0 {
		shaperSize = DefaultShaperSize
	}
	if err := base.CheckShaperSize(ctx, shaperSize); err != nil {
		return err
	}
	oneDSize := ctx.CubeSize()
	if oneDSize == -1 {
		oneDSize = Default1DSize
	}
	if oneDSize < 2 {
		return apperrors.NewSemanticf("1D LUT size must be higher than 2 (was %d)", oneDSize)
	}

	s, err := base.Sample(ctx, base.Sizes{Cube: cubeSize, Shaper: shaperSize, OneD: oneDSize}, base.RedFastest)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	typeName := map[base.Layout]string{base.Layout1D: "RGB", base.Layout3D: "3D", base.Layout1D3D: "3D+1D"}[s.Layout]
	fmt.Fprintf(bw, "Version\t\t%d\n", s.Layout)
	fmt.Fprintf(bw, "Format\t\tany\n")
	fmt.Fprintf(bw, "Type\t\t%s\n", typeName)
	fmt.Fprintf(bw, "From\t\t%s %s\n", base.Fixed(s.ShaperMin), base.Fixed(s.ShaperMax))
	fmt.Fprintf(bw, "To\t\t%s %s\n", base.Fixed(0), base.Fixed(1))
	fmt.Fprintf(bw, "Black\t\t%s\n", base.Fixed(0))
	fmt.Fprintf(bw, "White\t\t%s\n", base.Fixed(1))
	switch s.Layout {
	case base.Layout1D3D:
		fmt.Fprintf(bw, "Length\t\t%d %d\n", cubeSize, shaperSize)
	case base.Layout3D:
		fmt.Fprintf(bw, "Length\t\t%d\n", cubeSize)
	case base.Layout1D:
		fmt.Fprintf(bw, "Length\t\t%d\n", oneDSize)
	}
	bw.WriteString("LUT:\n")

	switch s.Layout {
	case base.Layout1D:
		for c, name := range []string{"R", "G", "B"} {
			fmt.Fprintf(bw, "%s {\n", name)
			for i := c; i < len(s.OneD); i += 3 {
				fmt.Fprintf(bw, "\t%s\n", base.Fixed(s.OneD[i]))
			}
			bw.WriteString("}\n")
		}
		return bw.Flush()
	case base.Layout1D3D:
		bw.WriteString("Pre {\n")
		for i := 1; i < len(s.Shaper); i += 3 {
			fmt.Fprintf(bw, "\t%s\n", base.Fixed(s.Shaper[i]))
		}
		bw.WriteString("}\n3D {\n")
	default:
		bw.WriteString(" {\n")
	}
	for i := 0; i+2 < len(s.Cube); i += 3 {
		fmt.Fprintf(bw, "\t%s %s %s\n", base.Fixed(s.Cube[i]), base.Fixed(s.Cube[i+1]), base.Fixed(s.Cube[i+2]))
	}
	bw.WriteString(" }\n")
	return bw.Flush()
}

// fromMatrix maps the From range onto 0..1 without clamping. It is nil for
// the default range.
func (f *File) fromMatrix() (ops.Op, error) {
	if f.FromMin == 0 && f.FromMax == 1 {
		return nil, nil
	}
	rng := ops.NewRange(f.FromMin, f.FromMax, 0, 1)
	rng.Style = ops.RangeNoClamp
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return rng.ToMatrix(), nil
}

// BuildOps implements plugins.Format.
func (h *Handler) BuildOps(cf plugins.CachedFile, ft processor.FileTransform, dir ops.Direction) ([]ops.Op, error) {
	f, ok := cf.(*File)
	if !ok || (f.Lut1D == nil && f.Lut3D == nil) {
		return nil, base.InvalidCache("Houdini")
	}
	interp := ft.Interpolation()
	lut1D, used1D := ops.HandleLUT1D(f.Lut1D, interp)
	lut3D, used3D := ops.HandleLUT3D(f.Lut3D, interp)
	base.WarnIfUnused(FormatName, ft.Src(), interp, used1D || used3D)

	var list []ops.Op
	if f.Type != Type3D {
		m, err := f.fromMatrix()
		if err != nil {
			return nil, err
		}
		if m != nil {
			list = append(list, m)
		}
	}
	if lut1D != nil {
		list = append(list, lut1D)
	}
	if lut3D != nil {
		list = append(list, lut3D)
	}
	return base.Direct(list, dir)
}
