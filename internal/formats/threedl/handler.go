// Package threedl provides the embedded handler for Autodesk .3dl LUTs,
// as written by Flame and Lustre: an optional integer shaper line followed
// by integer cube entries in blue-fastest order.
package threedl

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/plugins"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/base"
)

// FormatName is the display name used in messages.
const FormatName = ".3dl"

const (
	shaperBits = 10
	cubeBits   = 12

	// A shaper entry may stray this many code values from the ideal
	// ramp and still count as an identity.
	shaperTolerance = 2.0
)

// Handler reads and bakes .3dl files.
type Handler struct{}

// File is a parsed .3dl file. Either LUT may be nil.
type File struct {
	Shaper *ops.Lut1D
	Cube   *ops.Lut3D
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
		{Name: "flame", Extension: "3dl", Capabilities: plugins.CapRead | plugins.CapBake},
		{Name: "lustre", Extension: "3dl", Capabilities: plugins.CapRead | plugins.CapBake},
	}
}

// Read implements plugins.Format.
func (h *Handler) Read(r io.Reader, filename string, interp ops.Interpolation) (plugins.CachedFile, error) {
	lines, err := base.ReadLines(r)
	if err != nil {
		return nil, err
	}
	rep := base.Reporter{Format: FormatName, Path: filename}

	var rawShaper, raw3D []int
	cubeMax := 0
	for _, l := range lines {
		if l.IsBlank() || l.IsComment() {
			continue
		}
		if strings.HasPrefix(l.Fields[0], "<") {
			return nil, rep.Syntax(l, "Not expecting a line starting with \"<\".")
		}
		// Keywords such as 3DMESH, Mesh, LUT8 and gamma are skipped.
		vals, ok := base.ParseInts(l.Fields)
		if !ok {
			continue
		}
		switch {
		case len(vals) > 3:
			if rawShaper != nil {
				return nil, rep.Syntax(l, "Appears to contain more than 1 shaper LUT.")
			}
			rawShaper = vals
		case len(vals) == 3:
			raw3D = append(raw3D, vals...)
			cubeMax = max(cubeMax, vals[0], vals[1], vals[2])
		default:
			return nil, rep.Syntax(l, "Invalid line with less than 3 values.")
		}
	}
	if raw3D == nil && rawShaper == nil {
		return nil, rep.Semantic("Does not appear to contain a valid shaper LUT or a 3D LUT.")
	}

	f := &File{}
	if rawShaper != nil {
		if f.Shaper, err = readShaper(rep, rawShaper, interp); err != nil {
			return nil, err
		}
	}
	if raw3D != nil {
		if f.Cube, err = readCube(rep, raw3D, cubeMax, interp); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func inferDepth(rep base.Reporter, what string, maxCode int) (bitdepth.BitDepth, error) {
	bd, err := bitdepth.InferBitDepth(maxCode)
	if err != nil {
		return bitdepth.Unknown, rep.Semantic("The maximum %s value, %d, is unreasonably low. "+
			"This LUT is probably not a .3dl file, but instead a related format that "+
			"shares a similar structure.", what, maxCode)
	}
	return bd, nil
}

// readShaper returns nil when the shaper is an identity ramp.
func readShaper(rep base.Reporter, raw []int, interp ops.Interpolation) (*ops.Lut1D, error) {
	maxCode := 0
	for _, v := range raw {
		maxCode = max(maxCode, v)
	}
	bd, err := inferDepth(rep, "shaper LUT", maxCode)
	if err != nil {
		return nil, err
	}
	scale := bitdepth.MaxValue(bd)

	lut := ops.NewLut1D(len(raw))
	lut.FileOutBitDepth = bd
	for i, v := range raw {
		n := float32(float64(v) / scale)
		lut.Values[i*3], lut.Values[i*3+1], lut.Values[i*3+2] = n, n, n
	}
	if lut.IsLooseIdentity(scale, shaperTolerance) {
		return nil, nil
	}
	if lut.IsValidInterpolation(interp) {
		lut.Interpolation = interp
	}
	return lut, nil
}

func readCube(rep base.Reporter, raw []int, maxCode int, interp ops.Interpolation) (*ops.Lut3D, error) {
	bd, err := inferDepth(rep, "3D LUT", maxCode)
	if err != nil {
		return nil, err
	}
	edge, err := bitdepth.CubeEdgeLength(len(raw) / 3)
	if err != nil {
		return nil, rep.Semantic("%s", err.Error())
	}
	scale := bitdepth.MaxValue(bd)

	lut := &ops.Lut3D{GridSize: edge, Values: make([]float32, len(raw))}
	lut.FileOutBitDepth = bd
	for i, v := range raw {
		lut.Values[i] = float32(float64(v) / scale)
	}
	if lut.IsValidInterpolation(interp) {
		lut.Interpolation = interp
	}
	return lut, nil
}

// Bake implements plugins.Format. Both flavors write a 10-bit identity
// shaper and a 12-bit cube; lustre adds its mesh header and trailer.
func (h *Handler) Bake(ctx processor.BakerContext, formatName string, w io.Writer) error {
	var defaultSize int
	switch formatName {
	case "lustre":
		defaultSize = 33
	case "flame":
		defaultSize = 17
	default:
		return base.UnknownFormatName("3dl", formatName)
	}

	cubeSize := ctx.CubeSize()
	if cubeSize == -1 {
		cubeSize = defaultSize
	}
	cubeSize = max(2, cubeSize)
	shaperSize := ctx.ShaperSize()
	if shaperSize == -1 {
		shaperSize = cubeSize
	}

	toTarget, err := ctx.InputToTarget()
	if err != nil {
		return err
	}
	cube := base.IdentityCube(cubeSize, base.BlueFastest)
	toTarget.ApplyRGB(cube)

	bw := bufio.NewWriter(w)
	if formatName == "lustre" {
		fmt.Fprintf(bw, "3DMESH\nMesh %d %d\n", meshBits(cubeSize), cubeBits)
	}

	shaperScale := float64(bitdepth.MaxIntValue(shaperBits))
	for i := 0; i < shaperSize; i++ {
		if i != 0 {
			bw.WriteByte(' ')
		}
		x := float64(float32(float64(i) / float64(shaperSize-1)))
		bw.WriteString(strconv.Itoa(bitdepth.ClampNormToInt(x, shaperScale)))
	}
	bw.WriteByte('\n')

	cubeScale := float64(bitdepth.MaxIntValue(cubeBits))
	for i := 0; i < len(cube); i += 3 {
		fmt.Fprintf(bw, "%d %d %d\n",
			bitdepth.ClampNormToInt(float64(cube[i]), cubeScale),
			bitdepth.ClampNormToInt(float64(cube[i+1]), cubeScale),
			bitdepth.ClampNormToInt(float64(cube[i+2]), cubeScale))
	}
	bw.WriteByte('\n')

	if formatName == "lustre" {
		bw.WriteString("LUT8\ngamma 1.0\n")
	}
	return bw.Flush()
}

// meshBits is the Lustre mesh input depth: log2 of the cube intervals.
func meshBits(cubeSize int) int {
	return int(math.Log2(float64(cubeSize - 1)))
}

// BuildOps implements plugins.Format. The shaper precedes the cube.
func (h *Handler) BuildOps(cf plugins.CachedFile, ft processor.FileTransform, dir ops.Direction) ([]ops.Op, error) {
	f, ok := cf.(*File)
	if !ok {
		return nil, base.InvalidCache(".3dl")
	}
	interp := ft.Interpolation()
	shaper, used1D := ops.HandleLUT1D(f.Shaper, interp)
	cube, used3D := ops.HandleLUT3D(f.Cube, interp)
	if f.Shaper != nil || f.Cube != nil {
		base.WarnIfUnused(FormatName, ft.Src(), interp, used1D || used3D)
	}

	var list []ops.Op
	if shaper != nil {
		list = append(list, shaper)
	}
	if cube != nil {
		list = append(list, cube)
	}
	return base.Direct(list, dir)
}
