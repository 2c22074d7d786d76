// Package iridaslook provides the embedded handler for Iridas .look files.
// Only the baked <LUT> section is read: a red-fastest cube of hex-encoded
// little-endian float32 values.
package iridaslook

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/plugins"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/xml"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/base"
)

// FormatName is the display name used in messages.
const FormatName = "Iridas .look"

// Handler reads Iridas .look files.
type Handler struct{}

// File is a parsed .look file.
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
		{Name: "iridas_look", Extension: "look", Capabilities: plugins.CapRead},
	}
}

var dataStripper = strings.NewReplacer(" ", "", "\"", "", "'", "", "\n", "", "\r", "", "\t", "")

// DecodeHexFloats decodes groups of eight hex digits, each the
// little-endian bytes of a float32.
func DecodeHexFloats(s string) ([]float32, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

// Read implements plugins.Format.
func (h *Handler) Read(r io.Reader, filename string, interp ops.Interpolation) (plugins.CachedFile, error) {
	rep := base.Reporter{Format: FormatName, Path: filename}
	doc, err := xml.Parse(r)
	if err != nil {
		return nil, rep.Invalid("XML parsing error: %v", err)
	}
	if root := doc.Root(); root == nil || root.Name() != "look" {
		return nil, rep.Invalid("Expecting root node to be a look node")
	}

	masks, err := doc.XPath("/look/mask")
	if err != nil {
		return nil, err
	}
	for _, m := range masks {
		if len(m.Children()) > 0 || m.Text() != "" {
			return nil, rep.Semantic("Cannot load .look LUT containing mask")
		}
	}

	sizeNode, err := doc.XPathFirst("/look/LUT/size")
	if err != nil {
		return nil, err
	}
	if sizeNode == nil {
		return nil, rep.Semantic("Missing <size> element in <LUT> section")
	}
	size, err := strconv.Atoi(strings.Trim(sizeNode.Text(), "'\" "))
	if err != nil {
		return nil, rep.Semantic("Invalid LUT size value: '%s'. Expected quoted integer", sizeNode.Text())
	}

	dataNode, err := doc.XPathFirst("/look/LUT/data")
	if err != nil {
		return nil, err
	}
	data := ""
	if dataNode != nil {
		data = dataStripper.Replace(dataNode.Text())
	}
	if len(data)%8 != 0 {
		return nil, rep.Semantic("Number of characters in 'data' must be multiple of 8. %d elements found.", len(data))
	}
	values, err := DecodeHexFloats(data)
	if err != nil {
		if bad, ok := err.(hex.InvalidByteError); ok {
			return nil, rep.Semantic("Non-hex characters found in 'data' block at index '%d'.",
				strings.IndexByte(data, byte(bad))/8*8)
		}
		return nil, rep.Semantic("Invalid 'data' block: %v", err)
	}
	if want := size * size * size * 3; len(values) != want {
		return nil, rep.Semantic("Incorrect number of lut3d entries. Found %d values, expected %d.", len(values), want)
	}

	lut := ops.NewLut3DFromRedFastest(size, values)
	lut.FileOutBitDepth = bitdepth.F32
	if lut.IsValidInterpolation(interp) {
		lut.Interpolation = interp
	}
	return &File{Lut: lut}, nil
}

// Bake implements plugins.Format; .look files are read-only.
func (h *Handler) Bake(processor.BakerContext, string, io.Writer) error {
	return base.NotBakeable(FormatName)
}

// BuildOps implements plugins.Format.
func (h *Handler) BuildOps(cf plugins.CachedFile, ft processor.FileTransform, dir ops.Direction) ([]ops.Op, error) {
	f, ok := cf.(*File)
	if !ok {
		return nil, base.InvalidCache("Iridas .look")
	}
	interp := ft.Interpolation()
	lut, used := ops.HandleLUT3D(f.Lut, interp)
	base.WarnIfUnused(FormatName, ft.Src(), interp, used)
	return base.Direct([]ops.Op{lut}, dir)
}
