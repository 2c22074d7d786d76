// Package ctf registers the CTF and CLF XML documents with the format
// registry. Parsing and writing live in core/ctf; Reference operators are
// returned as read and expanded by the caller.
package ctf

import (
	"io"

	ctfdoc "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ctf"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/plugins"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/formats/base"
)

// FormatName is the display name used in messages.
const FormatName = ctfdoc.FormatName

// Handler reads .ctf and .clf documents.
type Handler struct{}

// File wraps a parsed document.
type File struct {
	Transform *ctfdoc.Transform
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
		{Name: "Academy/ASC Common LUT Format", Extension: "clf", Capabilities: plugins.CapRead},
		{Name: "Color Transform Format", Extension: "ctf", Capabilities: plugins.CapRead},
	}
}

// Read implements plugins.Format. The interpolation is unused: each LUT in
// the document carries its own.
func (h *Handler) Read(r io.Reader, filename string, _ ops.Interpolation) (plugins.CachedFile, error) {
	t, err := ctfdoc.Read(r, filename)
	if err != nil {
		return nil, err
	}
	return &File{Transform: t}, nil
}

// Bake implements plugins.Format. Documents are written with ctf.Write
// from an operator list, not baked.
func (h *Handler) Bake(processor.BakerContext, string, io.Writer) error {
	return base.NotBakeable(FormatName)
}

// BuildOps implements plugins.Format. The cached operators are cloned so
// the document stays untouched.
func (h *Handler) BuildOps(cf plugins.CachedFile, _ processor.FileTransform, dir ops.Direction) ([]ops.Op, error) {
	f, ok := cf.(*File)
	if !ok {
		return nil, base.InvalidCache("CTF/CLF")
	}
	list := make([]ops.Op, len(f.Transform.Ops))
	for i, op := range f.Transform.Ops {
		list[i] = op.Clone()
	}
	return base.Direct(list, dir)
}
