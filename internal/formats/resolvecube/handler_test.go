package resolvecube

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
)

func read(t *testing.T, content string) (*File, error) {
	t.Helper()
	cf, err := (&Handler{}).Read(strings.NewReader(content), "test.cube", ops.InterpDefault)
	if err != nil {
		return nil, err
	}
	return cf.(*File), nil
}

// redFastestCube writes an identity cube of edge n in file order.
func redFastestCube(n int) string {
	var b strings.Builder
	v := func(i int) float64 { return float64(i) / float64(n-1) }
	for bl := 0; bl < n; bl++ {
		for g := 0; g < n; g++ {
			for r := 0; r < n; r++ {
				fmt.Fprintf(&b, "%g %g %g\n", v(r), v(g), v(bl))
			}
		}
	}
	return b.String()
}

const sample1D3D = "LUT_1D_SIZE 6\n" +
	"LUT_1D_INPUT_RANGE 0.0 1.0\n" +
	"LUT_3D_SIZE 3\n" +
	"LUT_3D_INPUT_RANGE 0.0 1.0\n" +
	"1.0 1.0 1.0\n" +
	"0.8 0.8 0.8\n" +
	"0.6 0.6 0.6\n" +
	"0.4 0.4 0.4\n" +
	"0.2 0.2 0.2\n" +
	"0.0 0.0 0.0\n"

func TestRead1D3D(t *testing.T) {
	f, err := read(t, sample1D3D+redFastestCube(3))
	if err != nil {
		t.Fatal(err)
	}
	if f.Lut1D == nil || f.Lut1D.Length() != 6 {
		t.Fatalf("1D LUT = %+v", f.Lut1D)
	}
	if f.Lut1D.Values[3] != 0.8 {
		t.Errorf("second 1D entry = %v", f.Lut1D.Values[3])
	}
	if f.Lut3D == nil || f.Lut3D.GridSize != 3 || !f.Lut3D.IsIdentity() {
		t.Fatalf("3D LUT = %+v", f.Lut3D)
	}
}

func TestReadInputRange(t *testing.T) {
	f, err := read(t, "# header comment\nlut_3d_size 2\nLUT_3D_INPUT_RANGE -0.5 2.5\n"+redFastestCube(2))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(InputRange{-0.5, 2.5}, f.Range3D); diff != "" {
		t.Errorf("range (-want +got):\n%s", diff)
	}
	if f.Lut1D != nil || !f.Range1D.IsDefault() {
		t.Errorf("unexpected 1D state: %+v %+v", f.Lut1D, f.Range1D)
	}
	// Red-fastest on disk: the second entry moves red.
	if got := f.Lut3D.Values[f.Lut3D.Index(1, 0, 0)]; got != 1 {
		t.Errorf("red of (1,0,0) = %v", got)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		kind    apperrors.Kind
		line    int
	}{
		{"comment after header", "LUT_3D_SIZE 2\n0 0 0\n# late\n", "Comments not allowed after header.", apperrors.KindSyntax, 3},
		{"title", "TITLE \"x\"\nLUT_3D_SIZE 2\n", "Unsupported tag: 'TITLE'.", apperrors.KindSyntax, 1},
		{"2d", "LUT_2D_SIZE 2\n", "Unsupported tag: 'LUT_2D_SIZE'.", apperrors.KindSyntax, 1},
		{"bad 1d size", "LUT_1D_SIZE two\n", "Malformed LUT_1D_SIZE tag.", apperrors.KindSyntax, 1},
		{"bad 3d size", "LUT_3D_SIZE 2 2\n", "Malformed LUT_3D_SIZE tag.", apperrors.KindSyntax, 1},
		{"bad 1d range", "LUT_1D_INPUT_RANGE 0\n", "Malformed LUT_1D_INPUT_RANGE tag.", apperrors.KindSyntax, 1},
		{"bad 3d range", "LUT_3D_INPUT_RANGE 0 x\n", "Malformed LUT_3D_INPUT_RANGE tag.", apperrors.KindSyntax, 1},
		{"bad triple", "LUT_3D_SIZE 2\n0 0\n", "Malformed color triples specified.", apperrors.KindSyntax, 2},
		{"no type", "# only a comment\n", "Lut type (1D/3D) unspecified.", apperrors.KindSemantic, 0},
		{"short 1d", "LUT_1D_SIZE 3\n0 0 0\n1 1 1\n", "Incorrect number of lut1d entries. Found 2, expected 3.", apperrors.KindSemantic, 0},
		{"short 3d", "LUT_3D_SIZE 2\n0 0 0\n", "Incorrect number of lut3d entries. Found 1, expected 8.", apperrors.KindSemantic, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := read(t, tt.content)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
			var fe *apperrors.FormatError
			if !apperrors.As(err, &fe) {
				t.Fatalf("err is %T, want *FormatError", err)
			}
			if fe.Kind != tt.kind || fe.Line != tt.line {
				t.Errorf("kind %s line %d, want %s line %d", fe.Kind, fe.Line, tt.kind, tt.line)
			}
		})
	}
}

func TestBuildOps(t *testing.T) {
	f, err := read(t, sample1D3D+redFastestCube(3))
	if err != nil {
		t.Fatal(err)
	}
	h := &Handler{}

	fwd, err := h.BuildOps(f, processor.File{Path: "test.cube", Interp: ops.InterpTetrahedral}, ops.Forward)
	if err != nil {
		t.Fatal(err)
	}
	wantFwd := []ops.Type{ops.TypeRange, ops.TypeLut1D, ops.TypeRange, ops.TypeLut3D}
	if diff := cmp.Diff(wantFwd, types(fwd)); diff != "" {
		t.Fatalf("forward types (-want +got):\n%s", diff)
	}
	rng := fwd[0].(*ops.Range)
	if rng.MinIn != 0 || rng.MaxIn != 1 || rng.MinOut != 0 || rng.MaxOut != 1 || rng.Style != ops.RangeClamp {
		t.Errorf("1D range = %+v", rng)
	}
	if fwd[1].(*ops.Lut1D).Length() != 6 || fwd[3].(*ops.Lut3D).GridSize != 3 {
		t.Error("LUT sizes are wrong")
	}
	if got := fwd[3].(*ops.Lut3D).Interpolation; got != ops.InterpTetrahedral {
		t.Errorf("cube interpolation = %s", got)
	}
	if got := fwd[1].(*ops.Lut1D).Interpolation; got != ops.InterpLinear {
		t.Errorf("1D interpolation = %s", got)
	}

	inv, err := h.BuildOps(f, processor.File{Path: "test.cube"}, ops.Inverse)
	if err != nil {
		t.Fatal(err)
	}
	wantInv := []ops.Type{ops.TypeLut3D, ops.TypeRange, ops.TypeLut1D, ops.TypeRange}
	if diff := cmp.Diff(wantInv, types(inv)); diff != "" {
		t.Fatalf("inverse types (-want +got):\n%s", diff)
	}
	if !inv[0].(*ops.Lut3D).IsInverse() || !inv[2].(*ops.Lut1D).IsInverse() {
		t.Error("inverse LUTs not flipped")
	}

	if _, err := h.BuildOps(nil, processor.File{}, ops.Forward); err == nil {
		t.Error("BuildOps accepted a foreign cached file")
	}
}

func TestBuildOpsScaledRange(t *testing.T) {
	f, err := read(t, "LUT_1D_SIZE 2\nLUT_1D_INPUT_RANGE -1 3\n0 0 0\n1 1 1\n")
	if err != nil {
		t.Fatal(err)
	}
	list, err := (&Handler{}).BuildOps(f, processor.File{Interp: ops.InterpCubic}, ops.Forward)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("ops = %v", types(list))
	}
	scale, offset := list[0].(*ops.Range).ScaleOffset()
	if scale != 0.25 || offset != 0.25 {
		t.Errorf("scale %v offset %v, want 0.25 0.25", scale, offset)
	}
	if got := list[1].(*ops.Lut1D).Interpolation; got != ops.InterpCubic {
		t.Errorf("1D-only file ignored the request: %s", got)
	}
}

func types(list []ops.Op) []ops.Type {
	out := make([]ops.Type, len(list))
	for i, op := range list {
		out[i] = op.Type()
	}
	return out
}

func scale(k float32, crosstalk bool) processor.Processor {
	return processor.Func{Crosstalk: crosstalk, Apply: func(rgb []float32) {
		for i := range rgb {
			rgb[i] *= k
		}
	}}
}

func TestBake(t *testing.T) {
	tests := []struct {
		name  string
		baker *processor.Baker
		want  string
	}{
		{
			name:  "1D",
			baker: &processor.Baker{Cube: 2, ToTarget: scale(0.5, false), Notes: []string{"made by a test"}},
			want: "# made by a test\n\n" +
				"LUT_1D_SIZE 2\n" +
				"0.000000 0.000000 0.000000\n" +
				"0.500000 0.500000 0.500000\n",
		},
		{
			name:  "3D",
			baker: &processor.Baker{Cube: 2, ToTarget: scale(1, true)},
			want: "LUT_3D_SIZE 2\n" +
				"0.000000 0.000000 0.000000\n" +
				"1.000000 0.000000 0.000000\n" +
				"0.000000 1.000000 0.000000\n" +
				"1.000000 1.000000 0.000000\n" +
				"0.000000 0.000000 1.000000\n" +
				"1.000000 0.000000 1.000000\n" +
				"0.000000 1.000000 1.000000\n" +
				"1.000000 1.000000 1.000000\n",
		},
		{
			name: "1D3D",
			baker: &processor.Baker{
				Cube: 2, ShaperLen: 3, Shaper: "log",
				ToTarget:     scale(1, true),
				ToShaper:     scale(0.25, false),
				FromShaper:   scale(4, false),
				ShaperTarget: scale(1, true),
			},
			want: "LUT_1D_SIZE 3\n" +
				"LUT_1D_INPUT_RANGE 0.000000 4.000000\n" +
				"LUT_3D_SIZE 2\n" +
				"0.000000 0.000000 0.000000\n" +
				"0.500000 0.500000 0.500000\n" +
				"1.000000 1.000000 1.000000\n" +
				"0.000000 0.000000 0.000000\n" +
				"1.000000 0.000000 0.000000\n" +
				"0.000000 1.000000 0.000000\n" +
				"1.000000 1.000000 0.000000\n" +
				"0.000000 0.000000 1.000000\n" +
				"1.000000 0.000000 1.000000\n" +
				"0.000000 1.000000 1.000000\n" +
				"1.000000 1.000000 1.000000\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&Handler{}).Bake(tt.baker, "resolve_cube", &buf); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("bake mismatch (-want +got):\n%s", diff)
			}
			if _, err := read(t, buf.String()); err != nil {
				t.Errorf("baked file does not read back: %v", err)
			}
		})
	}
}

func TestBakeDefaults(t *testing.T) {
	var buf bytes.Buffer
	if err := (&Handler{}).Bake(&processor.Baker{ToTarget: scale(1, true)}, "resolve_cube", &buf); err != nil {
		t.Fatal(err)
	}
	f, err := read(t, buf.String())
	if err != nil {
		t.Fatal(err)
	}
	if f.Lut3D.GridSize != Default3DSize {
		t.Errorf("cube size = %d", f.Lut3D.GridSize)
	}

	err = (&Handler{}).Bake(&processor.Baker{}, "cube", &bytes.Buffer{})
	if err == nil || err.Error() != "Unknown cube format name, 'cube'." {
		t.Errorf("unknown name err = %v", err)
	}
}
