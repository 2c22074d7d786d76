package ctf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/metadata"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
)

func writeString(t *testing.T, tr *Transform, opts WriteOptions) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, tr, opts); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	return buf.String()
}

func transformOf(list ...ops.Op) *Transform {
	return &Transform{ID: "t", Ops: list}
}

func TestWriteRewritesLegacyMatrixDims(t *testing.T) {
	doc := `<?xml version="1.0"?>
<ProcessList version="1.3" id="x">
  <Matrix inBitDepth="10i" outBitDepth="10i">
    <Array dim="3 3 3">1 0 0  0 1 0  0 0 1</Array>
  </Matrix>
</ProcessList>`
	tr := readString(t, "x.ctf", doc)
	out := writeString(t, tr, WriteOptions{})

	for _, want := range []string{
		`<ProcessList version="1.3" id="x">`,
		`<Matrix inBitDepth="10i" outBitDepth="10i">`,
		`<Array dim="3 3">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, `dim="3 3 3"`) {
		t.Errorf("legacy dimensions written:\n%s", out)
	}
}

func TestWriteGammaAlphaRaisesVersion(t *testing.T) {
	withAlpha := ops.NewGamma(ops.GammaMonCurveRev)
	withAlpha.SetParams(ops.GammaParams{2.4, 0.055})
	withAlpha.Alpha = ops.GammaParams{1.8, 0.03}

	plain := ops.NewGamma(ops.GammaMonCurveRev)
	plain.SetParams(ops.GammaParams{2.4, 0.055})

	tests := []struct {
		name string
		op   ops.Op
		want string
	}{
		{"alpha", withAlpha, `version="1.5"`},
		{"identity alpha", plain, `version="1.3"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := writeString(t, transformOf(tt.op), WriteOptions{})
			if !strings.Contains(out, tt.want) {
				t.Errorf("output does not contain %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestMinimumVersion(t *testing.T) {
	hue := ops.NewLut1D(2)
	hue.HueAdjust = ops.HueDW3
	invHalf := ops.NewHalfDomainLut1D()
	invHalf.Direction = ops.Inverse
	inv3D := ops.NewLut3D(2)
	inv3D.Direction = ops.Inverse
	noClamp := ops.NewRange(0, 1, 0, 1)
	noClamp.Style = ops.RangeNoClamp

	tests := []struct {
		name string
		op   ops.Op
		want Version
	}{
		{"matrix", ops.NewMatrix(), Version1_3},
		{"hue adjust", hue, Version1_4},
		{"inverse half domain", invHalf, Version1_6},
		{"inverse lut3d", inv3D, Version1_6},
		{"no clamp range", noClamp, Version1_3},
		{"mirror gamma", ops.NewGamma(ops.GammaBasicMirrorFwd), Version2_0},
		{"log", ops.NewLog(ops.LogLog10), Version2_0},
		{"fixed function", ops.NewFixedFunction(ops.FFRGBToHSV), Version2_0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinimumVersion([]ops.Op{tt.op}); got != tt.want {
				t.Errorf("MinimumVersion = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWriteUTF8Description(t *testing.T) {
	const text = "標準萬國碼"
	tr := transformOf(ops.NewMatrix())
	tr.Descriptions = []string{text}

	out := writeString(t, tr, WriteOptions{})
	if !strings.Contains(out, "<Description>"+text+"</Description>") {
		t.Fatalf("description not written verbatim:\n%s", out)
	}
	back := readString(t, "utf8.ctf", out)
	if diff := cmp.Diff([]string{text}, back.Descriptions); diff != "" {
		t.Errorf("descriptions mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteEscapesMarkup(t *testing.T) {
	tr := transformOf(ops.NewMatrix())
	tr.Name = `a "b" & <c>`
	tr.Descriptions = []string{"x < y & z"}
	out := writeString(t, tr, WriteOptions{})
	back := readString(t, "esc.ctf", out)
	if back.Name != tr.Name || back.Descriptions[0] != tr.Descriptions[0] {
		t.Errorf("round trip = %q %q", back.Name, back.Descriptions)
	}
}

func TestWriteCLFRefusals(t *testing.T) {
	invLut := ops.NewLut1D(2)
	invLut.Direction = ops.Inverse
	inv3D := ops.NewLut3D(2)
	inv3D.Direction = ops.Inverse
	alphaMatrix := ops.NewMatrix()
	alphaMatrix.Set(3, 3, 0.5)
	alphaMatrix.Set(0, 3, 0.1)
	alphaGamma := ops.NewGamma(ops.GammaBasicFwd)
	alphaGamma.Alpha = ops.GammaParams{2}

	tests := []struct {
		name string
		op   ops.Op
		want string
	}{
		{"inverse lut1d", invLut, "InverseLUT1D"},
		{"inverse lut3d", inv3D, "InverseLUT3D"},
		{"matrix alpha", alphaMatrix, "Matrix"},
		{"gamma alpha", alphaGamma, "Gamma"},
		{"exposure contrast", ops.NewExposureContrast(ops.ECLinear), "ExposureContrast"},
		{"fixed function", ops.NewFixedFunction(ops.FFRGBToHSV), "FixedFunction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Write(&buf, transformOf(tt.op), WriteOptions{CLF: true})
			if err == nil {
				t.Fatal("Write succeeded, want an error")
			}
			want := "Transform uses the " + tt.want + " op which cannot be written as CLF."
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not contain %q", err, want)
			}
		})
	}
}

func TestWriteCLF(t *testing.T) {
	g := ops.NewGamma(ops.GammaBasicFwd)
	g.SetParams(ops.GammaParams{2.2})
	cdl := ops.NewCDL()
	cdl.Style = ops.CDLNoClampFwd

	t.Run("gamma as exponent", func(t *testing.T) {
		out := writeString(t, transformOf(g), WriteOptions{CLF: true})
		for _, want := range []string{`compCLFversion="3"`, `<Exponent `, `<ExponentParams exponent="2.2" />`} {
			if !strings.Contains(out, want) {
				t.Errorf("output does not contain %q:\n%s", want, out)
			}
		}
		back := readString(t, "g.clf", out)
		if diff := cmp.Diff(ops.GammaParams{2.2}, back.Ops[0].(*ops.Gamma).Blue); diff != "" {
			t.Errorf("params mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("clf 2", func(t *testing.T) {
		out := writeString(t, transformOf(ops.NewMatrix(), cdl), WriteOptions{CLF: true})
		for _, want := range []string{`compCLFversion="2"`, `style="FwdNoClamp"`} {
			if !strings.Contains(out, want) {
				t.Errorf("output does not contain %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, `<ProcessList version=`) || strings.Contains(out, `" version=`) {
			t.Errorf("CLF output carries a CTF version:\n%s", out)
		}
		back := readString(t, "m.clf", out)
		if !back.IsCLF || back.CLFVersion != CLFVersion2 {
			t.Errorf("clf = %v, version = %v", back.IsCLF, back.CLFVersion)
		}
	})
}

func TestWriteNoClampRangeAsMatrix(t *testing.T) {
	r := ops.NewRange(0.1, 0.9, 0, 1.2)
	r.Style = ops.RangeNoClamp
	r.ID, r.Name = "Range42", "TestRange"

	for _, clf := range []bool{false, true} {
		out := writeString(t, transformOf(r), WriteOptions{CLF: clf})
		if strings.Contains(out, "<Range") {
			t.Errorf("clf=%v: non-clamping Range written as a Range:\n%s", clf, out)
		}
		if !clf && !strings.Contains(out, `<ProcessList version="1.3"`) {
			t.Errorf("version was raised:\n%s", out)
		}
		if !strings.Contains(out, `<Matrix id="Range42" name="TestRange"`) {
			t.Errorf("clf=%v: matrix lost the op id or name:\n%s", clf, out)
		}

		name := "r.ctf"
		if clf {
			name = "r.clf"
		}
		m := readString(t, name, out).Ops[0].(*ops.Matrix)
		approx := cmpopts.EquateApprox(0, 1e-12)
		want := [16]float64{1.5, 0, 0, 0, 0, 1.5, 0, 0, 0, 0, 1.5, 0, 0, 0, 0, 1}
		if diff := cmp.Diff(want, m.Values, approx); diff != "" {
			t.Errorf("clf=%v: values (-want +got):\n%s", clf, diff)
		}
		if diff := cmp.Diff([4]float64{-0.15, -0.15, -0.15, 0}, m.Offsets, approx); diff != "" {
			t.Errorf("clf=%v: offsets (-want +got):\n%s", clf, diff)
		}
	}
}

func TestWriteRejectsReferences(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, transformOf(ops.NewPathReference("b.ctf", ops.Forward)), WriteOptions{})
	if err == nil || !strings.Contains(err.Error(), "Reference ops should have been replaced by their content.") {
		t.Errorf("error = %v", err)
	}
	if errors.KindOf(err) != errors.KindInternal {
		t.Errorf("kind = %v, want internal", errors.KindOf(err))
	}
}

func TestWriteVersionOverride(t *testing.T) {
	var buf bytes.Buffer
	tr := transformOf(ops.NewLog(ops.LogLog10))
	if err := Write(&buf, tr, WriteOptions{Version: Version1_8}); err == nil {
		t.Error("writing a Log as 1.8 should fail")
	}
	out := writeString(t, transformOf(ops.NewMatrix()), WriteOptions{Version: Version1_8})
	if !strings.Contains(out, `version="1.8"`) {
		t.Errorf("override ignored:\n%s", out)
	}
}

func TestWriteGeneratesStableID(t *testing.T) {
	tr := &Transform{Ops: []ops.Op{ops.NewMatrix()}}
	first := readString(t, "a.ctf", writeString(t, tr, WriteOptions{}))
	second := readString(t, "b.ctf", writeString(t, tr, WriteOptions{}))
	if len(first.ID) != 32 || first.ID != second.ID {
		t.Errorf("ids = %q, %q", first.ID, second.ID)
	}
}

func TestWriteChainsBitDepths(t *testing.T) {
	m := ops.NewMatrix()
	m.FileInBitDepth, m.FileOutBitDepth = bitdepth.UInt10, bitdepth.UInt12
	l := ops.NewLut1D(3)
	l.Components = 1
	l.FileInBitDepth, l.FileOutBitDepth = bitdepth.F32, bitdepth.UInt16

	out := writeString(t, transformOf(m, l), WriteOptions{})
	for _, want := range []string{
		`<Matrix inBitDepth="10i" outBitDepth="12i">`,
		`<LUT1D inBitDepth="12i" outBitDepth="16i">`,
		`<Array dim="3 1">`,
		"65535\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}

	back := readString(t, "chain.ctf", out)
	scaled := back.Ops[0].(*ops.Matrix)
	if diff := cmp.Diff(ops.NewMatrix().Values, scaled.Values, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("matrix mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteInfoMetadata(t *testing.T) {
	info := metadata.New(tagInfo)
	info.Value = "Preserved"
	info.AddAttribute("version", "1.0")
	info.AddChild("Copyright", "2024")
	tr := transformOf(ops.NewMatrix())
	tr.Info = info

	out := writeString(t, tr, WriteOptions{})
	back := readString(t, "info.ctf", out)
	if back.Info == nil || back.Info.Value != "Preserved" || back.Info.AttributeValue("version") != "1.0" {
		t.Fatalf("info = %+v\n%s", back.Info, out)
	}
	if diff := cmp.Diff([]string{"2024"}, back.Info.ChildValues("Copyright")); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := ops.NewMatrix3([9]float64{0.5, 0.25, 0.25, 0.1, 0.8, 0.1, 0, 0, 1}, [3]float64{0.01, 0.02, 0.03})
	m.ID, m.Name = "m1", "matrix"
	m.AddDescription("first op")

	r := ops.NewRange(0.1, 0.9, 0, 1)

	l1 := ops.NewLut1D(4)
	l1.Interpolation = ops.InterpLinear
	l1.Values[1] = 0.2

	l3 := ops.NewLut3D(3)
	l3.Interpolation = ops.InterpTetrahedral
	l3.Values[4] = 0.4

	cdl := ops.NewCDL()
	cdl.Slope = [3]float64{1.1, 1.2, 1.3}
	cdl.Offset = [3]float64{-0.1, 0, 0.1}
	cdl.Power = [3]float64{0.9, 1, 1.1}
	cdl.Saturation = 0.7

	g := ops.NewGamma(ops.GammaMonCurveFwd)
	g.Red = ops.GammaParams{2.4, 0.055}
	g.Green = ops.GammaParams{2.2, 0.05}
	g.Blue = ops.GammaParams{2.0, 0.04}

	lg := ops.NewLog(ops.LogCameraLinToLog)
	lg.LogBase = 10
	lg.Red.LinSideBreak = 0.01
	lg.Green.LinSideBreak = 0.02
	lg.Blue.LinSideBreak = 0.03
	lg.Blue.LinearSlope = 1.5

	ff := ops.NewFixedFunction(ops.FFRec2100SurroundFwd, 0.78)

	ec := ops.NewExposureContrast(ops.ECVideo)
	ec.Exposure = 0.5
	ec.Contrast = 1.2
	ec.Dynamic[ops.ECContrast] = true

	want := []ops.Op{m, r, l1, l3, cdl, g, lg, ff, ec}
	tr := &Transform{ID: "round", Name: "trip", Descriptions: []string{"all operators"}, Ops: want}

	out := writeString(t, tr, WriteOptions{})
	if !strings.Contains(out, `version="2"`) {
		t.Errorf("unexpected version:\n%s", out)
	}
	back := readString(t, "round.ctf", out)

	if back.ID != "round" || back.Name != "trip" {
		t.Errorf("header = %q %q", back.ID, back.Name)
	}
	opts := []cmp.Option{
		cmpopts.IgnoreFields(ops.Base{}, "Metadata", "FileInBitDepth", "FileOutBitDepth"),
		cmpopts.EquateApprox(0, 1e-6),
		cmpopts.EquateNaNs(),
	}
	if diff := cmp.Diff(want, back.Ops, opts...); diff != "" {
		t.Errorf("operators mismatch (-want +got):\n%s\n%s", diff, out)
	}
	if diff := cmp.Diff([]string{"first op"}, back.Ops[0].Common().Descriptions()); diff != "" {
		t.Errorf("op descriptions mismatch (-want +got):\n%s", diff)
	}
}
