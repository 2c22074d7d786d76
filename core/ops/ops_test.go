package ops

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/metadata"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		a, b, want Direction
	}{
		{Forward, Forward, Forward},
		{Forward, Inverse, Inverse},
		{Inverse, Forward, Inverse},
		{Inverse, Inverse, Forward},
	}
	for _, tt := range tests {
		if got := Compose(tt.a, tt.b); got != tt.want {
			t.Errorf("Compose(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseInterpolation(t *testing.T) {
	for _, s := range []string{"linear", "LINEAR", " tetrahedral "} {
		if _, err := ParseInterpolation(s); err != nil {
			t.Errorf("ParseInterpolation(%q) error: %v", s, err)
		}
	}
	if _, err := ParseInterpolation("bicubic"); err == nil {
		t.Error("ParseInterpolation(bicubic) should fail")
	}
}

func TestMatrix(t *testing.T) {
	m := NewMatrix()
	if !m.IsIdentity() || m.HasAlpha() || m.HasOffsets() || m.HasChannelCrosstalk() {
		t.Fatal("NewMatrix should be a plain identity")
	}

	m.Offsets[1] = 0.1
	if m.IsIdentity() || !m.HasOffsets() {
		t.Error("offset should break identity")
	}

	m = NewMatrix()
	m.Set(3, 3, 0.5)
	if !m.HasAlpha() {
		t.Error("alpha scale should be detected")
	}

	m = NewMatrix3([9]float64{2, 0.5, 0, 0, 4, 0, 0, 0, 1}, [3]float64{0.1, 0.2, 0.3})
	if !m.HasChannelCrosstalk() {
		t.Error("off-diagonal value should report crosstalk")
	}
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	im := inv.(*Matrix)
	// m * (im * x + io) + o == x
	x := [4]float64{0.3, 0.6, 0.9, 1}
	var y, z [4]float64
	for r := 0; r < 4; r++ {
		y[r] = im.Offsets[r]
		for c := 0; c < 4; c++ {
			y[r] += im.At(r, c) * x[c]
		}
	}
	for r := 0; r < 4; r++ {
		z[r] = m.Offsets[r]
		for c := 0; c < 4; c++ {
			z[r] += m.At(r, c) * y[c]
		}
	}
	for i := range x {
		if math.Abs(z[i]-x[i]) > 1e-12 {
			t.Errorf("round trip channel %d = %v, want %v", i, z[i], x[i])
		}
	}

	singular := NewMatrix3([9]float64{1, 1, 0, 1, 1, 0, 0, 0, 1}, [3]float64{})
	if _, err := singular.Inverse(); err == nil {
		t.Error("singular matrix inverse should fail")
	}
}

func TestMatrixScaled(t *testing.T) {
	m := NewMatrix()
	m.Offsets[0] = 0.5
	values, offsets := m.Scaled(bitdepth.MaxValue(bitdepth.UInt10), bitdepth.MaxValue(bitdepth.UInt8))
	if got, want := values[0], 255.0/1023.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("scaled diagonal = %v, want %v", got, want)
	}
	if offsets[0] != 127.5 {
		t.Errorf("scaled offset = %v, want 127.5", offsets[0])
	}

	back := &Matrix{}
	back.SetScaled(values, offsets, 1023, 255)
	if diff := cmp.Diff(m.Values, back.Values, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("SetScaled mismatch (-want +got):\n%s", diff)
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		name    string
		r       *Range
		wantErr string
	}{
		{"clamp min only", NewRange(0, EmptyLimit, 0, EmptyLimit), ""},
		{"unbalanced min", NewRange(0, EmptyLimit, EmptyLimit, EmptyLimit), "minimum limits must be both set"},
		{"unbalanced max", NewRange(EmptyLimit, 1, EmptyLimit, EmptyLimit), "maximum limits must be both set"},
		{"inverted in", NewRange(1, 0, 0, 1), "maximum input value is less than minimum"},
		{"noClamp partial", &Range{MinIn: 0, MaxIn: EmptyLimit, MinOut: 0, MaxOut: EmptyLimit, Style: RangeNoClamp}, "Non-clamping Range min & max values have to be set"},
		{"noClamp full", &Range{MinIn: 0, MaxIn: 1, MinOut: 0.1, MaxOut: 0.9, Style: RangeNoClamp}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}

	r := &Range{MinIn: 0.1, MaxIn: 0.9, MinOut: 0, MaxOut: 1, Style: RangeNoClamp}
	m := r.ToMatrix()
	scale := 1 / 0.8
	if math.Abs(m.At(0, 0)-scale) > 1e-12 || math.Abs(m.Offsets[0]+0.1*scale) > 1e-12 {
		t.Errorf("ToMatrix = %v / %v", m.At(0, 0), m.Offsets[0])
	}
	if !NewEmptyRange().IsIdentity() {
		t.Error("empty range should be identity")
	}
	inv, _ := r.Inverse()
	if ir := inv.(*Range); ir.MinIn != 0 || ir.MaxOut != 0.9 {
		t.Errorf("Inverse = %+v", ir)
	}
}

func TestLut1DIdentity(t *testing.T) {
	l := NewLut1D(17)
	l.FileOutBitDepth = bitdepth.UInt10
	if !l.IsIdentity() {
		t.Fatal("ramp should be identity")
	}
	l.Values[5*3+1] += 1.0 / 1023.0
	if l.IsIdentity() {
		t.Error("one code value off should break identity")
	}

	if err := NewHalfDomainLut1D().Validate(); err != nil {
		t.Errorf("half-domain validate: %v", err)
	}
	bad := NewLut1D(16)
	bad.HalfDomain = true
	if err := bad.Validate(); err == nil || !strings.Contains(err.Error(), "65536") {
		t.Errorf("half-domain size check = %v", err)
	}
}

func TestLut1DLooseIdentity(t *testing.T) {
	const maxCode = 1023.0
	build := func(delta float64) *Lut1D {
		l := NewLut1D(17)
		for i := 0; i < 17; i++ {
			raw := math.Round(float64(i) * maxCode / 16)
			if i == 8 {
				raw += delta
			}
			for c := 0; c < 3; c++ {
				l.Values[i*3+c] = float32(raw / maxCode)
			}
		}
		return l
	}
	if !build(1).IsLooseIdentity(maxCode, 2) {
		t.Error("entry within tolerance should stay identity")
	}
	if build(3).IsLooseIdentity(maxCode, 2) {
		t.Error("entry beyond tolerance should not be identity")
	}
}

func TestLut3DOrdering(t *testing.T) {
	l := NewLut3D(3)
	if !l.IsIdentity() || l.HasChannelCrosstalk() {
		t.Fatal("NewLut3D should be identity")
	}
	redFastest := l.RedFastest()
	// second entry in red-fastest order is (r=1, g=0, b=0)
	if got := redFastest[3:6]; got[0] != 0.5 || got[1] != 0 || got[2] != 0 {
		t.Errorf("red-fastest entry 1 = %v", got)
	}
	back := NewLut3DFromRedFastest(3, redFastest)
	if diff := cmp.Diff(l.Values, back.Values); diff != "" {
		t.Errorf("reorder mismatch (-want +got):\n%s", diff)
	}
	if err := (&Lut3D{GridSize: 2, Values: make([]float32, 5)}).Validate(); err == nil {
		t.Error("short cube should not validate")
	}
}

func TestCDLStyles(t *testing.T) {
	tests := []struct {
		in   string
		want CDLStyle
	}{
		{"v1.2_Fwd", CDLV12Fwd},
		{"Fwd", CDLV12Fwd},
		{"rev", CDLV12Rev},
		{"FwdNoClamp", CDLNoClampFwd},
		{"noClampRev", CDLNoClampRev},
	}
	for _, tt := range tests {
		got, err := ParseCDLStyle(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseCDLStyle(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseCDLStyle("fwd_clamp"); err == nil || err.Error() != "Unknown style for CDL." {
		t.Errorf("unknown style error = %v", err)
	}

	c := NewCDL()
	c.Power[0] = 0
	if err := c.Validate(); err == nil {
		t.Error("zero power should fail validation")
	}
	c = NewCDL()
	c.Saturation = 0.5
	if !c.HasChannelCrosstalk() {
		t.Error("saturation should report crosstalk")
	}
	inv, _ := c.Inverse()
	if inv.(*CDL).Style != CDLV12Rev {
		t.Error("inverse should switch to the reverse style")
	}
}

func TestGamma(t *testing.T) {
	g := NewGamma(GammaMonCurveRev)
	if !g.IsIdentity() || !g.IsAlphaIdentity() {
		t.Fatal("NewGamma should be identity")
	}
	g.SetParams(GammaParams{2.4, 0.055})
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !g.IsNonChannelDependent() {
		t.Error("shared params with identity alpha should be channel independent")
	}
	g.Alpha = GammaParams{1.8, 0.1}
	if g.IsAlphaIdentity() {
		t.Error("alpha should no longer be identity")
	}

	b := NewGamma(GammaBasicFwd)
	b.Red = GammaParams{2.2, 0.1}
	if err := b.Validate(); err == nil {
		t.Error("basic style with offset should fail")
	}

	if _, err := ParseGammaStyle("moncurvefwd"); err != nil {
		t.Errorf("case-insensitive style parse: %v", err)
	}
	inv, _ := g.Inverse()
	if inv.(*Gamma).Style != GammaMonCurveFwd {
		t.Errorf("inverse style = %v", inv.(*Gamma).Style)
	}
}

func TestLog(t *testing.T) {
	l := NewLog(LogCameraLinToLog)
	if err := l.Validate(); err == nil {
		t.Error("camera style without linSideBreak should fail")
	}
	l.Red.LinSideBreak, l.Green.LinSideBreak, l.Blue.LinSideBreak = 0.1, 0.1, 0.1
	if err := l.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if !l.AllComponentsEqual() {
		t.Error("components should be equal")
	}

	p := NewLog(LogLinToLog)
	p.Red.LinSideBreak = 0.2
	if err := p.Validate(); err == nil {
		t.Error("linSideBreak outside camera styles should fail")
	}

	cineon := CineonParams{Gamma: 0.6, RefWhite: 685, RefBlack: 95, Highlight: 1, Shadow: 0}
	if err := cineon.Validate(); err != nil {
		t.Fatalf("cineon Validate: %v", err)
	}
	lp := cineon.LogParams()
	if math.Abs(lp.LogSideOffset-685.0/1023.0) > 1e-12 {
		t.Errorf("LogSideOffset = %v", lp.LogSideOffset)
	}
}

func TestFixedFunction(t *testing.T) {
	s, err := ParseFixedFunctionStyle("Surround")
	if err != nil || s != FFRec2100SurroundFwd {
		t.Fatalf("Surround alias = %v, %v", s, err)
	}
	f := NewFixedFunction(s, 0.78)
	if err := f.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	f.Params = nil
	if err := f.Validate(); err == nil {
		t.Error("missing gamma parameter should fail")
	}
	inv, _ := NewFixedFunction(FFRGBToHSV).Inverse()
	if inv.(*FixedFunction).Style != FFHSVToRGB {
		t.Error("RGB_TO_HSV should invert to HSV_TO_RGB")
	}
}

func TestExposureContrast(t *testing.T) {
	ec := NewExposureContrast(ECVideo)
	if !ec.IsIdentity() {
		t.Fatal("default EC should be identity")
	}
	ec.Dynamic[ECExposure] = true
	if ec.IsIdentity() {
		t.Error("dynamic EC is never identity")
	}
	if _, err := ParseECParam("contrast"); err != nil {
		t.Errorf("ParseECParam: %v", err)
	}
}

func TestReverse(t *testing.T) {
	a := NewLut1D(4)
	a.ID = "a"
	a.FileInBitDepth, a.FileOutBitDepth = bitdepth.UInt10, bitdepth.F32
	b := NewMatrix()
	b.ID = "b"

	out, err := Reverse([]Op{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if out[0].Common().ID != "b" || out[1].Common().ID != "a" {
		t.Fatalf("order = %s, %s", out[0].Common().ID, out[1].Common().ID)
	}
	inv := out[1].(*Lut1D)
	if !inv.IsInverse() || inv.FileInBitDepth != bitdepth.F32 || inv.FileOutBitDepth != bitdepth.UInt10 {
		t.Errorf("inverse lut = %v %v %v", inv.Direction, inv.FileInBitDepth, inv.FileOutBitDepth)
	}
	if a.IsInverse() {
		t.Error("source must not be modified")
	}
}

func TestCloneIsDeep(t *testing.T) {
	l := NewLut1D(4)
	l.Metadata = metadata.New(metadata.Root)
	l.AddDescription("ramp")
	cp := l.Clone().(*Lut1D)
	cp.Values[0] = 9
	cp.AddDescription("more")
	if l.Values[0] == 9 || len(l.Descriptions()) != 1 {
		t.Error("clone shares state with the source")
	}
}

func TestHandleLUT(t *testing.T) {
	lut1 := NewLut1D(8)
	tests := []struct {
		name      string
		requested Interpolation
		wantUsed  bool
		wantClone bool
	}{
		{"default equals linear", InterpDefault, true, false},
		{"linear", InterpLinear, true, false},
		{"best equals linear", InterpBest, true, false},
		{"nearest", InterpNearest, true, true},
		{"tetrahedral invalid", InterpTetrahedral, false, false},
	}
	for _, tt := range tests {
		t.Run("1D "+tt.name, func(t *testing.T) {
			got, used := HandleLUT1D(lut1, tt.requested)
			if used != tt.wantUsed {
				t.Errorf("used = %v, want %v", used, tt.wantUsed)
			}
			if (got != lut1) != tt.wantClone {
				t.Errorf("clone = %v, want %v", got != lut1, tt.wantClone)
			}
		})
	}

	lut3 := NewLut3D(2)
	got, used := HandleLUT3D(lut3, InterpTetrahedral)
	if !used || got == lut3 || got.Interpolation != InterpTetrahedral {
		t.Error("tetrahedral request should clone a default 3D LUT")
	}
	if lut3.Interpolation != InterpDefault {
		t.Error("source LUT must not change")
	}
	if _, used := HandleLUT3D(lut3, InterpCubic); used {
		t.Error("cubic is not valid for a 3D LUT")
	}
}
