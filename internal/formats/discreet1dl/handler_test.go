package discreet1dl

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	apperrors "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
)

func read(t *testing.T, name, content string) (*File, error) {
	t.Helper()
	cf, err := (&Handler{}).Read(strings.NewReader(content), name, ops.InterpDefault)
	if err != nil {
		return nil, err
	}
	return cf.(*File), nil
}

// table writes n entries of f(i), one per line.
func table(n int, f func(i int) int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d\n", f(i))
	}
	return b.String()
}

func TestDepthFromFileName(t *testing.T) {
	tests := []struct {
		path string
		want bitdepth.BitDepth
	}{
		{"/luts/lin_to8.lut", bitdepth.UInt8},
		{"log_to10.lut", bitdepth.UInt10},
		{"LOG_TO12.LUT", bitdepth.UInt12},
		{"a_to16.lut", bitdepth.UInt16},
		{"a_to16f.lut", bitdepth.F16},
		{"a_to32F.lut", bitdepth.F32},
		{"a_to32.lut", bitdepth.Unknown},
		{"gamma.lut", bitdepth.Unknown},
		// Only the base name is searched.
		{"/tmp/to8/gamma.lut", bitdepth.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DepthFromFileName(tt.path); got != tt.want {
				t.Errorf("depth = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReadLegacy(t *testing.T) {
	f, err := read(t, "legacy.lut", "# no header\n"+table(256, func(i int) int { return 255 - i }))
	if err != nil {
		t.Fatal(err)
	}
	if f.Tables != 1 || f.Lut.Length() != 256 || f.Lut.Components != 1 {
		t.Fatalf("tables %d length %d components %d", f.Tables, f.Lut.Length(), f.Lut.Components)
	}
	if f.Lut.FileInBitDepth != bitdepth.UInt8 || f.Lut.FileOutBitDepth != bitdepth.UInt8 {
		t.Errorf("depths %s -> %s", f.Lut.FileInBitDepth, f.Lut.FileOutBitDepth)
	}
	if diff := cmp.Diff([]float32{1, 1, 1}, f.Lut.Values[:3]); diff != "" {
		t.Errorf("first entry (-want +got):\n%s", diff)
	}
}

func TestReadThreeTables(t *testing.T) {
	content := "LUT: 3 1024\n" +
		table(1024, func(i int) int { return i }) +
		table(1024, func(i int) int { return i / 2 }) +
		table(1024, func(i int) int { return 0 })
	f, err := read(t, "rgb.lut", content)
	if err != nil {
		t.Fatal(err)
	}
	if f.Lut.FileOutBitDepth != bitdepth.UInt10 || f.Lut.Components != 3 {
		t.Fatalf("depth %s components %d", f.Lut.FileOutBitDepth, f.Lut.Components)
	}
	last := f.Lut.Values[len(f.Lut.Values)-3:]
	if diff := cmp.Diff([]float32{1, float32(511.0 / 1023.0), 0}, last); diff != "" {
		t.Errorf("last entry (-want +got):\n%s", diff)
	}
}

func TestReadTargetDepth(t *testing.T) {
	body := table(1024, func(i int) int { return i * 4 })
	tests := []struct {
		name    string
		file    string
		header  string
		want    bitdepth.BitDepth
		lastVal float32
	}{
		{"header", "plain.lut", "LUT: 1 1024 4096", bitdepth.UInt12, float32(4092.0 / 4095.0)},
		{"filename", "log_to12.lut", "LUT: 1 1024", bitdepth.UInt12, float32(4092.0 / 4095.0)},
		{"header beats filename", "log_to8.lut", "LUT: 1 1024 65536", bitdepth.UInt16, float32(4092.0 / 65535.0)},
		{"table size", "plain.lut", "LUT: 1 1024", bitdepth.UInt10, float32(4092.0 / 1023.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := read(t, tt.file, tt.header+"\n"+body)
			if err != nil {
				t.Fatal(err)
			}
			if f.Lut.FileOutBitDepth != tt.want {
				t.Errorf("depth = %s, want %s", f.Lut.FileOutBitDepth, tt.want)
			}
			if got := f.Lut.Values[len(f.Lut.Values)-1]; got != tt.lastVal {
				t.Errorf("last value = %v, want %v", got, tt.lastVal)
			}
		})
	}
}

func TestReadInferredDepth(t *testing.T) {
	f, err := read(t, "odd.lut", "LUT: 1 100\n"+table(100, func(i int) int { return i * 40 }))
	if err != nil {
		t.Fatal(err)
	}
	if f.Lut.FileOutBitDepth != bitdepth.UInt12 || f.Lut.FileInBitDepth != bitdepth.Unknown {
		t.Errorf("depths %s -> %s", f.Lut.FileInBitDepth, f.Lut.FileOutBitDepth)
	}

	_, err = read(t, "odd.lut", "LUT: 1 10\n"+table(10, func(i int) int { return i }))
	if err == nil || !strings.Contains(err.Error(), "Cannot determine the output bit depth") {
		t.Errorf("err = %v", err)
	}
}

func TestReadHalf(t *testing.T) {
	// 0x3C00 is 1.0 and 0x3800 is 0.5 as half floats.
	content := "LUT: 1 65536 65536f\n" + table(65536, func(i int) int {
		if i%2 == 0 {
			return 0x3800
		}
		return 0x3C00
	})
	f, err := read(t, "half.lut", content)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Lut.HalfDomain || !f.Lut.RawHalfs || f.Lut.FileOutBitDepth != bitdepth.F16 {
		t.Fatalf("halfDomain %v rawHalfs %v depth %s", f.Lut.HalfDomain, f.Lut.RawHalfs, f.Lut.FileOutBitDepth)
	}
	if diff := cmp.Diff([]float32{0.5, 0.5, 0.5, 1, 1, 1}, f.Lut.Values[:6]); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
	if err := f.Lut.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    int
		echo    string
	}{
		{"two tables", "LUT: 2 256\n", 1, "LUT: 2 256"},
		{"zero length", "LUT: 1 0\n", 1, "LUT: 1 0"},
		{"bad keyword", "TABLE: 1 256\n", 1, "TABLE: 1 256"},
		{"bad depth", "LUT: 1 256 300\n", 1, "LUT: 1 256 300"},
		{"bad entry", "# c\nLUT: 1 4\n0\nx\n", 4, "x"},
		{"trailing data", "LUT: 1 2\n0\n255\n17\n", 4, "17"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := read(t, "x.lut", tt.content)
			var fe *apperrors.FormatError
			if !apperrors.As(err, &fe) {
				t.Fatalf("err = %v, want a FormatError", err)
			}
			if fe.Kind != apperrors.KindSyntax || fe.Line != tt.line || fe.Content != tt.echo {
				t.Errorf("kind %s line %d content %q, want syntax line %d content %q",
					fe.Kind, fe.Line, fe.Content, tt.line, tt.echo)
			}
			if !strings.Contains(err.Error(), fmt.Sprintf("At line (%d): '%s'.", tt.line, tt.echo)) {
				t.Errorf("message = %q", err.Error())
			}
		})
	}

	_, err := read(t, "x.lut", "LUT: 3 4\n0\n1\n")
	if err == nil || !strings.Contains(err.Error(), "Premature EOF") {
		t.Errorf("short file err = %v", err)
	}
}

func TestBuildOps(t *testing.T) {
	f, err := read(t, "legacy.lut", table(256, func(i int) int { return i }))
	if err != nil {
		t.Fatal(err)
	}
	list, err := (&Handler{}).BuildOps(f, processor.File{Interp: ops.InterpNearest}, ops.Inverse)
	if err != nil {
		t.Fatal(err)
	}
	lut := list[0].(*ops.Lut1D)
	if !lut.IsInverse() || lut.Interpolation != ops.InterpNearest {
		t.Errorf("direction %s interpolation %s", lut.Direction, lut.Interpolation)
	}
	if f.Lut.IsInverse() || f.Lut.Interpolation != ops.InterpLinear {
		t.Error("BuildOps modified the cached LUT")
	}
}
