package bitdepth

import (
	"errors"
	"math"
	"testing"
)

func TestMaxValue(t *testing.T) {
	tests := []struct {
		bd   BitDepth
		want float64
	}{
		{UInt8, 255},
		{UInt10, 1023},
		{UInt12, 4095},
		{UInt16, 65535},
		{F16, 1},
		{F32, 1},
	}
	for _, tt := range tests {
		t.Run(tt.bd.String(), func(t *testing.T) {
			if got := MaxValue(tt.bd); got != tt.want {
				t.Errorf("MaxValue(%v) = %v, want %v", tt.bd, got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, bd := range []BitDepth{UInt8, UInt10, UInt12, UInt16, F16, F32} {
		got, err := Parse(bd.String())
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", bd.String(), err)
		}
		if got != bd {
			t.Errorf("Parse(%q) = %v, want %v", bd.String(), got, bd)
		}
	}

	if got, err := Parse("10I"); err != nil || got != UInt10 {
		t.Errorf("Parse(10I) = %v, %v", got, err)
	}
	if _, err := Parse("14i"); err == nil {
		t.Error("Parse(14i) should fail")
	}
}

func TestClampNormToInt(t *testing.T) {
	tests := []struct {
		v, scale float64
		want     int
	}{
		{0.5, 1023, 512},
		{-0.2, 1023, 0},
		{1.7, 4095, 4095},
		{0.25, 4095, 1024},
		{1.0 / 3.0, 255, 85},
	}
	for _, tt := range tests {
		if got := ClampNormToInt(tt.v, tt.scale); got != tt.want {
			t.Errorf("ClampNormToInt(%v, %v) = %d, want %d", tt.v, tt.scale, got, tt.want)
		}
	}
}

func TestInferBitDepth(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		want    BitDepth
		wantErr bool
	}{
		{"too low", 60, Unknown, true},
		{"floor", 128, UInt8, false},
		{"8-bit overshoot", 511, UInt8, false},
		{"10-bit", 1023, UInt10, false},
		{"10-bit overshoot", 2047, UInt10, false},
		{"12-bit", 3800, UInt12, false},
		{"14-bit range promoted", 16383, UInt16, false},
		{"16-bit", 60000, UInt16, false},
		{"beyond 16-bit", 200000, UInt16, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InferBitDepth(tt.max)
			if tt.wantErr {
				if !errors.Is(err, ErrNotInteger) {
					t.Errorf("InferBitDepth(%d) error = %v, want ErrNotInteger", tt.max, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("InferBitDepth(%d) error: %v", tt.max, err)
			}
			if got != tt.want {
				t.Errorf("InferBitDepth(%d) = %v, want %v", tt.max, got, tt.want)
			}
		})
	}
}

func TestCubeEdgeLength(t *testing.T) {
	if edge, err := CubeEdgeLength(4913); err != nil || edge != 17 {
		t.Errorf("CubeEdgeLength(4913) = %d, %v", edge, err)
	}
	if _, err := CubeEdgeLength(4); err == nil {
		t.Error("CubeEdgeLength(4) should fail")
	}
}

func TestHalf(t *testing.T) {
	tests := []struct {
		bits uint16
		want float32
	}{
		{0x0000, 0},
		{0x3c00, 1},
		{0x3800, 0.5},
		{0xc000, -2},
		{0x7bff, 65504},
	}
	for _, tt := range tests {
		if got := HalfBitsToFloat32(tt.bits); got != tt.want {
			t.Errorf("HalfBitsToFloat32(%#04x) = %v, want %v", tt.bits, got, tt.want)
		}
		if got := Float32ToHalfBits(tt.want); got != tt.bits {
			t.Errorf("Float32ToHalfBits(%v) = %#04x, want %#04x", tt.want, got, tt.bits)
		}
	}

	if !math.IsInf(float64(HalfBitsToFloat32(0x7c00)), 1) {
		t.Error("0x7c00 should decode to +Inf")
	}
	if got := HalfDomainValue(0x3c00); got != 1 {
		t.Errorf("HalfDomainValue(0x3c00) = %v", got)
	}
}
