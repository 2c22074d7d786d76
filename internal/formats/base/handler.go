// Package base provides common functionality for the text LUT format
// handlers: a line tokenizer, error builders carrying the file context,
// numeric field parsing and the direction handling shared by BuildOps.
package base

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	apperrors "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/logging"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/validation"
)

// Line is one line of a text LUT file.
type Line struct {
	Num    int    // 1-based line number
	Text   string // line without surrounding whitespace
	Fields []string
}

// IsBlank reports whether the line has no tokens.
func (l Line) IsBlank() bool { return len(l.Fields) == 0 }

// IsComment reports whether the line starts with '#'.
func (l Line) IsComment() bool { return strings.HasPrefix(l.Text, "#") }

// ReadLines reads r to the end and splits it into lines. Carriage returns
// are dropped and runs of spaces and tabs collapse into field separators.
func ReadLines(r io.Reader) ([]Line, error) {
	data, err := validation.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return SplitLines(data), nil
}

// SplitLines is ReadLines over data already in memory.
func SplitLines(data []byte) []Line {
	raw := bytes.Split(data, []byte{'\n'})
	if n := len(raw); n > 0 && len(raw[n-1]) == 0 {
		raw = raw[:n-1]
	}
	lines := make([]Line, 0, len(raw))
	for i, b := range raw {
		text := strings.TrimSpace(strings.ReplaceAll(string(b), "\r", ""))
		lines = append(lines, Line{Num: i + 1, Text: text, Fields: strings.Fields(text)})
	}
	return lines
}

// Reporter builds errors located in one file.
type Reporter struct {
	Format string // display name, e.g. "Resolve .cube"
	Path   string
}

// Syntax returns a syntax error at l, echoing its content.
func (r Reporter) Syntax(l Line, format string, args ...any) error {
	return apperrors.NewSyntax(r.Format, r.Path, l.Num, l.Text, fmt.Sprintf(format, args...))
}

// Semantic returns a semantic error for the file.
func (r Reporter) Semantic(format string, args ...any) error {
	return apperrors.NewSemantic(r.Format, r.Path, fmt.Sprintf(format, args...))
}

// Invalid returns an error telling the caller the file is not this format.
func (r Reporter) Invalid(format string, args ...any) error {
	return apperrors.NewInvalidFormat(r.Format, r.Path, fmt.Sprintf(format, args...))
}

// ParseFloats parses every field as a float. ok is false when any field is
// not a number.
func ParseFloats(fields []string) (vals []float64, ok bool) {
	vals = make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		vals[i] = v
	}
	return vals, true
}

// ParseInts parses every field as a base-10 integer.
func ParseInts(fields []string) (vals []int, ok bool) {
	vals = make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, false
		}
		vals[i] = v
	}
	return vals, true
}

// WarnIfUnused logs that none of a file's LUTs accepted the requested
// interpolation.
func WarnIfUnused(format, path string, interp ops.Interpolation, used bool) {
	if !used {
		logging.InterpolationIgnored(format, path, interp.String())
	}
}

// Direct returns list as is for the forward direction, and reversed with
// every operator inverted for the inverse one. list is in forward order.
func Direct(list []ops.Op, dir ops.Direction) ([]ops.Op, error) {
	if dir == ops.Inverse {
		return ops.Reverse(list)
	}
	return list, nil
}

// DomainRange returns the clamping Range that brings [lo, hi] onto the 0..1
// domain a LUT is indexed with.
func DomainRange(lo, hi float64) *ops.Range {
	rng := ops.NewRange(lo, hi, 0, 1)
	rng.FileInBitDepth, rng.FileOutBitDepth = bitdepth.F32, bitdepth.F32
	return rng
}

// UnknownFormatName is the error bakers return for a name they do not
// write.
func UnknownFormatName(kind, name string) error {
	return apperrors.NewSemanticf("Unknown %s format name, '%s'.", kind, name)
}

// NotBakeable is the error read-only formats return from Bake.
func NotBakeable(kind string) error {
	return apperrors.NewSemanticf("Format %s does not support baking.", kind)
}

// InvalidCache is the error BuildOps returns when handed another format's
// cached file.
func InvalidCache(kind string) error {
	return apperrors.NewInternal(fmt.Sprintf("Cannot build %s Op. Invalid cache type.", kind))
}
