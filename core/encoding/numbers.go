package encoding

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func isNumberDelimiter(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v', ',':
		return true
	}
	return false
}

// SplitNumbers splits s on whitespace and commas. Empty fields are dropped.
func SplitNumbers(s string) []string {
	return strings.FieldsFunc(s, isNumberDelimiter)
}

// ParseNumber parses a single float token. Besides the usual decimal and
// exponent notations it accepts inf, infinity and nan in any case with an
// optional sign, and hexadecimal integers such as 0x42.
func ParseNumber(tok string) (float64, error) {
	switch strings.ToLower(strings.TrimLeft(tok, "+-")) {
	case "inf", "infinity":
		if strings.HasPrefix(tok, "-") {
			return math.Inf(-1), nil
		}
		return math.Inf(1), nil
	case "nan":
		return math.NaN(), nil
	}
	if v, err := strconv.ParseFloat(tok, 64); err == nil {
		return v, nil
	} else if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return v, nil
	}
	if i, err := strconv.ParseInt(tok, 0, 64); err == nil {
		return float64(i), nil
	}
	if prefix, ok := numericPrefix(tok); ok {
		return 0, fmt.Errorf("'%s' number is followed by characters '%s'", prefix, tok[len(prefix):])
	}
	return 0, fmt.Errorf("'%s' is not a number", tok)
}

// numericPrefix returns the longest leading part of tok that is a number.
func numericPrefix(tok string) (string, bool) {
	for end := len(tok) - 1; end > 0; end-- {
		if _, err := strconv.ParseFloat(tok[:end], 64); err == nil {
			return tok[:end], true
		}
	}
	return "", false
}

// ParseNumbers parses every number of s. Numbers are separated by
// whitespace or commas; leading and trailing separators are allowed.
func ParseNumbers(s string) ([]float64, error) {
	fields := SplitNumbers(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := ParseNumber(f)
		if err != nil {
			return nil, fmt.Errorf("Illegal values '%s': %w", strings.TrimSpace(s), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseSingleNumber parses s, which must hold exactly one number.
func ParseSingleNumber(s string) (float64, error) {
	fields := SplitNumbers(s)
	if len(fields) != 1 {
		return 0, fmt.Errorf("Illegal value '%s': expecting a single number", strings.TrimSpace(s))
	}
	return ParseNumber(fields[0])
}

// FormatNumber formats v like C's %.<precision>g, which is the notation
// used for values written to XML attributes.
func FormatNumber(v float64, precision int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', precision, 64)
}
