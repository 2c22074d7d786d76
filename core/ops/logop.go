package ops

import (
	"math"
	"strings"
)

// LogStyle selects the logarithmic equation.
type LogStyle int

const (
	LogLog2 LogStyle = iota
	LogLog10
	LogAntiLog2
	LogAntiLog10
	LogLinToLog
	LogLogToLin
	LogCameraLinToLog
	LogCameraLogToLin
)

var logStyles = []struct {
	style   LogStyle
	name    string
	inverse LogStyle
}{
	{LogLog2, "log2", LogAntiLog2},
	{LogLog10, "log10", LogAntiLog10},
	{LogAntiLog2, "antiLog2", LogLog2},
	{LogAntiLog10, "antiLog10", LogLog10},
	{LogLinToLog, "linToLog", LogLogToLin},
	{LogLogToLin, "logToLin", LogLinToLog},
	{LogCameraLinToLog, "cameraLinToLog", LogCameraLogToLin},
	{LogCameraLogToLin, "cameraLogToLin", LogCameraLinToLog},
}

// String returns the CTF style token.
func (s LogStyle) String() string {
	for _, l := range logStyles {
		if l.style == s {
			return l.name
		}
	}
	return ""
}

// ParseLogStyle converts a style token, case-insensitively.
func ParseLogStyle(s string) (LogStyle, error) {
	for _, l := range logStyles {
		if strings.EqualFold(l.name, strings.TrimSpace(s)) {
			return l.style, nil
		}
	}
	return LogLog2, semantic("Required attribute 'style' '%s' is invalid.", s)
}

// IsCamera reports whether the style has a linear segment below a break.
func (s LogStyle) IsCamera() bool {
	return s == LogCameraLinToLog || s == LogCameraLogToLin
}

// UsesParams reports whether the style reads LogParams.
func (s LogStyle) UsesParams() bool {
	return s >= LogLinToLog
}

// LogParams are the per-channel parameters of the lin/log styles. The
// break and linear slope are NaN when unset.
type LogParams struct {
	LogSideSlope  float64
	LogSideOffset float64
	LinSideSlope  float64
	LinSideOffset float64
	LinSideBreak  float64
	LinearSlope   float64
}

// DefaultLogParams returns unit slopes, zero offsets and no break.
func DefaultLogParams() LogParams {
	return LogParams{
		LogSideSlope: 1,
		LinSideSlope: 1,
		LinSideBreak: math.NaN(),
		LinearSlope:  math.NaN(),
	}
}

// HasBreak reports whether LinSideBreak is set.
func (p LogParams) HasBreak() bool { return !math.IsNaN(p.LinSideBreak) }

// HasLinearSlope reports whether LinearSlope is set.
func (p LogParams) HasLinearSlope() bool { return !math.IsNaN(p.LinearSlope) }

func (p LogParams) equal(o LogParams) bool {
	eq := func(a, b float64) bool { return a == b || (math.IsNaN(a) && math.IsNaN(b)) }
	return eq(p.LogSideSlope, o.LogSideSlope) && eq(p.LogSideOffset, o.LogSideOffset) &&
		eq(p.LinSideSlope, o.LinSideSlope) && eq(p.LinSideOffset, o.LinSideOffset) &&
		eq(p.LinSideBreak, o.LinSideBreak) && eq(p.LinearSlope, o.LinearSlope)
}

// Log is a logarithmic or anti-logarithmic function.
type Log struct {
	Base
	Style            LogStyle
	LogBase          float64
	Red, Green, Blue LogParams
}

// NewLog returns a Log of the given style with default parameters.
func NewLog(style LogStyle) *Log {
	l := &Log{Style: style, LogBase: 2}
	if style == LogLog10 || style == LogAntiLog10 {
		l.LogBase = 10
	}
	l.Red, l.Green, l.Blue = DefaultLogParams(), DefaultLogParams(), DefaultLogParams()
	return l
}

func (l *Log) Type() Type { return TypeLog }

// AllComponentsEqual reports whether the three channels share parameters.
func (l *Log) AllComponentsEqual() bool {
	return l.Red.equal(l.Green) && l.Red.equal(l.Blue)
}

func (l *Log) Validate() error {
	if l.LogBase <= 0 {
		return semantic("Log: Invalid base value '%g', base must be greater than 0.", l.LogBase)
	}
	if l.LogBase == 1 {
		return semantic("Log: Invalid base value '%g', base cannot be 1.", l.LogBase)
	}
	for _, p := range []LogParams{l.Red, l.Green, l.Blue} {
		if p.LinSideSlope == 0 {
			return semantic("Log: Invalid linear side slope value '%g', linear side slope cannot be 0.", p.LinSideSlope)
		}
		if p.LogSideSlope == 0 {
			return semantic("Log: Invalid log side slope value '%g', log side slope cannot be 0.", p.LogSideSlope)
		}
		if l.Style.IsCamera() && !p.HasBreak() {
			return semantic("Log: Parameter 'linSideBreak' should be defined for style '%s'.", l.Style)
		}
		if !l.Style.IsCamera() && p.HasBreak() {
			return semantic("Log: Parameter 'linSideBreak' is only allowed for camera styles, found '%s'.", l.Style)
		}
		if p.HasLinearSlope() && !p.HasBreak() {
			return semantic("Log: LinSideBreak has to be defined before linearSlope")
		}
	}
	return nil
}

// IsIdentity is always false; no log curve is an identity.
func (l *Log) IsIdentity() bool { return false }

func (l *Log) HasChannelCrosstalk() bool { return false }

func (l *Log) Clone() Op {
	cp := *l
	cp.Base = l.Base.clone()
	return &cp
}

// Inverse switches the style to its counterpart.
func (l *Log) Inverse() (Op, error) {
	cp := l.Clone().(*Log)
	cp.Base = l.Base.inverted()
	for _, s := range logStyles {
		if s.style == l.Style {
			cp.Style = s.inverse
		}
	}
	return cp, nil
}

// Legacy CTF Log elements (before 2.0) describe the lin/log curves with
// Cineon-style parameters. CineonParams converts them for one channel.
type CineonParams struct {
	Gamma, RefWhite, RefBlack, Highlight, Shadow float64
}

// Validate checks the Cineon parameters.
func (c CineonParams) Validate() error {
	if !(c.Gamma > 0.01) {
		return semantic("Log: Invalid gamma value '%g', gamma should be greater than 0.01.", c.Gamma)
	}
	if !(c.RefWhite > c.RefBlack) {
		return semantic("Log: Invalid refWhite '%g' and refBlack '%g', refWhite should be greater than refBlack.", c.RefWhite, c.RefBlack)
	}
	if !(c.Highlight > c.Shadow) {
		return semantic("Log: Invalid highlight '%g' and shadow '%g', highlight should be greater than shadow.", c.Highlight, c.Shadow)
	}
	return nil
}

// LogParams returns the equivalent base-10 parameters.
func (c CineonParams) LogParams() LogParams {
	const rng = 0.002 * 1023.0
	refWhite := c.RefWhite / 1023.0
	refBlack := c.RefBlack / 1023.0
	mult := rng / c.Gamma

	tmp := math.Min((refBlack-refWhite)*mult, -0.0001)
	gain := (c.Highlight - c.Shadow) / (1 - math.Pow(10, tmp))
	offset := gain - (c.Highlight - c.Shadow)

	p := DefaultLogParams()
	p.LogSideSlope = 1 / mult
	p.LinSideSlope = 1 / gain
	p.LinSideOffset = (offset - c.Shadow) / gain
	p.LogSideOffset = refWhite
	return p
}
