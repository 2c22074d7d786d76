package ops

import "strings"

// ECStyle selects the exposure/contrast equations.
type ECStyle int

const (
	ECLinear ECStyle = iota
	ECLinearRev
	ECVideo
	ECVideoRev
	ECLog
	ECLogRev
)

var ecStyles = []struct {
	style   ECStyle
	name    string
	inverse ECStyle
}{
	{ECLinear, "linear", ECLinearRev},
	{ECLinearRev, "linearRev", ECLinear},
	{ECVideo, "video", ECVideoRev},
	{ECVideoRev, "videoRev", ECVideo},
	{ECLog, "log", ECLogRev},
	{ECLogRev, "logRev", ECLog},
}

// String returns the CTF style token.
func (s ECStyle) String() string {
	for _, e := range ecStyles {
		if e.style == s {
			return e.name
		}
	}
	return ""
}

// ParseECStyle converts a style token, case-insensitively.
func ParseECStyle(s string) (ECStyle, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ECLinear, semantic("Missing exposure contrast style.")
	}
	for _, e := range ecStyles {
		if strings.EqualFold(e.name, s) {
			return e.style, nil
		}
	}
	return ECLinear, semantic("Unknown exposure contrast style: '%s'.", s)
}

// Default parameters of an ExposureContrast operator.
const (
	DefaultECPivot           = 0.18
	DefaultECLogExposureStep = 0.088
	DefaultECLogMidGray      = 0.435
)

// ECParam names a parameter that may be made dynamic.
type ECParam int

const (
	ECExposure ECParam = iota
	ECContrast
	ECGamma
)

// String returns the DynamicParameter token.
func (p ECParam) String() string {
	switch p {
	case ECExposure:
		return "EXPOSURE"
	case ECContrast:
		return "CONTRAST"
	case ECGamma:
		return "GAMMA"
	}
	return ""
}

// ParseECParam converts a DynamicParameter token.
func ParseECParam(s string) (ECParam, error) {
	for _, p := range []ECParam{ECExposure, ECContrast, ECGamma} {
		if strings.EqualFold(p.String(), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return ECExposure, semantic("Unknown dynamic parameter '%s'.", s)
}

// ExposureContrast adjusts exposure, contrast and gamma around a pivot.
type ExposureContrast struct {
	Base
	Style           ECStyle
	Exposure        float64
	Contrast        float64
	Gamma           float64
	Pivot           float64
	LogExposureStep float64
	LogMidGray      float64
	// Dynamic marks parameters a host may change after loading.
	Dynamic [3]bool
}

// NewExposureContrast returns an identity operator of the given style.
func NewExposureContrast(style ECStyle) *ExposureContrast {
	return &ExposureContrast{
		Style:           style,
		Contrast:        1,
		Gamma:           1,
		Pivot:           DefaultECPivot,
		LogExposureStep: DefaultECLogExposureStep,
		LogMidGray:      DefaultECLogMidGray,
	}
}

func (e *ExposureContrast) Type() Type { return TypeExposureContrast }

// IsDynamic reports whether any parameter is dynamic.
func (e *ExposureContrast) IsDynamic() bool {
	return e.Dynamic[ECExposure] || e.Dynamic[ECContrast] || e.Dynamic[ECGamma]
}

// IsLogStyle reports whether the log-only parameters apply.
func (e *ExposureContrast) IsLogStyle() bool {
	return e.Style == ECLog || e.Style == ECLogRev
}

func (e *ExposureContrast) Validate() error {
	if e.Pivot < 0 {
		return semantic("ExposureContrast: pivot must be non-negative, found %g.", e.Pivot)
	}
	if e.IsLogStyle() && e.LogExposureStep <= 0 {
		return semantic("ExposureContrast: logExposureStep must be positive, found %g.", e.LogExposureStep)
	}
	return nil
}

func (e *ExposureContrast) IsIdentity() bool {
	return !e.IsDynamic() && e.Exposure == 0 && e.Contrast == 1 && e.Gamma == 1
}

func (e *ExposureContrast) HasChannelCrosstalk() bool { return false }

func (e *ExposureContrast) Clone() Op {
	cp := *e
	cp.Base = e.Base.clone()
	return &cp
}

// Inverse switches the style to its counterpart.
func (e *ExposureContrast) Inverse() (Op, error) {
	cp := e.Clone().(*ExposureContrast)
	cp.Base = e.Base.inverted()
	for _, s := range ecStyles {
		if s.style == e.Style {
			cp.Style = s.inverse
		}
	}
	return cp, nil
}
