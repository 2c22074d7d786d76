package ops

import "strings"

// CDLStyle selects the ASC CDL equations and their clamping behaviour.
type CDLStyle int

const (
	CDLV12Fwd CDLStyle = iota
	CDLV12Rev
	CDLNoClampFwd
	CDLNoClampRev
)

var cdlStyleNames = []struct {
	style    CDLStyle
	ctf, clf string
}{
	{CDLV12Fwd, "v1.2_Fwd", "Fwd"},
	{CDLV12Rev, "v1.2_Rev", "Rev"},
	{CDLNoClampFwd, "noClampFwd", "FwdNoClamp"},
	{CDLNoClampRev, "noClampRev", "RevNoClamp"},
}

// CTFName returns the style token used by CTF documents.
func (s CDLStyle) CTFName() string {
	for _, n := range cdlStyleNames {
		if n.style == s {
			return n.ctf
		}
	}
	return ""
}

// CLFName returns the style token used by CLF documents.
func (s CDLStyle) CLFName() string {
	for _, n := range cdlStyleNames {
		if n.style == s {
			return n.clf
		}
	}
	return ""
}

// String returns the CTF name.
func (s CDLStyle) String() string { return s.CTFName() }

// ParseCDLStyle accepts both the CTF and CLF spellings, case-insensitively.
func ParseCDLStyle(s string) (CDLStyle, error) {
	s = strings.TrimSpace(s)
	for _, n := range cdlStyleNames {
		if strings.EqualFold(s, n.ctf) || strings.EqualFold(s, n.clf) {
			return n.style, nil
		}
	}
	return CDLV12Fwd, semantic("Unknown style for CDL.")
}

// CDL is an ASC color decision: slope, offset, power then saturation.
type CDL struct {
	Base
	Style      CDLStyle
	Slope      [3]float64
	Offset     [3]float64
	Power      [3]float64
	Saturation float64
}

// NewCDL returns an identity CDL in the default style.
func NewCDL() *CDL {
	return &CDL{
		Slope:      [3]float64{1, 1, 1},
		Power:      [3]float64{1, 1, 1},
		Saturation: 1,
	}
}

func (c *CDL) Type() Type { return TypeCDL }

// IsReverse reports whether the style applies the reverse equations.
func (c *CDL) IsReverse() bool {
	return c.Style == CDLV12Rev || c.Style == CDLNoClampRev
}

// IsClamping reports whether the style clamps to [0, 1].
func (c *CDL) IsClamping() bool {
	return c.Style == CDLV12Fwd || c.Style == CDLV12Rev
}

func (c *CDL) Validate() error {
	for _, v := range c.Slope {
		if v < 0 {
			return semantic("CDL: Invalid 'slope' %g should be greater than or equal to 0.", v)
		}
	}
	for _, v := range c.Power {
		if v <= 0 {
			return semantic("CDL: Invalid 'power' %g should be greater than 0.", v)
		}
	}
	if c.Saturation < 0 {
		return semantic("CDL: Invalid 'saturation' %g should be greater than or equal to 0.", c.Saturation)
	}
	return nil
}

// IsIdentity compares the parameters only; a clamping style with identity
// parameters still clamps.
func (c *CDL) IsIdentity() bool {
	return c.Slope == [3]float64{1, 1, 1} &&
		c.Offset == [3]float64{} &&
		c.Power == [3]float64{1, 1, 1} &&
		c.Saturation == 1
}

func (c *CDL) HasChannelCrosstalk() bool {
	return c.Saturation != 1
}

func (c *CDL) Clone() Op {
	cp := *c
	cp.Base = c.Base.clone()
	return &cp
}

// Inverse switches between the forward and reverse styles.
func (c *CDL) Inverse() (Op, error) {
	cp := c.Clone().(*CDL)
	cp.Base = c.Base.inverted()
	switch c.Style {
	case CDLV12Fwd:
		cp.Style = CDLV12Rev
	case CDLV12Rev:
		cp.Style = CDLV12Fwd
	case CDLNoClampFwd:
		cp.Style = CDLNoClampRev
	case CDLNoClampRev:
		cp.Style = CDLNoClampFwd
	}
	return cp, nil
}
