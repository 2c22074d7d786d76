package ctf

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Version is a MAJOR.MINOR.REVISION document version.
type Version struct {
	Major    int
	Minor    int
	Revision int
}

// Known CTF versions. Each one introduced operators or attributes; the
// element readers gate on them.
var (
	Version1_2 = Version{1, 2, 0}
	Version1_3 = Version{1, 3, 0}
	Version1_4 = Version{1, 4, 0}
	Version1_5 = Version{1, 5, 0}
	Version1_6 = Version{1, 6, 0}
	Version1_7 = Version{1, 7, 0}
	Version1_8 = Version{1, 8, 0}
	Version2_0 = Version{2, 0, 0}

	// LatestVersion is the newest CTF version read or written.
	LatestVersion = Version2_0
	// DefaultVersion applies to a ProcessList without a version attribute.
	DefaultVersion = Version1_2
)

// Known CLF versions.
var (
	CLFVersion2 = Version{2, 0, 0}
	CLFVersion3 = Version{3, 0, 0}

	LatestCLFVersion = CLFVersion3
)

// versionGrammar is the participle grammar for MAJOR[.MINOR[.REVISION]].
// There is no whitespace rule: "1 2" is not a version.
type versionGrammar struct {
	Major string       `parser:"@Int"`
	Minor *versionPart `parser:"( \".\" @@ )?"`
}

type versionPart struct {
	Minor    string  `parser:"@Int"`
	Revision *string `parser:"( \".\" @Int )?"`
}

var versionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Dot", Pattern: `\.`},
})

var versionParser = participle.MustBuild[versionGrammar](
	participle.Lexer(versionLexer),
)

// ParseVersion parses a version attribute. Components are decimal, so
// "1.01" is minor version 1 and "1.10" is minor version 10.
func ParseVersion(s string) (Version, error) {
	invalid := fmt.Errorf("'%s' is not a valid version. Expecting MAJOR[.MINOR[.REVISION]] ", s)
	if s == "" {
		return Version{}, invalid
	}

	parsed, err := versionParser.ParseString("", s)
	if err != nil {
		return Version{}, invalid
	}

	var v Version
	if v.Major, err = strconv.Atoi(parsed.Major); err != nil {
		return Version{}, invalid
	}
	if parsed.Minor != nil {
		if v.Minor, err = strconv.Atoi(parsed.Minor.Minor); err != nil {
			return Version{}, invalid
		}
		if parsed.Minor.Revision != nil {
			if v.Revision, err = strconv.Atoi(*parsed.Minor.Revision); err != nil {
				return Version{}, invalid
			}
		}
	}
	return v, nil
}

// MustParseVersion is ParseVersion for constant inputs.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or +1 as v is older than, equal to or newer than o.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return sign(v.Major - o.Major)
	case v.Minor != o.Minor:
		return sign(v.Minor - o.Minor)
	default:
		return sign(v.Revision - o.Revision)
	}
}

// Less reports whether v is older than o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// AtLeast reports whether v is o or newer.
func (v Version) AtLeast(o Version) bool { return v.Compare(o) >= 0 }

// IsZero reports whether v was never set.
func (v Version) IsZero() bool { return v == Version{} }

// String omits trailing zero components: 1.0.0 is "1", 1.5.0 is "1.5".
func (v Version) String() string {
	switch {
	case v.Revision != 0:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
	case v.Minor != 0:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	default:
		return strconv.Itoa(v.Major)
	}
}

// CTFVersionForCLF returns the CTF version whose features a CLF version
// allows: CLF 2 and older read like CTF 1.7, CLF 3 like CTF 2.0.
func CTFVersionForCLF(clf Version) Version {
	if clf.AtLeast(CLFVersion3) {
		return Version2_0
	}
	return Version1_7
}

func sign(d int) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	}
	return 0
}
