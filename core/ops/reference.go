package ops

// Reference stands for the operators of another file. It is replaced by
// those operators during resolution and never reaches a host pipeline.
type Reference struct {
	Base
	// Exactly one of Path and Alias is set.
	Path  string
	Alias string
}

// NewPathReference returns a Reference to a file path.
func NewPathReference(path string, dir Direction) *Reference {
	r := &Reference{Path: path}
	r.Direction = dir
	return r
}

func (r *Reference) Type() Type { return TypeReference }

func (r *Reference) Validate() error {
	switch {
	case r.Path == "" && r.Alias == "":
		return semantic("Reference must have either a path or an alias attribute.")
	case r.Path != "" && r.Alias != "":
		return semantic("Reference cannot have both a path and an alias attribute.")
	}
	return nil
}

// IsIdentity is false until the reference is resolved.
func (r *Reference) IsIdentity() bool { return false }

func (r *Reference) HasChannelCrosstalk() bool { return false }

func (r *Reference) Clone() Op {
	cp := *r
	cp.Base = r.Base.clone()
	return &cp
}

// Inverse flips the direction.
func (r *Reference) Inverse() (Op, error) {
	cp := r.Clone().(*Reference)
	cp.Base = r.Base.inverted()
	cp.Direction = r.Direction.Invert()
	return cp, nil
}
