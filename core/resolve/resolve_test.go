package resolve

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ctf"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
)

const (
	opA = `<Matrix id="opA" inBitDepth="32f" outBitDepth="32f"><Array dim="3 3">2 0 0 0 2 0 0 0 2</Array></Matrix>`
	opB = `<Range id="opB" inBitDepth="32f" outBitDepth="32f"><minInValue>0.1</minInValue><maxInValue>0.9</maxInValue><minOutValue>0</minOutValue><maxOutValue>1</maxOutValue></Range>`
)

func doc(body ...string) string {
	return "<?xml version=\"1.0\"?>\n<ProcessList version=\"2\" id=\"p\">\n" +
		strings.Join(body, "\n") + "\n</ProcessList>\n"
}

func ref(path string, inverted bool) string {
	inv := ""
	if inverted {
		inv = ` inverted="true"`
	}
	return `<Reference inBitDepth="32f" outBitDepth="32f" path="` + path + `"` + inv + `/>`
}

// writeFiles creates files relative to a fresh directory and returns it.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readOps(t *testing.T, path string) []ops.Op {
	t.Helper()
	list, err := LoadCTF(path)
	if err != nil {
		t.Fatalf("LoadCTF(%s): %v", path, err)
	}
	return list
}

var opsCmp = []cmp.Option{
	cmpopts.IgnoreFields(ops.Base{}, "Metadata"),
	cmpopts.EquateApprox(0, 1e-9),
}

func TestResolveInvertedReference(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.ctf": doc(ref("b.ctf", true)),
		"b.ctf": doc(opA, opB),
	})

	got, err := New(Config{WorkingDir: dir}, nil).ResolveFile(filepath.Join(dir, "a.ctf"), ops.Forward)
	if err != nil {
		t.Fatalf("ResolveFile: %v", err)
	}
	want, err := ops.Reverse(readOps(t, filepath.Join(dir, "b.ctf")))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got, opsCmp...); diff != "" {
		t.Errorf("resolved ops mismatch (-want +got):\n%s", diff)
	}
	if got[0].Type() != ops.TypeRange || got[1].Type() != ops.TypeMatrix {
		t.Errorf("order = %s, %s; want Range, Matrix", got[0].Type(), got[1].Type())
	}
	m := got[1].(*ops.Matrix)
	if m.Values[0] != 0.5 {
		t.Errorf("inverted matrix diagonal = %v, want 0.5", m.Values[0])
	}
}

func TestResolveComposesDirections(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.ctf": doc(opB, ref("b.ctf", false)),
		"b.ctf": doc(opA),
	})
	r := New(Config{WorkingDir: dir}, nil)

	fwd, err := r.ResolveFile(filepath.Join(dir, "a.ctf"), ops.Forward)
	if err != nil {
		t.Fatal(err)
	}
	if len(fwd) != 2 || fwd[0].Type() != ops.TypeRange || fwd[1].Type() != ops.TypeMatrix {
		t.Fatalf("forward ops = %v", fwd)
	}

	inv, err := r.ResolveFile(filepath.Join(dir, "a.ctf"), ops.Inverse)
	if err != nil {
		t.Fatal(err)
	}
	want, err := ops.Reverse(fwd)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, inv, opsCmp...); diff != "" {
		t.Errorf("inverse ops mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveNested(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.ctf":            doc(ref("sub/b.ctf", false), ref("sub/b.ctf", true)),
		"sub/b.ctf":        doc(ref("deeper/c.ctf", false)),
		"sub/deeper/c.ctf": doc(opA),
	})
	got, err := New(Config{WorkingDir: dir}, nil).ResolveFile(filepath.Join(dir, "a.ctf"), ops.Forward)
	if err != nil {
		t.Fatalf("ResolveFile: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d ops, want 2", len(got))
	}
	if got[0].(*ops.Matrix).Values[0] != 2 || got[1].(*ops.Matrix).Values[0] != 0.5 {
		t.Errorf("diagonals = %v, %v; want 2, 0.5", got[0].(*ops.Matrix).Values[0], got[1].(*ops.Matrix).Values[0])
	}
	if got[0] == got[1] {
		t.Error("a file referenced twice must yield distinct operators")
	}
}

func TestResolveRecursion(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"self", map[string]string{
			"a.ctf": doc(ref("a.ctf", false)),
		}},
		{"two levels", map[string]string{
			"a.ctf": doc(ref("b.ctf", false)),
			"b.ctf": doc(ref("a.ctf", true)),
		}},
		{"three levels", map[string]string{
			"a.ctf": doc(ref("b.ctf", false)),
			"b.ctf": doc(ref("c.ctf", false)),
			"c.ctf": doc(opA, ref("a.ctf", false)),
		}},
		{"dot slash", map[string]string{
			"a.ctf": doc(ref("b.ctf", false)),
			"b.ctf": doc(ref("./a.ctf", false)),
		}},
		{"backslash", map[string]string{
			"a.ctf": doc(ref(`.\a.ctf`, false)),
		}},
		{"parent dir", map[string]string{
			"a.ctf":     doc(ref("sub/b.ctf", false)),
			"sub/b.ctf": doc(ref("../sub/../a.ctf", false)),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFiles(t, tt.files)
			_, err := New(Config{WorkingDir: dir}, nil).ResolveFile(filepath.Join(dir, "a.ctf"), ops.Forward)
			if err == nil || !strings.Contains(err.Error(), "is creating a recursion") {
				t.Fatalf("err = %v, want recursion", err)
			}
			if errors.KindOf(err) != errors.KindSemantic {
				t.Errorf("kind = %s, want semantic", errors.KindOf(err))
			}
		})
	}
}

func TestResolveRecursionFromTransform(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.ctf": doc(ref("a.ctf", false)),
	})
	tr, err := ctf.Read(strings.NewReader(doc(ref("a.ctf", false))), "inline.ctf")
	if err != nil {
		t.Fatal(err)
	}
	_, err = New(Config{WorkingDir: dir}, nil).Resolve(tr, ops.Forward)
	if err == nil || !strings.Contains(err.Error(), "is creating a recursion") {
		t.Errorf("err = %v, want recursion", err)
	}
}

func TestResolveMissing(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.ctf": doc(ref("non-existent.ctf", false)),
	})
	_, err := New(Config{WorkingDir: dir}, nil).ResolveFile(filepath.Join(dir, "a.ctf"), ops.Forward)
	if err == nil {
		t.Fatal("expected an error")
	}
	if want := "File 'non-existent.ctf' could not be located."; err.Error() != want {
		t.Errorf("err = %q, want %q", err, want)
	}
	if !errors.Is(err, errors.ErrReferenceNotFound) {
		t.Errorf("err does not match ErrReferenceNotFound")
	}
}

func TestResolveSearchPaths(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"shots/a.ctf":    doc(ref("b.ctf", false)),
		"luts/b.ctf":     doc(opB),
		"fallback/b.ctf": doc(opA),
	})
	r := New(Config{WorkingDir: dir, SearchPaths: []string{"luts", filepath.Join(dir, "fallback")}}, nil)
	got, err := r.ResolveFile(filepath.Join(dir, "shots", "a.ctf"), ops.Forward)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Type() != ops.TypeRange {
		t.Errorf("got %v, want the Range from the first search path", got)
	}
}

func TestResolveEnvironment(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.ctf":       doc(ref("$SHOW/b.ctf", false)),
		"show1/b.ctf": doc(opA),
	})
	env := map[string]string{"SHOW": "show1"}
	r := New(Config{WorkingDir: dir, Env: func(k string) string { return env[k] }}, nil)
	got, err := r.ResolveFile(filepath.Join(dir, "a.ctf"), ops.Forward)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Type() != ops.TypeMatrix {
		t.Errorf("got %v", got)
	}
}

func TestResolveAlias(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"b.ctf": doc(opA),
	})
	tr := &ctf.Transform{Ops: []ops.Op{&ops.Reference{Alias: "monitor"}}}

	_, err := New(Config{WorkingDir: dir}, nil).Resolve(tr, ops.Forward)
	if errors.KindOf(err) != errors.KindSemantic {
		t.Errorf("err = %v, want a semantic error", err)
	}

	aliases := func(name string) (string, error) {
		if name == "monitor" {
			return "b.ctf", nil
		}
		return "", os.ErrNotExist
	}
	got, err := New(Config{WorkingDir: dir, Aliases: aliases}, nil).Resolve(tr, ops.Forward)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Type() != ops.TypeMatrix {
		t.Errorf("got %v", got)
	}
}

func TestResolveCustomLoader(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.ctf":  doc(ref("b.cube", false)),
		"b.cube": "not read by the CTF reader",
	})
	calls := 0
	loader := LoaderFunc(func(path string) ([]ops.Op, error) {
		if filepath.Ext(path) == ".cube" {
			calls++
			return []ops.Op{ops.NewMatrix()}, nil
		}
		return LoadCTF(path)
	})
	got, err := New(Config{WorkingDir: dir}, loader).ResolveFile(filepath.Join(dir, "a.ctf"), ops.Forward)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 || len(got) != 1 {
		t.Errorf("calls = %d, ops = %d", calls, len(got))
	}
}
