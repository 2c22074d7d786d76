// Command lutfmt lists the supported LUT formats, inspects LUT files and
// converts any readable LUT file to CTF or CLF.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/cache"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ctf"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/plugins"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/resolve"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/logging"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/validation"

	// Register every built-in format.
	_ "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/embedded"
)

const version = "0.1.0"

// Globals are the flags shared by every command.
type Globals struct {
	SearchPath    []string `name:"search-path" env:"LUTFMT_SEARCH_PATH" sep:":" help:"Directories searched for referenced files"`
	LogLevel      string   `name:"log-level" env:"LUTFMT_LOG_LEVEL" default:"warn" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat     string   `name:"log-format" default:"text" enum:"text,json" help:"Log output format"`
	Interpolation string   `name:"interpolation" default:"default" help:"LUT interpolation (default, nearest, linear, tetrahedral, cubic, best)"`
}

// CLI defines the command-line interface for lutfmt.
var CLI struct {
	Globals

	Formats FormatsCmd `cmd:"" help:"List the supported formats"`
	Inspect InspectCmd `cmd:"" help:"Read a LUT file and print its operators"`
	Convert ConvertCmd `cmd:"" help:"Convert a LUT file to CTF or CLF"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// loader returns a Loader configured from the global flags.
func (g *Globals) loader() *plugins.Loader {
	l := plugins.NewLoader(cache.DefaultConfig())
	l.Resolve = resolve.Config{SearchPaths: g.SearchPath}
	return l
}

func (g *Globals) fileTransform(path string, inverse bool) (processor.File, error) {
	interp, err := ops.ParseInterpolation(g.Interpolation)
	if err != nil {
		return processor.File{}, err
	}
	ft := processor.File{Path: path, Interp: interp}
	if inverse {
		ft.Dir = ops.Inverse
	}
	return ft, nil
}

// FormatsCmd lists the registered formats.
type FormatsCmd struct{}

func (c *FormatsCmd) Run(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEXTENSION\tCAPABILITIES")
	for _, fi := range plugins.List() {
		var caps []string
		if fi.CanRead() {
			caps = append(caps, "read")
		}
		if fi.CanBake() {
			caps = append(caps, "bake")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", fi.Name, fi.Extension, strings.Join(caps, ","))
	}
	return tw.Flush()
}

// InspectCmd prints the operators a file expands to.
type InspectCmd struct {
	Path    string `arg:"" help:"LUT file to read" type:"existingfile"`
	Inverse bool   `help:"Apply the file in the inverse direction"`
}

func (c *InspectCmd) Run(g *Globals, out io.Writer) error {
	ft, err := g.fileTransform(c.Path, c.Inverse)
	if err != nil {
		return err
	}
	l := g.loader()
	cf, _, err := l.Load(c.Path, ft.Interp)
	if err != nil {
		return err
	}
	list, err := l.BuildOps(ft, ops.Forward)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "File:   %s\nFormat: %s\nOps:    %d\n", c.Path, cf.FormatName(), len(list))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, op := range list {
		b := op.Common()
		fmt.Fprintf(tw, "  %d\t%s\t%s -> %s\t%s\t%s\n", i, op.Type(), b.FileInBitDepth, b.FileOutBitDepth,
			b.Direction, describe(op))
	}
	return tw.Flush()
}

// describe returns the shape of op: its size for LUTs, its name otherwise.
func describe(op ops.Op) string {
	switch o := op.(type) {
	case *ops.Lut1D:
		return fmt.Sprintf("length %d, %s", o.Length(), o.Interpolation)
	case *ops.Lut3D:
		return fmt.Sprintf("grid %d, %s", o.GridSize, o.Interpolation)
	case *ops.Range:
		return fmt.Sprintf("[%g, %g] -> [%g, %g]", o.MinIn, o.MaxIn, o.MinOut, o.MaxOut)
	}
	return op.Common().Name
}

// ConvertCmd writes the operators of a file as a CTF or CLF document.
type ConvertCmd struct {
	In      string `arg:"" help:"LUT file to read" type:"existingfile"`
	Out     string `arg:"" help:"Document to write; a .clf extension implies --clf" type:"path"`
	CLF     bool   `name:"clf" help:"Write a Common LUT Format document"`
	Inverse bool   `help:"Convert the inverse of the file"`
}

func (c *ConvertCmd) Run(g *Globals, out io.Writer) error {
	if err := validation.ValidatePath(c.Out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	ft, err := g.fileTransform(c.In, c.Inverse)
	if err != nil {
		return err
	}
	list, err := g.loader().BuildOps(ft, ops.Forward)
	if err != nil {
		return err
	}

	t := ctf.NewTransform()
	t.Ops = list
	t.Descriptions = []string{"Converted from " + filepath.Base(c.In)}
	opts := ctf.WriteOptions{CLF: c.CLF || strings.EqualFold(filepath.Ext(c.Out), ".clf")}

	var buf bytes.Buffer
	if err := ctf.Write(&buf, t, opts); err != nil {
		return err
	}
	if err := os.WriteFile(c.Out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.Out, err)
	}
	fmt.Fprintf(out, "Wrote %d operators to %s\n", len(list), c.Out)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(out io.Writer) error {
	fmt.Fprintf(out, "lutfmt version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("lutfmt"),
		kong.Description("Read, inspect and convert color LUT files"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Bind(&CLI.Globals),
		kong.BindTo(io.Writer(os.Stdout), (*io.Writer)(nil)),
	)
	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
