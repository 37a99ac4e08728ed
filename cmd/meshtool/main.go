// Command meshtool is the command line front end for the mesh editing
// toolkit: validation reports, OBJ conversion, normal recomputation,
// script application, and reference solid generation.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deadsy/sdfx/sdf"
	"github.com/pelletier/go-toml/v2"

	"github.com/chazu/meshkit/pkg/editor"
	"github.com/chazu/meshkit/pkg/engine"
	"github.com/chazu/meshkit/pkg/mesh"
	"github.com/chazu/meshkit/pkg/objio"
	"github.com/chazu/meshkit/pkg/sdfgen"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      time.Kitchen,
	Prefix:          "meshtool",
})

// config holds the TOML-configurable defaults. Flags override it.
type config struct {
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
	Export struct {
		Precision  int  `toml:"precision"`
		Normals    bool `toml:"normals"`
		UVs        bool `toml:"uvs"`
		Comments   bool `toml:"comments"`
		ObjectName bool `toml:"object_name"`
	} `toml:"export"`
}

func defaultConfig() config {
	var c config
	c.Log.Level = "info"
	c.Export.Precision = 6
	c.Export.Normals = true
	c.Export.UVs = true
	c.Export.Comments = true
	c.Export.ObjectName = true
	return c
}

func loadConfig(path string) (config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

func (c config) exportOptions() objio.ExportOptions {
	return objio.ExportOptions{
		IncludeNormals:    c.Export.Normals,
		IncludeUVs:        c.Export.UVs,
		IncludeComments:   c.Export.Comments,
		IncludeObjectName: c.Export.ObjectName,
		FloatPrecision:    c.Export.Precision,
	}
}

func applyLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.Warnf("unknown log level %q, using info", level)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: meshtool <command> [flags] <file.obj>

Commands:
  validate   check a mesh and print the findings
  convert    import, optionally clean, and re-export a mesh
  normals    recompute normals with a given mode
  script     apply an editing script to a mesh
  gen        generate a reference solid as a mesh

Run 'meshtool <command> -h' for command flags.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		err = cmdValidate(os.Args[2:])
	case "convert":
		err = cmdConvert(os.Args[2:])
	case "normals":
		err = cmdNormals(os.Args[2:])
	case "script":
		err = cmdScript(os.Args[2:])
	case "gen":
		err = cmdGen(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "meshtool: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func commonFlags(fs *flag.FlagSet) (configPath *string) {
	return fs.String("config", "", "TOML config file with export defaults")
}

func importArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one input file, got %d", fs.NArg())
	}
	return fs.Arg(0), nil
}

func cmdValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := commonFlags(fs)
	quiet := fs.Bool("quiet", false, "suppress info findings")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	applyLogLevel(cfg.Log.Level)

	path, err := importArg(fs)
	if err != nil {
		return err
	}
	m, err := objio.ImportFile(path, objio.ImportOptions{})
	if err != nil {
		return err
	}

	report := mesh.Validate(m)
	for _, f := range report.Findings {
		switch f.Severity {
		case mesh.SeverityError:
			logger.Errorf("%s: %s", f.Code, f.Message)
		case mesh.SeverityWarning:
			logger.Warnf("%s: %s", f.Code, f.Message)
		case mesh.SeverityInfo:
			if !*quiet {
				logger.Infof("%s", f.Message)
			}
		}
	}
	logger.Infof("%s: %s", path, report.Summary())

	if !report.IsValid() {
		return fmt.Errorf("%s failed validation", path)
	}
	return nil
}

func cmdConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	configPath := commonFlags(fs)
	out := fs.String("o", "", "output file (required)")
	flipYZ := fs.Bool("flip-yz", false, "swap the Y-up/Z-up convention on import and export")
	flipUVV := fs.Bool("flip-uvv", false, "flip the texture V coordinate on import")
	mergeEps := fs.Float64("merge", 0, "weld vertices closer than this distance")
	clean := fs.Bool("remove-degenerate", false, "drop degenerate triangles")
	name := fs.String("name", "", "override the mesh name")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	applyLogLevel(cfg.Log.Level)

	if *out == "" {
		return fmt.Errorf("convert: -o is required")
	}
	path, err := importArg(fs)
	if err != nil {
		return err
	}

	m, err := objio.ImportFile(path, objio.ImportOptions{
		Name:    *name,
		FlipYZ:  *flipYZ,
		FlipUVV: *flipUVV,
	})
	if err != nil {
		return err
	}
	logger.Infof("imported %s: %d vertices, %d triangles",
		path, m.VertexCount(), m.TriangleCount())

	if *mergeEps > 0 {
		ve := editor.NewVertex(m)
		ve.SelectAll()
		merged := ve.MergeSelected(*mergeEps)
		m = ve.Finish()
		logger.Infof("merged %d vertices within %g", merged, *mergeEps)
	}
	if *clean {
		ie := editor.NewIndex(m)
		removed := ie.RemoveDegenerate()
		m = ie.Finish()
		logger.Infof("removed %d degenerate triangles", removed)
	}

	opts := cfg.exportOptions()
	opts.FlipYZ = *flipYZ
	opts.FlipUVV = *flipUVV
	if err := objio.ExportFile(m, *out, opts); err != nil {
		return err
	}
	logger.Infof("wrote %s", *out)
	return nil
}

func cmdNormals(args []string) error {
	fs := flag.NewFlagSet("normals", flag.ExitOnError)
	configPath := commonFlags(fs)
	out := fs.String("o", "", "output file (required)")
	modeName := fs.String("mode", "flat", "normal mode: flat, smooth or weighted")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	applyLogLevel(cfg.Log.Level)

	if *out == "" {
		return fmt.Errorf("normals: -o is required")
	}
	path, err := importArg(fs)
	if err != nil {
		return err
	}

	var mode editor.NormalMode
	switch *modeName {
	case "flat":
		mode = editor.NormalFlat
	case "smooth":
		mode = editor.NormalSmooth
	case "weighted":
		mode = editor.NormalWeightedSmooth
	default:
		return fmt.Errorf("normals: unknown mode %q", *modeName)
	}

	m, err := objio.ImportFile(path, objio.ImportOptions{})
	if err != nil {
		return err
	}

	ne := editor.NewNormal(m)
	if err := ne.Calculate(mode); err != nil {
		return err
	}
	m = ne.Finish()
	logger.Infof("recomputed %s normals for %d vertices", mode, m.VertexCount())

	if err := objio.ExportFile(m, *out, cfg.exportOptions()); err != nil {
		return err
	}
	logger.Infof("wrote %s", *out)
	return nil
}

func cmdScript(args []string) error {
	fs := flag.NewFlagSet("script", flag.ExitOnError)
	configPath := commonFlags(fs)
	out := fs.String("o", "", "output file (required)")
	scriptPath := fs.String("f", "", "script file (required)")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	applyLogLevel(cfg.Log.Level)

	if *out == "" || *scriptPath == "" {
		return fmt.Errorf("script: -f and -o are required")
	}
	path, err := importArg(fs)
	if err != nil {
		return err
	}

	source, err := os.ReadFile(*scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	m, err := objio.ImportFile(path, objio.ImportOptions{})
	if err != nil {
		return err
	}

	edited, evalErrs, err := engine.New().Apply(m, string(source))
	if err != nil {
		return fmt.Errorf("script: %w", err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			logger.Errorf("script: %s", e.Error())
		}
		return fmt.Errorf("script %s failed with %d errors", *scriptPath, len(evalErrs))
	}

	if err := objio.ExportFile(edited, *out, cfg.exportOptions()); err != nil {
		return err
	}
	logger.Infof("wrote %s", *out)
	return nil
}

func cmdGen(args []string) error {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	configPath := commonFlags(fs)
	out := fs.String("o", "", "output file (required)")
	shape := fs.String("shape", "box", "solid to generate: box, cylinder or sphere")
	dims := fs.String("dims", "1", "comma separated dimensions (box: x,y,z; cylinder: h,r; sphere: r)")
	cells := fs.Int("cells", sdfgen.DefaultCells, "marching cubes resolution")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	applyLogLevel(cfg.Log.Level)

	if *out == "" {
		return fmt.Errorf("gen: -o is required")
	}

	d, err := parseDims(*dims)
	if err != nil {
		return fmt.Errorf("gen: %w", err)
	}

	var solid sdf.SDF3
	switch *shape {
	case "box":
		if len(d) != 3 {
			return fmt.Errorf("gen: box needs 3 dimensions, got %d", len(d))
		}
		solid, err = sdfgen.Box(d[0], d[1], d[2])
	case "cylinder":
		if len(d) != 2 {
			return fmt.Errorf("gen: cylinder needs height,radius, got %d values", len(d))
		}
		solid, err = sdfgen.Cylinder(d[0], d[1])
	case "sphere":
		if len(d) != 1 {
			return fmt.Errorf("gen: sphere needs a radius, got %d values", len(d))
		}
		solid, err = sdfgen.Sphere(d[0])
	default:
		return fmt.Errorf("gen: unknown shape %q", *shape)
	}
	if err != nil {
		return err
	}

	m := sdfgen.ToMesh(solid, *cells)
	m.Name = *shape
	logger.Infof("generated %s: %d triangles", *shape, m.TriangleCount())

	if err := objio.ExportFile(m, *out, cfg.exportOptions()); err != nil {
		return err
	}
	logger.Infof("wrote %s", *out)
	return nil
}

func parseDims(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad dimension %q: %w", p, err)
		}
		out = append(out, f)
	}
	return out, nil
}
