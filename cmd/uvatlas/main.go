// uvatlas generates UV atlases for the meshes of an OBJ document.
//
// The document is read from a file or stdin. The re-mapped document is
// written to stdout after a sentinel line, or to a plain file with -output;
// logs and progress go to stderr.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/uvatlas/internal/atlas"
	"github.com/Faultbox/uvatlas/internal/atlas/builtin"
	"github.com/Faultbox/uvatlas/internal/config"
	"github.com/Faultbox/uvatlas/internal/logger"
	"github.com/Faultbox/uvatlas/internal/options"
	"github.com/Faultbox/uvatlas/internal/pipeline"
	"github.com/Faultbox/uvatlas/internal/preview"
	"github.com/Faultbox/uvatlas/internal/progress"
	"github.com/Faultbox/uvatlas/pkg/encoding"
	"github.com/Faultbox/uvatlas/pkg/formats"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `uvatlas - UV atlas generator for OBJ meshes

Usage:
  uvatlas [input.obj | -] [options]

Reads stdin when no input file is given. On stdout the output document is
preceded by a STARTOBJ line; -output files hold only the document. Option
names are case-insensitive.

Modes:
  -packOnly                     Pack existing UVs without re-charting
  -atlasLayout <name>           overlap (default), spreadX or udim
  -verbose                      Log engine progress instead of drawing a bar

Packing:
  -resolution <n>               Atlas size in texels, 0 fits one atlas
  -padding <n>                  Texels between charts
  -texelsPerUnit <f>            Texel density, 0 derives it from resolution
  -maxChartSize <n>             Largest chart side in texels, 0 = no limit
  -bruteForce [bool]            Try every position and rotation
  -bilinear [bool]              Leave a border for bilinear filtering
  -blockAlign [bool]            Align charts to 4x4 blocks
  -rotateCharts [bool]          Rotate charts to pack tighter

Charting:
  -maxChartArea <f>  -maxBoundaryLength <f>  -maxCost <f>  -maxIterations <n>
  -normalDeviationWeight <f>  -roundnessWeight <f>  -straightnessWeight <f>
  -normalSeamWeight <f>  -textureSeamWeight <f>

General:
  -output <path>                Write the document to a file
  -preview <path>               Write atlas images (.png, .webp, .tga)
  -previewMaxSize <n>           Longest preview side in pixels
  -config <path>                Config file (default ./uvatlas.yaml)
  -saveConfig <path>            Save the resolved options as a config file
  -logLevel <level>             debug, info, warn or error
  -logFile <path>               Also log to a rotating file
  -workers <n>                  Charting workers, 0 = all CPUs
  -nameEncoding <charset>       Charset of non-UTF-8 object names
  -help                         Show this help

Examples:
  uvatlas scene.obj -resolution 1024 -padding 2 > out.txt
  uvatlas scene.obj -packOnly -atlasLayout udim -resolution 512 -output out.obj
  cat scene.obj | uvatlas - -preview atlas.png`)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	start := time.Now()

	// Load configuration
	cfg, err := config.Load(options.ConfigPath(args))
	if err != nil {
		fmt.Fprintf(stderr, "Config error: %v\n", err)
		return 1
	}

	opts, warnings := options.Resolve(args, cfg)
	if opts.Help {
		printUsage(stdout)
		return 0
	}

	// Initialize logger
	var fileCfg logger.FileConfig
	if opts.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(opts.LogFile)
	}
	log, err := logger.New(opts.EffectiveLogLevel(), fileCfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Logger error: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	for _, w := range warnings {
		log.Warn("argument ignored", zap.String("detail", w.String()))
	}
	log.Debug("options resolved",
		zap.Any("chart", opts.Chart),
		zap.Any("pack", opts.Pack),
		zap.Bool("packOnly", opts.PackOnly),
		zap.Stringer("atlasLayout", opts.Layout))

	if opts.SaveConfig != "" {
		if err := opts.Config().SaveTo(opts.SaveConfig); err != nil {
			log.Error("failed to save config", zap.String("path", opts.SaveConfig), zap.Error(err))
			return 1
		}
		log.Info("config saved", zap.String("path", opts.SaveConfig))
	}

	shapes, err := readInput(opts, stdin)
	if err != nil {
		log.Error("failed to read input", zap.Error(err))
		return 1
	}
	triangles := 0
	for i := range shapes {
		triangles += shapes[i].TriangleCount()
	}
	log.Info("input loaded", zap.Int("shapes", len(shapes)), zap.Int("triangles", triangles))

	var sink atlas.ProgressFunc
	if opts.Verbose {
		sink = progress.Log(log)
	} else {
		sink = progress.NewBar(stderr).Report
	}

	factory := builtin.Factory(builtin.Options{Workers: opts.Workers, Logger: log})
	sess, err := pipeline.Invoke(factory, pipeline.DeclareAll(shapes, opts.PackOnly), shapes, pipeline.InvokeOptions{
		Chart:    opts.Chart,
		Pack:     opts.Pack,
		Progress: sink,
		Logger:   log.Named("pipeline"),
	})
	if err != nil {
		log.Error("atlas generation failed", zap.Error(err))
		return 1
	}
	defer sess.Close()

	if err := writeOutput(opts, sess.Result(), shapes, stdout); err != nil {
		log.Error("failed to write output", zap.Error(err))
		return 1
	}

	if opts.Preview != "" {
		paths, err := preview.Write(opts.Preview, sess.Result(), preview.Options{
			MaxSize: opts.PreviewMaxSize,
			Layout:  opts.Layout,
		})
		for _, p := range paths {
			log.Info("preview written", zap.String("path", p))
		}
		if err != nil {
			log.Error("failed to write preview", zap.Error(err))
			return 1
		}
	}

	log.Info("done", zap.Duration("elapsed", time.Since(start)))
	return 0
}

func readInput(opts *options.Options, stdin io.Reader) ([]formats.OBJShape, error) {
	charset, err := encoding.Lookup(opts.NameEncoding)
	if err != nil {
		return nil, err
	}

	r := stdin
	if !opts.ReadsStdin() {
		f, err := os.Open(opts.Input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return formats.ReadOBJ(r, formats.OBJOptions{Charset: charset})
}

func writeOutput(opts *options.Options, res *atlas.Result, shapes []formats.OBJShape, stdout io.Writer) (err error) {
	w := stdout
	emitOpts := pipeline.EmitOptions{
		Sentinel: opts.Sentinel,
		Layout:   opts.Layout,
	}
	if opts.Output != "" {
		// A file holds only the document.
		emitOpts.OmitSentinel = true
		emitOpts.Header = "uvatlas"

		f, cerr := os.Create(opts.Output)
		if cerr != nil {
			return cerr
		}
		defer func() {
			err = multierr.Append(err, f.Close())
		}()
		w = f
	}
	return pipeline.Emit(w, res, shapes, emitOpts)
}
