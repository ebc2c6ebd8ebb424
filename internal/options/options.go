// Package options resolves the uvatlas command line into run options.
//
// Option names are matched case-insensitively and may be written with one or
// two leading dashes, or as name=value. A malformed or missing value never
// fails the run: the option keeps its prior value and a Warning is returned.
package options

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Faultbox/uvatlas/internal/atlas"
	"github.com/Faultbox/uvatlas/internal/config"
	"github.com/Faultbox/uvatlas/internal/layout"
	"github.com/Faultbox/uvatlas/pkg/encoding"
)

// Stdin is the input path that selects standard input.
const Stdin = "-"

// Options is the fully resolved configuration of one run.
type Options struct {
	Input  string // Stdin or empty reads standard input
	Output string // empty writes standard output

	Chart    atlas.ChartOptions
	Pack     atlas.PackOptions
	PackOnly bool
	Layout   layout.Strategy
	Verbose  bool

	Sentinel     string
	NameEncoding string
	Workers      int

	Preview        string
	PreviewMaxSize int

	LogLevel string
	LogFile  string

	ConfigPath string
	SaveConfig string
	Help       bool
}

// EffectiveLogLevel returns the log level to run with. Verbose runs log at debug.
func (o *Options) EffectiveLogLevel() string {
	if o.Verbose {
		return "debug"
	}
	return o.LogLevel
}

// ReadsStdin reports whether the input document comes from standard input.
func (o *Options) ReadsStdin() bool {
	return o.Input == "" || o.Input == Stdin
}

// Config returns the persistent part of o as a config file.
func (o *Options) Config() *config.Config {
	cfg := config.Default()
	cfg.Chart = o.Chart
	cfg.Pack = o.Pack
	cfg.Pipeline.PackOnly = o.PackOnly
	cfg.Pipeline.AtlasLayout = o.Layout.String()
	cfg.Pipeline.Sentinel = o.Sentinel
	cfg.Pipeline.NameEncoding = o.NameEncoding
	cfg.Preview.Path = o.Preview
	cfg.Preview.MaxSize = o.PreviewMaxSize
	cfg.Logging.Level = o.LogLevel
	cfg.Logging.LogFile = o.LogFile
	cfg.Workers = o.Workers
	return cfg
}

// Warning reports an argument that was ignored or replaced.
type Warning struct {
	Option string // normalized option name, empty for positional arguments
	Value  string
	Reason string
}

func (w Warning) String() string {
	if w.Option == "" {
		return fmt.Sprintf("argument %q: %s", w.Value, w.Reason)
	}
	if w.Value == "" {
		return fmt.Sprintf("option -%s: %s", w.Option, w.Reason)
	}
	return fmt.Sprintf("option -%s %q: %s", w.Option, w.Value, w.Reason)
}

// Resolve interprets args (without the program name) on top of cfg.
// A nil cfg means config.Default().
func Resolve(args []string, cfg *config.Config) (*Options, []Warning) {
	if cfg == nil {
		cfg = config.Default()
	}
	o := fromConfig(cfg)
	r := &resolver{opts: o, args: args}
	r.run()
	return o, r.warnings
}

// ConfigPath returns the value of -config in args, or "".
func ConfigPath(args []string) string {
	path := ""
	for i := 0; i < len(args); i++ {
		name, value, inline, ok := splitOption(args[i])
		if !ok || name != "config" {
			continue
		}
		if inline {
			path = value
		} else if i+1 < len(args) && !isOption(args[i+1]) {
			path = args[i+1]
			i++
		}
	}
	return path
}

func fromConfig(cfg *config.Config) *Options {
	strategy, _ := layout.ParseStrategy(cfg.Pipeline.AtlasLayout)
	return &Options{
		Chart:          cfg.Chart,
		Pack:           cfg.Pack,
		PackOnly:       cfg.Pipeline.PackOnly,
		Layout:         strategy,
		Sentinel:       cfg.Pipeline.Sentinel,
		NameEncoding:   cfg.Pipeline.NameEncoding,
		Workers:        cfg.Workers,
		Preview:        cfg.Preview.Path,
		PreviewMaxSize: cfg.Preview.MaxSize,
		LogLevel:       cfg.Logging.Level,
		LogFile:        cfg.Logging.LogFile,
	}
}

type resolver struct {
	opts     *Options
	args     []string
	pos      int
	warnings []Warning
}

func (r *resolver) warn(option, value, reason string) {
	r.warnings = append(r.warnings, Warning{Option: option, Value: value, Reason: reason})
}

func (r *resolver) run() {
	for r.pos = 0; r.pos < len(r.args); r.pos++ {
		arg := r.args[r.pos]
		name, value, inline, ok := splitOption(arg)
		if !ok {
			if r.pos == 0 {
				r.opts.Input = arg
			} else {
				r.warn("", arg, "unexpected argument ignored")
			}
			continue
		}

		var valuePtr *string
		if inline {
			valuePtr = &value
		}
		r.apply(name, valuePtr)
	}
}

// value returns the option's argument, consuming the next token if needed.
func (r *resolver) value(name string, inline *string) (string, bool) {
	if inline != nil {
		return *inline, true
	}
	if r.pos+1 >= len(r.args) || isOption(r.args[r.pos+1]) {
		r.warn(name, "", "missing value, keeping "+r.current(name))
		return "", false
	}
	r.pos++
	return r.args[r.pos], true
}

func (r *resolver) apply(name string, inline *string) {
	o := r.opts
	switch name {
	case "help", "h", "?":
		o.Help = true
	case "packonly":
		r.flag(name, inline, &o.PackOnly)
	case "verbose":
		r.flag(name, inline, &o.Verbose)
	case "bruteforce":
		r.flag(name, inline, &o.Pack.BruteForce)
	case "bilinear":
		r.flag(name, inline, &o.Pack.Bilinear)
	case "blockalign":
		r.flag(name, inline, &o.Pack.BlockAlign)
	case "rotatecharts":
		r.flag(name, inline, &o.Pack.RotateCharts)
	case "atlaslayout":
		if v, ok := r.value(name, inline); ok {
			s, known := layout.ParseStrategy(v)
			if !known {
				r.warn(name, v, "unknown layout, using overlap")
			}
			o.Layout = s
		}
	case "resolution":
		r.integer(name, inline, &o.Pack.Resolution)
	case "padding":
		r.integer(name, inline, &o.Pack.Padding)
	case "maxchartsize":
		r.integer(name, inline, &o.Pack.MaxChartSize)
	case "texelsperunit":
		r.float(name, inline, &o.Pack.TexelsPerUnit)
	case "maxchartarea":
		r.float(name, inline, &o.Chart.MaxChartArea)
	case "maxboundarylength":
		r.float(name, inline, &o.Chart.MaxBoundaryLength)
	case "normaldeviationweight":
		r.float(name, inline, &o.Chart.NormalDeviationWeight)
	case "roundnessweight":
		r.float(name, inline, &o.Chart.RoundnessWeight)
	case "straightnessweight":
		r.float(name, inline, &o.Chart.StraightnessWeight)
	case "normalseamweight":
		r.float(name, inline, &o.Chart.NormalSeamWeight)
	case "textureseamweight":
		r.float(name, inline, &o.Chart.TextureSeamWeight)
	case "maxcost":
		r.float(name, inline, &o.Chart.MaxCost)
	case "maxiterations":
		r.integer(name, inline, &o.Chart.MaxIterations)
	case "workers":
		var n = o.Workers
		r.integer(name, inline, &n)
		if n < 0 {
			r.warn(name, strconv.Itoa(n), "must not be negative, keeping "+strconv.Itoa(o.Workers))
		} else {
			o.Workers = n
		}
	case "previewmaxsize":
		r.integer(name, inline, &o.PreviewMaxSize)
	case "config":
		r.str(name, inline, &o.ConfigPath)
	case "output", "o":
		r.str(name, inline, &o.Output)
	case "preview":
		r.str(name, inline, &o.Preview)
	case "logfile":
		r.str(name, inline, &o.LogFile)
	case "saveconfig":
		r.str(name, inline, &o.SaveConfig)
	case "loglevel":
		if v, ok := r.value(name, inline); ok {
			switch lv := strings.ToLower(v); lv {
			case "debug", "info", "warn", "error":
				o.LogLevel = lv
			default:
				r.warn(name, v, "unknown level, keeping "+o.LogLevel)
			}
		}
	case "nameencoding":
		if v, ok := r.value(name, inline); ok {
			if _, err := encoding.Lookup(v); err != nil {
				r.warn(name, v, "unknown charset, keeping "+o.NameEncoding+" (known: "+strings.Join(encoding.Names(), ", ")+")")
			} else {
				o.NameEncoding = v
			}
		}
	default:
		r.warn(name, "", "unknown option ignored")
	}
}

// flag sets a presence option. An explicit boolean may follow it.
func (r *resolver) flag(name string, inline *string, dst *bool) {
	if inline != nil {
		if b, ok := parseBool(*inline); ok {
			*dst = b
		} else {
			r.warn(name, *inline, "not a boolean, keeping "+strconv.FormatBool(*dst))
		}
		return
	}
	*dst = true
	if r.pos+1 < len(r.args) {
		if b, ok := parseBool(r.args[r.pos+1]); ok {
			*dst = b
			r.pos++
		}
	}
}

func (r *resolver) integer(name string, inline *string, dst *int) {
	v, ok := r.value(name, inline)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.warn(name, v, "not an integer, keeping "+strconv.Itoa(*dst))
		return
	}
	*dst = n
}

func (r *resolver) float(name string, inline *string, dst *float32) {
	v, ok := r.value(name, inline)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		r.warn(name, v, "not a number, keeping "+strconv.FormatFloat(float64(*dst), 'g', -1, 32))
		return
	}
	*dst = float32(f)
}

func (r *resolver) str(name string, inline *string, dst *string) {
	if v, ok := r.value(name, inline); ok {
		*dst = v
	}
}

// current describes an option's present value for warnings.
func (r *resolver) current(name string) string {
	o := r.opts
	switch name {
	case "resolution":
		return strconv.Itoa(o.Pack.Resolution)
	case "padding":
		return strconv.Itoa(o.Pack.Padding)
	case "maxchartsize":
		return strconv.Itoa(o.Pack.MaxChartSize)
	case "maxiterations":
		return strconv.Itoa(o.Chart.MaxIterations)
	case "workers":
		return strconv.Itoa(o.Workers)
	case "atlaslayout":
		return o.Layout.String()
	}
	return "previous value"
}

// splitOption parses "-name", "--name" or "-name=value".
// The name is lower-cased. Bare "-" and negative numbers are not options.
func splitOption(arg string) (name, value string, inline, ok bool) {
	if !isOption(arg) {
		return "", "", false, false
	}
	s := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if k, v, found := strings.Cut(s, "="); found {
		return strings.ToLower(k), v, true, true
	}
	return strings.ToLower(s), "", false, true
}

func isOption(arg string) bool {
	if len(arg) < 2 || arg[0] != '-' {
		return false
	}
	if _, err := strconv.ParseFloat(arg, 64); err == nil {
		return false
	}
	return true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "1", "on", "yes":
		return true, true
	case "false", "0", "off", "no":
		return false, true
	}
	return false, false
}
