// Command skemajson formats and checks documents produced by the skemajson
// codec and converts floats to and from the bit-tagged wire form.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	skemajson "github.com/reoring/skemajson"
	"github.com/reoring/skemajson/codec"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `skemajson CLI

Usage:
  skemajson fmt [flags] [file]           reformat one document (stdin when no file)
  skemajson check [flags] file...        parse documents and report errors
  skemajson fpbits encode|decode [--float32] value...

Common flags:
  --config path   settings file (default .skemajson.yaml when present)
  -v, --verbose   debug logging on stderr`)
}

// env carries the streams and settings of one invocation.
type env struct {
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	cfg         Config
	log         *slog.Logger
	output      string
	compression string
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	sub, rest := args[0], args[1:]
	if sub == "help" || sub == "-h" || sub == "--help" {
		usage(stdout)
		return 0
	}

	fs := pflag.NewFlagSet(sub, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath    string
		verbose       bool
		indent        string
		compression   string
		output        string
		allowComments bool
		maxDepth      int
		jobs          int
		float32Bits   bool
	)
	fs.StringVar(&configPath, "config", "", "settings file")
	fs.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	switch sub {
	case "fmt":
		fs.StringVar(&indent, "indent", "", "indent per level (empty: from config)")
		fs.StringVarP(&compression, "compress", "z", "", "output compression: none, gzip, zstd, lz4")
		fs.StringVarP(&output, "output", "o", "", "output file (default stdout)")
		fs.BoolVar(&allowComments, "allow-comments", false, "accept // and /* */ comments and trailing commas")
	case "check":
		fs.BoolVar(&allowComments, "allow-comments", false, "accept // and /* */ comments and trailing commas")
		fs.IntVar(&maxDepth, "max-depth", 0, "maximum nesting depth (0: unlimited)")
		fs.IntVarP(&jobs, "jobs", "j", 0, "files checked in parallel (0: from config)")
	case "fpbits":
		fs.BoolVar(&float32Bits, "float32", false, "use the 32-bit form")
	default:
		usage(stderr)
		return 2
	}
	if err := fs.Parse(rest); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	e := &env{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		log:    slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		e.log.Error("config", "err", err)
		return 2
	}
	if fs.Changed("indent") {
		cfg.Indent = indent
	}
	if fs.Changed("allow-comments") {
		cfg.Read.AllowComments = allowComments
	}
	if fs.Changed("max-depth") {
		cfg.Read.MaxDepth = maxDepth
	}
	if jobs > 0 {
		cfg.Jobs = jobs
	}
	cfg.apply()
	e.cfg = cfg
	e.output = output
	e.compression = compression
	e.log.Debug("config loaded", "driver", skemajson.JSONDriverName(), "jobs", cfg.Jobs)

	switch sub {
	case "fmt":
		err = e.fmtCmd(fs.Args())
	case "check":
		err = e.checkCmd(ctx, fs.Args())
	case "fpbits":
		err = e.fpbitsCmd(fs.Args(), float32Bits)
	}
	if err != nil {
		e.log.Error(sub+" failed", "err", err)
		return 1
	}
	return 0
}

func (e *env) fmtCmd(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("fmt takes at most one file, got %d", len(args))
	}
	ropt, err := e.cfg.readOpt(e.warn(""))
	if err != nil {
		return err
	}
	var in io.Reader = e.stdin
	name := "-"
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in, name = f, args[0]
	}
	n, err := skemajson.ReadTree(in, ropt)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	wopt, err := e.cfg.writeOpt()
	if err != nil {
		return err
	}
	switch {
	case e.compression != "":
		if wopt.Compression, err = skemajson.ParseCompression(e.compression); err != nil {
			return err
		}
	case e.output != "" && wopt.Compression == skemajson.CompressionNone:
		wopt.Compression = skemajson.CompressionForPath(e.output)
	}

	if e.output == "" {
		return skemajson.WriteTree(e.stdout, n, wopt)
	}
	var buf bytes.Buffer
	if err := skemajson.WriteTree(&buf, n, wopt); err != nil {
		return err
	}
	e.log.Debug("writing", "path", e.output, "compression", wopt.Compression, "bytes", buf.Len())
	return os.WriteFile(e.output, buf.Bytes(), 0o644)
}

// checkCmd parses every file and prints one line per file. It fails when any
// file fails; all files are checked regardless.
func (e *env) checkCmd(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("check needs at least one file")
	}
	results := make([]error, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.checkFile(path)
			e.log.Debug("checked", "path", path, "ok", results[i] == nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for i, path := range paths {
		if results[i] != nil {
			failed++
			fmt.Fprintf(e.stdout, "%s: %v\n", path, results[i])
			continue
		}
		fmt.Fprintf(e.stdout, "%s: ok\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

func (e *env) checkFile(path string) error {
	ropt, err := e.cfg.readOpt(e.warn(path))
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = skemajson.ReadTree(f, ropt)
	return err
}

func (e *env) warn(file string) func(skemajson.Warning) {
	return func(w skemajson.Warning) {
		e.log.Warn(w.Message, "file", file, "code", w.Code, "path", w.Path)
	}
}

func (e *env) fpbitsCmd(args []string, float32Bits bool) error {
	if len(args) < 2 {
		return fmt.Errorf("fpbits needs encode|decode and at least one value")
	}
	mode, values := args[0], args[1:]
	for _, v := range values {
		var out string
		switch mode {
		case "encode":
			bits := 64
			if float32Bits {
				bits = 32
			}
			f, err := strconv.ParseFloat(v, bits)
			if err != nil {
				return err
			}
			if float32Bits {
				out = codec.EncodeFloatBits(float32(f))
			} else {
				out = codec.EncodeDoubleBits(f)
			}
		case "decode":
			if float32Bits {
				f, err := codec.DecodeFloatBits(v)
				if err != nil {
					return err
				}
				out = strconv.FormatFloat(float64(f), 'g', -1, 32)
			} else {
				d, err := codec.DecodeDoubleBits(v)
				if err != nil {
					return err
				}
				out = strconv.FormatFloat(d, 'g', -1, 64)
			}
		default:
			return fmt.Errorf("unknown fpbits mode %q", mode)
		}
		fmt.Fprintln(e.stdout, out)
	}
	return nil
}
