package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/funvibe/sigcheck/internal/analyzer"
	"github.com/funvibe/sigcheck/internal/ast"
	"github.com/funvibe/sigcheck/internal/cache"
	"github.com/funvibe/sigcheck/internal/config"
	"github.com/funvibe/sigcheck/internal/diagnostics"
	"github.com/funvibe/sigcheck/internal/frontend"
	"github.com/funvibe/sigcheck/internal/loader"
	"github.com/funvibe/sigcheck/internal/pipeline"
	"github.com/funvibe/sigcheck/internal/report"
	"github.com/funvibe/sigcheck/internal/utils"
	"github.com/funvibe/sigcheck/internal/verify"
)

const (
	exitOK       = 0
	exitFindings = 1 // Diagnostics or expectation mismatches
	exitUsage    = 2 // Bad command line, config or I/O
)

const usage = `Usage: sigcheck <command> [arguments]

Commands:
  check [--json] [--no-cache] <path>...   report signature errors
  verify <path>...                        compare errors with "# error:" comments
  cache stats                             show the number of stored runs
  cache prune <duration>                  drop runs older than duration (e.g. 72h)
  help                                    show this message

Paths are .py sources, .yaml/.yml manifests, or directories holding them.
Settings are read from sigcheck.yaml and SIGCHECK_* environment variables.
`

// cli holds what the handlers share. Handlers return false when the
// command line is not theirs.
type cli struct {
	ctx    context.Context
	args   []string
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
	color  bool
	status int
}

func (c *cli) run() {
	if c.handleHelp() || c.handleCheck() || c.handleVerify() || c.handleCache() {
		return
	}
	if len(c.args) >= 2 {
		fmt.Fprintf(c.stderr, "Unknown command: %s\n", c.args[1])
	}
	fmt.Fprint(c.stderr, usage)
	c.status = exitUsage
}

func (c *cli) handleHelp() bool {
	if len(c.args) < 2 {
		return false
	}
	if c.args[1] != "-help" && c.args[1] != "--help" && c.args[1] != "help" {
		return false
	}
	fmt.Fprint(c.stdout, usage)
	return true
}

func (c *cli) handleCheck() bool {
	if len(c.args) < 2 || c.args[1] != "check" {
		return false
	}

	format := report.TextFormat
	useCache := true
	var paths []string
	for _, arg := range c.args[2:] {
		switch arg {
		case "--json":
			format = report.JSONFormat
		case "--no-cache":
			useCache = false
		default:
			if strings.HasPrefix(arg, "-") {
				c.fail("unknown flag %s", arg)
				return true
			}
			paths = append(paths, arg)
		}
	}

	inputs, ok := c.inputs(paths)
	if !ok {
		return true
	}

	var store *cache.Store
	if useCache && c.cfg.Cache != "" {
		var err error
		if store, err = cache.Open(c.cfg.Cache); err != nil {
			log.Printf("cache disabled: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	var errs []*diagnostics.DiagnosticError
	for _, path := range inputs {
		final, ok := c.runFile(path, store)
		if !ok {
			continue
		}
		errs = append(errs, final.Errors...)
	}
	diagnostics.Sort(errs)

	if err := report.New(c.stdout, format, c.color).Report(len(inputs), errs); err != nil {
		c.fail("%v", err)
		return true
	}
	if len(errs) > 0 && c.status == exitOK {
		c.status = exitFindings
	}
	return true
}

func (c *cli) handleVerify() bool {
	if len(c.args) < 2 || c.args[1] != "verify" {
		return false
	}

	inputs, ok := c.inputs(c.args[2:])
	if !ok {
		return true
	}

	failed := 0
	for _, path := range inputs {
		// Expectations live in the program, which a cache hit does not
		// restore, so verification always checks from scratch.
		final, ok := c.runFile(path, nil)
		if !ok {
			continue
		}
		var exps []ast.Expectation
		if final.Program != nil {
			exps = final.Program.Expectations
		}
		res := verify.Compare(path, exps, final.Errors)
		if res.OK() {
			fmt.Fprintf(c.stdout, "%s: ok\n", path)
			continue
		}
		failed++
		if err := verify.Write(c.stdout, res); err != nil {
			c.fail("%v", err)
			return true
		}
	}

	if failed > 0 {
		fmt.Fprintf(c.stdout, "%d of %d file(s) did not match their expectations\n", failed, len(inputs))
		if c.status == exitOK {
			c.status = exitFindings
		}
	}
	return true
}

func (c *cli) handleCache() bool {
	if len(c.args) < 2 || c.args[1] != "cache" {
		return false
	}
	if len(c.args) < 3 {
		c.fail("usage: sigcheck cache stats | cache prune <duration>")
		return true
	}
	if c.cfg.Cache == "" {
		c.fail("no cache configured (set cache in %s or SIGCHECK_CACHE)", config.DefaultConfigFile)
		return true
	}
	store, err := cache.Open(c.cfg.Cache)
	if err != nil {
		c.fail("%v", err)
		return true
	}
	defer store.Close()

	switch c.args[2] {
	case "stats":
		n, err := store.Count(c.ctx)
		if err != nil {
			c.fail("%v", err)
			return true
		}
		fmt.Fprintf(c.stdout, "%s: %d stored run(s)\n", c.cfg.Cache, n)
	case "prune":
		if len(c.args) < 4 {
			c.fail("usage: sigcheck cache prune <duration>")
			return true
		}
		age, err := time.ParseDuration(c.args[3])
		if err != nil {
			c.fail("invalid duration %q: %v", c.args[3], err)
			return true
		}
		n, err := store.Prune(c.ctx, time.Now().Add(-age))
		if err != nil {
			c.fail("%v", err)
			return true
		}
		fmt.Fprintf(c.stdout, "Pruned %d run(s)\n", n)
	default:
		c.fail("unknown cache command %s", c.args[2])
	}
	return true
}

// inputs expands paths, reporting usage errors itself.
func (c *cli) inputs(paths []string) ([]string, bool) {
	if len(paths) == 0 {
		c.fail("usage: sigcheck %s <path>...", c.args[1])
		return nil, false
	}
	files, err := utils.CollectInputs(paths)
	if err != nil {
		c.fail("%v", err)
		return nil, false
	}
	return files, true
}

// runFile reads one input and passes it through the pipeline. The cache
// stages are skipped when store is nil.
func (c *cli) runFile(path string, store *cache.Store) (*pipeline.PipelineContext, bool) {
	if utils.KindOf(path) == utils.UnknownInput {
		c.fail("%s: unrecognized input (want %s, %s)", path, config.PythonFileExt, strings.Join(config.ManifestFileExtensions, ", "))
		return nil, false
	}
	source, err := os.ReadFile(path)
	if err != nil {
		c.fail("Error reading file: %s", err)
		return nil, false
	}

	checkStages := []pipeline.Processor{
		&frontend.FrontendProcessor{Context: c.ctx},
		&loader.ManifestProcessor{},
		&analyzer.SemanticAnalyzerProcessor{Context: c.ctx},
	}
	processingPipeline := pipeline.New(checkStages...)
	if store != nil {
		processingPipeline = pipeline.New(&cache.LookupProcessor{Store: store, Context: c.ctx}).
			Append(checkStages...).
			Append(&cache.SaveProcessor{Store: store, Context: c.ctx})
	}
	return processingPipeline.Run(pipeline.NewPipelineContext(path, source, c.cfg)), true
}

func (c *cli) fail(format string, args ...interface{}) {
	fmt.Fprintf(c.stderr, "Error: "+format+"\n", args...)
	c.status = exitUsage
}

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(exitUsage)
		}
	}()

	log.SetFlags(0)
	log.SetPrefix("sigcheck: ")

	cfg, err := config.Load(config.DefaultConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	c := &cli{
		ctx:    ctx,
		args:   os.Args,
		cfg:    cfg,
		stdout: os.Stdout,
		stderr: os.Stderr,
		color:  report.UseColor(cfg.Color, os.Stdout),
	}
	c.run()
	stop()
	os.Exit(c.status)
}
