// Package pipeline orchestrates the whole-program and per-function passes
// in the order spec.md §5 mandates: borrow inference runs once, to a
// fixed point, over every function; only then do the per-function passes
// (liveness, RC insertion, edge cleanup, reset/reuse, RC elimination) run,
// independently, one per ArcFunction. Drop descriptors are collected
// afterwards, once, over the whole program.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"ori/internal/arcir"
	"ori/internal/borrow"
	"ori/internal/classify"
	"ori/internal/diagnostics"
	"ori/internal/dropinfo"
	"ori/internal/edgecleanup"
	"ori/internal/liveness"
	"ori/internal/rcelim"
	"ori/internal/rcinsert"
	"ori/internal/reuse"
	"ori/internal/typepool"
)

// Options configures one pipeline run. There is no config-file layer here
// (the teacher has none either, §1 attribute-driven behavior only) —
// cmd/arc-compile populates this straight from CLI flags.
type Options struct {
	// RunReuse enables constructor-reuse detection and expansion (§4.8).
	// Disabling it is useful when debugging RC insertion in isolation,
	// since reuse rewrites Reset/Reuse pairs that would otherwise read as
	// ordinary RcDec/Construct sequences.
	RunReuse bool

	// CollectDropInfo enables the drop-descriptor scan (§4.10) over the
	// fully-processed program.
	CollectDropInfo bool

	// Verify runs arcir.Verify at two checkpoints per function (after RC
	// insertion and after RC elimination) and folds any findings into the
	// returned diagnostics, rather than panicking — a debug aid, not a
	// gate on the pipeline's output.
	Verify bool

	// Progress receives a "function <name>" line per function and one
	// "  - Pass: description" line per pass, in the shape of the teacher's
	// OptimizationPipeline.Run; whether a pass changed anything is not
	// reported. Nil disables progress output.
	Progress io.Writer
}

// DefaultOptions returns the pipeline's default configuration: reuse and
// drop-info collection on, verification off (it's a debug aid, not free).
func DefaultOptions() Options {
	return Options{RunReuse: true, CollectDropInfo: true}
}

// Result is everything one pipeline run produces.
type Result struct {
	Functions   map[string]*arcir.Function
	DropInfo    map[typepool.TypeIdx]dropinfo.DropInfo
	Diagnostics *diagnostics.Accumulator
}

// Run executes the full pipeline sequentially: one goroutine, one function
// at a time, in map-iteration order. Prefer this for small programs or
// when deterministic progress output matters more than wall-clock time.
func Run(fns map[string]*arcir.Function, pool typepool.Pool, opts Options) *Result {
	diags := diagnostics.NewAccumulator()
	runBorrowPhase(fns, pool, diags)

	for name, fn := range fns {
		progressf(opts, "function %s\n", name)
		runFunctionPasses(fn, pool, opts, diags)
	}

	return finish(fns, pool, opts, diags)
}

// RunParallel executes the per-function phase with one goroutine per
// function, bounded by GOMAXPROCS via errgroup.SetLimit — the "dependency
// respecting scheduling" contract of spec.md §5: borrow inference must
// finish, whole-program, before any function's per-function passes start,
// since a later iteration can still promote a parameter any of them reads.
func RunParallel(ctx context.Context, fns map[string]*arcir.Function, pool typepool.Pool, opts Options) (*Result, error) {
	diags := diagnostics.NewAccumulator()
	runBorrowPhase(fns, pool, diags)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	type funcDiags struct {
		name  string
		diags *diagnostics.Accumulator
	}
	results := make(chan funcDiags, len(fns))

	for name, fn := range fns {
		name, fn := name, fn
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			local := diagnostics.NewAccumulator()
			runFunctionPasses(fn, pool, opts, local)
			results <- funcDiags{name: name, diags: local}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)
	for fd := range results {
		progressf(opts, "function %s\n", fd.name)
		diags.Merge(fd.diags)
	}

	return finish(fns, pool, opts, diags), nil
}

// runBorrowPhase runs whole-program borrow inference single-threaded, to a
// fixed point, per spec.md §4.4 — this must complete before any
// per-function pass reads a Param's Ownership.
func runBorrowPhase(fns map[string]*arcir.Function, pool typepool.Pool, diags *diagnostics.Accumulator) {
	c := classify.New(pool, diags)
	borrow.Infer(&borrow.Program{Functions: fns}, c, diags)
}

// runFunctionPasses applies the mandated per-function pass order to fn:
// liveness -> RC insertion -> edge cleanup -> reset/reuse -> RC
// elimination (spec.md §5). Each function gets its own Classifier: Pool
// reads are safe for concurrent use (§5) but a Classifier's cache is not,
// so sharing one across goroutines would race; a fresh Classifier per
// function duplicates some memoized work instead of sharing it.
func runFunctionPasses(fn *arcir.Function, pool typepool.Pool, opts Options, diags *diagnostics.Accumulator) {
	c := classify.New(pool, diags)

	cfg := arcir.BuildCFG(fn)
	live := liveness.Analyze(fn, cfg, c)
	reportPass(opts, "Liveness", "computes per-block live-in/live-out sets")

	rcinsert.Insert(fn, live, c)
	reportPass(opts, "RC Insertion", "inserts RcInc/RcDec per Perceus ownership rules")
	verifyCheckpoint(fn, opts, diags)

	edgecleanup.Run(fn, cfg, live, c)
	reportPass(opts, "Edge Cleanup", "balances live-out/live-in gaps across control-flow edges")

	if opts.RunReuse {
		reuse.Detect(fn)
		reuse.Expand(fn, pool)
		reportPass(opts, "Reset/Reuse", "rewrites dec-then-construct pairs into in-place mutation")
	}

	rcelim.Run(fn)
	reportPass(opts, "RC Elimination", "removes redundant adjacent Inc/Dec pairs")
	verifyCheckpoint(fn, opts, diags)
}

func verifyCheckpoint(fn *arcir.Function, opts Options, diags *diagnostics.Accumulator) {
	if !opts.Verify {
		return
	}
	arcir.Verify(fn, diags)
}

func finish(fns map[string]*arcir.Function, pool typepool.Pool, opts Options, diags *diagnostics.Accumulator) *Result {
	res := &Result{Functions: fns, Diagnostics: diags}
	if !opts.CollectDropInfo {
		return res
	}

	c := classify.New(pool, diags)
	builder := dropinfo.NewBuilder(pool, c)
	for _, fn := range fns {
		builder.ScanFunction(fn)
	}
	res.DropInfo = builder.Build()
	return res
}

func reportPass(opts Options, name, description string) {
	if opts.Progress == nil {
		return
	}
	fmt.Fprintf(opts.Progress, "  - %s: %s\n", name, description)
}

func progressf(opts Options, format string, args ...any) {
	if opts.Progress == nil {
		return
	}
	fmt.Fprintf(opts.Progress, format, args...)
}
