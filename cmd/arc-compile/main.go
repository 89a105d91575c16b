// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"ori/internal/arcir"
	"ori/internal/diagnostics"
	"ori/internal/fixture"
	"ori/internal/lowering"
	"ori/internal/pipeline"
)

func main() {
	parallel := flag.Bool("parallel", false, "run per-function passes concurrently")
	noReuse := flag.Bool("no-reuse", false, "disable constructor reuse (FBIP) detection")
	verify := flag.Bool("verify", false, "run the ARC IR verifier after RC insertion and after RC elimination")
	verbose := flag.Bool("v", false, "print per-function pass progress")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: arc-compile [flags] <fixture.json>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	path := flag.Arg(0)
	raw, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		os.Exit(1)
	}

	pool, typedFns, err := fixture.Load(raw)
	if err != nil {
		color.Red("failed to load fixture %s: %s", path, err)
		os.Exit(1)
	}

	lowerDiags := diagnostics.NewAccumulator()
	lowerer := lowering.New(pool, lowerDiags)
	fns := lowerer.LowerProgram(typedFns)

	opts := pipeline.DefaultOptions()
	opts.RunReuse = !*noReuse
	opts.Verify = *verify
	if *verbose {
		opts.Progress = os.Stdout
	}

	var result *pipeline.Result
	if *parallel {
		result, err = pipeline.RunParallel(context.Background(), fns, pool, opts)
		if err != nil {
			color.Red("pipeline error: %s", err)
			os.Exit(1)
		}
	} else {
		result = pipeline.Run(fns, pool, opts)
	}

	for _, name := range sortedKeys(result.Functions) {
		fmt.Print(arcir.Print(result.Functions[name]))
	}

	reporter := diagnostics.NewReporter()
	reportAll(reporter, lowerDiags)
	reportAll(reporter, result.Diagnostics)

	if lowerDiags.HasErrors() || result.Diagnostics.HasErrors() {
		os.Exit(1)
	}
	color.Green("compiled %d function(s) from %s", len(fns), path)
}

func reportAll(r *diagnostics.Reporter, diags *diagnostics.Accumulator) {
	for _, e := range diags.Errors() {
		fmt.Fprint(os.Stderr, r.Format(e))
	}
}

func sortedKeys(fns map[string]*arcir.Function) []string {
	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}
