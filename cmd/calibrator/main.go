// Command calibrator runs a parameter calibration against an external
// simulator and evaluator, searching for the parameter combination that
// minimizes the evaluator's reported error.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/cwbudde/calibrator/bestk"
	"github.com/cwbudde/calibrator/calibrate"
	"github.com/cwbudde/calibrator/cluster"
	"github.com/cwbudde/calibrator/coordinate"
	"github.com/cwbudde/calibrator/internal/config"
)

func main() {
	nthreads := flag.Int("nthreads", runtime.NumCPU(), "number of worker goroutines")
	debug := flag.Bool("debug", false, "keep trial transient files")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: calibrator [-nthreads <W>] <config-file>")
		os.Exit(1)
	}
	if *nthreads < 1 {
		*nthreads = 1
	}

	c, err := config.Load(flag.Arg(0))
	if err != nil {
		die("%v", err)
	}
	defer c.Close()

	c.Workers = *nthreads
	c.Debug = *debug
	if c.WorkDir == "" {
		if wd, err := os.Getwd(); err == nil {
			c.WorkDir = wd
		}
	}
	// Single-process run: this is both rank 0 and the only rank.
	c.Rank = 0
	c.Ranks = 1

	fmt.Printf("nthreads=%d\n", c.Workers)
	if c.Ranks > 1 {
		fmt.Printf("rank=%d/%d\n", c.Rank, c.Ranks)
	}

	ctx := context.Background()
	if err := coordinate.Run(ctx, c, nil); err != nil {
		die("%v", err)
	}

	best, err := coordinate.MergeRanks(cluster.NewLocal(c.Ranks), c.Rank, c.NBests, &c.Best)
	if err != nil {
		die("%v", err)
	}
	if c.Rank != 0 {
		return
	}
	printWinner(c, best)
}

func printWinner(c *calibrate.Calibration, best []bestk.Entry) {
	if len(best) == 0 {
		die("no candidate produced a finite score")
	}
	winner := best[0]

	fmt.Println("THE BEST IS")
	fmt.Printf("error=%e\n", winner.Score)
	for j, v := range c.Variables {
		fmt.Printf("parameter%d=%s\n", j, v.Print(winner.Values[j]))
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
