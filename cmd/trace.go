package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zoobzio/parafor"
)

var (
	traceN       int
	traceWorkers int
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Run a ParallelFor and print its pool lifecycle events",
	Long:  "Subscribe to a Pool's hookz lifecycle events, run a ParallelFor, and print each event as it fires.",
	RunE:  runTrace,
}

func init() {
	traceCmd.Flags().IntVar(&traceN, "n", 200_000, "number of iterations")
	traceCmd.Flags().IntVar(&traceWorkers, "workers", 0, "worker count (0 resolves from the environment)")
}

func runTrace(cmd *cobra.Command, args []string) error {
	pool := parafor.NewPool(traceWorkers)
	defer pool.Shutdown()

	_ = pool.OnShutdown(func(_ context.Context, ev parafor.PoolEvent) error {
		fmt.Printf("event=shutdown workers=%d cancelled=%v\n", ev.NumWorkers, ev.Cancelled)
		return nil
	})

	pool.ParallelFor(0, traceN, func(int) {})
	fmt.Printf("parallel-for done: n=%d workers=%d\n", traceN, pool.NumWorkers())
	return nil
}
