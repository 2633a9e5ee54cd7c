package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
	"github.com/zoobzio/parafor"
)

var (
	benchN       int
	benchWorkers int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare sequential vs. parafor across every policy mode",
	Long:  "Run an identical CPU-bound workload sequentially and under each named Mode, printing elapsed time for each.",
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchN, "n", 2_000_000, "number of iterations")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 0, "worker count (0 resolves from the environment)")
}

var benchModes = []parafor.Mode{
	parafor.ModeStealing,
	parafor.ModeSharing,
	parafor.ModeStealingGrain,
	parafor.ModeSharingStealing,
	parafor.ModeStealingAuto,
	parafor.ModeSharingAuto,
}

func benchWork(i int) float64 {
	return math.Sqrt(float64(i)) * math.Sin(float64(i))
}

func runBench(cmd *cobra.Command, args []string) error {
	out := make([]float64, benchN)

	start := time.Now()
	for i := 0; i < benchN; i++ {
		out[i] = benchWork(i)
	}
	fmt.Printf("sequential         n=%d elapsed=%s\n", benchN, time.Since(start))

	pool := parafor.NewPool(benchWorkers)
	defer pool.Shutdown()

	for _, mode := range benchModes {
		start = time.Now()
		pool.ParallelFor(0, benchN, func(i int) {
			out[i] = benchWork(i)
		}, parafor.WithMode(mode))
		fmt.Printf("%-18s n=%d workers=%d elapsed=%s\n", mode, benchN, pool.NumWorkers(), time.Since(start))
	}
	return nil
}
