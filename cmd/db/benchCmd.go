package db

import (
	"fmt"
	"os"
	"sync"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/PauloFerreira25/velostream/cmd/util"
	"github.com/PauloFerreira25/velostream/driver/common"
)

var (
	benchCmd = &cobra.Command{
		Use:     "bench",
		Short:   "Benchmark request latency against the configured deployment",
		Args:    cobra.NoArgs,
		RunE:    runBench,
		PreRunE: processBenchConfig,
	}

	benchRequests   = 1000
	benchParallel   = 10
	benchShowDriver = false
)

func init() {
	// add flags
	key := "requests"
	benchCmd.Flags().Int(key, 1000, util.WrapString("Total number of requests to send"))
	key = "parallel"
	benchCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines issuing requests concurrently"))
	key = "driver-metrics"
	benchCmd.Flags().Bool(key, false, util.WrapString("Also print the driver's internal metrics in Prometheus text format"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	benchRequests = viper.GetInt("requests")
	benchParallel = viper.GetInt("parallel")
	benchShowDriver = viper.GetBool("driver-metrics")
	return nil
}

func runBench(cmd *cobra.Command, _ []string) error {
	fmt.Printf("sending %d requests with %d goroutines...\n", benchRequests, benchParallel)

	req, err := common.NewRequest("_system", common.RequestTypeGet, "/_api/version")
	if err != nil {
		return err
	}

	timer := gometrics.NewTimer()
	var failures int64
	var mu sync.Mutex

	work := make(chan struct{}, benchRequests)
	for i := 0; i < benchRequests; i++ {
		work <- struct{}{}
	}
	close(work)

	var wg sync.WaitGroup
	for i := 0; i < benchParallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range work {
				start := time.Now()
				_, err := communication.Execute(cmd.Context(), req)
				timer.UpdateSince(start)
				if err != nil {
					mu.Lock()
					failures++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	printTimer(timer, failures)

	if benchShowDriver {
		fmt.Println()
		common.WriteMetrics(os.Stdout)
	}
	return nil
}

// printTimer renders the latency snapshot of the run
func printTimer(timer gometrics.Timer, failures int64) {
	toMs := func(ns float64) float64 { return ns / float64(time.Millisecond) }

	fmt.Println()
	fmt.Printf("%-12s: %d (%d failed)\n", "requests", timer.Count(), failures)
	fmt.Printf("%-12s: %.2f req/s\n", "rate", timer.RateMean())
	fmt.Printf("%-12s: %.3f ms\n", "mean", toMs(timer.Mean()))
	fmt.Printf("%-12s: %.3f ms\n", "p50", toMs(timer.Percentile(0.50)))
	fmt.Printf("%-12s: %.3f ms\n", "p95", toMs(timer.Percentile(0.95)))
	fmt.Printf("%-12s: %.3f ms\n", "p99", toMs(timer.Percentile(0.99)))
	fmt.Printf("%-12s: %.3f ms\n", "max", toMs(float64(timer.Max())))
}
