package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/kvrpc/cmd/util"
	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for kvrpc servers",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

// benchmark describes one perf test. prepare runs before the timer starts,
// op is called once per iteration with a per goroutine counter.
type benchmark struct {
	name    string
	prepare bool
	op      func(ctx context.Context, key, value string, counter int) error
}

var benchmarks = []benchmark{
	{name: "put", op: func(ctx context.Context, key, value string, _ int) error {
		return rpcClient.Put(ctx, key, value)
	}},
	{name: "put-large", op: func(ctx context.Context, key, _ string, _ int) error {
		return rpcClient.Put(ctx, key, largeValue)
	}},
	{name: "get", prepare: true, op: func(ctx context.Context, key, _ string, _ int) error {
		_, _, err := rpcClient.Get(ctx, key)
		return err
	}},
	{name: "get-missing", op: func(ctx context.Context, key, _ string, _ int) error {
		_, _, err := rpcClient.Get(ctx, key)
		return err
	}},
	{name: "delete", prepare: true, op: func(ctx context.Context, key, _ string, _ int) error {
		_, err := rpcClient.Delete(ctx, key)
		return err
	}},
	{name: "mixed", prepare: true, op: func(ctx context.Context, key, value string, counter int) error {
		var err error
		switch counter % 3 {
		case 0:
			err = rpcClient.Put(ctx, key, value)
		case 1:
			_, _, err = rpcClient.Get(ctx, key)
		case 2:
			_, err = rpcClient.Delete(ctx, key)
		}
		return err
	}},
}

var largeValue string

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the put-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(1, viper.GetInt("keys"))
	perfNumThreads = max(1, viper.GetInt("threads"))
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	largeValue = strings.Repeat("x", perfLargeValueSizeKB*1024)

	// every call is logged at info level, which would dominate the measurement
	if !cmd.Flags().Changed("log-level") && !viper.IsSet("log-level") {
		return common.InitLoggers("error")
	}
	return nil
}

func runPerf(cmd *cobra.Command, _ []string) error {
	config := util.GetClientConfig(strings.Split(viper.GetString("endpoint"), ","))

	fmt.Println("Performance testing tool for kvrpc servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("staring tests...")

	results := make(map[string]testing.BenchmarkResult)
	for _, bm := range benchmarks {
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(bm.name) {
				return
			}
			runBenchmark(cmd.Context(), b, bm)
		})
		results[bm.name] = result
		printResult(bm.name, result)
	}

	fmt.Println()
	fmt.Println(rpcClient.Stats().String())

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func runBenchmark(ctx context.Context, b *testing.B, bm benchmark) {
	if ctx == nil {
		ctx = context.Background()
	}

	getKey, iter := getKeys(bm.name)

	if bm.prepare {
		iter(func(k string) {
			if err := rpcClient.Put(ctx, k, "test"); err != nil {
				util.Logger.Warningf("(%s) - error putting key: %v", bm.name, err)
			}
		})
	}

	b.Cleanup(func() {
		iter(func(k string) {
			if _, err := rpcClient.Delete(ctx, k); err != nil {
				util.Logger.Warningf("(%s) - error deleting key: %v", bm.name, err)
			}
		})
	})

	b.SetParallelism(perfNumThreads)
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			if err := bm.op(ctx, getKey(counter), "test", counter); err != nil {
				util.Logger.Warningf("(%s) - error performing operation: %v", bm.name, err)
			}
			counter++
		}
	})
}

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// opsPerSecond returns ns/op and ops/sec, both zero for a skipped test
func opsPerSecond(result testing.BenchmarkResult) (float64, float64) {
	if result.NsPerOp() == 0 {
		return 0, 0
	}
	nsPerOp := math.Max(float64(result.NsPerOp()), 1)
	return nsPerOp, 1.0 / (nsPerOp / 1e9)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	nsPerOp, opsPerSec := opsPerSecond(result)
	if nsPerOp == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoints", "Timeout", "ConnectionsPerEndpoint",
		"Serializer", "Transport",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, bm := range benchmarks {
		result, ok := results[bm.name]
		if !ok {
			continue
		}
		nsPerOp, opsPerSec := opsPerSecond(result)

		row := []string{
			bm.name,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			strconv.FormatBool(nsPerOp == 0),
			strings.Join(config.Transport.Endpoints, ";"),
			config.Timeout.String(),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", bm.name, err)
		}
	}

	return nil
}
