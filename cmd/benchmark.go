package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"nodestore/internal/benchmark"

	"github.com/spf13/cobra"
)

var defaultBenchmarkCommands = strings.Join(benchmark.DefaultCommands, ",")

// benchmarkCmd represents the benchmark command
var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Run load tests against a nodestore server",
	Long: `Run load tests against a running nodestore server over HTTP.

Examples:
  nodestore benchmark --requests 10000 --concurrency 10
  nodestore benchmark --commands SET,GET,ZADD --requests 5000
  nodestore benchmark --csv`,
	Run: runBenchmark,
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)

	// Connection flags
	benchmarkCmd.Flags().String("host", "127.0.0.1", "nodestore server host")
	benchmarkCmd.Flags().IntP("port", "p", 8080, "nodestore server port")
	benchmarkCmd.Flags().Duration("timeout", 5*time.Second, "Request timeout")

	// Benchmark configuration
	benchmarkCmd.Flags().Int("requests", 10000, "Total number of requests per command")
	benchmarkCmd.Flags().IntP("concurrency", "c", 50, "Number of parallel workers")
	benchmarkCmd.Flags().String("commands", defaultBenchmarkCommands, "Comma-separated list of commands to test")
	benchmarkCmd.Flags().Int("data-size", 2, "Size of written values in bytes")
	benchmarkCmd.Flags().Int("keyspace", 1000, "Keyspace size for random key generation")

	// Output flags
	benchmarkCmd.Flags().BoolP("quiet", "q", false, "Quiet mode (only show results)")
	benchmarkCmd.Flags().Bool("csv", false, "Output in CSV format")
}

func benchmarkConfig(cmd *cobra.Command) *benchmark.Config {
	host := getStringFlag(cmd, "host", "127.0.0.1")
	port := getIntFlag(cmd, "port", 8080)

	config := &benchmark.Config{
		BaseURL:     "http://" + net.JoinHostPort(host, strconv.Itoa(port)),
		Requests:    getIntFlag(cmd, "requests", 10000),
		Concurrency: getIntFlag(cmd, "concurrency", 50),
		Timeout:     getDurationFlag(cmd, "timeout", 5*time.Second),
		DataSize:    getIntFlag(cmd, "data-size", 2),
		KeySpace:    getIntFlag(cmd, "keyspace", 1000),
		Quiet:       getBoolFlag(cmd, "quiet"),
		CSV:         getBoolFlag(cmd, "csv"),
	}

	for _, name := range strings.Split(getStringFlag(cmd, "commands", defaultBenchmarkCommands), ",") {
		if name = strings.TrimSpace(name); name != "" {
			config.Commands = append(config.Commands, name)
		}
	}
	return config
}

func runBenchmark(cmd *cobra.Command, _ []string) {
	config := benchmarkConfig(cmd)

	if !config.Quiet && !config.CSV {
		fmt.Printf("Benchmarking %s with %d requests, %d workers, commands %s\n\n",
			config.BaseURL, config.Requests, config.Concurrency, strings.Join(config.Commands, ","))
	}

	results, err := benchmark.Run(context.Background(), config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Benchmark failed: %v\n", err)
		os.Exit(1)
	}
	benchmark.PrintResults(os.Stdout, results, config)
}
