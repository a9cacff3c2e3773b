package benchmark

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"nodestore/internal/client"
)

// Result is the outcome of benchmarking one command
type Result struct {
	Command    string
	Requests   int
	Errors     int
	Duration   time.Duration
	Throughput float64
	P50Latency time.Duration
	P95Latency time.Duration
	P99Latency time.Duration
}

// Config holds the configuration for benchmarking
type Config struct {
	BaseURL     string
	Requests    int
	Concurrency int
	Timeout     time.Duration
	Commands    []string
	DataSize    int
	KeySpace    int
	Quiet       bool
	CSV         bool
}

// DefaultCommands lists every command the benchmark knows how to issue
var DefaultCommands = []string{"PING", "SET", "GET", "LPUSH", "RPUSH", "LRANGE", "SADD", "SMEMBERS", "HSET", "HGET", "ZADD", "ZRANGE"}

type request func(ctx context.Context, c *client.Client, key, value string) error

var requests = map[string]request{
	"PING": func(ctx context.Context, c *client.Client, _, _ string) error { return c.Ping(ctx) },
	"SET":  func(ctx context.Context, c *client.Client, k, v string) error { return c.Set(ctx, "str:"+k, v) },
	"GET": func(ctx context.Context, c *client.Client, k, _ string) error {
		_, err := c.Get(ctx, "str:"+k)
		if err == client.ErrNotFound {
			return nil
		}
		return err
	},
	"LPUSH": func(ctx context.Context, c *client.Client, _, v string) error {
		_, err := c.LPush(ctx, "bench:list", v)
		return err
	},
	"RPUSH": func(ctx context.Context, c *client.Client, _, v string) error {
		_, err := c.RPush(ctx, "bench:list", v)
		return err
	},
	"LRANGE": func(ctx context.Context, c *client.Client, _, _ string) error {
		_, err := c.LRange(ctx, "bench:list", 0, 99)
		return err
	},
	"SADD": func(ctx context.Context, c *client.Client, k, _ string) error {
		_, err := c.SAdd(ctx, "bench:set", k)
		return err
	},
	"SMEMBERS": func(ctx context.Context, c *client.Client, _, _ string) error {
		_, err := c.SMembers(ctx, "bench:set")
		return err
	},
	"HSET": func(ctx context.Context, c *client.Client, k, v string) error {
		_, err := c.HSet(ctx, "bench:hash", k, v)
		return err
	},
	"HGET": func(ctx context.Context, c *client.Client, k, _ string) error {
		_, err := c.HGet(ctx, "bench:hash", k)
		if err == client.ErrNotFound {
			return nil
		}
		return err
	},
	"ZADD": func(ctx context.Context, c *client.Client, k, _ string) error {
		_, err := c.ZAdd(ctx, "bench:zset", map[string]float64{k: rand.Float64()})
		return err
	},
	"ZRANGE": func(ctx context.Context, c *client.Client, _, _ string) error {
		_, err := c.ZRange(ctx, "bench:zset", 0, 99)
		return err
	},
}

// Run benchmarks each configured command in turn. The whole config is
// checked before the first request is sent.
func Run(ctx context.Context, config *Config) ([]Result, error) {
	if config.Requests <= 0 {
		return nil, fmt.Errorf("requests must be positive, got %d", config.Requests)
	}

	names := make([]string, len(config.Commands))
	for i, name := range config.Commands {
		names[i] = strings.ToUpper(strings.TrimSpace(name))
		if _, ok := requests[names[i]]; !ok {
			return nil, fmt.Errorf("unsupported benchmark command %q", names[i])
		}
	}

	c := client.New(client.Config{BaseURL: config.BaseURL, Timeout: config.Timeout})
	value := strings.Repeat("x", config.DataSize)

	results := make([]Result, 0, len(names))
	for _, name := range names {
		results = append(results, runCommand(ctx, c, config, name, requests[name], value))
	}
	return results, nil
}

func runCommand(ctx context.Context, c *client.Client, config *Config, name string, req request, value string) Result {
	concurrency := config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	keySpace := config.KeySpace
	if keySpace < 1 {
		keySpace = 1
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		latencies = make([]time.Duration, 0, config.Requests)
		errors    int
	)

	start := time.Now()
	perWorker, remaining := config.Requests/concurrency, config.Requests%concurrency
	for w := 0; w < concurrency; w++ {
		n := perWorker
		if w < remaining {
			n++
		}

		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			local := make([]time.Duration, 0, n)
			failed := 0
			for i := 0; i < n; i++ {
				key := strconv.Itoa(rand.Intn(keySpace))
				t := time.Now()
				if err := req(ctx, c, key, value); err != nil {
					failed++
				}
				local = append(local, time.Since(t))
			}

			mu.Lock()
			latencies = append(latencies, local...)
			errors += failed
			mu.Unlock()
		}(n)
	}
	wg.Wait()

	result := Result{
		Command:  name,
		Requests: config.Requests,
		Errors:   errors,
		Duration: time.Since(start),
	}
	if result.Duration > 0 {
		result.Throughput = float64(result.Requests) / result.Duration.Seconds()
	}
	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		result.P50Latency = latencies[len(latencies)*50/100]
		result.P95Latency = latencies[len(latencies)*95/100]
		result.P99Latency = latencies[len(latencies)*99/100]
	}
	return result
}

// PrintResults writes results as a table, or CSV when config.CSV is set
func PrintResults(w io.Writer, results []Result, config *Config) {
	if config.CSV {
		fmt.Fprintln(w, "command,requests,errors,rps,p50_ms,p95_ms,p99_ms")
		for _, r := range results {
			fmt.Fprintf(w, "%s,%d,%d,%.2f,%s,%s,%s\n", r.Command, r.Requests, r.Errors, r.Throughput,
				formatMillis(r.P50Latency), formatMillis(r.P95Latency), formatMillis(r.P99Latency))
		}
		return
	}

	for _, r := range results {
		fmt.Fprintf(w, "====== %s ======\n", r.Command)
		fmt.Fprintf(w, "  %d requests completed in %s (%d errors)\n", r.Requests, r.Duration.Round(time.Millisecond), r.Errors)
		fmt.Fprintf(w, "  %.2f requests per second\n", r.Throughput)
		fmt.Fprintf(w, "  latency p50=%sms p95=%sms p99=%sms\n\n",
			formatMillis(r.P50Latency), formatMillis(r.P95Latency), formatMillis(r.P99Latency))
	}
}

func formatMillis(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
}
