package benchmark

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nodestore/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func newConfig(t *testing.T, commands ...string) *Config {
	t.Helper()
	ts := httptest.NewServer(api.New(api.Config{}).Handler())
	t.Cleanup(ts.Close)
	return &Config{
		BaseURL:     ts.URL,
		Requests:    20,
		Concurrency: 3,
		Timeout:     time.Second,
		Commands:    commands,
		DataSize:    4,
		KeySpace:    10,
	}
}

func TestRunAllCommands(t *testing.T) {
	config := newConfig(t, DefaultCommands...)

	results, err := Run(context.Background(), config)
	require.NoError(t, err)
	require.Len(t, results, len(DefaultCommands))

	for i, r := range results {
		assert.Equal(t, DefaultCommands[i], r.Command)
		assert.Equal(t, 20, r.Requests)
		assert.Equal(t, 0, r.Errors, r.Command)
		assert.Greater(t, r.Throughput, 0.0)
		assert.LessOrEqual(t, r.P50Latency, r.P99Latency)
	}
}

func countingServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	hits := atomic.NewInt64(0)
	handler := api.New(api.Config{}).Handler()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Inc()
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts, hits
}

func TestRunUnknownCommand(t *testing.T) {
	ts, hits := countingServer(t)
	config := &Config{
		BaseURL:     ts.URL,
		Requests:    50,
		Concurrency: 2,
		Timeout:     time.Second,
		Commands:    []string{"SET", "INCR"},
	}

	results, err := Run(context.Background(), config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INCR")
	assert.Nil(t, results)
	assert.Equal(t, int64(0), hits.Load())
}

func TestRunRejectsNonPositiveRequests(t *testing.T) {
	ts, hits := countingServer(t)

	for _, n := range []int{-1, 0} {
		config := &Config{BaseURL: ts.URL, Requests: n, Concurrency: 1, Commands: []string{"PING"}}
		results, err := Run(context.Background(), config)
		require.Error(t, err, n)
		assert.Contains(t, err.Error(), "requests must be positive")
		assert.Nil(t, results)
	}
	assert.Equal(t, int64(0), hits.Load())
}

func TestRunNormalizesCommandNames(t *testing.T) {
	config := newConfig(t, " ping ")
	results, err := Run(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, "PING", results[0].Command)
}

func TestRunCountsErrors(t *testing.T) {
	config := &Config{
		BaseURL:     "http://127.0.0.1:1",
		Requests:    4,
		Concurrency: 2,
		Timeout:     100 * time.Millisecond,
		Commands:    []string{"PING"},
	}
	results, err := Run(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, 4, results[0].Errors)
}

func TestPrintResults(t *testing.T) {
	results := []Result{{
		Command:    "SET",
		Requests:   10,
		Duration:   time.Second,
		Throughput: 10,
		P50Latency: time.Millisecond,
		P95Latency: 2 * time.Millisecond,
		P99Latency: 3 * time.Millisecond,
	}}

	var out bytes.Buffer
	PrintResults(&out, results, &Config{})
	assert.Contains(t, out.String(), "====== SET ======")
	assert.Contains(t, out.String(), "10.00 requests per second")
	assert.Contains(t, out.String(), "p50=1.000ms")

	out.Reset()
	PrintResults(&out, results, &Config{CSV: true})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "SET,10,0,10.00,1.000,2.000,3.000", lines[1])
}
