package cmd

import (
	"testing"
	"time"

	"nodestore/internal/benchmark"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBenchmarkCommand(t *testing.T) {
	assert.NotNil(t, benchmarkCmd)
	assert.Equal(t, "benchmark", benchmarkCmd.Use)
	assert.Equal(t, "Run load tests against a nodestore server", benchmarkCmd.Short)
}

func TestBenchmarkConfigDefaults(t *testing.T) {
	config := benchmarkConfig(benchmarkCmd)

	assert.Equal(t, "http://127.0.0.1:8080", config.BaseURL)
	assert.Equal(t, 10000, config.Requests)
	assert.Equal(t, 50, config.Concurrency)
	assert.Equal(t, 5*time.Second, config.Timeout)
	assert.Equal(t, benchmark.DefaultCommands, config.Commands)
	assert.Equal(t, 2, config.DataSize)
	assert.Equal(t, 1000, config.KeySpace)
	assert.False(t, config.Quiet)
	assert.False(t, config.CSV)
}

func TestBenchmarkConfigCommandList(t *testing.T) {
	flags := benchmarkCmd.Flags()
	t.Cleanup(func() { _ = flags.Set("commands", defaultBenchmarkCommands) })

	require.NoError(t, flags.Set("commands", " SET, GET ,,ZADD"))
	assert.Equal(t, []string{"SET", "GET", "ZADD"}, benchmarkConfig(benchmarkCmd).Commands)
}
