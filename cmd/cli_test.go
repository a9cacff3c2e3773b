package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLICommand(t *testing.T) {
	assert.NotNil(t, cliCmd)
	assert.Equal(t, "cli", cliCmd.Use)
	assert.Equal(t, "Interactive nodestore command-line interface", cliCmd.Short)
}

func TestCLIConfigDefaults(t *testing.T) {
	config := cliConfig(cliCmd)

	assert.Equal(t, "127.0.0.1", config.Host)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, 5*time.Second, config.Timeout)
	assert.False(t, config.Raw)
	assert.Equal(t, "", config.Eval)
	assert.Equal(t, "", config.File)
	assert.False(t, config.Pipe)
	assert.Equal(t, "http://127.0.0.1:8080", config.BaseURL())
}

func TestCLIConfigFlags(t *testing.T) {
	flags := cliCmd.Flags()
	t.Cleanup(func() {
		_ = flags.Set("port", "8080")
		_ = flags.Set("raw", "false")
		_ = flags.Set("eval", "")
	})

	require.NoError(t, flags.Parse([]string{"-p", "9000", "--raw", "--eval", "PING"}))

	config := cliConfig(cliCmd)
	assert.Equal(t, 9000, config.Port)
	assert.True(t, config.Raw)
	assert.Equal(t, "PING", config.Eval)
}
