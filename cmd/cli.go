package cmd

import (
	"time"

	"nodestore/internal/cli"

	"github.com/spf13/cobra"
)

// cliCmd represents the CLI command
var cliCmd = &cobra.Command{
	Use:   "cli",
	Short: "Interactive nodestore command-line interface",
	Long: `Interactive nodestore command-line interface in the style of redis-cli.

Connect to a nodestore server and execute commands interactively or in batch mode.

Examples:
  nodestore cli
  nodestore cli --host 127.0.0.1 --port 8080
  nodestore cli --eval "ZADD board 1 alice"
  nodestore cli --file commands.txt`,
	Run: func(cmd *cobra.Command, args []string) {
		cli.RunCLI(cliConfig(cmd), args)
	},
}

func init() {
	rootCmd.AddCommand(cliCmd)

	// Connection flags
	cliCmd.Flags().String("host", "127.0.0.1", "nodestore server host")
	cliCmd.Flags().IntP("port", "p", 8080, "nodestore server port")
	cliCmd.Flags().Duration("timeout", 5*time.Second, "Request timeout")

	// Input/output flags
	cliCmd.Flags().Bool("raw", false, "Use raw formatting for replies")
	cliCmd.Flags().String("eval", "", "Send specified command")
	cliCmd.Flags().String("file", "", "Execute commands from file")
	cliCmd.Flags().Bool("pipe", false, "Pipe mode - read from stdin and write to stdout")
}

func cliConfig(cmd *cobra.Command) *cli.CLIConfig {
	return &cli.CLIConfig{
		Host:    getStringFlag(cmd, "host", "127.0.0.1"),
		Port:    getIntFlag(cmd, "port", 8080),
		Timeout: getDurationFlag(cmd, "timeout", 5*time.Second),
		Raw:     getBoolFlag(cmd, "raw"),
		Eval:    getStringFlag(cmd, "eval", ""),
		File:    getStringFlag(cmd, "file", ""),
		Pipe:    getBoolFlag(cmd, "pipe"),
	}
}
