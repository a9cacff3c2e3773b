package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nodestore/internal/api"
	"nodestore/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

const (
	defaultAddr            = "127.0.0.1:8080"
	defaultShutdownTimeout = 10 * time.Second

	addrEnv = "NODESTORE_ADDR"
)

// rootCmd represents base command when called without subcommands
var rootCmd = &cobra.Command{
	Use:   "nodestore",
	Short: "An in-memory store for strings, lists, sets, hashes and sorted sets",
	Long: `An in-memory, single-node data store served over HTTP.
Supports string, list, set, hash and sorted set values under opaque keys.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger.Setup(loggerConfig(cmd))

		srv := api.New(api.Config{
			Addr: listenAddr(cmd),
		})

		if err := srv.Start(); err != nil {
			logger.Errorf("Failed to start server: %v", err)
			_ = logger.Close()
			os.Exit(1)
		}
		logger.Infof("Server started on %s", srv.Addr())

		// Wait for interrupt signal to gracefully shut down the server
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("Shutting down server...")
		if err := shutdown(srv, getDurationFlag(cmd, "shutdown-timeout", defaultShutdownTimeout)); err != nil {
			// the log file may be closed already, so report on stderr too
			os.Stderr.WriteString("shutdown: " + err.Error() + "\n")
			os.Exit(1)
		}
	},
}

// shutdown stops srv and then releases the log file, reporting every failure
func shutdown(srv *api.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var err error
	if closeErr := srv.Close(ctx); closeErr != nil {
		logger.Errorf("Error closing server: %v", closeErr)
		err = multierr.Append(err, closeErr)
	}
	return multierr.Append(err, logger.Close())
}

// Execute adds child commands to root and sets flags appropriately.
// Called by main.main(). Only needs to happen once to rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// server
	rootCmd.Flags().String("addr", defaultAddr, "HTTP listen address (overridden by "+addrEnv+")")
	rootCmd.Flags().Duration("shutdown-timeout", defaultShutdownTimeout, "Time allowed for in-flight requests on shutdown")

	// logging
	rootCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error, fatal)")
	rootCmd.Flags().String("log-format", "text", "Log format (text, json)")
	rootCmd.Flags().String("log-file", "", "Write logs to this file instead of stdout, with rotation")
	rootCmd.Flags().Int("log-max-size", 100, "Maximum size in megabytes of a log file before rotation")
	rootCmd.Flags().Int("log-max-backups", 3, "Number of rotated log files to keep")
	rootCmd.Flags().Int("log-max-age", 28, "Days to keep rotated log files")
	rootCmd.Flags().Bool("log-compress", false, "Gzip rotated log files")
}

func loggerConfig(cmd *cobra.Command) logger.Config {
	return logger.Config{
		Level:      logger.LogLevel(getStringFlag(cmd, "log-level", "info")),
		Format:     getStringFlag(cmd, "log-format", "text"),
		File:       getStringFlag(cmd, "log-file", ""),
		MaxSizeMB:  getIntFlag(cmd, "log-max-size", 100),
		MaxBackups: getIntFlag(cmd, "log-max-backups", 3),
		MaxAgeDays: getIntFlag(cmd, "log-max-age", 28),
		Compress:   getBoolFlag(cmd, "log-compress"),
	}
}

// listenAddr prefers an explicit --addr, then the environment, then the default
func listenAddr(cmd *cobra.Command) string {
	if cmd.Flags().Changed("addr") {
		return getStringFlag(cmd, "addr", defaultAddr)
	}
	if v := os.Getenv(addrEnv); v != "" {
		return v
	}
	return getStringFlag(cmd, "addr", defaultAddr)
}

// Helper functions for flag parsing
func getStringFlag(cmd *cobra.Command, name, defaultValue string) string {
	if value, err := cmd.Flags().GetString(name); err == nil && value != "" {
		return value
	}
	return defaultValue
}

func getBoolFlag(cmd *cobra.Command, name string) bool {
	if value, err := cmd.Flags().GetBool(name); err == nil {
		return value
	}
	return false
}

func getIntFlag(cmd *cobra.Command, name string, defaultValue int) int {
	if value, err := cmd.Flags().GetInt(name); err == nil {
		return value
	}
	return defaultValue
}

func getDurationFlag(cmd *cobra.Command, name string, defaultValue time.Duration) time.Duration {
	if value, err := cmd.Flags().GetDuration(name); err == nil {
		return value
	}
	return defaultValue
}
