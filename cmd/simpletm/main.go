// Package main implements the simpletm demo tool.
//
// The tool runs a producer and a consumer goroutine that hand buffers to
// each other through a single shared pointer slot, using transactions for
// every access:
//
//	simpletm run --duration 10s --rate 5
//	simpletm run --low-mem 3          # fail every third allocation
//	simpletm run --metrics-addr :2112 # expose Prometheus metrics
//	simpletm version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kolkov/simpletm/tm"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "simpletm version %s\n", tm.Version)
		},
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "simpletm",
		Short:         "Word-granular software transactional memory demo",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		newRunCommand(),
		newVersionCommand(),
	)
	return rootCmd
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
