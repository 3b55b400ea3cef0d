package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "arenactl",
	Short: "Exercise and inspect the voxarena slab allocator",
	Long: `arenactl runs synthetic allocation workloads against the voxarena
handle-based slab allocator and reports allocator statistics: freelist
hit rates, chunk growth, tail recycling, and dirty-range traffic.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
