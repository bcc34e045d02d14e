// Package main is the skillrank entry point: the streaming search API server and operator commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/skillrank/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "skillrank",
	Short:         "Progressive candidate search ranking engine",
	Long:          "skillrank corrects recruiter queries, parses skills and seniority, and streams tiered candidate rankings.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var envName string

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "Config environment (loads config/<env>.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
