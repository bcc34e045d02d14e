package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one progressive search and print each stage as a JSON line",
	Long: "Runs the instant, enhanced and complete stages of a search against the configured stores " +
		"and prints every stage as it is produced.",
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var (
	searchScope string
	searchLimit int
)

func init() {
	searchCmd.Flags().StringVarP(&searchScope, "scope", "s", "", "Tenant scope to search within (required)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum results per stage (0 uses the configured default)")

	if err := searchCmd.MarkFlagRequired("scope"); err != nil {
		panic(fmt.Sprintf("failed to mark scope flag as required: %v", err))
	}

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, envName)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.corrector.LoadLearned(ctx); err != nil {
		a.logger.Warn("Failed to load learned corrections")
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for res := range a.search.Search(ctx, strings.Join(args, " "), searchScope, searchLimit) {
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("write %s stage: %w", res.Stage, err)
		}
	}
	return nil
}
