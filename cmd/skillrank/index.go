package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/skillrank/internal/domain"
	candidaterepo "github.com/kailas-cloud/skillrank/internal/repository/candidate"
	resumerepo "github.com/kailas-cloud/skillrank/internal/repository/resume"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed candidate profiles from the resume store into the vector index",
	Long: "Pages through the resume store for one scope, embeds each profile's search text and " +
		"upserts the vectors into the candidate index. Creates the index if it does not exist.",
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var (
	indexScope     string
	indexBatchSize int
)

func init() {
	indexCmd.Flags().StringVarP(&indexScope, "scope", "s", "", "Tenant scope to index (required)")
	indexCmd.Flags().IntVar(&indexBatchSize, "batch-size", 100, "Profiles fetched and upserted per batch")

	if err := indexCmd.MarkFlagRequired("scope"); err != nil {
		panic(fmt.Sprintf("failed to mark scope flag as required: %v", err))
	}

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, envName)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.candidates.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure candidate index: %w", err)
	}

	total, err := reindex(ctx, a.resumes, a.docEmbedder, a.candidates, indexScope, indexBatchSize, a.logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d candidates in scope %q\n", total, indexScope)
	return nil
}

type documentPager interface {
	Page(ctx context.Context, scope, after string, limit int) ([]resumerepo.Document, error)
}

type entryUpserter interface {
	Upsert(ctx context.Context, entries []candidaterepo.Entry) error
}

// reindex walks the scope in id order. A profile whose embedding fails is skipped and logged.
func reindex(
	ctx context.Context,
	pager documentPager,
	embedder domain.Embedder,
	index entryUpserter,
	scope string,
	batchSize int,
	logger *zap.Logger,
) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	total, after := 0, ""
	for {
		docs, err := pager.Page(ctx, scope, after, batchSize)
		if err != nil {
			return total, fmt.Errorf("page scope %s after %q: %w", scope, after, err)
		}
		if len(docs) == 0 {
			return total, nil
		}

		entries := make([]candidaterepo.Entry, 0, len(docs))
		for _, doc := range docs {
			res, err := embedder.Embed(ctx, profileText(doc))
			if err != nil {
				if ctx.Err() != nil {
					return total, fmt.Errorf("embed %s: %w", doc.View.ID, err)
				}
				logger.Warn("Skipping candidate, embedding failed",
					zap.String("candidate_id", doc.View.ID), zap.Error(err))
				continue
			}
			entries = append(entries, candidaterepo.Entry{
				ID:     doc.View.ID,
				Scope:  scope,
				Skills: doc.View.Skills,
				Vector: res.Embedding,
			})
		}

		if err := index.Upsert(ctx, entries); err != nil {
			return total, fmt.Errorf("upsert batch after %q: %w", after, err)
		}
		total += len(entries)
		after = docs[len(docs)-1].View.ID
		logger.Info("Indexed batch", zap.Int("batch", len(entries)), zap.Int("total", total))

		if len(docs) < batchSize {
			return total, nil
		}
	}
}

// profileText prefers the stored search text and falls back to headline plus skills.
func profileText(doc resumerepo.Document) string {
	if t := strings.TrimSpace(doc.SearchText); t != "" {
		return t
	}
	return strings.TrimSpace(doc.View.Headline + " " + strings.Join(doc.View.Skills, ", "))
}
