package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Semantic code search (spec's semantic_code_search)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	cmd.Flags().Int("limit", 10, "maximum results")
	cmd.Flags().Float64("threshold", 0, "minimum similarity (0 disables filtering)")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	hits, err := engine.Retrieval().SemanticCodeSearch(context.Background(), args[0], limit, threshold)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	for _, h := range hits {
		fmt.Printf("%.4f  %s  %s:%d  (%s)\n", h.Similarity, h.Node.Name, h.Node.FilePath, h.Node.Line, h.Node.NodeType)
	}
	return nil
}
