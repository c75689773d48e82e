package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Semantic search + rerank, ready to hand to a downstream LLM",
		Args:  cobra.ExactArgs(1),
		RunE:  runAsk,
	}
	cmd.Flags().Int("candidates", 20, "candidate pool size before reranking")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	candidates, _ := cmd.Flags().GetInt("candidates")

	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	results, metrics, err := engine.Retrieval().AnswerQuestion(context.Background(), args[0], candidates)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	fmt.Printf("%d candidates reranked in %s\n", metrics.TotalCandidates, metrics.TotalDuration)
	for _, r := range results {
		name := ""
		if r.Node != nil {
			name = r.Node.Name
		}
		fmt.Printf("#%d (was #%d)  %s\n", r.RerankedPosition, r.OriginalRank, name)
	}
	return nil
}
