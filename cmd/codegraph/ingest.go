package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphloom/codegraph/pkg/types"
)

// snapshot is the on-disk shape an external extractor's output is
// materialized as, per spec §6's "extractor input contract" (consumed,
// not implemented): a per-file callable's accumulated nodes and edges,
// serialized to JSON so codegraph's own CLI can ingest them without
// embedding an extractor itself.
type snapshot struct {
	Nodes []types.CodeNode        `json:"nodes"`
	Edges []types.EdgeRelationship `json:"edges"`
}

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [snapshot.json]",
		Short: "Ingest a node/edge snapshot into the graph and vector index",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
	cmd.Flags().Duration("timeout", 10*time.Minute, "ingestion timeout")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	timeout, _ := cmd.Flags().GetDuration("timeout")

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}

	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	stats, err := engine.Ingest(ctx, snap.Nodes, snap.Edges)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	fmt.Printf("ingested %d nodes, %d edges (correlation_id=%s)\n", stats.NodesIngested, stats.EdgesIngested, stats.CorrelationID)
	fmt.Printf("embeddings: %d texts via %s in %s (%.1f/s)\n", stats.Embedding.TextsProcessed, stats.Embedding.ProviderName, stats.Embedding.Duration, stats.Embedding.Throughput)
	fmt.Printf("enrichment: %d docs attached, %d package SCCs\n", stats.Enrich.DocsAttached, stats.Enrich.PackageSCCs)
	return nil
}
