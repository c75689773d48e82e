package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphloom/codegraph/pkg/types"
)

func newCallChainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "callchain [node_id]",
		Short: "Trace the call chain rooted at a node",
		Args:  cobra.ExactArgs(1),
		RunE:  runCallChain,
	}
	cmd.Flags().Int("max-depth", 10, "maximum call depth")
	return cmd
}

func runCallChain(cmd *cobra.Command, args []string) error {
	id, err := types.ParseNodeId(args[0])
	if err != nil {
		return err
	}
	maxDepth, _ := cmd.Flags().GetInt("max-depth")

	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	hits, err := engine.Retrieval().TraceCallChain(id, maxDepth)
	if err != nil {
		return fmt.Errorf("trace call chain: %w", err)
	}
	for _, h := range hits {
		caller := "-"
		if h.CalledBy != nil {
			caller = h.CalledBy.Name
		}
		fmt.Printf("depth %d  %s  (called by %s)\n", h.Depth, h.Node.Name, caller)
	}
	return nil
}
