package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphloom/codegraph/pkg/types"
)

func newDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps [node_id]",
		Short: "Transitive or reverse dependencies of a node",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeps,
	}
	cmd.Flags().String("edge-type", "Imports", "edge type to traverse")
	cmd.Flags().Int("depth", 5, "maximum traversal depth")
	cmd.Flags().Bool("reverse", false, "find dependents instead of dependencies")
	return cmd
}

func runDeps(cmd *cobra.Command, args []string) error {
	id, err := types.ParseNodeId(args[0])
	if err != nil {
		return err
	}
	edgeTypeStr, _ := cmd.Flags().GetString("edge-type")
	depth, _ := cmd.Flags().GetInt("depth")
	reverse, _ := cmd.Flags().GetBool("reverse")

	edgeType, err := parseEdgeType(edgeTypeStr)
	if err != nil {
		return err
	}

	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	if reverse {
		hits, err := engine.Retrieval().GetReverseDependencies(id, edgeType, depth)
		if err != nil {
			return fmt.Errorf("reverse dependencies: %w", err)
		}
		for _, h := range hits {
			fmt.Printf("depth %d  %s  %s\n", h.Depth, h.Node.Name, h.Node.FilePath)
		}
		return nil
	}

	hits, err := engine.Retrieval().GetTransitiveDependencies(id, edgeType, depth)
	if err != nil {
		return fmt.Errorf("transitive dependencies: %w", err)
	}
	for _, h := range hits {
		fmt.Printf("depth %d  %s  %s\n", h.Depth, h.Node.Name, h.Node.FilePath)
	}
	return nil
}
