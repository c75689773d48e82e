package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphloom/codegraph/pkg/types"
)

func newCouplingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coupling [node_id]",
		Short: "Afferent/efferent coupling and instability for a node",
		Args:  cobra.ExactArgs(1),
		RunE:  runCoupling,
	}
}

func runCoupling(cmd *cobra.Command, args []string) error {
	id, err := types.ParseNodeId(args[0])
	if err != nil {
		return err
	}

	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Retrieval().CalculateCouplingMetrics(id)
	if err != nil {
		return fmt.Errorf("coupling metrics: %w", err)
	}

	fmt.Printf("%s: Ca=%d Ce=%d I=%.3f (%v)\n", result.Node.Name, result.Metrics.Ca, result.Metrics.Ce, result.Metrics.I, result.Metrics.Category)
	fmt.Printf("  %d dependents, %d dependencies\n", len(result.Dependents), len(result.Dependencies))
	return nil
}
