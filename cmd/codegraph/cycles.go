package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCyclesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "Detect circular dependencies over a given edge type",
		RunE:  runCycles,
	}
	cmd.Flags().String("edge-type", "Imports", "edge type to traverse")
	return cmd
}

func runCycles(cmd *cobra.Command, args []string) error {
	edgeTypeStr, _ := cmd.Flags().GetString("edge-type")
	edgeType, err := parseEdgeType(edgeTypeStr)
	if err != nil {
		return err
	}

	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	cycles, err := engine.Retrieval().DetectCircularDependencies(edgeType)
	if err != nil {
		return fmt.Errorf("detect cycles: %w", err)
	}
	if len(cycles) == 0 {
		fmt.Println("no cycles found")
		return nil
	}
	for i, c := range cycles {
		names := make([]string, len(c.Nodes))
		for j, n := range c.Nodes {
			names[j] = n.Name
		}
		fmt.Printf("cycle %d: %s\n", i+1, strings.Join(names, " -> "))
	}
	return nil
}
