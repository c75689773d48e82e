package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHubsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hubs",
		Short: "List nodes with total degree at or above a threshold",
		RunE:  runHubs,
	}
	cmd.Flags().Int("min-degree", 10, "minimum total degree")
	return cmd
}

func runHubs(cmd *cobra.Command, args []string) error {
	minDegree, _ := cmd.Flags().GetInt("min-degree")

	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	hubs, err := engine.Retrieval().GetHubNodes(minDegree)
	if err != nil {
		return fmt.Errorf("hub nodes: %w", err)
	}
	for _, h := range hubs {
		fmt.Printf("%s  degree=%d  in=%v  out=%v\n", h.Node.Name, h.TotalDegree, h.InByType, h.OutByType)
	}
	return nil
}
