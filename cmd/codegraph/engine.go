package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphloom/codegraph/pkg/codeintel"
)

func openEngine(cmd *cobra.Command) (*codeintel.Engine, error) {
	cfg := buildEngineConfig(cmd)
	engine, err := codeintel.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening engine: %w", err)
	}
	return engine, nil
}
