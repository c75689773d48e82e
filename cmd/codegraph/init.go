package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/graphloom/codegraph/pkg/codeintel"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new codegraph data directory and config file",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	for _, dir := range []string{dataDir, filepath.Join(dataDir, "versions"), filepath.Join(dataDir, "vector_index"), filepath.Join(dataDir, "cache")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	cfg := codeintel.DefaultConfig()
	cfg.InMemory = false
	cfg.DataDir = dataDir

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	configPath := "codegraph.yaml"
	if err := os.WriteFile(configPath, out, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Println("initialized codegraph data directory:", dataDir)
	fmt.Println("config written to:", configPath)
	fmt.Println()
	fmt.Println("next: codegraph ingest <snapshot.json>")
	return nil
}
