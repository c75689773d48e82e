// Package main provides the codegraph CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "codegraph",
		Short: "codegraph - code intelligence engine",
		Long: `codegraph ingests a code graph snapshot produced by an external
extractor, indexes it for semantic search and graph analysis, and
answers queries against it.

Features:
  • Versioned node/edge graph store with branches, tags, and merges
  • Embedding-backed semantic code search with reranking
  • Transitive/reverse dependency, cycle, call-chain, and coupling analysis
  • Post-ingestion enrichment (doc-comment attachment, package SCCs)`,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./codegraph.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "./data", "data directory")
	rootCmd.PersistentFlags().Bool("in-memory", false, "use an in-memory store instead of data-dir")
	rootCmd.PersistentFlags().String("embedding-provider", "ollama", "embedding provider: ollama, openai, hybrid")
	rootCmd.PersistentFlags().String("embedding-url", "http://localhost:11434", "Ollama base URL")
	rootCmd.PersistentFlags().String("embedding-model", "nomic-embed-code", "Ollama model name")
	rootCmd.PersistentFlags().Int("embedding-dim", 1024, "embedding dimensions")
	rootCmd.PersistentFlags().String("openai-api-key", "", "OpenAI API key (env CODEGRAPH_OPENAI_API_KEY)")
	rootCmd.PersistentFlags().String("openai-model", "text-embedding-3-small", "OpenAI embedding model")
	rootCmd.PersistentFlags().String("vector-index", "flat", "vector index kind: flat, hnsw, ivf, lsh")
	rootCmd.PersistentFlags().Bool("metrics", true, "enable OpenTelemetry metrics")

	cobra.OnInitialize(initViper)

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newIngestCmd(),
		newSearchCmd(),
		newAskCmd(),
		newDepsCmd(),
		newCyclesCmd(),
		newCallChainCmd(),
		newCouplingCmd(),
		newHubsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// envBindings lists every config key that may be set via a
// CODEGRAPH_-prefixed environment variable, the "env" tier of
// flag/env/file precedence. viper owns this tier only — the "file"
// tier is read directly by codeintel.LoadFile via gopkg.in/yaml.v3, and
// the "flag" tier is read from cobra's own Changed() flags, so each
// layer has exactly one reader and there is no ambiguity about which
// library resolved a given value.
var envBindings = []string{
	"data-dir", "in-memory", "embedding-provider", "embedding-url",
	"embedding-model", "embedding-dim", "openai-api-key", "openai-model",
	"vector-index", "metrics",
}

// initViper registers the environment-variable tier.
func initViper() {
	viper.SetEnvPrefix("CODEGRAPH")
	viper.AutomaticEnv()
	for _, key := range envBindings {
		_ = viper.BindEnv(key)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("codegraph v%s (%s)\n", version, commit)
		},
	}
}
