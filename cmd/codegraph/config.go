package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/graphloom/codegraph/pkg/codeintel"
)

// buildEngineConfig resolves the three-tier precedence: codeintel's own
// YAML file reader (gopkg.in/yaml.v3) sets the base, viper's bound
// environment variables override it where set, and finally any flag
// the caller explicitly passed on this invocation wins outright.
func buildEngineConfig(cmd *cobra.Command) codeintel.Config {
	path := cfgFile
	if path == "" {
		path = "codegraph.yaml"
	}
	cfg, err := codeintel.LoadFile(path)
	if err != nil {
		cfg = codeintel.DefaultConfig()
	}

	if viper.IsSet("data-dir") {
		cfg.DataDir = viper.GetString("data-dir")
	}
	if viper.IsSet("in-memory") {
		cfg.InMemory = viper.GetBool("in-memory")
	}
	if viper.IsSet("metrics") {
		cfg.MetricsEnabled = viper.GetBool("metrics")
	}
	if viper.IsSet("embedding-provider") {
		cfg.EmbeddingProvider = viper.GetString("embedding-provider")
	}
	if viper.IsSet("embedding-url") {
		cfg.OllamaConfig.BaseURL = viper.GetString("embedding-url")
	}
	if viper.IsSet("embedding-model") {
		cfg.OllamaConfig.Model = viper.GetString("embedding-model")
	}
	if viper.IsSet("embedding-dim") {
		cfg.OllamaConfig.Dimensions = viper.GetInt("embedding-dim")
		cfg.VectorDimension = cfg.OllamaConfig.Dimensions
	}
	if viper.IsSet("openai-api-key") {
		cfg.OpenAIConfig.APIKey = viper.GetString("openai-api-key")
	}
	if viper.IsSet("openai-model") {
		cfg.OpenAIConfig.Model = viper.GetString("openai-model")
	}
	if viper.IsSet("vector-index") {
		cfg.VectorIndexKind = viper.GetString("vector-index")
	}

	flags := cmd.Flags()
	applyChangedFlag(flags, "data-dir", &cfg.DataDir)
	applyChangedFlag(flags, "embedding-provider", &cfg.EmbeddingProvider)
	applyChangedFlag(flags, "embedding-url", &cfg.OllamaConfig.BaseURL)
	applyChangedFlag(flags, "embedding-model", &cfg.OllamaConfig.Model)
	applyChangedFlag(flags, "openai-api-key", &cfg.OpenAIConfig.APIKey)
	applyChangedFlag(flags, "openai-model", &cfg.OpenAIConfig.Model)
	applyChangedFlag(flags, "vector-index", &cfg.VectorIndexKind)
	if flags.Changed("in-memory") {
		cfg.InMemory, _ = flags.GetBool("in-memory")
	}
	if flags.Changed("metrics") {
		cfg.MetricsEnabled, _ = flags.GetBool("metrics")
	}
	if flags.Changed("embedding-dim") {
		cfg.OllamaConfig.Dimensions, _ = flags.GetInt("embedding-dim")
		cfg.VectorDimension = cfg.OllamaConfig.Dimensions
	}

	return cfg
}

func applyChangedFlag(flags *pflag.FlagSet, name string, dest *string) {
	if flags.Changed(name) {
		*dest, _ = flags.GetString(name)
	}
}
