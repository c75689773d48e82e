package codeintel

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/graphloom/codegraph/pkg/embedding"
	"github.com/graphloom/codegraph/pkg/types"
	"github.com/graphloom/codegraph/pkg/vector"
)

// Config wires every component pkg/codeintel composes. Field groupings
// follow the teacher's `nornicdb.Config` (Storage / Embeddings / Vector
// / Reranker / Observability sections), yaml-tagged the same way so a config
// file overlay (see cmd/codegraph) round-trips cleanly; unlike the
// teacher, values are layered by cmd/codegraph's viper binding rather
// than read directly from the environment here, per SPEC_FULL's
// ambient config design.
type Config struct {
	// Storage
	DataDir  string `yaml:"data_dir"`
	InMemory bool   `yaml:"in_memory"`

	// Embeddings
	EmbeddingProvider string        `yaml:"embedding_provider"` // ollama, openai, hybrid
	OllamaConfig      OllamaConfig  `yaml:"ollama"`
	OpenAIConfig      OpenAIConfig  `yaml:"openai"`
	HybridStrategy    string        `yaml:"hybrid_strategy"` // sequential, fastest_first
	BatchTimeout      time.Duration `yaml:"batch_timeout"`

	// Vector index
	VectorIndexKind string `yaml:"vector_index_kind"` // flat, hnsw, ivf, lsh
	VectorDimension int    `yaml:"vector_dimension"`

	// Reranker
	Reranker vector.RerankerConfig `yaml:"-"`

	// Observability
	MetricsEnabled bool `yaml:"metrics_enabled"`
}

// OllamaConfig mirrors pkg/embedding.OllamaConfig for YAML decoding,
// since that struct itself carries no yaml tags (it is an
// embedding-internal type, not a config-file type).
type OllamaConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// OpenAIConfig mirrors pkg/embedding.OpenAIConfig for YAML decoding.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// DefaultConfig returns the development-oriented defaults: in-memory
// storage, a local Ollama provider, and a flat vector index — mirroring
// `nornicdb.DefaultConfig`'s "runs out of the box with no external
// services except a local Ollama" philosophy, swapped to a flat index
// since that needs no tuning to behave sanely on a first run.
func DefaultConfig() Config {
	return Config{
		InMemory:          true,
		EmbeddingProvider: "ollama",
		OllamaConfig: OllamaConfig{
			BaseURL:    embedding.DefaultOllamaConfig().BaseURL,
			Model:      embedding.DefaultOllamaConfig().Model,
			Dimensions: embedding.DefaultOllamaConfig().Dimensions,
		},
		HybridStrategy:  "sequential",
		BatchTimeout:    2 * time.Minute,
		VectorIndexKind: "flat",
		VectorDimension: embedding.DefaultOllamaConfig().Dimensions,
		Reranker:        vector.DefaultRerankerConfig(),
		MetricsEnabled:  true,
	}
}

// LoadFile decodes a YAML config file on top of DefaultConfig(),
// grounded on `MrWong99-glyphoxa`'s internal/config loader, which reads
// a YAML file straight into its config struct with gopkg.in/yaml.v3
// rather than routing every field through a flag library. cmd/codegraph
// calls this first, then layers environment overrides (read through
// viper) and explicitly passed flags on top, giving flag > env > file >
// default precedence.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, types.Wrap(types.KindInvalidArgument, err, "read config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, types.Wrap(types.KindInvalidArgument, err, "parse config file %s", path)
	}
	return cfg, nil
}
