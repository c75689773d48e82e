// Package vector maintains a searchable index over code node embeddings:
// dense storage, a choice of exact or approximate nearest-neighbor
// structures, advisory clustering, and a multi-stage reranking pipeline
// over the raw ANN results.
package vector

import (
	"github.com/graphloom/codegraph/pkg/types"
)

// Kind selects which ANN structure backs a Store.
type Kind string

const (
	KindFlat Kind = "flat"
	KindHNSW Kind = "hnsw"
	KindIVF  Kind = "ivf"
	KindLSH  Kind = "lsh"
)

// ScoredResult is one hit from a similarity search.
type ScoredResult struct {
	NodeId      types.NodeId
	FinalScore  float64
	ClusterId   *int
	RawDistance float64
}

// SearchConfig tunes a single query per spec §4.4.
type SearchConfig struct {
	K int

	// PrecisionRecallTradeoff in [0,1]: 1.0 favors exact results, 0.0
	// favors the fastest approximate settings each index kind offers.
	PrecisionRecallTradeoff float64

	EnableClustering bool
	ClusterThreshold float64

	ContextWeight float64
	LanguageBoost float64
	TypeBoost     float64

	MaxParallelQueries int

	// QueryLanguage and QueryNodeType anchor the language_boost/type_boost
	// structural rescoring: a candidate only earns the boost when it
	// matches these. Left unset (zero value), nothing matches, so plain
	// vector search (no boost context) falls back to ann_score alone.
	QueryLanguage types.Language
	QueryNodeType types.NodeType
	HasQueryLanguage bool
	HasQueryNodeType bool

	// ContextScores supplies a per-candidate context_score (e.g. derived
	// from a prior graph traversal), combined via ContextWeight.
	ContextScores map[types.NodeId]float64
}

// DefaultSearchConfig mirrors the teacher's HNSW defaults translated
// into tradeoff terms: EfSearch=100 against a typical M=16 graph sits
// around the middle of the precision/recall spectrum.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		K:                       10,
		PrecisionRecallTradeoff: 0.5,
		ClusterThreshold:        0.85,
		MaxParallelQueries:      4,
	}
}

// candidateContext is the structural information scoring needs beyond
// raw ANN similarity: the candidate's own language/type, looked up
// against the query's via SearchConfig.
type candidateContext struct {
	language types.Language
	nodeType types.NodeType
}

// finalScore implements spec §4.4's scoring formula:
//
//	final_score = ann_score + language_boost·same_language
//	            + type_boost·same_type + context_weight·context_score
func finalScore(annScore float64, id types.NodeId, cand candidateContext, cfg SearchConfig) float64 {
	score := annScore
	if cfg.HasQueryLanguage && cand.language == cfg.QueryLanguage {
		score += cfg.LanguageBoost
	}
	if cfg.HasQueryNodeType && cand.nodeType == cfg.QueryNodeType {
		score += cfg.TypeBoost
	}
	if cfg.ContextScores != nil {
		score += cfg.ContextWeight * cfg.ContextScores[id]
	}
	return score
}
