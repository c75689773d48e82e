package retrieval

import (
	"fmt"
	"sort"
	"strings"
)

// ContextPriorities weighs each section of a composed context when it
// must be compressed to fit a token budget (SPEC_FULL §4.9, ported
// from `context_optimizer.rs`'s ContextPriorities).
type ContextPriorities struct {
	SemanticMatches    float32
	GraphRelationships float32
	UsagePatterns      float32
	TeamConventions    float32
	HistoricalContext  float32
}

// DefaultContextPriorities matches the original pipeline's balanced
// preset: semantic matches dominate, then graph relationships, usage
// patterns, team conventions, and finally historical context.
func DefaultContextPriorities() ContextPriorities {
	return ContextPriorities{
		SemanticMatches:    0.4,
		GraphRelationships: 0.25,
		UsagePatterns:      0.2,
		TeamConventions:    0.1,
		HistoricalContext:  0.05,
	}
}

// ContextConfig tunes the context builder.
type ContextConfig struct {
	MaxTokens            int
	Priorities           ContextPriorities
	CompressionThreshold float32
}

// DefaultContextConfig allows ~80% of a 128K context window, matching
// the original's headroom for the model's own response.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		MaxTokens:            100000,
		Priorities:           DefaultContextPriorities(),
		CompressionThreshold: 0.8,
	}
}

type contextSection struct {
	name    string
	content string
}

// ContextBuilder packs a composed retrieval result (semantic matches
// plus optional graph/usage/convention sections) into a single bounded
// string for a downstream LLM, compressing from the bottom of the
// priority order when it doesn't fit.
type ContextBuilder struct {
	cfg      ContextConfig
	sections []contextSection
}

// NewContextBuilder starts a builder for one query.
func NewContextBuilder(cfg ContextConfig) *ContextBuilder {
	return &ContextBuilder{cfg: cfg}
}

// AddSemanticMatches renders the top search hits as the highest-priority
// section.
func (b *ContextBuilder) AddSemanticMatches(query string, hits []SearchHit) *ContextBuilder {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SEMANTIC MATCHES FOR: %s\n\n", query)
	limit := len(hits)
	if limit > 15 {
		limit = 15
	}
	for i, h := range hits[:limit] {
		fmt.Fprintf(&sb, "%d. %s (%s)\n   File: %s\n   Relevance: %.3f\n\n",
			i+1, h.Node.Name, h.Node.NodeType, h.Node.FilePath, h.Similarity)
	}
	b.sections = append(b.sections, contextSection{name: "SEMANTIC MATCHES", content: sb.String()})
	return b
}

// AddGraphRelationships renders dependency/coupling context gathered by
// the graph-analysis primitives.
func (b *ContextBuilder) AddGraphRelationships(summary string) *ContextBuilder {
	if summary == "" {
		return b
	}
	content := "GRAPH RELATIONSHIPS AND DEPENDENCIES:\n\n" + summary
	b.sections = append(b.sections, contextSection{name: "GRAPH RELATIONSHIPS", content: content})
	return b
}

// AddUsagePatterns renders a caller-supplied summary of how the
// matched code is used elsewhere in the repository.
func (b *ContextBuilder) AddUsagePatterns(summary string) *ContextBuilder {
	if summary == "" {
		return b
	}
	content := "USAGE PATTERNS:\n\n" + summary
	b.sections = append(b.sections, contextSection{name: "USAGE PATTERNS", content: content})
	return b
}

// AddTeamConventions renders a caller-supplied summary of coding
// conventions observed across the matched code.
func (b *ContextBuilder) AddTeamConventions(summary string) *ContextBuilder {
	if summary == "" {
		return b
	}
	content := "TEAM CONVENTIONS:\n\n" + summary
	b.sections = append(b.sections, contextSection{name: "TEAM CONVENTIONS", content: content})
	return b
}

// estimateTokens is the same rough 4-characters-per-token approximation
// the original uses rather than a real tokenizer, since the context
// builder only needs to stay in the right order of magnitude.
func estimateTokens(text string) int {
	return len(text) / 4
}

// Build concatenates sections in priority order, then compresses if the
// total exceeds CompressionThreshold of MaxTokens.
func (b *ContextBuilder) Build() string {
	sort.SliceStable(b.sections, func(i, j int) bool {
		return b.sectionWeight(b.sections[i].name) > b.sectionWeight(b.sections[j].name)
	})
	var full strings.Builder
	for _, s := range b.sections {
		full.WriteString(s.content)
		full.WriteString("\n")
	}
	assembled := full.String()

	threshold := int(float32(b.cfg.MaxTokens) * b.cfg.CompressionThreshold)
	if estimateTokens(assembled) <= threshold {
		return assembled
	}
	return b.compress(b.cfg.MaxTokens)
}

func (b *ContextBuilder) sectionWeight(name string) float32 {
	switch strings.ToUpper(name) {
	case "SEMANTIC MATCHES", "SEARCH RESULTS":
		return b.cfg.Priorities.SemanticMatches
	case "GRAPH RELATIONSHIPS", "DEPENDENCIES":
		return b.cfg.Priorities.GraphRelationships
	case "USAGE PATTERNS", "PATTERNS":
		return b.cfg.Priorities.UsagePatterns
	case "TEAM CONVENTIONS", "CONVENTIONS":
		return b.cfg.Priorities.TeamConventions
	default:
		return 0.05
	}
}

// compress allocates targetTokens*4 characters across sections in
// priority order, proportional to each section's configured weight,
// compressing any section that doesn't fit its allocation and dropping
// the rest once the budget is spent.
func (b *ContextBuilder) compress(targetTokens int) string {
	targetChars := targetTokens * 4
	usedChars := 0

	var out strings.Builder
	for _, s := range b.sections {
		weight := b.sectionWeight(s.name)
		allocated := int(float32(targetChars) * weight)

		content := s.content
		if len(content) > allocated {
			content = compressSection(content, allocated)
		}
		fmt.Fprintf(&out, "%s\n%s\n\n", s.name, content)
		usedChars += len(content)

		if usedChars >= targetChars {
			break
		}
	}

	fmt.Fprintf(&out, "\n[Context optimized for %dK tokens]", targetTokens/1000)
	return out.String()
}

// compressSection keeps the first and last third of targetChars and
// replaces the middle with a placeholder noting how much was dropped,
// preserving a section's opening signature and closing context while
// discarding its body — the same head/tail strategy as
// `context_optimizer.rs`'s compress_section.
func compressSection(content string, targetChars int) string {
	if len(content) <= targetChars || targetChars <= 0 {
		return content
	}
	keepStart := targetChars / 3
	keepEnd := targetChars / 3
	if keepStart > len(content) {
		keepStart = len(content)
	}

	start := content[:keepStart]
	var end string
	if len(content) > keepEnd {
		end = content[len(content)-keepEnd:]
	}

	dropped := len(content) - keepStart - keepEnd
	return fmt.Sprintf("%s\n\n[... %d characters compressed ...]\n\n%s", start, dropped, end)
}
