package enrich

import (
	"strings"

	"github.com/graphloom/codegraph/pkg/types"
)

// classifyVisibility derives public/private from source-local naming
// cues (spec §4.7: "visibility cues exposed by the extractor"). The
// extractor surfaces a raw cue in metadata.attributes["visibility"]
// when the language has an explicit keyword (pub, public, export,
// private); languages that encode visibility purely through naming
// convention (Go's capitalization, Python/Ruby's leading underscore)
// are classified from the node name itself.
func classifyVisibility(node types.CodeNode) string {
	if raw, ok := node.Metadata.Attr("visibility"); ok {
		switch strings.ToLower(raw) {
		case "pub", "public", "export", "exported":
			return visibilityPublic
		case "priv", "private", "internal", "unexported":
			return visibilityPrivate
		}
	}

	name := node.Name
	if name == "" {
		return visibilityPrivate
	}

	switch node.Language.String() {
	case "Go":
		r := []rune(name)[0]
		if r >= 'A' && r <= 'Z' {
			return visibilityPublic
		}
		return visibilityPrivate
	case "Python", "Ruby":
		if strings.HasPrefix(name, "_") {
			return visibilityPrivate
		}
		return visibilityPublic
	default:
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, "#") {
			return visibilityPrivate
		}
		return visibilityPublic
	}
}
