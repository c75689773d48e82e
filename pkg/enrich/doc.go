package enrich

import "strings"

// commentPrefixes maps a language to the line-comment markers its
// documentation comments use. Block-comment languages (C-family) are
// matched via blockCommentLangs instead.
var commentPrefixes = map[string][]string{
	"Rust":       {"///", "//!", "//"},
	"Go":         {"//"},
	"Python":     {"#"},
	"Ruby":       {"#"},
	"TypeScript": {"//"},
	"JavaScript": {"//"},
	"Java":       {"//"},
	"CSharp":     {"///", "//"},
	"Swift":      {"///", "//"},
	"Php":        {"//", "#"},
}

var blockCommentLangs = map[string]bool{
	"Cpp":  true,
	"Java": true,
	"Php":  true,
}

// extractDoc pulls the contiguous block of documentation-comment lines
// immediately preceding a node's own code within its content span (spec
// §4.7: "doc attribute from contiguous leading documentation
// comments"). The extractor attaches a node's leading comment block to
// its content verbatim ahead of the declaration itself; this walks that
// text top-down collecting comment lines until the first non-comment,
// non-blank line, which is the declaration itself.
func extractDoc(content, language string) (string, bool) {
	if content == "" {
		return "", false
	}
	lines := strings.Split(content, "\n")

	if blockCommentLangs[language] {
		return extractBlockDoc(lines)
	}

	prefixes := commentPrefixes[language]
	if len(prefixes) == 0 {
		prefixes = []string{"//", "#"}
	}

	var doc []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(doc) > 0 {
				break
			}
			continue
		}
		stripped, ok := stripAnyPrefix(trimmed, prefixes)
		if !ok {
			break
		}
		doc = append(doc, strings.TrimSpace(stripped))
	}
	if len(doc) == 0 {
		return "", false
	}
	return strings.Join(doc, "\n"), true
}

func stripAnyPrefix(line string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return strings.TrimPrefix(line, p), true
		}
	}
	return "", false
}

func extractBlockDoc(lines []string) (string, bool) {
	var doc []string
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !inBlock {
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "/**") || strings.HasPrefix(trimmed, "/*") {
				inBlock = true
				trimmed = strings.TrimPrefix(trimmed, "/**")
				trimmed = strings.TrimPrefix(trimmed, "/*")
				if strings.HasSuffix(trimmed, "*/") {
					doc = append(doc, strings.TrimSpace(strings.TrimSuffix(trimmed, "*/")))
					break
				}
				if trimmed != "" {
					doc = append(doc, strings.TrimSpace(trimmed))
				}
				continue
			}
			break
		}
		if strings.HasSuffix(trimmed, "*/") {
			trimmed = strings.TrimSuffix(trimmed, "*/")
			trimmed = strings.TrimPrefix(strings.TrimSpace(trimmed), "*")
			if trimmed != "" {
				doc = append(doc, strings.TrimSpace(trimmed))
			}
			break
		}
		trimmed = strings.TrimPrefix(trimmed, "*")
		doc = append(doc, strings.TrimSpace(trimmed))
	}
	if len(doc) == 0 {
		return "", false
	}
	return strings.Join(doc, "\n"), true
}
