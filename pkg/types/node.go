package types

import (
	"strings"
	"time"
)

// NodeType classifies what a CodeNode represents. The Other variant
// carries a free-form tag for extractor output the closed set doesn't
// anticipate (spec §3).
type NodeType struct {
	kind nodeTypeKind
	tag  string
}

type nodeTypeKind uint8

const (
	NodeFunction nodeTypeKind = iota
	NodeStruct
	NodeEnum
	NodeTrait
	NodeInterface
	NodeClass
	NodeModule
	NodeVariable
	NodeImport
	nodeGenericType
	nodeOther
)

var nodeTypeNames = map[nodeTypeKind]string{
	NodeFunction:    "Function",
	NodeStruct:      "Struct",
	NodeEnum:        "Enum",
	NodeTrait:       "Trait",
	NodeInterface:   "Interface",
	NodeClass:       "Class",
	NodeModule:      "Module",
	NodeVariable:    "Variable",
	NodeImport:      "Import",
	nodeGenericType: "Type",
}

func newNodeType(k nodeTypeKind) NodeType { return NodeType{kind: k} }

var (
	FunctionNode  = newNodeType(NodeFunction)
	StructNode    = newNodeType(NodeStruct)
	EnumNode      = newNodeType(NodeEnum)
	TraitNode     = newNodeType(NodeTrait)
	InterfaceNode = newNodeType(NodeInterface)
	ClassNode     = newNodeType(NodeClass)
	ModuleNode    = newNodeType(NodeModule)
	VariableNode  = newNodeType(NodeVariable)
	ImportNode    = newNodeType(NodeImport)
	TypeNode      = newNodeType(nodeGenericType)
)

// OtherNodeType constructs the open-extension variant carrying tag.
func OtherNodeType(tag string) NodeType { return NodeType{kind: nodeOther, tag: tag} }

// String renders the node type, e.g. "Function" or "Other(macro)".
func (t NodeType) String() string {
	if t.kind == nodeOther {
		return "Other(" + t.tag + ")"
	}
	return nodeTypeNames[t.kind]
}

// IsOther reports whether this is the open-extension variant, and its tag.
func (t NodeType) IsOther() (string, bool) { return t.tag, t.kind == nodeOther }

// MarshalText renders NodeType as its String() form, so it round-trips
// through JSON as a plain string instead of an empty object (its fields
// are unexported).
func (t NodeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText parses NodeType's String() form back into a value,
// falling back to OtherNodeType for anything not in the closed set.
func (t *NodeType) UnmarshalText(text []byte) error {
	*t = parseNodeType(string(text))
	return nil
}

func parseNodeType(s string) NodeType {
	for k, name := range nodeTypeNames {
		if name == s {
			return NodeType{kind: k}
		}
	}
	if tag, ok := strings.CutPrefix(s, "Other("); ok {
		return OtherNodeType(strings.TrimSuffix(tag, ")"))
	}
	return OtherNodeType(s)
}

// Language identifies the source language of a node, mirroring
// NodeType's closed-set-plus-Other shape.
type Language struct {
	kind languageKind
	tag  string
}

type languageKind uint8

const (
	LangRust languageKind = iota
	LangTypeScript
	LangJavaScript
	LangPython
	LangGo
	LangJava
	LangCpp
	LangCSharp
	LangSwift
	LangRuby
	LangPhp
	langOther
)

var languageNames = map[languageKind]string{
	LangRust:       "Rust",
	LangTypeScript: "TypeScript",
	LangJavaScript: "JavaScript",
	LangPython:     "Python",
	LangGo:         "Go",
	LangJava:       "Java",
	LangCpp:        "Cpp",
	LangCSharp:     "CSharp",
	LangSwift:      "Swift",
	LangRuby:       "Ruby",
	LangPhp:        "Php",
}

func newLanguage(k languageKind) Language { return Language{kind: k} }

var (
	Rust       = newLanguage(LangRust)
	TypeScript = newLanguage(LangTypeScript)
	JavaScript = newLanguage(LangJavaScript)
	Python     = newLanguage(LangPython)
	GoLang     = newLanguage(LangGo)
	Java       = newLanguage(LangJava)
	Cpp        = newLanguage(LangCpp)
	CSharp     = newLanguage(LangCSharp)
	Swift      = newLanguage(LangSwift)
	Ruby       = newLanguage(LangRuby)
	Php        = newLanguage(LangPhp)
)

// OtherLanguage constructs the open-extension variant.
func OtherLanguage(tag string) Language { return Language{kind: langOther, tag: tag} }

func (l Language) String() string {
	if l.kind == langOther {
		return "Other(" + l.tag + ")"
	}
	return languageNames[l.kind]
}

// MarshalText renders Language as its String() form.
func (l Language) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText parses Language's String() form back into a value.
func (l *Language) UnmarshalText(text []byte) error {
	*l = parseLanguage(string(text))
	return nil
}

func parseLanguage(s string) Language {
	for k, name := range languageNames {
		if name == s {
			return Language{kind: k}
		}
	}
	if tag, ok := strings.CutPrefix(s, "Other("); ok {
		return OtherLanguage(strings.TrimSuffix(tag, ")"))
	}
	return OtherLanguage(s)
}

// Location is a repository-relative source span.
type Location struct {
	FilePath string `json:"filePath"`
	Line     uint32 `json:"line"`
	Column   uint32 `json:"column"`
	EndLine  uint32 `json:"endLine,omitempty"`
	EndCol   uint32 `json:"endColumn,omitempty"`
}

// NodeMetadata carries free-form attributes plus the two timestamps
// every node tracks. Conventional attribute keys include doc and
// api_visibility, which the enrichment pass sets (spec §4.7), and
// pattern and parent_class, which it does not set.
type NodeMetadata struct {
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Attr is a convenience getter over Attributes that tolerates a nil map.
func (m NodeMetadata) Attr(key string) (string, bool) {
	if m.Attributes == nil {
		return "", false
	}
	v, ok := m.Attributes[key]
	return v, ok
}

// CodeNode is the unit of semantic knowledge codegraph indexes: a
// function, type, module, import, or other code entity, optionally
// augmented with a dense embedding for semantic search.
type CodeNode struct {
	Id         NodeId       `json:"id"`
	Name       string       `json:"name"`
	NodeType   NodeType     `json:"nodeType"`
	Language   Language     `json:"language"`
	Location   Location     `json:"location"`
	Content    *string      `json:"content,omitempty"`
	Complexity *float32     `json:"complexity,omitempty"`
	Embedding  []float32    `json:"embedding,omitempty"`
	Metadata   NodeMetadata `json:"metadata"`
}

// ContentHash derives the content-hash-stable id for n, re-deriving it
// from the node's current fields — used to detect whether an
// embedding or cached result is stale (spec §3's invalidation rule).
func (n *CodeNode) ContentHash() NodeId {
	content := ""
	if n.Content != nil {
		content = *n.Content
	}
	return NewNodeId(n.Name, n.Location, content)
}

// IngestionText builds the text fed to an embedding provider:
// "{language} {node_type} {name} {content?}" per spec §4.3.
func (n *CodeNode) IngestionText() string {
	content := ""
	if n.Content != nil {
		content = *n.Content
	}
	text := n.Language.String() + " " + n.NodeType.String() + " " + n.Name
	if content != "" {
		text += " " + content
	}
	return text
}
