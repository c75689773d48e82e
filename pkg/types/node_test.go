package types

import "testing"

func TestNodeTypeTextRoundTrips(t *testing.T) {
	text, err := FunctionNode.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var nt NodeType
	if err := nt.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}
	if nt.String() != "Function" {
		t.Fatalf("got %q", nt.String())
	}
}

func TestNodeTypeOtherRoundTrips(t *testing.T) {
	other := OtherNodeType("macro")
	var nt NodeType
	text, _ := other.MarshalText()
	if err := nt.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}
	tag, ok := nt.IsOther()
	if !ok || tag != "macro" {
		t.Fatalf("expected Other(macro), got %q ok=%v", tag, ok)
	}
}

func TestLanguageTextRoundTrips(t *testing.T) {
	text, _ := GoLang.MarshalText()
	var l Language
	if err := l.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}
	if l.String() != "Go" {
		t.Fatalf("got %q", l.String())
	}
}

func TestIngestionTextIncludesContentWhenPresent(t *testing.T) {
	content := "func DoThing() {}"
	n := CodeNode{Name: "DoThing", NodeType: FunctionNode, Language: GoLang, Content: &content}
	got := n.IngestionText()
	want := "Go Function DoThing func DoThing() {}"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
