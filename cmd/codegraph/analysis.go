package main

import (
	"fmt"

	"github.com/graphloom/codegraph/pkg/types"
)

// parseEdgeType parses a command-line edge type argument using
// EdgeType's own text round-trip, falling back to the open Other(tag)
// variant for anything not in the closed set (spec §3).
func parseEdgeType(s string) (types.EdgeType, error) {
	var et types.EdgeType
	if err := et.UnmarshalText([]byte(s)); err != nil {
		return et, fmt.Errorf("invalid edge type %q: %w", s, err)
	}
	return et, nil
}
