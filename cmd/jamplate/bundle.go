package main

import (
	"fmt"

	"github.com/jamplate/jamplate/internal/spec"
)

// bundleFor resolves the --dialect flag to the concrete spec.Bundle
// that drives parsing, analysis and compilation for this process.
func bundleFor(dialect string) (*spec.Bundle, error) {
	switch dialect {
	case "", "directives":
		return spec.DirectivesBundle(), nil
	case "arithmetic":
		return spec.ArithmeticBundle(), nil
	case "pairs":
		return spec.PairsBundle(), nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", dialect)
	}
}
