package complexity

import (
	"fmt"
	"strings"
)

// Kind selects the structural metric a Provider computes.
type Kind string

const (
	// Cyclomatic counts linearly independent paths (decision points + 1).
	Cyclomatic Kind = "cyclomatic"
	// Cognitive weights control flow by nesting depth.
	Cognitive Kind = "cognitive"
)

// DefaultKind is used when no kind is configured.
const DefaultKind = Cyclomatic

// Kinds lists the accepted kind names.
func Kinds() []string {
	return []string{string(Cyclomatic), string(Cognitive)}
}

// ParseKind converts a name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Cyclomatic:
		return Cyclomatic, nil
	case Cognitive:
		return Cognitive, nil
	default:
		return "", fmt.Errorf("unknown complexity %q (valid: %s)", s, strings.Join(Kinds(), ", "))
	}
}

func (k Kind) String() string { return string(k) }
