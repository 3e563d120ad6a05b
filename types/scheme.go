package types

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scheme selects the self-scheduling algorithm used to split a work item
// into chunks.
//
// Schemes trade scheduling overhead against load balance. Static schemes
// decide every chunk up front and issue few, large chunks; dynamic schemes
// issue many chunks whose sizes shrink as the remaining work shrinks, so
// stragglers receive less work near the end of a session.
type Scheme int

const (
	// SchemeStatic splits the range into exactly one chunk per worker.
	SchemeStatic Scheme = iota

	// SchemeSelf issues minimum-size chunks (pure self-scheduling).
	SchemeSelf

	// SchemeGuided issues chunks of ceil(remaining/workers) (guided
	// self-scheduling).
	SchemeGuided

	// SchemeTrapezoid issues linearly decreasing chunks between a computed
	// first and last size (trapezoid self-scheduling).
	SchemeTrapezoid

	// SchemeFactoring issues chunks in batches of one per worker, halving
	// the per-batch share of the remaining work (factoring with x = 2).
	SchemeFactoring

	// SchemeTrapezoidFactoring combines factoring batches with the
	// trapezoid decrement inside each batch.
	SchemeTrapezoidFactoring

	// SchemeFixedIncrease decreases the chunk size by a fixed arithmetic
	// step each stage.
	SchemeFixedIncrease

	// SchemeVariableIncrease decreases the chunk size by a step that halves
	// each stage.
	SchemeVariableIncrease

	// SchemePerformanceLoop issues a static fraction first, then resizes the
	// remainder using measured chunk throughput.
	SchemePerformanceLoop

	// SchemeModifiedStatic splits the range into four static chunks per
	// worker.
	SchemeModifiedStatic

	// SchemeModifiedFixedSize issues fixed chunks using a closed-form size
	// that balances scheduling overhead against imbalance.
	SchemeModifiedFixedSize

	// SchemeProbabilistic perturbs the guided chunk size with bounded
	// per-worker randomness to decorrelate queue contention.
	SchemeProbabilistic
)

// schemeNames maps schemes to their canonical configuration tokens.
var schemeNames = map[Scheme]string{
	SchemeStatic:             "STATIC",
	SchemeSelf:               "SS",
	SchemeGuided:             "GSS",
	SchemeTrapezoid:          "TSS",
	SchemeFactoring:          "FAC2",
	SchemeTrapezoidFactoring: "TFSS",
	SchemeFixedIncrease:      "FISS",
	SchemeVariableIncrease:   "VISS",
	SchemePerformanceLoop:    "PLS",
	SchemeModifiedStatic:     "MSTATIC",
	SchemeModifiedFixedSize:  "MFSC",
	SchemeProbabilistic:      "PSS",
}

// String returns the canonical configuration token for the scheme.
func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Scheme(%d)", int(s))
}

// IsValid reports whether the scheme is one of the defined variants.
func (s Scheme) IsValid() bool {
	_, ok := schemeNames[s]
	return ok
}

// ParseScheme parses a configuration token into a Scheme.
//
// Matching is case-insensitive and accepts the canonical tokens returned by
// Scheme.String (STATIC, SS, GSS, TSS, FAC2, TFSS, FISS, VISS, PLS, MSTATIC,
// MFSC, PSS).
//
// Parameters:
//   - s: Token to parse
//
// Returns:
//   - Scheme: Parsed scheme
//   - error: ErrUnknownScheme (wrapping ErrInvalidConfig) for unknown tokens
func ParseScheme(s string) (Scheme, error) {
	token := strings.ToUpper(strings.TrimSpace(s))
	for scheme, name := range schemeNames {
		if name == token {
			return scheme, nil
		}
	}

	return SchemeStatic, fmt.Errorf("%w: %q", ErrUnknownScheme, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scheme) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScheme, int(s))
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scheme) UnmarshalText(text []byte) error {
	parsed, err := ParseScheme(string(text))
	if err != nil {
		return err
	}
	*s = parsed

	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler so scheme tokens can be used
// directly in YAML configuration files.
func (s *Scheme) UnmarshalYAML(value *yaml.Node) error {
	var token string
	if err := value.Decode(&token); err != nil {
		return err
	}

	return s.UnmarshalText([]byte(token))
}
