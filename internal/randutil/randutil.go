// Package randutil abstracts the random source used for reply selection so
// tests can force every probabilistic branch deterministically.
package randutil

import "math/rand/v2"

// Source supplies the randomness used in reply composition.
type Source interface {
	// IntN returns a uniform int in [0, n). n must be positive.
	IntN(n int) int
	// Float64 returns a uniform float64 in [0.0, 1.0).
	Float64() float64
}

type defaultSource struct{}

func (defaultSource) IntN(n int) int   { return rand.IntN(n) }
func (defaultSource) Float64() float64 { return rand.Float64() }

// Default returns the process-wide math/rand/v2 backed source.
func Default() Source {
	return defaultSource{}
}

// Fixed returns a source that always yields the given values. Intended for
// tests that need to pin a branch.
func Fixed(intN int, float float64) Source {
	return fixedSource{intN: intN, float: float}
}

type fixedSource struct {
	intN  int
	float float64
}

func (s fixedSource) IntN(n int) int {
	if s.intN >= n {
		return n - 1
	}
	return s.intN
}

func (s fixedSource) Float64() float64 { return s.float }
