// Package sampling implements the generator's per-column weighted choice.
package sampling

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Weights maps column → value → explicit weight.
type Weights map[string]map[string]float64

// Key renders a catalog value as a Weights key.
func Key(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

// For returns one weight per available value of column.
//
// A value with an explicit weight uses it. Every other value gets
// 1/len(available), computed without regard to the explicit weights;
// the result is deliberately not renormalized.
func (w Weights) For(column string, available []any) []float64 {
	if len(available) == 0 {
		return nil
	}
	explicit := w[column]
	fallback := 1 / float64(len(available))

	weights := make([]float64, len(available))
	for i, v := range available {
		if weight, ok := explicit[Key(v)]; ok {
			weights[i] = weight
			continue
		}
		weights[i] = fallback
	}
	return weights
}

// Source is a uniform [0, 1) generator. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Choose draws one index with probability proportional to its weight:
// a single uniform draw scaled to the total, walked through the
// cumulative sums. Negative weights count as zero. ok is false when no
// weight is positive.
func Choose(src Source, weights []float64) (index int, ok bool) {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1, false
	}

	target := src.Float64() * total
	var cumulative float64
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		last = i
		if target < cumulative {
			return i, true
		}
	}
	// Float rounding can leave target == total; the last positive weight wins.
	return last, true
}

// Pick chooses one of values using w's weights for column.
func Pick(src Source, w Weights, column string, values []any) (any, bool) {
	i, ok := Choose(src, w.For(column, values))
	if !ok {
		return nil, false
	}
	return values[i], true
}

// LockedSource makes a *rand.Rand safe for concurrent use.
type LockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLockedSource wraps rng. A nil rng is seeded randomly.
func NewLockedSource(rng *rand.Rand) *LockedSource {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &LockedSource{rng: rng}
}

// Float64 implements Source.
func (s *LockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
