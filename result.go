package fpgrowth

import (
	"slices"
	"sort"

	"github.com/oarkflow/json"

	"github.com/oarkflow/fpgrowth/utils"
)

// Pattern is one frequent itemset together with the number of transactions
// supporting it.
type Pattern[T Item] struct {
	Items   []T `json:"items"`
	Support int `json:"support"`
}

// Result accumulates the frequent patterns mined from one tree plus the
// elimination records retained for diagnostics. Patterns keep emission order;
// a canonical-key index serves set-based lookups.
type Result[T Item] struct {
	patterns     []Pattern[T]
	supports     map[string]int
	eliminations map[string][]T
}

func newResult[T Item]() *Result[T] {
	return &Result[T]{
		supports:     make(map[string]int),
		eliminations: make(map[string][]T),
	}
}

// patternKey builds the canonical key of an itemset: items sorted by their
// total order, joined with a unit separator.
func patternKey[T Item](items []T) string {
	sorted := make([]T, len(items))
	copy(sorted, items)
	slices.Sort(sorted)
	return utils.JoinKey(sorted)
}

func (r *Result[T]) addPattern(items []T, support int) {
	key := patternKey(items)
	if _, ok := r.supports[key]; ok {
		return
	}
	r.supports[key] = support
	r.patterns = append(r.patterns, Pattern[T]{Items: items, Support: support})
}

// addElimination records an excluded candidate pattern or source transaction,
// deduplicated by exact item sequence.
func (r *Result[T]) addElimination(items []T) {
	key := utils.JoinKey(items)
	if _, ok := r.eliminations[key]; ok {
		return
	}
	r.eliminations[key] = items
}

// merge folds a recursive call's owned accumulator into r.
func (r *Result[T]) merge(other *Result[T]) {
	if other == nil {
		return
	}
	for _, p := range other.patterns {
		key := patternKey(p.Items)
		if _, ok := r.supports[key]; ok {
			continue
		}
		r.supports[key] = p.Support
		r.patterns = append(r.patterns, p)
	}
	for key, items := range other.eliminations {
		if _, ok := r.eliminations[key]; !ok {
			r.eliminations[key] = items
		}
	}
}

// Patterns returns the mined patterns in emission order.
func (r *Result[T]) Patterns() []Pattern[T] {
	out := make([]Pattern[T], len(r.patterns))
	copy(out, r.patterns)
	return out
}

// PatternCount returns the number of distinct frequent patterns.
func (r *Result[T]) PatternCount() int {
	return len(r.patterns)
}

// Support reports the support of the given itemset and whether it was mined
// as frequent. Item order does not matter.
func (r *Result[T]) Support(items ...T) (int, bool) {
	support, ok := r.supports[patternKey(items)]
	return support, ok
}

// SortedBySupport returns the patterns ordered by descending support; equal
// supports order by ascending canonical key so the result is deterministic.
func (r *Result[T]) SortedBySupport() []Pattern[T] {
	out := r.Patterns()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Support != out[j].Support {
			return out[i].Support > out[j].Support
		}
		return patternKey(out[i].Items) < patternKey(out[j].Items)
	})
	return out
}

// Eliminations returns the excluded candidate patterns and trimmed source
// transactions, in canonical key order.
func (r *Result[T]) Eliminations() [][]T {
	keys := make([]string, 0, len(r.eliminations))
	for key := range r.eliminations {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([][]T, 0, len(keys))
	for _, key := range keys {
		out = append(out, r.eliminations[key])
	}
	return out
}

// EliminationCount returns the number of distinct elimination records.
func (r *Result[T]) EliminationCount() int {
	return len(r.eliminations)
}

// MarshalJSON renders the result as {"patterns": [...], "eliminations": [...]}
// with patterns sorted by descending support.
func (r *Result[T]) MarshalJSON() ([]byte, error) {
	payload := struct {
		Patterns     []Pattern[T] `json:"patterns"`
		Eliminations [][]T        `json:"eliminations,omitempty"`
	}{
		Patterns:     r.SortedBySupport(),
		Eliminations: r.Eliminations(),
	}
	return json.Marshal(payload)
}
