package fpgrowth

import (
	"cmp"
	"context"
	"errors"
	"runtime"
	"slices"
	"sync"
)

// ErrInvalidSupport is returned when a miner is configured with a minimum
// support below 1. A threshold of 0 would match every item and is rejected at
// the boundary before mining begins.
var ErrInvalidSupport = errors.New("fpgrowth: minimum support must be at least 1")

// Option configures a Miner.
type Option[T Item] func(*Miner[T])

// WithNumOfWorkers mines independent first-level conditional trees in
// parallel. Values below 1 select runtime.NumCPU(). Sibling branches own
// their conditional trees exclusively, so no locking is needed and the
// pattern set is identical to a sequential run.
func WithNumOfWorkers[T Item](numOfWorkers int) Option[T] {
	return func(m *Miner[T]) {
		if numOfWorkers < 1 {
			numOfWorkers = runtime.NumCPU()
		}
		m.numWorkers = numOfWorkers
	}
}

// WithoutEliminations disables elimination tracking. The frequent-pattern set
// is unaffected; only the diagnostic records are skipped.
func WithoutEliminations[T Item]() Option[T] {
	return func(m *Miner[T]) {
		m.trackEliminations = false
	}
}

// Miner runs the FP-Growth algorithm over collections of transactions.
type Miner[T Item] struct {
	minimumSupport    int
	numWorkers        int
	trackEliminations bool
}

// NewMiner creates a miner for the given minimum support.
func NewMiner[T Item](minimumSupport int, opts ...Option[T]) (*Miner[T], error) {
	if minimumSupport < 1 {
		return nil, ErrInvalidSupport
	}
	m := &Miner[T]{
		minimumSupport:    minimumSupport,
		numWorkers:        1,
		trackEliminations: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// MinimumSupport returns the configured threshold.
func (m *Miner[T]) MinimumSupport() int {
	return m.minimumSupport
}

// Mine finds every frequent pattern in the given transactions.
func (m *Miner[T]) Mine(transactions [][]T) *Result[T] {
	result, _ := m.MineContext(context.Background(), transactions)
	return result
}

// MineContext is Mine with cancellation. The context is checked at every
// recursive entry; a cancelled run returns ctx.Err() and no result.
//
// Transactions may contain duplicate items and arrive in any order: each
// transaction is deduplicated, filtered against the global support counts and
// re-sorted before insertion. Items of equal frequency order ascending by
// value, giving one fixed total order for every run.
func (m *Miner[T]) MineContext(ctx context.Context, transactions [][]T) (*Result[T], error) {
	counts := make(map[T]int)
	for _, transaction := range transactions {
		seen := make(map[T]struct{}, len(transaction))
		for _, item := range transaction {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			counts[item]++
		}
	}

	result := newResult[T]()
	tree := NewTree[T]()
	for _, transaction := range transactions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cleaned := make([]T, 0, len(transaction))
		for _, item := range transaction {
			if counts[item] >= m.minimumSupport {
				cleaned = append(cleaned, item)
			}
		}
		if len(cleaned) != len(transaction) && m.trackEliminations {
			result.addElimination(slices.Clone(transaction))
		}
		slices.SortStableFunc(cleaned, func(a, b T) int {
			if counts[a] != counts[b] {
				return counts[b] - counts[a]
			}
			return cmp.Compare(a, b)
		})
		// In-transaction duplicates survive the filter; the sort makes them
		// adjacent so Compact drops them before insertion.
		cleaned = slices.Compact(cleaned)
		tree.AddTransaction(cleaned)
	}

	mined, err := m.mineTree(ctx, tree)
	if err != nil {
		return nil, err
	}
	result.merge(mined)
	return result, nil
}

// mineTree dispatches the top-level mining pass, fanning the first recursion
// level out across workers when configured.
func (m *Miner[T]) mineTree(ctx context.Context, tree *Tree[T]) (*Result[T], error) {
	if m.numWorkers <= 1 {
		return m.findWithSuffix(ctx, tree, nil)
	}

	items := tree.Items()
	type branch struct {
		res *Result[T]
		err error
	}
	branches := make([]branch, len(items))
	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := m.numWorkers
	if workers > len(items) {
		workers = len(items)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res, err := m.mineBranch(ctx, tree, items[idx])
				branches[idx] = branch{res: res, err: err}
			}
		}()
	}
	for i := range items {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge in header-table order so parallel runs stay deterministic.
	result := newResult[T]()
	for _, b := range branches {
		if b.err != nil {
			return nil, b.err
		}
		result.merge(b.res)
	}
	return result, nil
}

func (m *Miner[T]) mineBranch(ctx context.Context, tree *Tree[T], item T) (*Result[T], error) {
	res := newResult[T]()
	support := tree.Support(item)
	pattern := []T{item}
	if support < m.minimumSupport {
		if m.trackEliminations {
			res.addElimination(pattern)
		}
		return res, nil
	}
	res.addPattern(pattern, support)
	partial := PartialTree(tree.PrefixPaths(item))
	sub, err := m.findWithSuffix(ctx, partial, pattern)
	if err != nil {
		return nil, err
	}
	res.merge(sub)
	return res, nil
}

// findWithSuffix mines one tree: for every item in the header table it sums
// the neighbor-chain counts, emits {item} ∪ suffix when the support holds,
// and recurses into the item's conditional tree. A conditional tree's header
// table contains the item the tree was built for, so any item already in the
// suffix is skipped rather than re-derived. A tree with an empty header table
// ends the recursion.
func (m *Miner[T]) findWithSuffix(ctx context.Context, tree *Tree[T], suffix []T) (*Result[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := newResult[T]()
	for _, item := range tree.items {
		if slices.Contains(suffix, item) {
			continue
		}
		support := tree.Support(item)
		pattern := make([]T, 0, len(suffix)+1)
		pattern = append(pattern, item)
		pattern = append(pattern, suffix...)
		if support < m.minimumSupport {
			if m.trackEliminations {
				result.addElimination(pattern)
			}
			continue
		}
		result.addPattern(pattern, support)
		partial := PartialTree(tree.PrefixPaths(item))
		sub, err := m.findWithSuffix(ctx, partial, pattern)
		if err != nil {
			return nil, err
		}
		result.merge(sub)
	}
	return result, nil
}
