// Package correlation pairs lifecycle events for jobs and workflow
// instances to compute execution latencies.
//
// The package has two layers:
//   - Index: a dual-view store mapping entity keys to creation times,
//     with time-ordered eviction of entries that never resolved.
//   - Engine: the record consumer that drives one Index per entity
//     domain and emits latency observations to a metric sink.
package correlation

import (
	"math"

	"github.com/google/btree"
)

// timeKey orders the reverse view by (timestamp, key). Keying by
// timestamp alone would make two entries created in the same
// millisecond collide, leaving the older forward entry unreachable
// and never evicted.
type timeKey struct {
	timestamp int64
	key       int64
}

func timeKeyLess(a, b timeKey) bool {
	if a.timestamp != b.timestamp {
		return a.timestamp < b.timestamp
	}
	return a.key < b.key
}

// Index tracks creation times for in-flight entities of one domain.
//
// Two views cover the same live set: a forward map from entity key to
// creation time, and a reverse tree ordered by creation time used for
// range eviction. Every mutation keeps both views consistent. Index is
// not safe for concurrent use; the caller owns serialization.
type Index struct {
	forward map[int64]int64
	reverse *btree.BTreeG[timeKey]
}

const reverseTreeDegree = 16

func NewIndex() *Index {
	return &Index{
		forward: make(map[int64]int64),
		reverse: btree.NewG(reverseTreeDegree, timeKeyLess),
	}
}

// Put records the creation time for a key. A repeated Put for the same
// key is last-write-wins: the previous entry is dropped from both
// views before the new one is inserted.
func (ix *Index) Put(key, timestamp int64) {
	if prev, ok := ix.forward[key]; ok {
		ix.reverse.Delete(timeKey{timestamp: prev, key: key})
	}
	ix.forward[key] = timestamp
	ix.reverse.ReplaceOrInsert(timeKey{timestamp: timestamp, key: key})
}

// Get returns the creation time for a key without removing it.
func (ix *Index) Get(key int64) (int64, bool) {
	t, ok := ix.forward[key]
	return t, ok
}

// Remove deletes the entry for a key from both views and returns the
// creation time it held.
func (ix *Index) Remove(key int64) (int64, bool) {
	t, ok := ix.forward[key]
	if !ok {
		return 0, false
	}
	delete(ix.forward, key)
	ix.reverse.Delete(timeKey{timestamp: t, key: key})
	return t, true
}

// EvictBefore removes every entry whose creation time is strictly
// before cutoff and returns the evicted keys. Only the ordered prefix
// of the reverse view is visited, so the cost is proportional to the
// number of evicted entries, not the index size.
func (ix *Index) EvictBefore(cutoff int64) []int64 {
	var expired []timeKey
	pivot := timeKey{timestamp: cutoff, key: math.MinInt64}
	ix.reverse.AscendLessThan(pivot, func(tk timeKey) bool {
		expired = append(expired, tk)
		return true
	})

	if len(expired) == 0 {
		return nil
	}

	keys := make([]int64, 0, len(expired))
	for _, tk := range expired {
		ix.reverse.Delete(tk)
		delete(ix.forward, tk.key)
		keys = append(keys, tk.key)
	}
	return keys
}

// Len reports the number of in-flight entries.
func (ix *Index) Len() int {
	return len(ix.forward)
}
