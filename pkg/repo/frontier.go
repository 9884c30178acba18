package repo

import (
	"container/heap"

	"github.com/odvcencio/gitread/pkg/object"
)

// frontier is a max-priority queue that admits each key at most once. Items
// with equal priority pop in insertion order.
type frontier[K comparable, T any] struct {
	items    frontierHeap[T]
	seen     map[K]struct{}
	key      func(T) K
	priority func(T) int64
	seq      uint64
}

type frontierItem[T any] struct {
	value    T
	priority int64
	seq      uint64
}

type frontierHeap[T any] []frontierItem[T]

func (h frontierHeap[T]) Len() int { return len(h) }

func (h frontierHeap[T]) Less(i, j int) bool {
	if h[i].priority == h[j].priority {
		return h[i].seq < h[j].seq
	}
	return h[i].priority > h[j].priority
}

func (h frontierHeap[T]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *frontierHeap[T]) Push(x any) {
	*h = append(*h, x.(frontierItem[T]))
}

func (h *frontierHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func newFrontier[K comparable, T any](key func(T) K, priority func(T) int64) *frontier[K, T] {
	return &frontier[K, T]{
		seen:     make(map[K]struct{}),
		key:      key,
		priority: priority,
	}
}

// newCommitFrontier orders commits by committer timestamp, newest first.
func newCommitFrontier() *frontier[object.Hash, *object.Commit] {
	return newFrontier(
		func(c *object.Commit) object.Hash { return c.Hash },
		func(c *object.Commit) int64 { return c.Committer.Timestamp },
	)
}

// push enqueues v unless its key was pushed before.
func (f *frontier[K, T]) push(v T) bool {
	k := f.key(v)
	if _, ok := f.seen[k]; ok {
		return false
	}
	f.seen[k] = struct{}{}
	heap.Push(&f.items, frontierItem[T]{value: v, priority: f.priority(v), seq: f.seq})
	f.seq++
	return true
}

// visited reports whether k was ever pushed.
func (f *frontier[K, T]) visited(k K) bool {
	_, ok := f.seen[k]
	return ok
}

func (f *frontier[K, T]) pop() (T, bool) {
	if len(f.items) == 0 {
		var zero T
		return zero, false
	}
	item := heap.Pop(&f.items).(frontierItem[T])
	return item.value, true
}

func (f *frontier[K, T]) len() int { return len(f.items) }
