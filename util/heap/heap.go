package heap

import "container/heap"

// Heap is a binary min-heap ordered by comparator; the smallest item is at the top.
type Heap[T any] struct {
	wrapper heapWrapper[T]
}

func NewHeap[T any](comparator func(a, b T) int, items ...T) Heap[T] {
	out := Heap[T]{
		wrapper: heapWrapper[T]{
			comparator: comparator,
			items:      items,
		},
	}
	heap.Init(&out.wrapper)
	return out
}

func (me *Heap[T]) Size() int {
	return len(me.wrapper.items)
}

func (me *Heap[T]) Empty() bool {
	return len(me.wrapper.items) == 0
}

func (me *Heap[T]) Peek() T {
	return me.wrapper.items[0]
}

func (me *Heap[T]) Pop() T {
	return heap.Pop(&me.wrapper).(T)
}

func (me *Heap[T]) Push(value T) {
	heap.Push(&me.wrapper, value)
}

// ReplaceTop swaps the top item for value and restores heap order. Cheaper than Pop+Push.
func (me *Heap[T]) ReplaceTop(value T) {
	me.wrapper.items[0] = value
	heap.Fix(&me.wrapper, 0)
}
