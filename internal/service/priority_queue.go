package service

import "github.com/elitheslime01/gymmate-2024/internal/models"

// heapItem pairs a queue entry with its insertion sequence so entries that
// share both score and queued time still leave in arrival order.
type heapItem struct {
	entry models.QueueEntry
	seq   int
}

// entryHeap is an array-backed binary max-heap over queue entries, ordered
// by snapshot priority score with earlier queued time winning ties. Insert
// and ExtractMax are O(log n).
type entryHeap struct {
	items   []heapItem
	nextSeq int
}

func newEntryHeap(capacity int) *entryHeap {
	return &entryHeap{items: make([]heapItem, 0, capacity)}
}

// Insert adds an entry to the heap.
func (h *entryHeap) Insert(entry models.QueueEntry) {
	h.items = append(h.items, heapItem{entry: entry, seq: h.nextSeq})
	h.nextSeq++
	h.siftUp(len(h.items) - 1)
}

// ExtractMax removes and returns the highest-priority entry. The second
// return value is false when the heap is empty.
func (h *entryHeap) ExtractMax() (models.QueueEntry, bool) {
	if len(h.items) == 0 {
		return models.QueueEntry{}, false
	}

	top := h.items[0]
	last := len(h.items) - 1
	h.items[0] = h.items[last]
	h.items = h.items[:last]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return top.entry, true
}

// Peek returns the highest-priority entry without removing it.
func (h *entryHeap) Peek() (models.QueueEntry, bool) {
	if len(h.items) == 0 {
		return models.QueueEntry{}, false
	}
	return h.items[0].entry, true
}

// Size returns the number of entries currently held.
func (h *entryHeap) Size() int {
	return len(h.items)
}

// before reports whether item i must leave the heap ahead of item j.
func (h *entryHeap) before(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.entry.PriorityScore != b.entry.PriorityScore {
		return a.entry.PriorityScore > b.entry.PriorityScore
	}
	if !a.entry.QueuedAt.Equal(b.entry.QueuedAt) {
		return a.entry.QueuedAt.Before(b.entry.QueuedAt)
	}
	return a.seq < b.seq
}

func (h *entryHeap) siftUp(idx int) {
	for idx > 0 {
		parent := (idx - 1) / 2
		if !h.before(idx, parent) {
			break
		}
		h.items[idx], h.items[parent] = h.items[parent], h.items[idx]
		idx = parent
	}
}

func (h *entryHeap) siftDown(idx int) {
	n := len(h.items)
	for {
		first := idx
		left := 2*idx + 1
		right := 2*idx + 2

		if left < n && h.before(left, first) {
			first = left
		}
		if right < n && h.before(right, first) {
			first = right
		}
		if first == idx {
			break
		}
		h.items[idx], h.items[first] = h.items[first], h.items[idx]
		idx = first
	}
}
