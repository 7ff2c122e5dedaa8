package display

import "slices"

// queue holds display indexes waiting for a tier. Entries are always served from
// the front; a LIFO queue adds new entries at the front, a FIFO queue at the back.
// An index is queued at most once.
type queue struct {
	lifo  bool
	items []int
}

func (q *queue) Len() int {
	return len(q.items)
}

// push queues index, moving it if it was queued already.
func (q *queue) push(index int) {
	q.remove(index)
	if q.lifo {
		q.items = slices.Insert(q.items, 0, index)
	} else {
		q.items = append(q.items, index)
	}
}

// front returns the entry to serve next.
func (q *queue) front() (int, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	return q.items[0], true
}

// remove dequeues index and reports if it was queued.
func (q *queue) remove(index int) bool {
	i := slices.Index(q.items, index)
	if i < 0 {
		return false
	}
	q.items = slices.Delete(q.items, i, i+1)
	return true
}

func (q *queue) contains(index int) bool {
	return slices.Contains(q.items, index)
}
