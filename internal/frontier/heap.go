package frontier

import "time"

// readyEntry pairs a host with the monotonic time at which it next becomes
// eligible for a handout. readyHeap keeps one entry per non-empty HostBucket.
type readyEntry struct {
	readyAt time.Time
	host    string
}

// readyHeap is a container/heap.Interface implementation ordering hosts by
// ascending readyAt. Ties are broken arbitrarily and are not observable.
type readyHeap []readyEntry

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool { return h[i].readyAt.Before(h[j].readyAt) }

func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *readyHeap) Push(x any) {
	*h = append(*h, x.(readyEntry))
}

func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
