package tint

// candidateEdge links a Frame(t) label to a Frame(t+1) candidate.
type candidateEdge struct {
	from      int
	to        int
	disparity float64
}

// Same algorithm as container/heap - https://golang.org/pkg/container/heap/
// Kept typed to avoid interface conversions on every push and pop.

type disparityHeap []candidateEdge

func (h disparityHeap) Len() int { return len(h) }

// Less orders by disparity, then by Frame(t) label, then by Frame(t+1) label.
func (h disparityHeap) Less(i, j int) bool {
	if h[i].disparity != h[j].disparity {
		return h[i].disparity < h[j].disparity
	}
	if h[i].from != h[j].from {
		return h[i].from < h[j].from
	}
	return h[i].to < h[j].to
}

func (h disparityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push pushes the element x onto the heap.
// The complexity is O(log n) where n = h.Len().
func (h *disparityHeap) Push(x candidateEdge) {
	*h = append(*h, x)
	h.up(h.Len() - 1)
}

// Pop removes and returns the minimum element (according to Less) from the heap.
// The complexity is O(log n) where n = h.Len().
func (h *disparityHeap) Pop() candidateEdge {
	n := h.Len() - 1
	h.Swap(0, n)
	h.down(0, n)
	last := (*h)[n]
	*h = (*h)[:n]
	return last
}

func (h disparityHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		j = i
	}
}

func (h disparityHeap) down(i0, n int) bool {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && h.Less(j2, j1) {
			j = j2
		}
		if !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		i = j
	}
	return i > i0
}
