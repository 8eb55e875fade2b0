package planner

// node is the search state of a discovered cell
type node struct {
	cell      Cell
	index     int
	g         float64
	h         float64
	f         float64
	parent    Cell
	hasParent bool
	heapIndex int // -1 when not in the open set
}

// openSet is a binary heap ordered by f, then h, then linear index
type openSet []*node

func (q openSet) Len() int { return len(q) }

func (q openSet) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.index < b.index
}

func (q openSet) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].heapIndex = i
	q[j].heapIndex = j
}

func (q *openSet) Push(x any) {
	n := x.(*node)
	n.heapIndex = len(*q)
	*q = append(*q, n)
}

func (q *openSet) Pop() any {
	old := *q
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.heapIndex = -1
	*q = old[:last]
	return n
}
