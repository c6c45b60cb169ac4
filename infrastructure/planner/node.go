package planner

import (
	"container/heap"

	"github.com/felixgeelhaar/goap-go/domain/goap"
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
)

// Node is one search state. Nodes belong to a single search and are
// discarded once the plan is extracted.
type Node struct {
	// State is owned by the node and never shared with another node.
	State *worldstate.State

	// Action produced this node from Parent. Nil for the root.
	Action goap.Action

	// Parent is the predecessor node. Nil for the root.
	Parent *Node

	// G is the accumulated path cost.
	G float64

	// H is the heuristic estimate to the goal.
	H float64

	// Depth is the number of actions from the root.
	Depth int

	hash  uint64
	seq   int
	index int
}

// F returns G + H.
func (n *Node) F() float64 { return n.G + n.H }

// Path returns the actions from the root to n in execution order.
func (n *Node) Path() []goap.Action {
	path := make([]goap.Action, 0, n.Depth)
	for cur := n; cur != nil && cur.Action != nil; cur = cur.Parent {
		path = append(path, cur.Action)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// nodeHeap orders nodes by lowest F. Ties fall back to lower H, then
// insertion order, which keeps a single search reproducible but is not
// part of the planner's contract.
type nodeHeap []*Node

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	fi, fj := h[i].F(), h[j].F()
	if fi != fj {
		return fi < fj
	}
	if h[i].H != h[j].H {
		return h[i].H < h[j].H
	}
	return h[i].seq < h[j].seq
}

func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*Node)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[:n-1]
	return node
}

// openSet is the search frontier with lookup by state.
type openSet struct {
	heap    nodeHeap
	buckets map[uint64][]*Node
	seq     int
}

func newOpenSet() *openSet {
	return &openSet{buckets: make(map[uint64][]*Node)}
}

func (o *openSet) Len() int { return o.heap.Len() }

func (o *openSet) push(n *Node) {
	o.seq++
	n.seq = o.seq
	heap.Push(&o.heap, n)
	o.buckets[n.hash] = append(o.buckets[n.hash], n)
}

func (o *openSet) pop() *Node {
	n := heap.Pop(&o.heap).(*Node)
	bucket := o.buckets[n.hash]
	for i, b := range bucket {
		if b == n {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(o.buckets, n.hash)
	} else {
		o.buckets[n.hash] = bucket
	}
	return n
}

func (o *openSet) find(hash uint64, s *worldstate.State) *Node {
	for _, n := range o.buckets[hash] {
		if n.State.Equal(s) {
			return n
		}
	}
	return nil
}

// improve re-parents an open node reached with a lower path cost.
func (o *openSet) improve(n, parent *Node, action goap.Action, g float64) {
	n.Parent = parent
	n.Action = action
	n.G = g
	n.Depth = parent.Depth + 1
	heap.Fix(&o.heap, n.index)
}

// closedSet holds fully expanded states keyed by full state equality.
type closedSet map[uint64][]*worldstate.State

func (c closedSet) add(hash uint64, s *worldstate.State) {
	c[hash] = append(c[hash], s)
}

func (c closedSet) contains(hash uint64, s *worldstate.State) bool {
	for _, cs := range c[hash] {
		if cs.Equal(s) {
			return true
		}
	}
	return false
}
