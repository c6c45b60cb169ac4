package coordinator

import (
	"container/heap"
	"sync"
	"time"

	"github.com/felixgeelhaar/goap-go/domain/goap"
	"github.com/felixgeelhaar/goap-go/domain/worldstate"
)

// Request is one queued search.
type Request struct {
	ID        string
	Agent     goap.Requester
	Goal      goap.Goal
	Priority  float64
	Start     *worldstate.State
	Actions   []goap.Action
	Callback  goap.PlanCallback
	CreatedAt time.Time

	seq   uint64
	index int
}

// requestHeap orders requests by highest goal priority, then arrival.
type requestHeap []*Request

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *requestHeap) Push(x any) {
	r := x.(*Request)
	r.index = len(*h)
	*h = append(*h, r)
}

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*h = old[:n-1]
	return r
}

// requestQueue is a bounded priority queue holding at most one request per
// agent.
type requestQueue struct {
	mu       sync.Mutex
	requests requestHeap
	byAgent  map[string]*Request
	capacity int
	seq      uint64
}

func newRequestQueue(capacity int) *requestQueue {
	return &requestQueue{
		byAgent:  make(map[string]*Request),
		capacity: capacity,
	}
}

// push queues r. A queued request from the same agent is replaced and
// returned. Pushing into a full queue fails unless it replaces.
func (q *requestQueue) push(r *Request) (superseded *Request, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := r.Agent.ID()
	if old, ok := q.byAgent[id]; ok {
		heap.Remove(&q.requests, old.index)
		superseded = old
	} else if q.requests.Len() >= q.capacity {
		return nil, ErrQueueFull
	}

	q.seq++
	r.seq = q.seq
	heap.Push(&q.requests, r)
	q.byAgent[id] = r
	return superseded, nil
}

// requeue puts back a request that was popped but could not run. It keeps
// its original arrival order and yields to a newer request from the same
// agent.
func (q *requestQueue) requeue(r *Request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := r.Agent.ID()
	if _, ok := q.byAgent[id]; ok {
		return false
	}
	heap.Push(&q.requests, r)
	q.byAgent[id] = r
	return true
}

func (q *requestQueue) pop() *Request {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.requests.Len() == 0 {
		return nil
	}
	r := heap.Pop(&q.requests).(*Request)
	delete(q.byAgent, r.Agent.ID())
	return r
}

// clear removes and returns all queued requests.
func (q *requestQueue) clear() []*Request {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*Request, 0, q.requests.Len())
	for q.requests.Len() > 0 {
		out = append(out, heap.Pop(&q.requests).(*Request))
	}
	q.byAgent = make(map[string]*Request)
	return out
}

func (q *requestQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.requests.Len()
}
