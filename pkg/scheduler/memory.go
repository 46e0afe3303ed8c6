package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

// MemoryDelayQueue is a process-local DelayQueue. Pending requests are lost
// when the process exits.
type MemoryDelayQueue struct {
	mu    sync.Mutex
	items requestHeap
	index map[string]*queuedRequest
}

func NewMemoryDelayQueue() *MemoryDelayQueue {
	return &MemoryDelayQueue{index: make(map[string]*queuedRequest)}
}

func (q *MemoryDelayQueue) Push(_ context.Context, request models.ResumeRequest) error {
	if err := validate(request); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if existing, ok := q.index[request.ID]; ok {
		existing.request = request
		heap.Fix(&q.items, existing.position)

		return nil
	}

	item := &queuedRequest{request: request}
	heap.Push(&q.items, item)
	q.index[request.ID] = item

	return nil
}

func (q *MemoryDelayQueue) PopDue(_ context.Context, now time.Time, limit int) ([]models.ResumeRequest, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []models.ResumeRequest

	for q.items.Len() > 0 && (limit <= 0 || len(due) < limit) {
		next := q.items[0]
		if next.request.DueAt.After(now) {
			break
		}

		heap.Pop(&q.items)
		delete(q.index, next.request.ID)
		due = append(due, next.request)
	}

	return due, nil
}

func (q *MemoryDelayQueue) Len(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.items.Len(), nil
}

func (q *MemoryDelayQueue) Close() error {
	return nil
}

type queuedRequest struct {
	request  models.ResumeRequest
	position int
}

type requestHeap []*queuedRequest

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	return h[i].request.DueAt.Before(h[j].request.DueAt)
}

func (h requestHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].position = i
	h[j].position = j
}

func (h *requestHeap) Push(x any) {
	item := x.(*queuedRequest)
	item.position = len(*h)
	*h = append(*h, item)
}

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]

	return item
}
