// Package queue keeps failed mutations so the user can retry them later.
// Nothing is retried automatically.
package queue

import (
	"sync"
	"time"

	"library_admin/pkg/schema"

	"github.com/google/uuid"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Action is a mutation the store rejected or never received.
type Action struct {
	ID       string
	Kind     schema.Kind
	Op       Op
	RecordID string
	Form     schema.Form
	Err      string
	FailedAt time.Time
	Attempts int
}

type Queue struct {
	items []*Action
	mu    sync.Mutex
}

func NewQueue() *Queue {
	return &Queue{
		items: make([]*Action, 0),
	}
}

// Enqueue appends a, assigning its ID when empty.
func (q *Queue) Enqueue(a *Action) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	q.items = append(q.items, a)
}

// Dequeue removes and returns the oldest action, or nil.
func (q *Queue) Dequeue() *Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	a := q.items[0]
	q.items = q.items[1:]
	return a
}

// Remove takes the action with the given ID out of the queue.
func (q *Queue) Remove(id string) *Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, a := range q.items {
		if a.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return a
		}
	}
	return nil
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) GetAll() []*Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := make([]*Action, len(q.items))
	copy(result, q.items)
	return result
}
