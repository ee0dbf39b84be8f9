package queue

import (
	"testing"

	"library_admin/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueAssignsID(t *testing.T) {
	q := NewQueue()
	a := &Action{Kind: schema.Book, Op: OpCreate}
	q.Enqueue(a)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, 1, q.Size())

	kept := &Action{ID: "fixed", Kind: schema.Book, Op: OpDelete}
	q.Enqueue(kept)
	assert.Equal(t, "fixed", kept.ID)
}

func TestDequeueIsFIFO(t *testing.T) {
	q := NewQueue()
	q.Enqueue(&Action{ID: "1"})
	q.Enqueue(&Action{ID: "2"})

	assert.Equal(t, "1", q.Dequeue().ID)
	assert.Equal(t, "2", q.Dequeue().ID)
	assert.Nil(t, q.Dequeue())
}

func TestRemove(t *testing.T) {
	q := NewQueue()
	q.Enqueue(&Action{ID: "1"})
	q.Enqueue(&Action{ID: "2"})
	q.Enqueue(&Action{ID: "3"})

	removed := q.Remove("2")
	require.NotNil(t, removed)
	assert.Equal(t, "2", removed.ID)
	assert.Nil(t, q.Remove("2"))

	all := q.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, "3", all[1].ID)
}

func TestGetAllIsACopy(t *testing.T) {
	q := NewQueue()
	q.Enqueue(&Action{ID: "1"})

	all := q.GetAll()
	all[0] = &Action{ID: "other"}

	assert.Equal(t, "1", q.GetAll()[0].ID)
}
