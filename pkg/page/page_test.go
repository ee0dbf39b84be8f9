package page

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"library_admin/pkg/backend"
	"library_admin/pkg/crud"
	"library_admin/pkg/queue"
	"library_admin/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = &backend.TransportError{Op: http.MethodGet, Path: "/authors", Err: backend.ErrUnavailable}

type listResult struct {
	records []schema.Record
	err     error
}

// fakeSource answers List from a queue of scripted results, or blocks on a
// gate when one is set for the call number.
type fakeSource struct {
	mu        sync.Mutex
	kind      schema.Kind
	results   []listResult
	gates     map[int]chan listResult
	listCalls int
	writeErr  error
	created   []schema.Form
	updated   map[string]schema.Form
	deleted   []string
}

func newFakeSource(kind schema.Kind, results ...listResult) *fakeSource {
	return &fakeSource{kind: kind, results: results, gates: make(map[int]chan listResult), updated: make(map[string]schema.Form)}
}

func (f *fakeSource) Kind() schema.Kind { return f.kind }

func (f *fakeSource) List(ctx context.Context) ([]schema.Record, error) {
	f.mu.Lock()
	f.listCalls++
	n := f.listCalls
	gate := f.gates[n]
	var res listResult
	if gate == nil && len(f.results) > 0 {
		res = f.results[0]
		f.results = f.results[1:]
	}
	f.mu.Unlock()
	if gate != nil {
		res = <-gate
	}
	return res.records, res.err
}

func (f *fakeSource) Create(ctx context.Context, form schema.Form) (schema.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.created = append(f.created, form)
	return schema.Record{"id": "new"}, nil
}

func (f *fakeSource) Update(ctx context.Context, id string, form schema.Form) (schema.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.updated[id] = form
	return schema.Record{"id": id}, nil
}

func (f *fakeSource) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func authors(names ...string) []schema.Record {
	out := make([]schema.Record, len(names))
	for i, n := range names {
		out[i] = schema.Record{"id": n, "name": n}
	}
	return out
}

func TestRefreshLoads(t *testing.T) {
	src := newFakeSource(schema.Author, listResult{records: authors("Herbert")})
	p := New(src, nil)
	assert.Equal(t, Idle, p.State().Load)

	require.NoError(t, p.Refresh(context.Background()))

	s := p.State()
	assert.Equal(t, Loaded, s.Load)
	assert.NoError(t, s.Err)
	assert.Equal(t, authors("Herbert"), s.Records)
}

func TestFailedRefreshKeepsPreviousList(t *testing.T) {
	src := newFakeSource(schema.Author,
		listResult{records: authors("Herbert")},
		listResult{err: errDown},
	)
	p := New(src, nil)
	require.NoError(t, p.Refresh(context.Background()))

	err := p.Refresh(context.Background())

	assert.ErrorIs(t, err, backend.ErrUnavailable)
	s := p.State()
	assert.Equal(t, LoadError, s.Load)
	assert.Equal(t, errDown, s.Err)
	assert.Equal(t, authors("Herbert"), s.Records)
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	src := newFakeSource(schema.Author)
	slow := make(chan listResult)
	fast := make(chan listResult)
	src.gates[1] = slow
	src.gates[2] = fast
	p := New(src, nil)

	done := make(chan error)
	go func() { done <- p.Refresh(context.Background()) }()
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.listCalls == 1
	}, time.Second, time.Millisecond)

	go func() { fast <- listResult{records: authors("New")} }()
	require.NoError(t, p.Refresh(context.Background()))

	slow <- listResult{records: authors("Old")}
	require.NoError(t, <-done)

	s := p.State()
	assert.Equal(t, Loaded, s.Load)
	assert.Equal(t, authors("New"), s.Records)
}

func TestSubmitCreateClosesModalAndRefreshes(t *testing.T) {
	src := newFakeSource(schema.Loan, listResult{records: []schema.Record{{"id": "new"}}})
	p := New(src, nil)

	require.NoError(t, p.OpenCreate(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)))
	s := p.State()
	assert.Equal(t, ModalCreate, s.Modal.Mode)
	assert.Equal(t, "2024-03-17", s.Modal.Form["dueDate"])

	require.NoError(t, p.Set("userId", "u1"))
	require.NoError(t, p.Set("copyId", "c1"))
	require.NoError(t, p.Submit(context.Background()))

	s = p.State()
	assert.Equal(t, ModalClosed, s.Modal.Mode)
	assert.Equal(t, Loaded, s.Load)
	require.Len(t, src.created, 1)
	assert.Equal(t, "u1", src.created[0]["userId"])
	assert.Equal(t, "2024-03-10", src.created[0]["loanDate"])
}

func TestSubmitEditUpdatesRecord(t *testing.T) {
	src := newFakeSource(schema.Author, listResult{records: authors("Frank")})
	p := New(src, nil)

	require.NoError(t, p.OpenEdit(schema.Record{"id": "a1", "name": "Herbert", "nationality": "US", "birthYear": 1920}))
	assert.Equal(t, "1920", p.State().Modal.Form["birthYear"])
	require.NoError(t, p.Set("name", "Frank"))
	require.NoError(t, p.Submit(context.Background()))

	assert.Equal(t, "Frank", src.updated["a1"]["name"])
	assert.Equal(t, ModalClosed, p.State().Modal.Mode)
}

func TestFailedSubmitKeepsModalOpen(t *testing.T) {
	src := newFakeSource(schema.Author)
	src.writeErr = errDown
	failed := queue.NewQueue()
	p := New(src, failed)

	require.NoError(t, p.OpenCreate(time.Now()))
	require.NoError(t, p.Set("name", "Herbert"))
	err := p.Submit(context.Background())

	require.ErrorIs(t, err, backend.ErrUnavailable)
	s := p.State()
	assert.Equal(t, ModalCreate, s.Modal.Mode)
	assert.Equal(t, errDown, s.Modal.Err)
	assert.Equal(t, "Herbert", s.Modal.Form["name"])
	assert.Equal(t, 0, src.listCalls)

	require.Equal(t, 1, failed.Size())
	action := failed.GetAll()[0]
	assert.Equal(t, queue.OpCreate, action.Op)
	assert.Equal(t, schema.Author, action.Kind)
	assert.Equal(t, "Herbert", action.Form["name"])
}

func TestValidationFailureIsNotQueued(t *testing.T) {
	src := newFakeSource(schema.Review)
	src.writeErr = crud.ValidationErrors{{Field: "rating", Rule: "max=5", Value: "6"}}
	failed := queue.NewQueue()
	p := New(src, failed)

	require.NoError(t, p.OpenCreate(time.Now()))
	err := p.Submit(context.Background())

	var verrs crud.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
	assert.Equal(t, 0, failed.Size())
}

func TestModalGuards(t *testing.T) {
	p := New(newFakeSource(schema.Author), nil)

	assert.ErrorIs(t, p.Submit(context.Background()), ErrModalClosed)
	assert.ErrorIs(t, p.Set("name", "x"), ErrModalClosed)

	require.NoError(t, p.OpenCreate(time.Now()))
	assert.Error(t, p.Set("colour", "blue"))
	require.NoError(t, p.Close())
	assert.Equal(t, ModalClosed, p.State().Modal.Mode)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	src := newFakeSource(schema.Author, listResult{records: authors()})
	p := New(src, nil)

	err := p.Delete(context.Background(), "a1", func(string) bool { return false })
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.ErrorIs(t, p.Delete(context.Background(), "a1", nil), ErrNotConfirmed)
	assert.Empty(t, src.deleted)

	var asked string
	require.NoError(t, p.Delete(context.Background(), "a1", func(id string) bool {
		asked = id
		return true
	}))
	assert.Equal(t, "a1", asked)
	assert.Equal(t, []string{"a1"}, src.deleted)
	assert.Equal(t, 1, src.listCalls)
}

func TestRetryFailedDelete(t *testing.T) {
	src := newFakeSource(schema.Author, listResult{records: authors()})
	src.writeErr = errDown
	failed := queue.NewQueue()
	p := New(src, failed)

	yes := func(string) bool { return true }
	require.Error(t, p.Delete(context.Background(), "a1", yes))
	require.Equal(t, 1, failed.Size())

	action := failed.Dequeue()
	require.Error(t, p.Retry(context.Background(), action))
	assert.Equal(t, 2, action.Attempts)
	assert.Equal(t, 1, failed.Size())

	src.writeErr = nil
	action = failed.Dequeue()
	require.NoError(t, p.Retry(context.Background(), action))
	assert.Equal(t, []string{"a1"}, src.deleted)
	assert.Equal(t, 0, failed.Size())

	other := New(newFakeSource(schema.Book), failed)
	assert.Error(t, other.Retry(context.Background(), &queue.Action{Kind: schema.Author, Op: queue.OpDelete}))
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "error", LoadError.String())
	assert.Equal(t, "submitting", ModalSubmitting.String())
}
