package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"library_admin/pkg/circuitbreaker"
	"library_admin/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSendsQueryAndDecodes(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":"u1","username":"admin"}]`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	users, err := client.List(context.Background(), "/users", url.Values{"username": {"admin"}, "password": {"123"}})

	require.NoError(t, err)
	assert.Equal(t, "admin", gotQuery.Get("username"))
	assert.Equal(t, "123", gotQuery.Get("password"))
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID())
}

func TestListEmptyBodyIsEmptySlice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `null`)
	}))
	defer srv.Close()

	records, err := NewClient(srv.URL).List(context.Background(), "/books", nil)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestCreateAndUpdateSendJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch r.Method {
		case http.MethodPost:
			body["id"] = "new-id"
			w.WriteHeader(http.StatusCreated)
		case http.MethodPut:
			assert.Equal(t, "/books/b1", r.URL.Path)
			body["id"] = "b1"
		}
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()
	client := NewClient(srv.URL)

	created, err := client.Create(context.Background(), "/books", schema.Record{"title": "Dune", "publicationYear": 1965})
	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID())
	assert.Equal(t, float64(1965), created["publicationYear"])

	updated, err := client.Update(context.Background(), "/books", "b1", schema.Record{"title": "Dune Messiah"})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated["title"])
}

func TestNotFoundIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"record not found"}`)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Delete(context.Background(), "/loans", "gone")

	require.Error(t, err)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusNotFound, te.Status)
	assert.Equal(t, http.MethodDelete, te.Op)
	assert.Equal(t, "/loans", te.Path)
	assert.True(t, IsNotFound(err))
}

func TestUnreachableStore(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr).List(context.Background(), "/books", nil)

	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.False(t, IsNotFound(err))
}

func TestServerErrorsOpenBreaker(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithBreaker(circuitbreaker.NewCircuitBreaker(1, time.Minute)))
	for i := 0; i < 2; i++ {
		_, err := client.List(context.Background(), "/books", nil)
		assert.ErrorIs(t, err, ErrUnavailable)
	}

	_, err := client.List(context.Background(), "/books", nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, IsTransport(err))
	assert.Equal(t, 2, calls)
}

func TestNotFoundDoesNotOpenBreaker(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cb := circuitbreaker.NewCircuitBreaker(0, time.Minute)
	client := NewClient(srv.URL, WithBreaker(cb))
	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), "/books", "x")
		assert.True(t, IsNotFound(err))
	}
	assert.Equal(t, circuitbreaker.StateClosed, cb.GetState())
}

func TestCancelledCallsDoNotOpenBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	cb := circuitbreaker.NewCircuitBreaker(0, time.Minute)
	client := NewClient(srv.URL, WithBreaker(cb))
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithCancelCause(context.Background())
		go cancel(errors.New("sibling failed"))
		_, err := client.List(ctx, "/books", nil)
		assert.True(t, IsTransport(err))
	}
	assert.Equal(t, circuitbreaker.StateClosed, cb.GetState())
	assert.Equal(t, 0, cb.Failures())
}

func TestClassify(t *testing.T) {
	live := context.Background()
	done, cancel := context.WithCancelCause(context.Background())
	cancel(errors.New("sibling failed"))

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want circuitbreaker.Outcome
	}{
		{"server error", live, statusError(http.StatusBadGateway, ""), circuitbreaker.Failure},
		{"network error", live, errors.New("connection refused"), circuitbreaker.Failure},
		{"not found", live, statusError(http.StatusNotFound, ""), circuitbreaker.Success},
		{"bad request", live, statusError(http.StatusBadRequest, "bad"), circuitbreaker.Success},
		{"cancelled with cause", done, errors.New("sibling failed"), circuitbreaker.Ignored},
		{"cancelled", live, context.Canceled, circuitbreaker.Ignored},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.ctx, tt.err))
		})
	}
}
