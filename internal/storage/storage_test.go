package storage

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAssignsID(t *testing.T) {
	store := New(0)
	rec := &biblio.Record{Title: "Dune"}

	id := store.Add(rec)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)

	got, ok := store.Get(id)
	require.True(t, ok)
	assert.Same(t, rec, got)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestListNewestFirst(t *testing.T) {
	store := New(10)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.Add(&biblio.Record{ID: "old", ResolvedAt: base})
	store.Add(&biblio.Record{ID: "new", ResolvedAt: base.Add(time.Hour)})
	store.Add(&biblio.Record{ID: "mid", ResolvedAt: base.Add(time.Minute)})

	var ids []string
	for _, rec := range store.List() {
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestCapacityEvictsOldest(t *testing.T) {
	store := New(2)
	store.Add(&biblio.Record{ID: "a"})
	store.Add(&biblio.Record{ID: "b"})
	store.Add(&biblio.Record{ID: "c"})

	assert.Len(t, store.List(), 2)
	_, ok := store.Get("a")
	assert.False(t, ok)

	assert.True(t, store.Delete("b"))
	assert.False(t, store.Delete("b"))
	assert.Len(t, store.List(), 1)
}

func TestConcurrentAdds(t *testing.T) {
	store := New(1000)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Add(&biblio.Record{Title: "Dune"})
			store.List()
		}()
	}
	wg.Wait()
	assert.Len(t, store.List(), 50)
}
