package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
)

// fakeMetadata returns frag (which may be nil) and counts calls.
type fakeMetadata struct {
	name  string
	frag  *biblio.Fragment
	calls atomic.Int32
	isbns []string
	mu    sync.Mutex
}

func (f *fakeMetadata) Name() string { return f.name }

func (f *fakeMetadata) LookupISBN(ctx context.Context, isbn string) *biblio.Fragment {
	f.calls.Add(1)
	f.mu.Lock()
	f.isbns = append(f.isbns, isbn)
	f.mu.Unlock()
	if f.frag == nil {
		return nil
	}
	out := *f.frag
	out.Source = f.name
	return &out
}

// fakeClassifier returns frag after delay, or nil if ctx ends first.
type fakeClassifier struct {
	name    string
	frag    *biblio.Fragment
	delay   time.Duration
	applies func(q biblio.Query) bool
	calls   atomic.Int32
	mu      sync.Mutex
	queries []biblio.Query
}

func (f *fakeClassifier) Name() string { return f.name }

func (f *fakeClassifier) Applies(q biblio.Query) bool {
	if f.applies == nil {
		return true
	}
	return f.applies(q)
}

func (f *fakeClassifier) Classify(ctx context.Context, q biblio.Query) *biblio.Fragment {
	f.calls.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil
		}
	}
	if f.frag == nil {
		return nil
	}
	out := *f.frag
	out.Source = f.name
	return &out
}

func isbnKeyed(q biblio.Query) bool  { return q.HasISBN() }
func titleKeyed(q biblio.Query) bool { return q.HasTitle() }
