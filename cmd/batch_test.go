package cmd

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/bibresolve/internal/biblio"
	"github.com/lehigh-university-libraries/bibresolve/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	parallel atomic.Int32
}

func (c *countingResolver) track() func() {
	n := c.inFlight.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return func() { c.inFlight.Add(-1) }
}

func (c *countingResolver) Resolve(ctx context.Context, q biblio.Query) (*biblio.Record, error) {
	defer c.track()()
	time.Sleep(10 * time.Millisecond)
	switch q.Title {
	case "missing":
		return nil, nil
	case "broken":
		return nil, errors.New("boom")
	}
	return &biblio.Record{Title: q.Title, Confidence: biblio.ConfidenceLow}, nil
}

func (c *countingResolver) ResolveByISBNParallel(ctx context.Context, rawISBN string) (*biblio.Record, error) {
	defer c.track()()
	c.parallel.Add(1)
	return &biblio.Record{ISBN: rawISBN, Confidence: biblio.ConfidenceHigh}, nil
}

func TestRunBatch(t *testing.T) {
	rows := []dataset.QueryRow{
		{ID: "a", Title: "Dune"},
		{Title: "missing"},
		{Title: "broken"},
		{ISBN: "9780441013593"},
		{Title: "Emma"},
		{Title: "Ulysses"},
	}
	res := &countingResolver{}

	entries, err := runBatch(context.Background(), res, rows, "parallel", 2)
	require.NoError(t, err)
	require.Len(t, entries, len(rows))

	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "Dune", entries[0].Record.Title)
	assert.Equal(t, "row-2", entries[1].Key)
	assert.Nil(t, entries[1].Record)
	assert.Equal(t, "boom", entries[2].Error)
	assert.Equal(t, biblio.ConfidenceHigh, entries[3].Record.Confidence)
	assert.Equal(t, int32(1), res.parallel.Load())
	assert.LessOrEqual(t, res.peak.Load(), int32(2))
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runBatch(ctx, &countingResolver{}, []dataset.QueryRow{{Title: "Dune"}}, "standard", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInitLogging(t *testing.T) {
	assert.NoError(t, initLogging("debug", false))
	assert.NoError(t, initLogging("warn", true))
	assert.Error(t, initLogging("loud", false))
}
