package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cropq/internal/geom"
	"github.com/roach88/cropq/internal/store"
	"github.com/roach88/cropq/internal/store/memory"
)

func TestCountingStore(t *testing.T) {
	ctx := context.Background()
	inner, err := memory.New()
	require.NoError(t, err)

	c := NewCountingStore(inner)
	snap, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.OpenSnapshots())

	f := store.Filter{Region: geom.NewRegion(0, 0, 1, 1)}
	_, err = snap.QueryPoints(ctx, f)
	require.NoError(t, err)
	_, err = snap.GroupCounts(ctx, geom.NewRegion(0, 0, 1, 1))
	require.NoError(t, err)
	require.NoError(t, snap.Close())

	assert.Equal(t, 1, c.Snapshots())
	assert.Equal(t, 0, c.OpenSnapshots())
	assert.Equal(t, 1, c.PointQueries())
	assert.Equal(t, 1, c.GroupCountQueries())
	assert.Equal(t, []store.Filter{f}, c.Filters())
}

func TestFailingStore(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := (&FailingStore{SnapshotErr: boom}).Snapshot(ctx)
	assert.ErrorIs(t, err, boom)

	snap, err := (&FailingStore{QueryErr: boom}).Snapshot(ctx)
	require.NoError(t, err)
	_, err = snap.QueryPoints(ctx, store.Filter{})
	assert.ErrorIs(t, err, boom)
	_, err = snap.GroupCounts(ctx, geom.Region{})
	assert.ErrorIs(t, err, boom)
}

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "test-execution", NewFixedIDGenerator("").Generate())

	gen := NewFixedIDGenerator("exec-a")
	assert.Equal(t, "exec-a", gen.Generate())
	assert.Equal(t, "exec-a", gen.Generate())
}
