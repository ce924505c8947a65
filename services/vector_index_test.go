package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndex_Search(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx,
		[]string{"east", "north", "north-east", "zero"},
		[][]float32{{1, 0}, {0, 1}, {1, 1}, {0, 0}},
	))

	results, err := idx.Search(ctx, []float32{0, 2}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "north", results[0].Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "north-east", results[1].Text)

	all, err := idx.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "zero", all[3].Text)
}

func TestMemoryIndex_ResetAndCount(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []string{"a", "b"}, [][]float32{{1}, {2}}))
	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, idx.Reset(ctx))
	n, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	results, err := idx.Search(ctx, []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryIndex_AddLengthMismatch(t *testing.T) {
	err := NewMemoryIndex().Add(context.Background(), []string{"a", "b"}, [][]float32{{1}})
	assert.Error(t, err)
}
