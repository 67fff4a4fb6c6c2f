package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repcircle/repcircle/store"
)

func TestRun_OneFailureDoesNotAbortTheSweep(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	fs.candidates = []int32{1, 2, 3}
	fs.members[1] = &store.Member{ID: 1, FitnessLevel: store.FitnessLevelBeginner}
	fs.members[3] = &store.Member{ID: 3, FitnessLevel: store.FitnessLevelAdvanced}
	fs.memberErr[2] = errors.New("source read failed")

	result, err := NewRefresher(fs, nil).Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Errored)
	assert.NotEmpty(t, result.RunID)

	assert.NotNil(t, fs.snapshots[1])
	assert.Nil(t, fs.snapshots[2], "failed member gets no snapshot write")
	assert.NotNil(t, fs.snapshots[3])
}

func TestRun_NoCandidates(t *testing.T) {
	fs := newFakeStore()

	result, err := NewRefresher(fs, nil).Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.Scanned)
	assert.Zero(t, result.Updated)
	assert.Zero(t, result.Errored)
}

func TestRun_BoundedParallelism(t *testing.T) {
	fs := newFakeStore()
	for id := int32(1); id <= 20; id++ {
		fs.candidates = append(fs.candidates, id)
		fs.members[id] = &store.Member{ID: id, FitnessLevel: store.FitnessLevelIntermediate}
	}

	result, err := NewRefresher(fs, &RefresherConfig{Parallelism: 2}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 20, result.Updated)
	assert.Zero(t, result.Errored)
}
