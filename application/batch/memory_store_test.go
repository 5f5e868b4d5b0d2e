package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	job := &Job{ID: "j1", MatchID: "m1", Status: StatusReceived, Total: 2, CreatedAt: time.Now()}
	require.NoError(t, s.Create(ctx, job))
	assert.Error(t, s.Create(ctx, job), "duplicate id")

	// the store keeps its own copy
	job.Status = StatusDone
	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, got.Status)

	require.NoError(t, s.UpdateStatus(ctx, "j1", StatusProcessing, ""))
	require.NoError(t, s.AppendResult(ctx, "j1", ActionResult{Index: 0, Success: true}))
	require.NoError(t, s.AppendResult(ctx, "j1", ActionResult{Index: 1, ErrorKind: KindUnknown, Error: "boom"}))

	got, err = s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)
	require.Len(t, got.Results, 2)
	assert.Equal(t, 1, got.Succeeded())

	got.Results[0].Success = false
	again, _ := s.Get(ctx, "j1")
	assert.True(t, again.Results[0].Success)
}

func TestMemoryStore_UnknownJob(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, s.UpdateStatus(ctx, "x", StatusDone, ""), ErrJobNotFound)
	assert.ErrorIs(t, s.AppendResult(ctx, "x", ActionResult{}), ErrJobNotFound)
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Create(ctx, &Job{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	jobs, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "c", jobs[0].ID)
	assert.Equal(t, "b", jobs[1].ID)
}
