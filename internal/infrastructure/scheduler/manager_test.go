package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskbridge/internal/shared/logger"
)

type countingJob struct {
	runs atomic.Int32
}

func (j *countingJob) Execute(ctx context.Context) (int, error) {
	j.runs.Add(1)
	return 3, nil
}

func TestSchedulerManagerRunsPurgeJobImmediately(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNop())
	require.NoError(t, err)

	job := &countingJob{}
	require.NoError(t, m.RegisterMappingPurgeJob(job, time.Hour, time.Second))
	require.Len(t, m.Jobs(), 1)
	assert.Equal(t, "thread-mapping-purge", m.Jobs()[0].Name())

	m.Start()
	m.Start()
	assert.True(t, m.IsStarted())

	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.False(t, m.IsStarted())
	require.NoError(t, m.Stop())
}
