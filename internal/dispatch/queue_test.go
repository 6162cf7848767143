package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

func jobOf(priority JobPriority, kind models.ActionKind) *Job {
	return &Job{
		Priority: priority,
		WatchID:  "w1",
		Action:   &models.ConditionalAction{Kind: kind},
	}
}

func TestQueueHighLaneDrainsFirst(t *testing.T) {
	q := NewQueue(8)
	stop := make(chan struct{})

	require.True(t, q.Enqueue(jobOf(PriorityNormal, models.ActionWarn)))
	require.True(t, q.Enqueue(jobOf(PriorityHigh, models.ActionBan)))

	job, ok := q.Dequeue(stop)
	require.True(t, ok)
	assert.Equal(t, models.ActionBan, job.Action.Kind)

	job, ok = q.Dequeue(stop)
	require.True(t, ok)
	assert.Equal(t, models.ActionWarn, job.Action.Kind)
}

func TestQueueEnqueueDropsWhenFull(t *testing.T) {
	q := NewQueue(2)

	assert.True(t, q.Enqueue(jobOf(PriorityNormal, models.ActionWarn)))
	assert.True(t, q.Enqueue(jobOf(PriorityNormal, models.ActionWarn)))
	assert.False(t, q.Enqueue(jobOf(PriorityNormal, models.ActionWarn)))

	// High lane has its own capacity.
	assert.True(t, q.Enqueue(jobOf(PriorityHigh, models.ActionBan)))
	assert.Equal(t, 3, q.Size())
}

func TestQueueDequeueUnblocksOnStop(t *testing.T) {
	q := NewQueue(2)
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		_, ok := q.Dequeue(stop)
		assert.False(t, ok)
		close(done)
	}()

	close(stop)
	<-done
}
