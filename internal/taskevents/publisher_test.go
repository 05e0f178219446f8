package taskevents_test

import (
	"testing"

	"taskhub/internal/model"
	"taskhub/internal/realtime"
	"taskhub/internal/taskevents"
	"taskhub/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_BroadcastsLifecycle(t *testing.T) {
	router := &testutil.RecordingRouter{}
	publisher := taskevents.NewPublisher(router)
	task := &model.Task{ID: uuid.New(), Title: "Ship release"}

	publisher.Created(task)
	publisher.Updated(task)
	publisher.Deleted(task.ID)

	deliveries := router.Deliveries()
	require.Len(t, deliveries, 3)
	assert.Equal(t, []string{
		realtime.EventTaskCreated,
		realtime.EventTaskUpdated,
		realtime.EventTaskDeleted,
	}, router.Events())

	for _, d := range deliveries {
		assert.Empty(t, d.Channel)
	}
	assert.Same(t, task, deliveries[0].Payload)
	assert.Same(t, task, deliveries[1].Payload)
	assert.Equal(t, task.ID.String(), deliveries[2].Payload)
}
