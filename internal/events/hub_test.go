package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubPublishAndSnapshot(t *testing.T) {
	h := NewHub(4)

	h.Publish(Notification{Kind: KindHandlerRegistered, Listener: "a"})
	h.Publish(Notification{Kind: KindEventProcessed, EventID: "e1"})

	all := h.SnapshotSince(0)
	assert.Len(t, all, 2)
	assert.Equal(t, KindHandlerRegistered, all[0].Kind)
	assert.Equal(t, int64(1), all[0].Seq)
	assert.False(t, all[0].At.IsZero())

	later := h.SnapshotSince(all[0].Seq)
	assert.Len(t, later, 1)
	assert.Equal(t, "e1", later[0].EventID)
}

func TestHubRingOverwritesOldest(t *testing.T) {
	h := NewHub(2)
	h.Publish(Notification{Listener: "a"})
	h.Publish(Notification{Listener: "b"})
	h.Publish(Notification{Listener: "c"})

	got := h.SnapshotSince(0)
	assert.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Listener)
	assert.Equal(t, "c", got[1].Listener)
}

func TestHubSubscribe(t *testing.T) {
	h := NewHub(4)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(Notification{Kind: KindWorkerStopped, WorkerID: "w1"})

	n := <-ch
	assert.Equal(t, KindWorkerStopped, n.Kind)
	assert.Equal(t, "w1", n.WorkerID)
}
