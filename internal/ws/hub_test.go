package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_Publish(t *testing.T) {
	t.Run("nil hub is a no-op", func(t *testing.T) {
		var h *Hub
		assert.NotPanics(t, func() { h.Publish(Event{Type: "stock_update"}) })
	})

	t.Run("queues a stamped envelope", func(t *testing.T) {
		h := NewHub(nil)
		h.Publish(Event{Type: "sale", Action: "sale_created", Data: map[string]int{"display_id": 7}})

		require.Len(t, h.Broadcast, 1)
		var evt Event
		require.NoError(t, json.Unmarshal(<-h.Broadcast, &evt))
		assert.Equal(t, "sale", evt.Type)
		assert.Equal(t, "sale_created", evt.Action)
		assert.False(t, evt.At.IsZero())
	})

	t.Run("drops events when the queue is full", func(t *testing.T) {
		h := NewHub(nil)
		for i := 0; i < cap(h.Broadcast)+10; i++ {
			h.Publish(Event{Type: "stock_update"})
		}
		assert.Len(t, h.Broadcast, cap(h.Broadcast))
	})
}

func TestHub_RunStops(t *testing.T) {
	h := NewHub(nil)
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	h.Stop()
	<-done
	assert.Equal(t, 0, h.ClientCount())
}
