package stubapi

import (
	"testing"

	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHub_BroadcastDropsSlowWatchers(t *testing.T) {
	h := NewHub(zap.NewNop())
	fast := &seatClient{hub: h, send: make(chan []byte, 4), topic: seatTopic("f1", "2026-05-04")}
	slow := &seatClient{hub: h, send: make(chan []byte), topic: seatTopic("f1", "2026-05-04")}
	other := &seatClient{hub: h, send: make(chan []byte, 4), topic: seatTopic("f2", "2026-05-04")}
	h.register(fast)
	h.register(slow)
	h.register(other)
	assert.Equal(t, 2, h.Watchers("f1", "2026-05-04"))

	h.Broadcast(gateway.SeatsUpdate{Type: gateway.SeatsUpdatedMessage, FlightID: "f1", Date: "2026-05-04", BookedSeats: []string{"1A"}})

	assert.Len(t, fast.send, 1)
	assert.Len(t, other.send, 0)
	assert.Equal(t, 1, h.Watchers("f1", "2026-05-04"))
	_, open := <-slow.send
	assert.False(t, open, "dropped watcher's channel is closed")

	h.unregister(fast)
	h.unregister(fast)
	assert.Equal(t, 0, h.Watchers("f1", "2026-05-04"))
}
