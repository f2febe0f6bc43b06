package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/geany-y/AIDrivenChat/internal/database"
	"github.com/stretchr/testify/assert"
)

func Test_queueEvent(t *testing.T) {
	gw, _ := newTestGateway(t, &database.MockChatRepository{})

	c := newTestClient(gw, 1, "alice")
	assert.True(t, c.queueEvent(&ServerEvent{Error: "test"}), "expected event to be queued")

	evt := receiveEvent(t, c)
	assert.Equal(t, "test", evt.Error, "expected queued event to be delivered")
}

func Test_queueEvent_fullQueue(t *testing.T) {
	gw, _ := newTestGateway(t, &database.MockChatRepository{})

	c := newTestClient(gw, 1, "alice")
	c.send = make(chan *ServerEvent, 1)
	c.send <- &ServerEvent{Error: "first"}

	assert.False(t, c.queueEvent(&ServerEvent{Error: "second"}), "expected queue to reject when full")
}

func Test_cleanup_idempotent(t *testing.T) {
	gw, _ := newTestGateway(t, &database.MockChatRepository{})
	go gw.Run()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		gw.Shutdown(ctx)
	}()

	c := newTestClient(gw, 1, "alice")
	gw.Register(c)

	// a disconnect may be observed by both the read pump and the
	// gateway's own shutdown path
	c.cleanup()
	c.cleanup()

	select {
	case <-c.stop:
	default:
		t.Error("expected client stop channel to be closed")
	}
}
