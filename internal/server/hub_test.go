package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_DropsSlowClients(t *testing.T) {
	h := newHub()
	fast := &client{send: make(chan []byte, sendBuffer), remoteAddr: "fast"}
	slow := &client{send: make(chan []byte, 1), remoteAddr: "slow"}
	h.add(fast)
	h.add(slow)

	h.broadcast([]byte("one"))
	assert.Equal(t, 2, h.count())

	h.broadcast([]byte("two"))
	assert.Equal(t, 1, h.count(), "client with a full buffer is dropped")

	_, open := <-slow.send
	assert.True(t, open, "queued message is still delivered")
	_, open = <-slow.send
	assert.False(t, open, "dropped client's queue is closed")

	// removing twice must not panic on a closed channel
	h.remove(slow)
	h.remove(fast)
	h.remove(fast)
	assert.Equal(t, 0, h.count())
}

func TestHub_SendToIgnoresUnknownClient(t *testing.T) {
	h := newHub()
	c := &client{send: make(chan []byte, 1)}

	h.sendTo(c, []byte("x"))
	assert.Len(t, c.send, 0)

	h.add(c)
	h.sendTo(c, []byte("x"))
	assert.Len(t, c.send, 1)

	h.closeAll()
	assert.Equal(t, 0, h.count())
}
