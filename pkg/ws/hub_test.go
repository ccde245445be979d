package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHubSend_MultiTab 同一访客的多个标签页都收到推送
func TestHubSend_MultiTab(t *testing.T) {
	h := NewHub()
	c1 := NewClient("visitor-1", nil)
	c2 := NewClient("visitor-1", nil)
	h.Register(c1)
	h.Register(c2)

	ok := h.Send("visitor-1", []byte(`{"type":"reply"}`))
	require.True(t, ok)

	assert.Len(t, c1.send, 1)
	assert.Len(t, c2.send, 1)
}

// TestHubSend_UnknownOrEmpty 无连接或参数为空时返回 false
func TestHubSend_UnknownOrEmpty(t *testing.T) {
	h := NewHub()
	assert.False(t, h.Send("nobody", []byte("x")))
	assert.False(t, h.Send("", []byte("x")))
	assert.False(t, h.Send("nobody", nil))
}

// TestClientClose_SendAfterClose 关闭后的连接不再接收推送，重复关闭无副作用
func TestClientClose_SendAfterClose(t *testing.T) {
	h := NewHub()
	c := NewClient("visitor-2", nil)
	h.Register(c)

	h.Unregister(c)
	h.Unregister(c)
	c.Close()

	assert.False(t, c.trySend([]byte("late")))
	assert.False(t, h.Send("visitor-2", []byte("late")))
}

// TestHubSend_ConcurrentRegisterUnregister 推送与注册/注销并发进行不 panic
// （Send 遍历的是持锁拷出的快照，关闭通道由 Client 自身的锁保护）
func TestHubSend_ConcurrentRegisterUnregister(t *testing.T) {
	h := NewHub()
	const rounds = 200

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			c := NewClient("visitor-3", nil)
			h.Register(c)
			h.Unregister(c)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			h.Send("visitor-3", []byte("ping"))
		}
	}()

	wg.Wait()
}
