package ws

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// ants starts a package-level default pool on import that never stops.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("github.com/panjf2000/ants/v2.(*poolCommon).purgeStaleWorkers"),
		goleak.IgnoreAnyFunction("github.com/panjf2000/ants/v2.(*poolCommon).ticktock"),
	)
}

const waitFor = time.Second

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func testClient(h *Hub, userID uuid.UUID, buffer int) *Client {
	return &Client{hub: h, userID: userID, send: make(chan []byte, buffer)}
}

func receive(t *testing.T, c *Client) ([]byte, bool) {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		return msg, ok
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for client message")
		return nil, false
	}
}

func TestHub_RoutesToEveryUserSocket(t *testing.T) {
	h := startHub(t)
	alice, bob := uuid.New(), uuid.New()
	phone, laptop, other := testClient(h, alice, 4), testClient(h, alice, 4), testClient(h, bob, 4)
	for _, c := range []*Client{phone, laptop, other} {
		h.Register(c)
	}
	require.Eventually(t, func() bool { return h.ClientCount() == 3 }, waitFor, 5*time.Millisecond)

	require.True(t, h.SendToUser(alice, []byte("hello")))
	for _, c := range []*Client{phone, laptop} {
		msg, ok := receive(t, c)
		require.True(t, ok)
		assert.Equal(t, "hello", string(msg))
	}
	assert.Empty(t, other.send)

	assert.False(t, h.SendToUser(uuid.Nil, []byte("x")))
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h := startHub(t)
	id := uuid.New()
	c := testClient(h, id, 1)
	h.Register(c)
	require.Eventually(t, func() bool { return h.Connected(id) }, waitFor, 5*time.Millisecond)

	h.Unregister(c)
	_, ok := receive(t, c)
	assert.False(t, ok)
	assert.False(t, h.Connected(id))
	assert.Zero(t, h.ClientCount())

	// A second unregister is a no-op.
	h.Unregister(c)
}

func TestHub_DropsClientWithFullBuffer(t *testing.T) {
	h := startHub(t)
	id := uuid.New()
	slow := testClient(h, id, 1)
	h.Register(slow)
	require.Eventually(t, func() bool { return h.Connected(id) }, waitFor, 5*time.Millisecond)

	h.SendToUser(id, []byte("one"))
	h.SendToUser(id, []byte("two"))
	require.Eventually(t, func() bool { return !h.Connected(id) }, waitFor, 5*time.Millisecond)

	msg, ok := receive(t, slow)
	require.True(t, ok)
	assert.Equal(t, "one", string(msg))
	_, ok = receive(t, slow)
	assert.False(t, ok)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	c := testClient(h, uuid.New(), 1)
	h.Register(c)
	cancel()
	<-h.done

	_, ok := receive(t, c)
	assert.False(t, ok)
	assert.Zero(t, h.ClientCount())

	late := testClient(h, uuid.New(), 1)
	h.Register(late)
	_, ok = receive(t, late)
	assert.False(t, ok)
}

func TestHub_NilSafe(t *testing.T) {
	var h *Hub
	h.Register(nil)
	h.Unregister(nil)
	assert.False(t, h.SendToUser(uuid.New(), nil))
	assert.Zero(t, h.ClientCount())
	assert.False(t, h.Connected(uuid.New()))
}
