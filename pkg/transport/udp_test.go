package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TheGoldLab/mxgram/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openPair returns a receive-only socket and a socket that sends to it
func openPair(t *testing.T) (receiver, sender *UDPSocket) {
	t.Helper()
	receiver, err := OpenUDP("127.0.0.1:0", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = receiver.Close() })

	sender, err = OpenUDP("127.0.0.1:0", receiver.LocalAddr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sender.Close() })
	return receiver, sender
}

func TestUDP_SendReceive(t *testing.T) {
	receiver, sender := openPair(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, sender.Send(ctx, []byte("hello")))

	buf := make([]byte, 64)
	n, err := receiver.Receive(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
	assert.Contains(t, sender.String(), "->")
}

func TestUDP_CheckKeepsDatagram(t *testing.T) {
	receiver, sender := openPair(t)

	ready, err := receiver.Check(10 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ready)

	require.NoError(t, sender.Send(context.Background(), []byte{1, 2, 3}))

	ready, err = receiver.Check(5 * time.Second)
	require.NoError(t, err)
	assert.True(t, ready)

	ready, err = receiver.Check(0)
	require.NoError(t, err)
	assert.True(t, ready, "a checked datagram must stay pending")

	buf := make([]byte, 8)
	n, err := receiver.Receive(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, buf[:n])
}

func TestUDP_CheckZeroSeesQueuedDatagram(t *testing.T) {
	receiver, sender := openPair(t)

	require.NoError(t, sender.Send(context.Background(), []byte("hello")))
	time.Sleep(100 * time.Millisecond)

	ready, err := receiver.Check(0)
	require.NoError(t, err)
	assert.True(t, ready, "a datagram queued before Check(0) must be reported")

	buf := make([]byte, 8)
	n, err := receiver.Receive(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	ready, err = receiver.Check(0)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestUDP_ReceiveHonoursContext(t *testing.T) {
	receiver, _ := openPair(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := receiver.Receive(ctx, make([]byte, 8))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestUDP_Limits(t *testing.T) {
	receiver, sender := openPair(t)

	err := sender.Send(context.Background(), make([]byte, MaxDatagramLength+1))
	assert.ErrorIs(t, err, ErrDatagramTooLarge)

	err = receiver.Send(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrNoRemote)

	require.NoError(t, sender.Send(context.Background(), make([]byte, 16)))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = receiver.Receive(ctx, make([]byte, 4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not fit")
}

func TestUDP_Close(t *testing.T) {
	receiver, sender := openPair(t)

	done := make(chan error, 1)
	go func() {
		_, err := receiver.Receive(context.Background(), make([]byte, 8))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, receiver.Close())
	assert.NoError(t, receiver.Close(), "second close is a no-op")

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrClosed), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Receive did not return after Close")
	}

	require.NoError(t, sender.Close())
	assert.ErrorIs(t, sender.Send(context.Background(), []byte("x")), ErrClosed)
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig().Transport
	cfg.LocalAddr = "127.0.0.1:0"

	tr, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer tr.Close()
	assert.Contains(t, tr.String(), "udp 127.0.0.1:")

	cfg.Kind = "carrier-pigeon"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}
