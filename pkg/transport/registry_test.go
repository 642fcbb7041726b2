package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_OpenReusesSocket(t *testing.T) {
	r := NewRegistry()
	defer r.CloseAll()

	id, err := r.Open("127.0.0.1:0", "127.0.0.1:9")
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	again, err := r.Open("127.0.0.1:0", "127.0.0.1:9")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, r.Len())

	other, err := r.Open("127.0.0.1:0", "")
	require.NoError(t, err)
	assert.Equal(t, 1, other)
	assert.Equal(t, other, r.Find("127.0.0.1:0", ""))
	assert.Equal(t, -1, r.Find("127.0.0.1:1", ""))
}

func TestRegistry_CloseFreesSlot(t *testing.T) {
	r := NewRegistry()
	defer r.CloseAll()

	first, err := r.Open("127.0.0.1:0", "")
	require.NoError(t, err)
	_, err = r.Open("127.0.0.1:0", "127.0.0.1:9")
	require.NoError(t, err)

	require.NoError(t, r.Close(first))
	assert.False(t, r.IsValid(first))
	assert.ErrorIs(t, r.Close(first), ErrUnknownSocket)

	reused, err := r.Open("127.0.0.1:0", "127.0.0.1:10")
	require.NoError(t, err)
	assert.Equal(t, first, reused, "lowest free slot is reused")
}

func TestRegistry_Limit(t *testing.T) {
	r := NewRegistry()
	for i := range r.sockets {
		r.sockets[i] = &registered{local: "placeholder"}
	}

	_, err := r.Open("127.0.0.1:0", "")
	assert.ErrorIs(t, err, ErrTooManySockets)
}

func TestRegistry_SendAndCloseAll(t *testing.T) {
	r := NewRegistry()

	rx, err := r.Open("127.0.0.1:0", "")
	require.NoError(t, err)
	receiver, err := r.Socket(rx)
	require.NoError(t, err)

	tx, err := r.Open("127.0.0.1:0", receiver.LocalAddr().String())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Send(ctx, tx, []byte("ping")))

	buf := make([]byte, 8)
	n, err := receiver.Receive(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))

	assert.ErrorIs(t, r.Send(ctx, 99, []byte("x")), ErrUnknownSocket)
	_, err = r.Socket(-1)
	assert.ErrorIs(t, err, ErrUnknownSocket)

	require.NoError(t, r.CloseAll())
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.IsValid(rx))
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	defer r.CloseAll()
	assert.Empty(t, r.List())

	_, err := r.Open("127.0.0.1:0", "127.0.0.1:9")
	require.NoError(t, err)
	id, err := r.Open("127.0.0.1:0", "")
	require.NoError(t, err)

	infos := r.List()
	require.Len(t, infos, 2)
	assert.Equal(t, id, infos[1].ID)
	assert.Equal(t, "127.0.0.1:9", infos[0].Remote)
	assert.Empty(t, infos[1].Remote)
	assert.NotEqual(t, "127.0.0.1:0", infos[1].Addr, "addr carries the chosen port")
}
