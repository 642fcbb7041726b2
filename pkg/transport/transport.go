// Package transport moves encoded grams between processes. Every transport
// delivers whole datagrams: one Send on one side is one Receive on the other.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/TheGoldLab/mxgram/pkg/config"
)

var (
	ErrClosed           = errors.New("transport: closed")
	ErrDatagramTooLarge = errors.New("transport: datagram too large")
	ErrNoRemote         = errors.New("transport: no remote address")
	ErrTooManySockets   = errors.New("transport: too many open sockets")
	ErrUnknownSocket    = errors.New("transport: unknown socket")
)

// MaxDatagramLength is the largest datagram any transport carries
const MaxDatagramLength = 8192

// Transport sends and receives datagrams. Implementations are safe for
// concurrent use by one sender and one receiver.
type Transport interface {
	// Send delivers data as one datagram
	Send(ctx context.Context, data []byte) error
	// Receive blocks until a datagram arrives or ctx is done, copies it
	// into buf and returns its length
	Receive(ctx context.Context, buf []byte) (int, error)
	Close() error
	String() string
}

// New builds the transport selected by cfg
func New(ctx context.Context, cfg config.Transport) (Transport, error) {
	var (
		t   Transport
		err error
	)
	switch cfg.Kind {
	case config.TransportUDP:
		t, err = OpenUDP(cfg.LocalAddr, cfg.RemoteAddr)
	case config.TransportNATS:
		t, err = DialNATS(cfg.NATSURL, cfg.Channel)
	case config.TransportRedis:
		t, err = DialRedis(ctx, cfg.RedisAddr, cfg.Channel)
	default:
		return nil, fmt.Errorf("transport: unknown kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func checkLength(data []byte) error {
	if len(data) > MaxDatagramLength {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrDatagramTooLarge, len(data), MaxDatagramLength)
	}
	return nil
}

// deliver copies a received datagram into buf
func deliver(buf, datagram []byte) (int, error) {
	if err := checkLength(datagram); err != nil {
		return 0, err
	}
	if len(datagram) > len(buf) {
		return 0, fmt.Errorf("transport: %d byte datagram does not fit %d byte buffer", len(datagram), len(buf))
	}
	return copy(buf, datagram), nil
}
