package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

// pollInterval bounds how long a blocked read goes without checking its context
const pollInterval = 100 * time.Millisecond

// minCheckWait is the shortest read deadline Check sets. A deadline already in
// the past fails the read before the socket is polled at all.
const minCheckWait = time.Millisecond

// UDPSocket is a datagram socket bound to a local address that sends to a
// fixed remote address.
type UDPSocket struct {
	conn   *net.UDPConn
	local  *net.UDPAddr
	remote *net.UDPAddr

	readMu  sync.Mutex
	scratch []byte
	pending []byte

	closeOnce sync.Once
	closed    chan struct{}
}

var _ Transport = &UDPSocket{}

// OpenUDP binds local and targets remote. An empty remote gives a
// receive-only socket.
func OpenUDP(local, remote string) (*UDPSocket, error) {
	laddr, err := net.ResolveUDPAddr("udp", local)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve local %q: %w", local, err)
	}
	var raddr *net.UDPAddr
	if remote != "" {
		if raddr, err = net.ResolveUDPAddr("udp", remote); err != nil {
			return nil, fmt.Errorf("transport: resolve remote %q: %w", remote, err)
		}
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", local, err)
	}

	return &UDPSocket{
		conn:    conn,
		local:   conn.LocalAddr().(*net.UDPAddr),
		remote:  raddr,
		scratch: make([]byte, MaxDatagramLength+1),
		closed:  make(chan struct{}),
	}, nil
}

// LocalAddr returns the bound address, with the port chosen by the system
// when the socket was opened on port 0.
func (s *UDPSocket) LocalAddr() *net.UDPAddr { return s.local }

// RemoteAddr returns the send target, nil for a receive-only socket
func (s *UDPSocket) RemoteAddr() *net.UDPAddr { return s.remote }

func (s *UDPSocket) String() string {
	if s.remote == nil {
		return fmt.Sprintf("udp %s", s.local)
	}
	return fmt.Sprintf("udp %s -> %s", s.local, s.remote)
}

func (s *UDPSocket) Send(ctx context.Context, data []byte) error {
	if s.isClosed() {
		return ErrClosed
	}
	if s.remote == nil {
		return ErrNoRemote
	}
	if err := checkLength(data); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
		defer s.conn.SetWriteDeadline(time.Time{})
	}
	if _, err := s.conn.WriteToUDP(data, s.remote); err != nil {
		return fmt.Errorf("transport: send to %s: %w", s.remote, err)
	}
	return nil
}

// Check reports whether a datagram is waiting, waiting at most timeout for
// one to arrive. A timeout of zero or less polls without waiting. The
// datagram stays queued for the next Receive.
func (s *UDPSocket) Check(timeout time.Duration) (bool, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if s.pending != nil {
		return true, nil
	}
	if s.isClosed() {
		return false, ErrClosed
	}

	if timeout < minCheckWait {
		timeout = minCheckWait
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
	n, err := s.read()
	if err != nil {
		if isTimeout(err) {
			return false, nil
		}
		return false, err
	}
	s.pending = append([]byte{}, s.scratch[:n]...)
	return true, nil
}

func (s *UDPSocket) Receive(ctx context.Context, buf []byte) (int, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if s.pending != nil {
		datagram := s.pending
		s.pending = nil
		return deliver(buf, datagram)
	}

	for {
		if s.isClosed() {
			return 0, ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		deadline := time.Now().Add(pollInterval)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		_ = s.conn.SetReadDeadline(deadline)

		n, err := s.read()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return 0, err
		}
		return deliver(buf, s.scratch[:n])
	}
}

func (s *UDPSocket) read() (int, error) {
	n, _, err := s.conn.ReadFromUDP(s.scratch)
	if err != nil {
		if s.isClosed() || errors.Is(err, net.ErrClosed) {
			return 0, ErrClosed
		}
		if isTimeout(err) {
			return 0, err
		}
		return 0, fmt.Errorf("transport: receive on %s: %w", s.local, err)
	}
	return n, nil
}

func (s *UDPSocket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.conn.Close()
	})
	return err
}

func (s *UDPSocket) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}
