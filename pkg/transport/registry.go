package transport

import (
	"context"
	"fmt"
	"sync"
)

// MaxSockets is the number of sockets a Registry keeps open at once
const MaxSockets = 512

// Registry hands out small integer ids for open UDP sockets so that callers
// that cannot hold Go values, such as the CLI and HTTP layers, can refer to
// them. Opening the same address pair twice returns the existing socket.
type Registry struct {
	mu      sync.Mutex
	sockets [MaxSockets]*registered
}

type registered struct {
	local, remote string
	socket        *UDPSocket
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Open returns the id of an open socket for the address pair, opening one
// in the lowest free slot when none exists.
func (r *Registry) Open(local, remote string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id := r.find(local, remote); id >= 0 {
		return id, nil
	}

	slot := -1
	for i, s := range r.sockets {
		if s == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		return -1, fmt.Errorf("%w: limit %d", ErrTooManySockets, MaxSockets)
	}

	socket, err := OpenUDP(local, remote)
	if err != nil {
		return -1, err
	}
	r.sockets[slot] = &registered{local: local, remote: remote, socket: socket}
	return slot, nil
}

// Find returns the id of the open socket for the address pair, or -1
func (r *Registry) Find(local, remote string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(local, remote)
}

func (r *Registry) find(local, remote string) int {
	for i, s := range r.sockets {
		if s != nil && s.local == local && s.remote == remote {
			return i
		}
	}
	return -1
}

// Socket returns the socket for id
func (r *Registry) Socket(id int) (*UDPSocket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.valid(id) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSocket, id)
	}
	return r.sockets[id].socket, nil
}

// IsValid reports whether id names an open socket
func (r *Registry) IsValid(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.valid(id)
}

func (r *Registry) valid(id int) bool {
	return id >= 0 && id < MaxSockets && r.sockets[id] != nil
}

// Send sends data on socket id
func (r *Registry) Send(ctx context.Context, id int, data []byte) error {
	s, err := r.Socket(id)
	if err != nil {
		return err
	}
	return s.Send(ctx, data)
}

// Close closes socket id and frees its slot
func (r *Registry) Close(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.valid(id) {
		return fmt.Errorf("%w: %d", ErrUnknownSocket, id)
	}
	err := r.sockets[id].socket.Close()
	r.sockets[id] = nil
	return err
}

// CloseAll closes every open socket and returns the first error
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for i, s := range r.sockets {
		if s == nil {
			continue
		}
		if err := s.socket.Close(); err != nil && first == nil {
			first = err
		}
		r.sockets[i] = nil
	}
	return first
}

// Len returns the number of open sockets
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, s := range r.sockets {
		if s != nil {
			n++
		}
	}
	return n
}

// SocketInfo describes one open socket
type SocketInfo struct {
	ID     int    `json:"id"`
	Local  string `json:"local"`
	Remote string `json:"remote"`
	Addr   string `json:"addr"`
}

// List describes the open sockets in id order
func (r *Registry) List() []SocketInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := []SocketInfo{}
	for i, s := range r.sockets {
		if s == nil {
			continue
		}
		infos = append(infos, SocketInfo{ID: i, Local: s.local, Remote: s.remote, Addr: s.socket.LocalAddr().String()})
	}
	return infos
}
