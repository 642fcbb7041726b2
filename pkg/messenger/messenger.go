// Package messenger sends and receives gram values over a transport.
package messenger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/TheGoldLab/mxgram/pkg/gram"
	"github.com/TheGoldLab/mxgram/pkg/metrics"
	"github.com/TheGoldLab/mxgram/pkg/transport"
	"github.com/segmentio/ksuid"
)

// ErrDropped wraps the decode error of a received datagram that was discarded
var ErrDropped = errors.New("messenger: datagram dropped")

// Archiver keeps a copy of every decoded datagram
type Archiver interface {
	Put(data []byte) (ksuid.KSUID, error)
}

// Recorder keeps every received datagram, including ones that are dropped
type Recorder interface {
	Record(source string, data []byte) error
}

// Options configures a Messenger. Only Transport is required.
type Options struct {
	Codec      *gram.Codec
	Transport  transport.Transport
	Archive    Archiver
	Recorder   Recorder
	Metrics    *metrics.Metrics
	Logger     *log.Logger
	Debug      bool
	BufferSize int
}

// Messenger couples a codec with a transport. Send and Receive each own a
// scratch buffer, so one goroutine may send while another receives.
type Messenger struct {
	codec     *gram.Codec
	transport transport.Transport
	archive   Archiver
	recorder  Recorder
	metrics   *metrics.Metrics
	logger    *log.Logger
	debug     bool

	sendMu  sync.Mutex
	sendBuf []byte

	recvMu  sync.Mutex
	recvBuf []byte
}

// New returns a Messenger for opts
func New(opts Options) (*Messenger, error) {
	if opts.Transport == nil {
		return nil, errors.New("messenger: transport is required")
	}
	if opts.Codec == nil {
		opts.Codec = gram.Default
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.BufferSize <= 0 || opts.BufferSize > transport.MaxDatagramLength {
		opts.BufferSize = transport.MaxDatagramLength
	}

	return &Messenger{
		codec:     opts.Codec,
		transport: opts.Transport,
		archive:   opts.Archive,
		recorder:  opts.Recorder,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		debug:     opts.Debug,
		sendBuf:   make([]byte, opts.BufferSize),
		recvBuf:   make([]byte, transport.MaxDatagramLength),
	}, nil
}

// Transport returns the underlying transport
func (m *Messenger) Transport() transport.Transport { return m.transport }

// Send encodes v and sends it as one datagram
func (m *Messenger) Send(ctx context.Context, v gram.Value) error {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	start := time.Now()
	n, err := m.codec.Encode(v, m.sendBuf)
	m.recordCodec("encode", v, n, err, start)
	if err != nil {
		return fmt.Errorf("messenger: encode: %w", err)
	}

	if err := m.transport.Send(ctx, m.sendBuf[:n]); err != nil {
		return err
	}
	if m.metrics != nil {
		m.metrics.RecordSent()
	}
	if m.debug {
		m.logger.Printf("sent %d byte gram on %s", n, m.transport)
	}
	return nil
}

// Receive waits for one datagram and decodes it. A datagram that does not
// hold exactly one well formed gram is discarded and reported as an error
// wrapping ErrDropped and the codec error.
func (m *Messenger) Receive(ctx context.Context) (gram.Value, error) {
	m.recvMu.Lock()
	defer m.recvMu.Unlock()

	n, err := m.transport.Receive(ctx, m.recvBuf)
	if err != nil {
		return nil, err
	}
	datagram := m.recvBuf[:n]
	if m.recorder != nil {
		if err := m.recorder.Record(m.transport.String(), datagram); err != nil {
			m.logger.Printf("recording failed: %v", err)
		}
	}

	start := time.Now()
	v, err := m.codec.Unmarshal(datagram)
	m.recordCodec("decode", v, n, err, start)
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordDropped(dropReason(err))
		}
		return nil, fmt.Errorf("%w: %w", ErrDropped, err)
	}
	if m.metrics != nil {
		m.metrics.RecordReceived()
	}
	if m.debug {
		m.logger.Printf("received %d byte %s gram on %s", n, kindOf(v), m.transport)
	}

	if m.archive != nil {
		_, err := m.archive.Put(datagram)
		if m.metrics != nil {
			m.metrics.RecordArchiveWrite(err == nil)
		}
		if err != nil {
			m.logger.Printf("archive write failed: %v", err)
		}
	}
	return v, nil
}

// Listen passes every received value to handler until ctx is done, the
// transport fails or handler returns an error. Dropped datagrams are logged
// and skipped.
func (m *Messenger) Listen(ctx context.Context, handler func(gram.Value) error) error {
	for {
		v, err := m.Receive(ctx)
		switch {
		case err == nil:
			if err := handler(v); err != nil {
				return err
			}
		case errors.Is(err, ErrDropped):
			m.logger.Printf("%v", err)
		case ctx.Err() != nil:
			return nil
		default:
			return err
		}
	}
}

func (m *Messenger) Close() error {
	return m.transport.Close()
}

func (m *Messenger) recordCodec(operation string, v gram.Value, n int, err error, start time.Time) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordCodecOperation(operation, kindOf(v), n, err, time.Since(start))
}

func kindOf(v gram.Value) string {
	if v == nil {
		return "unknown"
	}
	return v.Kind().String()
}

func dropReason(err error) string {
	switch gram.ErrorCode(err) {
	case gram.ErrMalformedHeader.Code:
		return "malformed"
	case gram.ErrInsufficientBuffer.Code:
		return "truncated"
	case gram.ErrUnsupportedType.Code:
		return "unsupported"
	case gram.ErrCallableConversionFailed.Code:
		return "callable"
	case gram.ErrDepthExceeded.Code:
		return "depth"
	}
	return "other"
}
