package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

// NATSTransport publishes datagrams to a subject and receives them from a
// synchronous subscription on the same subject.
type NATSTransport struct {
	conn         *nats.Conn
	subscription *nats.Subscription
	subject      string
	ownsConn     bool
}

var _ Transport = &NATSTransport{}

// Namespace builds a subject from a prefix and parts, replacing characters
// that NATS treats as separators or wildcards.
func Namespace(prefix string, parts ...string) string {
	clean := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")
	segments := []string{prefix}
	for _, p := range parts {
		if p == "" {
			continue
		}
		segments = append(segments, clean.Replace(p))
	}
	return strings.Join(segments, ".")
}

// DialNATS connects to url and subscribes to the channel's subject
func DialNATS(url, channel string) (*NATSTransport, error) {
	conn, err := nats.Connect(url, nats.Name("mxgram"))
	if err != nil {
		return nil, fmt.Errorf("transport: connect to nats %s: %w", url, err)
	}
	t, err := NewNATSTransport(conn, channel)
	if err != nil {
		conn.Close()
		return nil, err
	}
	t.ownsConn = true
	return t, nil
}

// NewNATSTransport uses an existing connection. Closing the transport
// leaves the connection open.
func NewNATSTransport(conn *nats.Conn, channel string) (*NATSTransport, error) {
	subject := Namespace("mxgram", channel)
	subscription, err := conn.SubscribeSync(subject)
	if err != nil {
		return nil, fmt.Errorf("transport: subscribe to %s: %w", subject, err)
	}
	return &NATSTransport{conn: conn, subscription: subscription, subject: subject}, nil
}

func (t *NATSTransport) String() string { return "nats " + t.subject }

func (t *NATSTransport) Send(ctx context.Context, data []byte) error {
	if err := checkLength(data); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.conn.Publish(t.subject, data); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return ErrClosed
		}
		return fmt.Errorf("transport: publish to %s: %w", t.subject, err)
	}
	return nil
}

func (t *NATSTransport) Receive(ctx context.Context, buf []byte) (int, error) {
	msg, err := t.subscription.NextMsgWithContext(ctx)
	if err != nil {
		if errors.Is(err, nats.ErrBadSubscription) || errors.Is(err, nats.ErrConnectionClosed) {
			return 0, ErrClosed
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("transport: receive on %s: %w", t.subject, err)
	}
	return deliver(buf, msg.Data)
}

func (t *NATSTransport) Close() error {
	err := t.subscription.Unsubscribe()
	if errors.Is(err, nats.ErrBadSubscription) || errors.Is(err, nats.ErrConnectionClosed) {
		err = nil
	}
	if t.ownsConn {
		t.conn.Close()
	}
	return err
}
