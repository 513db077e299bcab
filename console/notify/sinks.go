package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	nats "github.com/nats-io/nats.go"
	"github.com/ugorji/go/codec"
)

// ConsoleSink prints one line per toast
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (c *ConsoleSink) Publish(t Toast) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%s %s\n", t.Kind.Symbol(), t.Message)
	return err
}

// Message is the msgpack shape toasts take on the wire
type Message struct {
	ID      string `codec:"id"`
	Kind    string `codec:"kind"`
	Text    string `codec:"text"`
	Host    string `codec:"host"`
	Created int64  `codec:"created"`
}

func EncodeToast(t Toast, host string) ([]byte, error) {
	var data []byte
	ret := codec.NewEncoderBytes(&data, new(codec.MsgpackHandle))
	msg := Message{ID: t.ID, Kind: string(t.Kind), Text: t.Message, Host: host, Created: t.CreatedAt.Unix()}
	if err := ret.Encode(msg); err != nil {
		return nil, err
	}
	return data, nil
}

func DecodeToast(data []byte) (Toast, string, error) {
	var mh codec.MsgpackHandle
	mh.RawToString = true

	var msg Message
	dec := codec.NewDecoderBytes(data, &mh)
	if err := dec.Decode(&msg); err != nil {
		return Toast{}, "", err
	}
	t := Toast{ID: msg.ID, Kind: Kind(msg.Kind), Message: msg.Text, CreatedAt: time.Unix(msg.Created, 0)}
	if d := t.Kind.Duration(); d > 0 {
		t.ExpiresAt = t.CreatedAt.Add(d)
	}
	return t, msg.Host, nil
}

func natsOptions() []nats.Option {
	opts := make([]nats.Option, 0)
	opts = append(opts, nats.Name("schedctl"))
	opts = append(opts, nats.ReconnectWait(time.Second*5))
	opts = append(opts, nats.RetryOnFailedConnect(true))
	opts = append(opts, nats.MaxReconnects(-1))
	opts = append(opts, nats.ReconnectBufSize(-1))
	return opts
}

// NatsSink fans toasts out to anyone subscribed to subject
type NatsSink struct {
	nc      *nats.Conn
	subject string
	host    string
}

func NewNatsSink(url, subject, host string) (*NatsSink, error) {
	nc, err := nats.Connect(url, natsOptions()...)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	return &NatsSink{nc: nc, subject: subject, host: host}, nil
}

func (s *NatsSink) Publish(t Toast) error {
	data, err := EncodeToast(t, s.host)
	if err != nil {
		return err
	}
	return s.nc.Publish(s.subject, data)
}

func (s *NatsSink) Close() {
	s.nc.Flush()
	s.nc.Close()
}
