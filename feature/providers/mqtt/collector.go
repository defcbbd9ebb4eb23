package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fleet-sync/core/provider"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Collector gathers the messages published on a topic filter during a window.
// The result maps topic to the last payload seen on it.
type Collector interface {
	Collect(ctx context.Context, filter string, window time.Duration) (map[string][]byte, error)
	Ping(ctx context.Context) error
}

// BrokerOptions are the connection parameters of one broker.
type BrokerOptions struct {
	URL      string
	ClientID string
	Username string
	Password string
	Timeout  time.Duration
}

// Broker is the paho-backed Collector. Every call opens its own session,
// so retained messages are redelivered on subscribe.
type Broker struct {
	opts BrokerOptions
}

// NewBroker creates a collector for the broker at opts.URL.
func NewBroker(opts BrokerOptions) *Broker {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Broker{opts: opts}
}

// clientOptions builds the options of one session. Concurrent sessions of the
// same integration must not share a client id, the broker would disconnect
// the older one.
func (b *Broker) clientOptions() *paho.ClientOptions {
	opts := paho.NewClientOptions().
		AddBroker(b.opts.URL).
		SetClientID(b.opts.ClientID + "-" + uuid.NewString()[:8]).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectTimeout(b.opts.Timeout)
	if b.opts.Username != "" {
		opts.SetUsername(b.opts.Username)
		opts.SetPassword(b.opts.Password)
	}
	return opts
}

func (b *Broker) connect() (paho.Client, error) {
	client := paho.NewClient(b.clientOptions())
	token := client.Connect()
	if !token.WaitTimeout(b.opts.Timeout) {
		return nil, &provider.Error{Provider: Name, Op: "connect", Err: provider.ErrUnavailable, Message: "connect timed out"}
	}
	if err := token.Error(); err != nil {
		return nil, classify("connect", err)
	}
	return client, nil
}

// Collect subscribes to filter and records messages until window elapses or ctx ends.
func (b *Broker) Collect(ctx context.Context, filter string, window time.Duration) (map[string][]byte, error) {
	client, err := b.connect()
	if err != nil {
		return nil, err
	}
	defer client.Disconnect(250)

	var mu sync.Mutex
	seen := make(map[string][]byte)
	handler := func(_ paho.Client, msg paho.Message) {
		mu.Lock()
		seen[msg.Topic()] = append([]byte(nil), msg.Payload()...)
		mu.Unlock()
	}

	token := client.Subscribe(filter, 1, handler)
	if !token.WaitTimeout(b.opts.Timeout) {
		return nil, &provider.Error{Provider: Name, Op: "subscribe", Err: provider.ErrUnavailable, Message: "subscribe timed out"}
	}
	if err := token.Error(); err != nil {
		return nil, classify("subscribe", err)
	}

	timer := time.NewTimer(window)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	client.Unsubscribe(filter).WaitTimeout(b.opts.Timeout)

	mu.Lock()
	defer mu.Unlock()
	out := make(map[string][]byte, len(seen))
	for k, v := range seen {
		out[k] = v
	}
	return out, nil
}

// Ping opens and closes a session.
func (b *Broker) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := b.connect()
	if err != nil {
		return err
	}
	client.Disconnect(250)
	return nil
}

func classify(op string, err error) error {
	msg := strings.ToLower(err.Error())
	kind := provider.ErrUnavailable
	if strings.Contains(msg, "not authori") || strings.Contains(msg, "bad user name or password") {
		kind = provider.ErrUnauthorized
	}
	return &provider.Error{Provider: Name, Op: op, Err: kind, Message: fmt.Sprint(err)}
}
