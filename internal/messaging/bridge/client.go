package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/banshee-data/navmodel/internal/messaging"
	"github.com/banshee-data/navmodel/internal/messaging/bridge/pb"
)

// DefaultBackoff is the wait between reconnection attempts.
const DefaultBackoff = 100 * time.Millisecond

type options struct {
	backoff     time.Duration
	dialOptions []grpc.DialOption
}

// Option configures Watch and Forward.
type Option func(*options)

// WithBackoff sets the wait between reconnection attempts.
func WithBackoff(d time.Duration) Option {
	return func(o *options) { o.backoff = d }
}

// WithDialOptions appends gRPC dial options, e.g. a custom dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dialOptions = append(o.dialOptions, opts...) }
}

// Watch subscribes to topic on target and calls fn for every decoded event.
// Lost connections are re-dialled after the backoff. Watch returns nil when ctx
// is cancelled, or the first error returned by fn.
func Watch(ctx context.Context, target, topic string, fn func(*messaging.Event) error, opts ...Option) error {
	o := options{backoff: DefaultBackoff}
	for _, opt := range opts {
		opt(&o)
	}

	failing := false
	for {
		received, err := watchOnce(ctx, target, topic, fn, o)
		if ctx.Err() != nil {
			return nil
		}
		var fnErr handlerError
		if errors.As(err, &fnErr) {
			return fnErr.err
		}
		// Log once per outage rather than on every retry.
		if received > 0 {
			failing = false
		}
		if !failing {
			logf("%s stream from %s ended: %v; retrying every %v", topic, target, err, o.backoff)
			failing = true
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(o.backoff):
		}
	}
}

// Forward republishes topic from target onto the local hub until ctx is
// cancelled or the hub is closed.
func Forward(ctx context.Context, target, topic string, hub *messaging.Hub, opts ...Option) error {
	err := Watch(ctx, target, topic, func(ev *messaging.Event) error {
		return hub.Publish(topic, ev)
	}, opts...)
	if errors.Is(err, messaging.ErrClosed) {
		return nil
	}
	return err
}

type handlerError struct{ err error }

func (e handlerError) Error() string { return e.err.Error() }

// watchOnce streams until an error, reporting how many events it delivered.
func watchOnce(ctx context.Context, target, topic string, fn func(*messaging.Event) error, o options) (int, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, o.dialOptions...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return 0, fmt.Errorf("failed to create client: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := pb.NewBusClient(conn).Subscribe(ctx, &wrapperspb.StringValue{Value: topic})
	if err != nil {
		return 0, fmt.Errorf("failed to subscribe: %w", err)
	}

	received := 0
	for {
		msg, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return received, errors.New("server closed stream")
			}
			return received, err
		}
		ev, err := messaging.Unmarshal(msg.GetValue())
		if err != nil {
			logf("skipping undecodable %s event: %v", topic, err)
			continue
		}
		if err := fn(ev); err != nil {
			return received, handlerError{err}
		}
		received++
	}
}
