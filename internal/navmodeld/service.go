// Package navmodeld wires the navigation model frame loop: frames in from a
// vision stream, one navModel event out per frame.
package navmodeld

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/navmodel/internal/messaging"
	"github.com/banshee-data/navmodel/internal/monitoring"
	"github.com/banshee-data/navmodel/internal/navmodel"
	"github.com/banshee-data/navmodel/internal/timeutil"
	"github.com/banshee-data/navmodel/internal/visionipc"
)

var logf = monitoring.Prefixed("navmodeld")

// DefaultConnectBackoff is the wait between vision stream connect attempts.
const DefaultConnectBackoff = 100 * time.Millisecond

// State is the frame loop state.
type State int

const (
	StateConnecting State = iota
	StateReady
	StateReceiving
	StateInferring
	StatePublishing
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateReceiving:
		return "receiving"
	case StateInferring:
		return "inferring"
	case StatePublishing:
		return "publishing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Executor runs the model on one frame. The Result is borrowed until the next
// call.
type Executor interface {
	Execute(frame []byte) (*navmodel.Result, time.Duration, error)
	Close() error
}

var _ Executor = (*navmodel.Executor)(nil)

// Subscriber is the polled view of subscribed topics.
type Subscriber interface {
	Update()
	Valid(topic string) bool
}

var _ Subscriber = (*messaging.SubState)(nil)

// Observer receives per-frame latencies.
type Observer interface {
	Observe(model, dsp time.Duration, valid bool)
}

// Options configures a Service.
type Options struct {
	Clock          timeutil.Clock
	ConnectBackoff time.Duration
	Observer       Observer
}

// Service is the frame loop. It is driven by a single goroutine.
type Service struct {
	source visionipc.Source
	exec   Executor
	subs   Subscriber
	pub    messaging.Publisher

	clock    timeutil.Clock
	backoff  time.Duration
	observer Observer

	state  State
	frames uint64
}

// NewService creates the frame loop.
func NewService(source visionipc.Source, exec Executor, subs Subscriber, pub messaging.Publisher, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if opts.ConnectBackoff <= 0 {
		opts.ConnectBackoff = DefaultConnectBackoff
	}
	return &Service{
		source:   source,
		exec:     exec,
		subs:     subs,
		pub:      pub,
		clock:    opts.Clock,
		backoff:  opts.ConnectBackoff,
		observer: opts.Observer,
	}
}

// State returns the current loop state.
func (s *Service) State() State {
	return s.state
}

// Frames returns the number of published packets.
func (s *Service) Frames() uint64 {
	return s.frames
}

// Run connects to the frame source and processes frames until ctx is
// cancelled, which returns nil, or a fatal error occurs. A lost vision stream
// is reconnected.
func (s *Service) Run(ctx context.Context) error {
	for {
		if !s.connect(ctx) {
			return nil
		}
		if !s.source.IsConnected() {
			return errors.New("vision stream not connected after connect")
		}
		logf("connected with buffer size: %d", s.source.BufferLen())
		s.state = StateReady

		reconnect, err := s.receive(ctx)
		if err != nil || !reconnect {
			return err
		}
	}
}

// connect retries with a fixed backoff. It reports false if ctx ended first.
func (s *Service) connect(ctx context.Context) bool {
	s.state = StateConnecting
	for !s.source.Connect(false) {
		if ctx.Err() != nil {
			return false
		}
		s.clock.Sleep(s.backoff)
	}
	return true
}

func (s *Service) receive(ctx context.Context) (reconnect bool, err error) {
	for {
		if ctx.Err() != nil {
			return false, nil
		}
		s.state = StateReceiving
		frame, err := s.source.Recv()
		if errors.Is(err, visionipc.ErrDisconnected) {
			logf("vision stream lost, reconnecting: %v", err)
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to receive frame: %w", err)
		}
		if frame == nil {
			continue
		}
		if err := s.step(frame); err != nil {
			return false, err
		}
	}
}

// step runs the model on one frame and publishes the result.
func (s *Service) step(frame *visionipc.Frame) error {
	s.state = StateInferring
	s.subs.Update()

	start := s.clock.Now()
	res, dspTime, err := s.exec.Execute(frame.Luma())
	if err != nil {
		return fmt.Errorf("frame %d: %w", frame.FrameID, err)
	}
	total := s.clock.Since(start)

	s.state = StatePublishing
	valid := navmodel.Validity(frame.Valid, s.subs.Valid(messaging.NavInstructionTopic))
	ev := navmodel.BuildPacket(res, navmodel.PacketMeta{
		Valid:              valid,
		FrameID:            frame.FrameID,
		LocationMonoTime:   frame.TimestampSof,
		ModelExecutionTime: total,
		DspExecutionTime:   dspTime,
	})
	if err := s.pub.Publish(messaging.NavModelTopic, ev); err != nil {
		return fmt.Errorf("failed to publish frame %d: %w", frame.FrameID, err)
	}
	s.frames++
	if s.observer != nil {
		s.observer.Observe(total, dspTime, valid)
	}
	return nil
}
