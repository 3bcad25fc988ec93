package bridge

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/banshee-data/navmodel/internal/messaging"
	"github.com/banshee-data/navmodel/internal/messaging/bridge/pb"
	"github.com/banshee-data/navmodel/internal/monitoring"
)

var logf = monitoring.Prefixed("bridge")

// Config holds configuration for the bridge server.
type Config struct {
	// MaxClients caps concurrent remote subscribers. Zero means no limit.
	MaxClients int

	// ClientDepth is the hub buffer for each remote subscriber. Events beyond
	// it are dropped for that subscriber.
	ClientDepth int
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		MaxClients:  8,
		ClientDepth: messaging.DefaultDepth,
	}
}

// Stats is a snapshot of server counters.
type Stats struct {
	Clients int32
	Sent    uint64
}

// Server streams hub topics to remote subscribers.
type Server struct {
	pb.UnimplementedBusServer

	hub    *messaging.Hub
	config Config
	server *grpc.Server

	mu        sync.Mutex
	listeners []net.Listener

	clients atomic.Int32
	sent    atomic.Uint64

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Ensure Server implements the gRPC interface.
var _ pb.BusServer = (*Server)(nil)

// NewServer creates a Server publishing events from hub.
func NewServer(hub *messaging.Hub, cfg Config) *Server {
	if cfg.ClientDepth <= 0 {
		cfg.ClientDepth = messaging.DefaultDepth
	}
	s := &Server{
		hub:    hub,
		config: cfg,
		server: grpc.NewServer(),
		stopCh: make(chan struct{}),
	}
	pb.RegisterBusServer(s.server, s)
	return s
}

// Serve listens on a unix socket at socketPath and serves until Stop. A stale
// socket file left by a previous run is removed first.
func (s *Server) Serve(socketPath string) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("failed to create bus directory: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	lis, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	logf("serving on %s", socketPath)
	return s.ServeListener(lis)
}

// ServeListener serves on an existing listener until Stop.
func (s *Server) ServeListener(lis net.Listener) error {
	s.mu.Lock()
	select {
	case <-s.stopCh:
		s.mu.Unlock()
		lis.Close()
		return grpc.ErrServerStopped
	default:
	}
	s.listeners = append(s.listeners, lis)
	s.mu.Unlock()

	err := s.server.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop ends every stream and closes the listeners.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		close(s.stopCh)
		s.mu.Unlock()

		s.server.GracefulStop()
		logf("stopped (sent=%d)", s.sent.Load())
	})
}

// Stats returns the server counters.
func (s *Server) Stats() Stats {
	return Stats{Clients: s.clients.Load(), Sent: s.sent.Load()}
}

// Subscribe implements the streaming RPC for one topic.
func (s *Server) Subscribe(req *wrapperspb.StringValue, stream pb.Bus_SubscribeServer) error {
	topic := req.GetValue()
	if topic == "" {
		return status.Error(codes.InvalidArgument, "topic is required")
	}
	n := s.clients.Add(1)
	defer s.clients.Add(-1)
	if s.config.MaxClients > 0 && int(n) > s.config.MaxClients {
		return status.Errorf(codes.ResourceExhausted, "too many subscribers (max %d)", s.config.MaxClients)
	}

	id, ch := s.hub.Subscribe(topic, s.config.ClientDepth)
	defer s.hub.Unsubscribe(id)
	logf("subscriber %s connected to %s (total: %d)", id, topic, n)
	defer logf("subscriber %s disconnected from %s", id, topic)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopCh:
			return nil
		case ev, ok := <-ch:
			if !ok {
				return status.Error(codes.Unavailable, "bus closed")
			}
			if err := stream.Send(&wrapperspb.BytesValue{Value: messaging.Marshal(ev)}); err != nil {
				return err
			}
			s.sent.Add(1)
		}
	}
}
