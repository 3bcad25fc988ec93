package visionipc

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"sync"
	"time"
)

// WriteTimeout bounds a frame write to one client. Clients that fall behind
// are disconnected.
const WriteTimeout = time.Second

// Server broadcasts frames of one stream to every connected client.
type Server struct {
	path   string
	stream Stream
	info   BufferInfo
	hello  []byte

	lis net.Listener
	wg  sync.WaitGroup

	mu      sync.Mutex
	clients map[net.Conn]struct{}
	header  [frameHeaderSize]byte
	closed  bool
}

// NewServer creates a server for stream on socket name under dir.
func NewServer(dir, name string, stream Stream, info BufferInfo) *Server {
	return &Server{
		path:    SocketPath(dir, name, stream),
		stream:  stream,
		info:    info,
		hello:   encodeHello(stream, info),
		clients: make(map[net.Conn]struct{}),
	}
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Start listens on the socket and accepts clients in the background.
func (s *Server) Start() error {
	if s.info.UVOffset > s.info.Len {
		return fmt.Errorf("uv offset %d beyond buffer of %d", s.info.UVOffset, s.info.Len)
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	lis, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.lis = lis
	logf("serving stream %d on %s (buffer %d bytes)", s.stream, s.path, s.info.Len)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.lis.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logf("accept failed: %v", err)
			}
			return
		}
		conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
		if _, err := conn.Write(s.hello); err != nil {
			logf("failed to send hello: %v", err)
			conn.Close()
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.clients[conn] = struct{}{}
		n := len(s.clients)
		s.mu.Unlock()
		logf("client connected (total: %d)", n)
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Send writes f to every client. f.Data must fit the announced buffer. Clients
// whose write fails are dropped.
func (s *Server) Send(f *Frame) error {
	if len(f.Data) > s.info.Len {
		return fmt.Errorf("frame of %d bytes exceeds buffer of %d", len(f.Data), s.info.Len)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return net.ErrClosed
	}
	putFrameHeader(s.header[:], frameHeader{
		frameID: f.FrameID,
		tsSof:   f.TimestampSof,
		tsEof:   f.TimestampEof,
		valid:   f.Valid,
		length:  len(f.Data),
	})
	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
		// WriteTo consumes the buffers, so each client gets its own.
		bufs := net.Buffers{s.header[:], f.Data}
		if _, err := bufs.WriteTo(conn); err != nil {
			logf("dropping client: %v", err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
	return nil
}

// Close stops accepting, disconnects every client and removes the socket.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
	s.mu.Unlock()

	var err error
	if s.lis != nil {
		err = s.lis.Close()
		s.wg.Wait()
	}
	os.Remove(s.path)
	return err
}
