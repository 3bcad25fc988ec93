package visionipc

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/banshee-data/navmodel/internal/monitoring"
)

var logf = monitoring.Prefixed("visionipc")

// PollTimeout bounds how long Recv waits for data.
const PollTimeout = 100 * time.Millisecond

// Source delivers frames from a stream.
type Source interface {
	// Connect attempts to reach the server. A blocking connect retries until it
	// succeeds.
	Connect(blocking bool) bool
	IsConnected() bool
	// BufferLen is the frame buffer size announced by the server.
	BufferLen() int
	// Recv returns the next frame, or nil if none arrived within the poll
	// timeout. The frame is only valid until the next Recv.
	Recv() (*Frame, error)
}

// Client receives one stream. It is not safe for concurrent use.
type Client struct {
	path   string
	stream Stream

	conn net.Conn
	info BufferInfo
	buf  []byte

	// Reads resume across poll timeouts.
	header     [frameHeaderSize]byte
	headerN    int
	inPayload  bool
	payloadLen int
	payloadN   int

	frame Frame
}

var _ Source = (*Client)(nil)

// NewClient creates a client for stream on server name under dir.
func NewClient(dir, name string, stream Stream) *Client {
	return &Client{path: SocketPath(dir, name, stream), stream: stream}
}

// Connect dials the server and reads its hello.
func (c *Client) Connect(blocking bool) bool {
	for {
		err := c.connect()
		if err == nil {
			return true
		}
		if !blocking {
			return false
		}
		time.Sleep(PollTimeout)
	}
}

func (c *Client) connect() error {
	c.Close()
	conn, err := net.Dial("unix", c.path)
	if err != nil {
		return err
	}

	hello := make([]byte, helloSize)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := io.ReadFull(conn, hello); err != nil {
		conn.Close()
		return fmt.Errorf("failed to read hello: %w", err)
	}
	stream, info, err := decodeHello(hello)
	if err != nil {
		conn.Close()
		return err
	}
	if stream != c.stream {
		conn.Close()
		return fmt.Errorf("%w: server sent stream %d, want %d", ErrProtocol, stream, c.stream)
	}

	if len(c.buf) != info.Len {
		c.buf = make([]byte, info.Len)
	}
	c.conn = conn
	c.info = info
	c.headerN, c.inPayload, c.payloadN = 0, false, 0
	c.frame = Frame{Width: info.Width, Height: info.Height, Stride: info.Stride, UVOffset: info.UVOffset}
	return nil
}

// IsConnected reports whether a server connection is open.
func (c *Client) IsConnected() bool {
	return c.conn != nil
}

// BufferLen returns the announced buffer size.
func (c *Client) BufferLen() int {
	return c.info.Len
}

// Info returns the announced buffer geometry.
func (c *Client) Info() BufferInfo {
	return c.info
}

// Recv reads the next frame. It returns (nil, nil) when nothing arrived within
// PollTimeout and ErrDisconnected when the connection is lost; the client must
// then Connect again.
func (c *Client) Recv() (*Frame, error) {
	if c.conn == nil {
		return nil, ErrDisconnected
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(PollTimeout)); err != nil {
		return nil, c.fail(err)
	}

	if !c.inPayload {
		if err := c.fill(c.header[:], &c.headerN); err != nil {
			return nil, c.readErr(err)
		}
		h := parseFrameHeader(c.header[:])
		if h.length > len(c.buf) {
			return nil, c.fail(fmt.Errorf("%w: frame of %d bytes exceeds buffer of %d", ErrProtocol, h.length, len(c.buf)))
		}
		c.frame.FrameID = h.frameID
		c.frame.TimestampSof = h.tsSof
		c.frame.TimestampEof = h.tsEof
		c.frame.Valid = h.valid
		c.payloadLen = h.length
		c.payloadN = 0
		c.inPayload = true
	}

	if err := c.fill(c.buf[:c.payloadLen], &c.payloadN); err != nil {
		return nil, c.readErr(err)
	}
	c.inPayload = false
	c.headerN = 0
	c.frame.Data = c.buf[:c.payloadLen]
	return &c.frame, nil
}

func (c *Client) fill(dst []byte, n *int) error {
	for *n < len(dst) {
		m, err := c.conn.Read(dst[*n:])
		*n += m
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) readErr(err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return nil
	}
	return c.fail(err)
}

func (c *Client) fail(err error) error {
	logf("connection lost: %v", err)
	c.Close()
	return fmt.Errorf("%w: %v", ErrDisconnected, err)
}

// Close drops the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
