package visionipc

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navmodel/internal/testutil"
)

var testInfo = BufferInfo{Len: 96, Width: 8, Height: 8, Stride: 8, UVOffset: 64}

func testDir(t *testing.T) string {
	return testutil.SocketDir(t, "vipc")
}

func startServer(t *testing.T, dir string) *Server {
	t.Helper()
	srv := NewServer(dir, "navd", StreamMap, testInfo)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Close() })
	return srv
}

func connectClient(t *testing.T, dir string, srv *Server) *Client {
	t.Helper()
	c := NewClient(dir, "navd", StreamMap)
	require.True(t, c.Connect(false))
	t.Cleanup(func() { c.Close() })
	require.Eventually(t, func() bool { return srv.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)
	return c
}

func payload(seed byte) []byte {
	b := make([]byte, testInfo.Len)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

func recvFrame(t *testing.T, c *Client) *Frame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f, err := c.Recv()
		require.NoError(t, err)
		if f != nil {
			return f
		}
	}
	t.Fatal("no frame received")
	return nil
}

func TestSocketPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/tmp", "visionipc_navd_3"), SocketPath("/tmp", "navd", StreamMap))
}

func TestHello_RoundTrip(t *testing.T) {
	stream, info, err := decodeHello(encodeHello(StreamMap, testInfo))
	require.NoError(t, err)
	assert.Equal(t, StreamMap, stream)
	assert.Equal(t, testInfo, info)
}

func TestHello_Invalid(t *testing.T) {
	good := encodeHello(StreamMap, testInfo)

	bad := append([]byte(nil), good...)
	copy(bad, "XXXX")
	_, _, err := decodeHello(bad)
	assert.ErrorIs(t, err, ErrProtocol)

	_, _, err = decodeHello(good[:10])
	assert.ErrorIs(t, err, ErrProtocol)

	_, _, err = decodeHello(encodeHello(StreamMap, BufferInfo{Len: 10, UVOffset: 20}))
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestConnect_NoServer(t *testing.T) {
	c := NewClient(testDir(t), "navd", StreamMap)
	assert.False(t, c.Connect(false))
	assert.False(t, c.IsConnected())

	_, err := c.Recv()
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestRecv_Frame(t *testing.T) {
	dir := testDir(t)
	srv := startServer(t, dir)
	c := connectClient(t, dir, srv)

	assert.True(t, c.IsConnected())
	assert.Equal(t, testInfo.Len, c.BufferLen())
	assert.Equal(t, testInfo, c.Info())

	data := payload(3)
	require.NoError(t, srv.Send(&Frame{FrameID: 17, TimestampSof: 1000, TimestampEof: 2000, Valid: true, Data: data}))

	f := recvFrame(t, c)
	assert.Equal(t, uint32(17), f.FrameID)
	assert.Equal(t, uint64(1000), f.TimestampSof)
	assert.Equal(t, uint64(2000), f.TimestampEof)
	assert.True(t, f.Valid)
	assert.Equal(t, data, f.Data)
	assert.Equal(t, data[:testInfo.UVOffset], f.Luma())
	assert.Equal(t, testInfo.Width, f.Width)
}

func TestRecv_NoFrameReturnsNil(t *testing.T) {
	dir := testDir(t)
	srv := startServer(t, dir)
	c := connectClient(t, dir, srv)

	start := time.Now()
	f, err := c.Recv()
	assert.NoError(t, err)
	assert.Nil(t, f)
	assert.GreaterOrEqual(t, time.Since(start), PollTimeout/2)
}

func TestRecv_PreservesOrder(t *testing.T) {
	dir := testDir(t)
	srv := startServer(t, dir)
	c := connectClient(t, dir, srv)

	for i := uint32(1); i <= 5; i++ {
		require.NoError(t, srv.Send(&Frame{FrameID: i, Valid: i%2 == 0, Data: payload(byte(i))}))
	}
	for i := uint32(1); i <= 5; i++ {
		f := recvFrame(t, c)
		assert.Equal(t, i, f.FrameID)
		assert.Equal(t, i%2 == 0, f.Valid)
		assert.Equal(t, byte(i), f.Data[0])
	}
}

func TestRecv_ServerGone(t *testing.T) {
	dir := testDir(t)
	srv := startServer(t, dir)
	c := connectClient(t, dir, srv)

	require.NoError(t, srv.Close())

	var err error
	require.Eventually(t, func() bool {
		_, err = c.Recv()
		return err != nil
	}, 2*time.Second, time.Millisecond)
	assert.True(t, errors.Is(err, ErrDisconnected))
	assert.False(t, c.IsConnected())
}

func TestServer_RejectsOversizedFrame(t *testing.T) {
	srv := startServer(t, testDir(t))
	assert.Error(t, srv.Send(&Frame{Data: make([]byte, testInfo.Len+1)}))
}

func TestFrame_LumaWithoutOffset(t *testing.T) {
	f := &Frame{Data: []byte{1, 2, 3}}
	assert.Equal(t, []byte{1, 2, 3}, f.Luma())
}
