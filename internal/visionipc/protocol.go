// Package visionipc transports image frames between processes over a unix
// stream socket. A Server owns the frame buffers and broadcasts each frame to
// every connected Client.
//
// On connect the server sends a hello describing the buffer geometry:
//
//	magic "VIPC" | version u16 | stream u16 | bufferLen u32 | width u32 |
//	height u32 | stride u32 | uvOffset u32
//
// followed by frames, each a header and bufferLen or fewer payload bytes:
//
//	frameID u32 | timestampSof u64 | timestampEof u64 | valid u8 | len u32
//
// All integers are little-endian.
package visionipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
)

const (
	magic           = "VIPC"
	protocolVersion = 1

	helloSize       = 28
	frameHeaderSize = 25
)

// DefaultDir holds the stream sockets.
const DefaultDir = "/tmp"

// Stream identifies one image stream of a server.
type Stream uint16

const (
	StreamRoad Stream = iota
	StreamDriver
	StreamWideRoad
	StreamMap
)

var (
	// ErrDisconnected is returned by Recv when the server went away.
	ErrDisconnected = errors.New("vision stream disconnected")
	// ErrProtocol is returned for a malformed hello or header.
	ErrProtocol = errors.New("vision stream protocol error")
)

// SocketPath returns the socket of stream on server name under dir.
func SocketPath(dir, name string, stream Stream) string {
	return filepath.Join(dir, "visionipc_"+name+"_"+strconv.Itoa(int(stream)))
}

// BufferInfo describes the frame buffers of a stream.
type BufferInfo struct {
	Len      int
	Width    int
	Height   int
	Stride   int
	UVOffset int
}

// Frame is one received image with its metadata.
type Frame struct {
	FrameID      uint32
	TimestampSof uint64
	TimestampEof uint64
	Valid        bool

	Width    int
	Height   int
	Stride   int
	UVOffset int

	Data []byte
}

// Luma returns the luminance plane: the bytes before UVOffset.
func (f *Frame) Luma() []byte {
	if f.UVOffset <= 0 || f.UVOffset > len(f.Data) {
		return f.Data
	}
	return f.Data[:f.UVOffset]
}

func encodeHello(stream Stream, info BufferInfo) []byte {
	b := make([]byte, 0, helloSize)
	b = append(b, magic...)
	b = binary.LittleEndian.AppendUint16(b, protocolVersion)
	b = binary.LittleEndian.AppendUint16(b, uint16(stream))
	b = binary.LittleEndian.AppendUint32(b, uint32(info.Len))
	b = binary.LittleEndian.AppendUint32(b, uint32(info.Width))
	b = binary.LittleEndian.AppendUint32(b, uint32(info.Height))
	b = binary.LittleEndian.AppendUint32(b, uint32(info.Stride))
	b = binary.LittleEndian.AppendUint32(b, uint32(info.UVOffset))
	return b
}

func decodeHello(b []byte) (Stream, BufferInfo, error) {
	if len(b) != helloSize {
		return 0, BufferInfo{}, fmt.Errorf("%w: hello is %d bytes", ErrProtocol, len(b))
	}
	if string(b[:4]) != magic {
		return 0, BufferInfo{}, fmt.Errorf("%w: bad magic %q", ErrProtocol, b[:4])
	}
	if v := binary.LittleEndian.Uint16(b[4:]); v != protocolVersion {
		return 0, BufferInfo{}, fmt.Errorf("%w: unsupported version %d", ErrProtocol, v)
	}
	stream := Stream(binary.LittleEndian.Uint16(b[6:]))
	info := BufferInfo{
		Len:      int(binary.LittleEndian.Uint32(b[8:])),
		Width:    int(binary.LittleEndian.Uint32(b[12:])),
		Height:   int(binary.LittleEndian.Uint32(b[16:])),
		Stride:   int(binary.LittleEndian.Uint32(b[20:])),
		UVOffset: int(binary.LittleEndian.Uint32(b[24:])),
	}
	if info.UVOffset > info.Len {
		return 0, BufferInfo{}, fmt.Errorf("%w: uv offset %d beyond buffer of %d", ErrProtocol, info.UVOffset, info.Len)
	}
	return stream, info, nil
}

type frameHeader struct {
	frameID uint32
	tsSof   uint64
	tsEof   uint64
	valid   bool
	length  int
}

func putFrameHeader(b []byte, h frameHeader) {
	binary.LittleEndian.PutUint32(b[0:], h.frameID)
	binary.LittleEndian.PutUint64(b[4:], h.tsSof)
	binary.LittleEndian.PutUint64(b[12:], h.tsEof)
	b[20] = 0
	if h.valid {
		b[20] = 1
	}
	binary.LittleEndian.PutUint32(b[21:], uint32(h.length))
}

func parseFrameHeader(b []byte) frameHeader {
	return frameHeader{
		frameID: binary.LittleEndian.Uint32(b[0:]),
		tsSof:   binary.LittleEndian.Uint64(b[4:]),
		tsEof:   binary.LittleEndian.Uint64(b[12:]),
		valid:   b[20] != 0,
		length:  int(binary.LittleEndian.Uint32(b[21:])),
	}
}
