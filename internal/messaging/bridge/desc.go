// Package bridge carries hub topics between processes. A Server streams the
// events of a local messaging.Hub to remote subscribers over gRPC on a unix
// socket; Forward and Watch consume such a stream on the other side.
//
// The service is generated from pb/navbus.proto: the request is a
// wrapperspb.StringValue naming the topic and every response is a
// wrapperspb.BytesValue holding one messaging.Marshal encoded event.
package bridge

import "path/filepath"

// SocketPath returns the socket a topic is served on under busDir.
func SocketPath(busDir, topic string) string {
	return filepath.Join(busDir, topic+".sock")
}

// Target converts a socket path into a gRPC dial target.
func Target(socketPath string) string {
	abs, err := filepath.Abs(socketPath)
	if err != nil {
		abs = socketPath
	}
	return "unix://" + abs
}
