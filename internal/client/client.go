// Package client sends single commands to a motord server.
package client

import (
	"context"
	"fmt"
	"io"
	"net"
)

// maxReply bounds how much of a reply is read.
const maxReply = 1024

// Send dials addr, writes command, and returns the server's reply. The server
// closes the connection after replying; an empty command gets an empty reply.
// A deadline on ctx bounds the whole exchange.
func Send(ctx context.Context, addr, command string) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return "", fmt.Errorf("set deadline: %w", err)
		}
	}

	if command != "" {
		if _, err := io.WriteString(conn, command); err != nil {
			return "", fmt.Errorf("send: %w", err)
		}
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			return "", fmt.Errorf("close write: %w", err)
		}
	}

	reply, err := io.ReadAll(io.LimitReader(conn, maxReply))
	if err != nil {
		return string(reply), fmt.Errorf("receive: %w", err)
	}
	return string(reply), nil
}

// Sender is Send bound to one server address.
type Sender struct {
	Addr string
}

func (s Sender) Send(ctx context.Context, command string) (string, error) {
	return Send(ctx, s.Addr, command)
}
