package kcp

import (
	"context"
	"fmt"
	"net"

	kcp "github.com/xtaci/kcp-go/v5"

	"sockchan/pkg/transport"
)

// Dialer implements transport.Dialer for KCP over UDP.
type Dialer struct {
	remoteAddr *net.UDPAddr
}

// NewDialer creates a KCP dialer for the specified host:port address.
func NewDialer(addr string) (*Dialer, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("net.ResolveUDPAddr(udp, %s): %w", addr, err)
	}
	return &Dialer{remoteAddr: udpAddr}, nil
}

// Dial establishes a KCP session over UDP to the configured address.
func (d *Dialer) Dial(ctx context.Context) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Use ":0" for the local address to let the OS choose an ephemeral port
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, fmt.Errorf("net.ListenPacket(udp, :0): %w", err)
	}

	// Parameters: remoteAddr, block cipher (nil for no encryption),
	// dataShards (0), parityShards (0), conn
	sess, err := kcp.NewConn(d.remoteAddr.String(), nil, 0, 0, conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("kcp.NewConn(%s): %w", d.remoteAddr.String(), err)
	}

	return newConn(sess), nil
}
