package transport

import (
	"context"
	"net"

	"github.com/pion/logging"
)

// TCPConfig configures TCP listeners and dialers.
type TCPConfig struct {
	// MaxFrameSize limits each framed message.
	// Default: DefaultMaxFrameSize
	MaxFrameSize int

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// TCPListener accepts TCP connections and frames them for message transport.
type TCPListener struct {
	listener net.Listener
	config   TCPConfig
	log      logging.LeveledLogger
}

// ListenTCP listens on addr (e.g. "127.0.0.1:0").
func ListenTCP(ctx context.Context, addr string, config TCPConfig) (*TCPListener, error) {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewTCPListener(listener, config), nil
}

// NewTCPListener wraps a pre-existing listener.
func NewTCPListener(listener net.Listener, config TCPConfig) *TCPListener {
	l := &TCPListener{listener: listener, config: config}
	if config.LoggerFactory != nil {
		l.log = config.LoggerFactory.NewLogger("transport")
	}
	return l
}

// Accept waits for the next connection.
func (l *TCPListener) Accept() (*FramedConn, error) {
	conn, err := l.listener.Accept()
	if err != nil {
		return nil, err
	}
	if l.log != nil {
		l.log.Debugf("accepted TCP connection from %s", conn.RemoteAddr())
	}
	return NewFramedConn(conn, l.config.MaxFrameSize), nil
}

// Addr returns the address the listener is bound to.
func (l *TCPListener) Addr() net.Addr {
	return l.listener.Addr()
}

// Close stops listening. Accepted connections stay open.
func (l *TCPListener) Close() error {
	return l.listener.Close()
}

// DialTCP connects to addr and frames the connection.
func DialTCP(ctx context.Context, addr string, config TCPConfig) (*FramedConn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if config.LoggerFactory != nil {
		config.LoggerFactory.NewLogger("transport").Debugf("connected to %s", conn.RemoteAddr())
	}
	return NewFramedConn(conn, config.MaxFrameSize), nil
}
