package session

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/backkem/mdocsession/pkg/crypto"
	"github.com/backkem/mdocsession/pkg/envelope"
	"github.com/pion/logging"
)

// DefaultMaxMessageSize is the default limit on a single plaintext message.
const DefaultMaxMessageSize = 64 * 1024

// envelopeOverhead bounds the CBOR bytes around the ciphertext: the map
// header, the "data" key and the byte string header.
const envelopeOverhead = 16

// aLongTimeAgo is a non-zero time in the past, used to unblock pending I/O.
var aLongTimeAgo = time.Unix(1, 0)

// SecureConnConfig configures a SecureConn.
type SecureConnConfig struct {
	// Session is the established session. The SecureConn takes ownership of it.
	Session *SecureSession

	// Conn is a message-oriented connection: each Write is delivered as one
	// Read on the peer. Pipes and datagram sockets satisfy this.
	Conn net.Conn

	// MaxMessageSize limits plaintext length in both directions.
	// Default: DefaultMaxMessageSize
	MaxMessageSize int

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// SecureConn sends and receives session-protected messages over a
// message-oriented connection.
//
// Send and Receive may be used from different goroutines. Concurrent calls
// in the same direction are serialised so counters are used in order.
// There is no fragmentation or transport framing.
//
// A failed Write after Seal has consumed an outbound counter. The peer will
// then fail to authenticate every later message, so the session must be
// re-established.
type SecureConn struct {
	session        *SecureSession
	conn           net.Conn
	maxMessageSize int

	sendMu sync.Mutex
	recvMu sync.Mutex

	closeOnce sync.Once
	closeErr  error

	log logging.LeveledLogger
}

// NewSecureConn binds a session to a connection.
func NewSecureConn(config SecureConnConfig) (*SecureConn, error) {
	if config.Session == nil || config.Conn == nil {
		return nil, ErrNilConn
	}
	if config.Session.Closed() {
		return nil, ErrSessionClosed
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}

	c := &SecureConn{
		session:        config.Session,
		conn:           config.Conn,
		maxMessageSize: config.MaxMessageSize,
	}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger(loggerScope)
	}
	return c, nil
}

// Session returns the underlying session.
func (c *SecureConn) Session() *SecureSession {
	return c.session
}

// LocalAddr returns the local network address.
func (c *SecureConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *SecureConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send seals p and writes it as one message.
func (c *SecureConn) Send(ctx context.Context, p []byte) error {
	if len(p) > c.maxMessageSize {
		return ErrMessageTooLarge
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	wire, err := c.session.Seal(p)
	if err != nil {
		return err
	}

	stop := watchDeadline(ctx, c.conn.SetWriteDeadline)
	_, err = c.conn.Write(wire)
	stop()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if c.log != nil {
			c.log.Debugf("%s: write failed: %v", c.conn.RemoteAddr(), err)
		}
		return err
	}
	return nil
}

// Receive reads one message and opens it.
//
// Session errors (ErrAuthentication, ErrMalformedCiphertext, ...) are
// returned as is; the caller decides whether to keep reading or close.
func (c *SecureConn) Receive(ctx context.Context) ([]byte, error) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]byte, c.maxMessageSize+crypto.AESGCMTagSize+envelopeOverhead)

	stop := watchDeadline(ctx, c.conn.SetReadDeadline)
	n, err := c.conn.Read(buf)
	stop()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	plaintext, err := c.session.Open(buf[:n])
	if err != nil {
		if c.log != nil {
			c.log.Debugf("%s: dropped inbound message: len=%d err=%v", c.conn.RemoteAddr(), n, err)
		}
		return nil, err
	}
	return plaintext, nil
}

// Terminate sends a { "status": 20 } message to the peer and closes the
// session and the connection. A Receive blocked in another goroutine is
// unblocked and returns an error.
//
// The session is only closed by Close, which holds both direction locks, so
// keys are never cleared under a concurrent Open.
func (c *SecureConn) Terminate(ctx context.Context) error {
	c.sendMu.Lock()
	var err error
	if c.session.Closed() {
		err = ErrSessionClosed
	} else {
		var msg []byte
		msg, err = envelope.EncodeStatus(envelope.StatusSessionTermination)
		if err == nil {
			stop := watchDeadline(ctx, c.conn.SetWriteDeadline)
			_, err = c.conn.Write(msg)
			stop()
		}
	}
	c.sendMu.Unlock()

	if closeErr := c.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Close closes the connection and then the session. Pending Send and
// Receive calls are unblocked first.
func (c *SecureConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()

		c.sendMu.Lock()
		c.recvMu.Lock()
		c.session.Close()
		c.recvMu.Unlock()
		c.sendMu.Unlock()
	})
	return c.closeErr
}

// watchDeadline applies ctx's deadline to a connection and interrupts the
// pending operation when ctx is cancelled. The returned func must be called
// when the operation ends; it clears the deadline.
func watchDeadline(ctx context.Context, setDeadline func(time.Time) error) func() {
	if deadline, ok := ctx.Deadline(); ok {
		_ = setDeadline(deadline)
	}
	if ctx.Done() == nil {
		return func() {}
	}

	stopAfter := context.AfterFunc(ctx, func() {
		_ = setDeadline(aLongTimeAgo)
	})
	return func() {
		stopAfter()
		_ = setDeadline(time.Time{})
	}
}
