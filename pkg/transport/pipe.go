// Package transport provides an in-memory, message-oriented transport for
// exercising secure sessions without real NFC or BLE hardware.
//
// Each Write on one end of a Pipe is delivered as exactly one Read on the
// other end, which matches how APDU and GATT transports hand complete
// SessionData messages to the session layer.
package transport

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// NetworkCondition configures delivery faults applied on write.
// Use this to check that the session layer rejects what the transport mangles.
type NetworkCondition struct {
	// DropRate is the probability of dropping a message (0.0 - 1.0).
	DropRate float64

	// DuplicateRate is the probability of delivering a message twice (0.0 - 1.0).
	DuplicateRate float64
}

// PipeConfig configures a Pipe.
type PipeConfig struct {
	// AutoProcess enables automatic message delivery in a background goroutine.
	// Default: true
	AutoProcess bool

	// ProcessInterval is how often the auto-processor checks for messages.
	// Default: 1ms
	ProcessInterval time.Duration
}

// DefaultPipeConfig returns the default pipe configuration.
func DefaultPipeConfig() PipeConfig {
	return PipeConfig{
		AutoProcess:     true,
		ProcessInterval: 1 * time.Millisecond,
	}
}

// Pipe provides bidirectional in-memory message delivery between two endpoints.
// It wraps pion's test.Bridge and adds fault simulation.
//
// By default, Pipe automatically delivers messages in a background goroutine.
// Use SetAutoProcess(false) or NewPipeWithConfig for manual control.
type Pipe struct {
	bridge *test.Bridge
	conn0  *PipeConn
	conn1  *PipeConn

	mu              sync.RWMutex
	condition       NetworkCondition
	closed          bool
	rng             *rand.Rand
	autoProcess     bool
	processInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// NewPipe creates a new bidirectional pipe with auto-processing enabled.
func NewPipe() *Pipe {
	return NewPipeWithConfig(DefaultPipeConfig())
}

// NewPipeWithConfig creates a new pipe with the given configuration.
func NewPipeWithConfig(config PipeConfig) *Pipe {
	p := &Pipe{
		bridge:          test.NewBridge(),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		autoProcess:     config.AutoProcess,
		processInterval: config.ProcessInterval,
		stopCh:          make(chan struct{}),
	}
	p.conn0 = &PipeConn{Conn: p.bridge.GetConn0(), id: 0, pipe: p}
	p.conn1 = &PipeConn{Conn: p.bridge.GetConn1(), id: 1, pipe: p}

	if config.ProcessInterval == 0 {
		p.processInterval = 1 * time.Millisecond
	}

	if p.autoProcess {
		p.startAutoProcess()
	}

	return p
}

// startAutoProcess starts the background message delivery goroutine.
func (p *Pipe) startAutoProcess() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.processInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.bridge.Tick()
			}
		}
	}()
}

// SetAutoProcess enables or disables automatic message delivery.
// When disabled, you must call Tick() or Process() manually.
func (p *Pipe) SetAutoProcess(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.autoProcess == enabled {
		return
	}

	p.autoProcess = enabled

	if enabled {
		p.stopCh = make(chan struct{})
		p.startAutoProcess()
	} else {
		close(p.stopCh)
		p.wg.Wait()
	}
}

// AutoProcess returns whether auto-processing is enabled.
func (p *Pipe) AutoProcess() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.autoProcess
}

// SetCondition configures fault simulation for both directions.
func (p *Pipe) SetCondition(cond NetworkCondition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.condition = cond
}

// Condition returns the current fault configuration.
func (p *Pipe) Condition() NetworkCondition {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.condition
}

// Conn0 returns the connection for endpoint 0.
func (p *Pipe) Conn0() *PipeConn {
	return p.conn0
}

// Conn1 returns the connection for endpoint 1.
func (p *Pipe) Conn1() *PipeConn {
	return p.conn1
}

// Tick delivers one message in each direction (if available).
// Returns the number of messages delivered (0, 1, or 2).
func (p *Pipe) Tick() int {
	return p.bridge.Tick()
}

// Process delivers all queued messages.
// Returns the number of messages delivered.
func (p *Pipe) Process() int {
	count := 0
	for {
		n := p.Tick()
		if n == 0 {
			break
		}
		count += n
	}
	return count
}

// Close closes both endpoints of the pipe and stops auto-processing.
func (p *Pipe) Close() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true

	if p.autoProcess {
		close(p.stopCh)
	}
	p.mu.Unlock()

	// Wait for goroutine outside lock
	p.wg.Wait()

	err0 := p.conn0.Conn.Close()
	err1 := p.conn1.Conn.Close()
	if err0 != nil {
		return err0
	}
	return err1
}

// faults samples the configured condition for one write.
func (p *Pipe) faults() (drop, duplicate bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cond := p.condition
	if cond.DropRate > 0 && p.rng.Float64() < cond.DropRate {
		return true, false
	}
	if cond.DuplicateRate > 0 && p.rng.Float64() < cond.DuplicateRate {
		return false, true
	}
	return false, false
}

// PipeAddr implements net.Addr for pipe endpoints.
type PipeAddr struct {
	ID int // Endpoint ID (0 or 1)
}

// Network returns "pipe".
func (a PipeAddr) Network() string { return "pipe" }

// String returns a string representation of the address.
func (a PipeAddr) String() string { return fmt.Sprintf("pipe:%d", a.ID) }

// PipeConn is one end of a Pipe. It preserves message boundaries.
type PipeConn struct {
	net.Conn
	id   int
	pipe *Pipe
}

// Write queues b as one message, subject to the pipe's NetworkCondition.
// A dropped message still reports success, as a lossy link would.
func (c *PipeConn) Write(b []byte) (int, error) {
	drop, duplicate := c.pipe.faults()
	if drop {
		return len(b), nil
	}

	// The bridge queues the slice itself; give each delivery its own copy.
	if duplicate {
		if _, err := c.Conn.Write(append([]byte(nil), b...)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(append([]byte(nil), b...))
}

// LocalAddr returns the local address.
func (c *PipeConn) LocalAddr() net.Addr {
	return PipeAddr{ID: c.id}
}

// RemoteAddr returns the peer's address.
func (c *PipeConn) RemoteAddr() net.Addr {
	return PipeAddr{ID: 1 - c.id}
}

// Verify PipeConn implements net.Conn.
var _ net.Conn = (*PipeConn)(nil)
