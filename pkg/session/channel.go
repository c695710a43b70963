package session

import (
	"math"

	"github.com/backkem/mdocsession/pkg/crypto"
)

// initialCounter is the first counter value used in each direction.
const initialCounter uint32 = 1

// Channel is one direction of a secure session: a key, the IV mode of the
// sender and the next counter value.
//
// The channel never advances on its own. Callers seal or open with the
// current IV and call advance only once the whole operation has succeeded.
type Channel struct {
	mode      crypto.IVMode
	key       []byte
	aead      *crypto.AESGCM
	counter   uint32
	exhausted bool
}

// newChannel takes ownership of key.
func newChannel(mode crypto.IVMode, key []byte) (*Channel, error) {
	aead, err := crypto.NewAESGCM(key)
	if err != nil {
		return nil, err
	}
	return &Channel{
		mode:    mode,
		key:     key,
		aead:    aead,
		counter: initialCounter,
	}, nil
}

// Mode returns the IV mode of the channel.
func (c *Channel) Mode() crypto.IVMode {
	return c.mode
}

// Counter returns the counter value the next operation will use.
func (c *Channel) Counter() uint32 {
	return c.counter
}

// Exhausted reports whether the counter has been used up.
func (c *Channel) Exhausted() bool {
	return c.exhausted
}

// IV returns the IV the next operation will use.
func (c *Channel) IV() []byte {
	return crypto.BuildSessionIV(c.mode, c.counter)
}

func (c *Channel) seal(plaintext []byte) ([]byte, error) {
	if c.exhausted {
		return nil, ErrSessionExhausted
	}
	return c.aead.Seal(c.IV(), plaintext, nil)
}

func (c *Channel) open(ciphertext []byte) ([]byte, error) {
	if c.exhausted {
		return nil, ErrSessionExhausted
	}
	return c.aead.Open(c.IV(), ciphertext, nil)
}

// advance moves to the next counter. The last usable value is MaxUint32;
// after it the channel is exhausted.
func (c *Channel) advance() {
	if c.counter == math.MaxUint32 {
		c.exhausted = true
		return
	}
	c.counter++
}

// zeroize clears the key bytes and drops the AEAD. The key schedule held by
// the AEAD is not overwritten.
func (c *Channel) zeroize() {
	crypto.Zeroize(c.key)
	c.aead = nil
}
