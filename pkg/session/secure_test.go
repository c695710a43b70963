package session

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/backkem/mdocsession/pkg/crypto"
	"github.com/backkem/mdocsession/pkg/envelope"
	"github.com/pion/logging"
)

// Expected wire bytes for the key derivation vector (L=16).
const (
	// Reader, counter 1, "hello".
	testReaderHelloCTHex = "18fd39d9a29b73f948558dd5142769762426fc025e"
	// Reader, counter 1, empty plaintext (tag only).
	testReaderEmptyCTHex = "ef56925892d5d05c3b5253f238453f33"
	// Reader, counter 2, "world".
	testReaderWorld2CTHex = "bbc4ddb5421421ffd162fa65a8daeb14d39b86a409"
	// Endpoint, counter 1, "hello".
	testEndpointHelloCTHex = "485757b50a43b06e4ddfe73c01ca7f7625d6ec0fc6"

	// CBOR prefix for { "data": bstr(len) }: map(1), text(4) "data".
	testDataKeyPrefixHex = "a16464617461"
)

func newTestSession(t *testing.T, role Role) *SecureSession {
	t.Helper()
	s, err := New(mustHex(t, testSharedSecretHex), mustHex(t, testSaltHex), Config{KeyLength: DefaultKeyLength, Role: role})
	if err != nil {
		t.Fatalf("New(%s) error = %v", role, err)
	}
	return s
}

func newTestPair(t *testing.T) (reader, endpoint *SecureSession) {
	t.Helper()
	return newTestSession(t, RoleReader), newTestSession(t, RoleEndpoint)
}

func TestNew_Validation(t *testing.T) {
	secret := mustHex(t, testSharedSecretHex)
	salt := mustHex(t, testSaltHex)

	tests := []struct {
		name    string
		secret  []byte
		salt    []byte
		config  Config
		wantErr error
	}{
		{"default config", secret, salt, DefaultConfig(), nil},
		{"AES-256 endpoint", secret, salt, Config{KeyLength: 32, Role: RoleEndpoint}, nil},
		{"invalid role", secret, salt, Config{KeyLength: 16, Role: Role(42)}, ErrInvalidRole},
		{"invalid key length", secret, salt, Config{KeyLength: 15}, ErrKeyDerivation},
		{"zero key length", secret, salt, Config{}, ErrKeyDerivation},
		{"zero key length endpoint", secret, salt, Config{Role: RoleEndpoint}, ErrKeyDerivation},
		{"empty secret", nil, salt, DefaultConfig(), ErrKeyDerivation},
		{"empty salt", secret, nil, DefaultConfig(), ErrKeyDerivation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.secret, tt.salt, tt.config)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil && s != nil {
				t.Error("New() returned a session on error")
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(mustHex(t, testSharedSecretHex), mustHex(t, testSaltHex), Config{KeyLength: DefaultKeyLength})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if s.Role() != RoleReader {
		t.Errorf("Role() = %s, want Reader", s.Role())
	}
	if s.KeyLength() != DefaultKeyLength {
		t.Errorf("KeyLength() = %d, want %d", s.KeyLength(), DefaultKeyLength)
	}
	if s.OutboundCounter() != 1 || s.InboundCounter() != 1 {
		t.Errorf("counters = %d/%d, want 1/1", s.OutboundCounter(), s.InboundCounter())
	}
	if s.Closed() {
		t.Error("new session reports closed")
	}
}

func TestSecureSession_ChannelKeys(t *testing.T) {
	reader, endpoint := newTestPair(t)
	readerKey := mustHex(t, testSKReaderHex)
	deviceKey := mustHex(t, testSKDeviceHex)

	if !bytes.Equal(reader.outbound.key, readerKey) || !bytes.Equal(reader.inbound.key, deviceKey) {
		t.Error("reader session: outbound must use SKReader and inbound SKDevice")
	}
	if !bytes.Equal(endpoint.outbound.key, deviceKey) || !bytes.Equal(endpoint.inbound.key, readerKey) {
		t.Error("endpoint session: outbound must use SKDevice and inbound SKReader")
	}
}

func TestSecureSession_IVLayout(t *testing.T) {
	reader, endpoint := newTestPair(t)

	tests := []struct {
		name string
		got  []byte
		want string
	}{
		{"first reader IV", reader.OutboundIV(), "000000000000000000000001"},
		{"first endpoint IV", reader.InboundIV(), "000000000000000100000001"},
		{"endpoint outbound IV", endpoint.OutboundIV(), "000000000000000100000001"},
		{"endpoint inbound IV", endpoint.InboundIV(), "000000000000000000000001"},
	}
	for _, tt := range tests {
		if got := hex.EncodeToString(tt.got); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.name, got, tt.want)
		}
	}

	if _, err := reader.Seal([]byte("hello")); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if got := hex.EncodeToString(reader.OutboundIV()); got != "000000000000000000000002" {
		t.Errorf("reader IV after one seal = %s, want 000000000000000000000002", got)
	}
	if got := hex.EncodeToString(reader.InboundIV()); got != "000000000000000100000001" {
		t.Errorf("inbound IV changed after seal: %s", got)
	}
}

func TestSecureSession_IVAccessorsReturnCopies(t *testing.T) {
	s := newTestSession(t, RoleReader)

	iv := s.OutboundIV()
	iv[11] = 0xFF
	if got := s.OutboundIV(); got[11] != 0x01 {
		t.Errorf("OutboundIV() aliased internal state: %x", got)
	}
}

func TestSecureSession_SealVectors(t *testing.T) {
	tests := []struct {
		name      string
		role      Role
		plaintext []string
		wantCT    []string
	}{
		{
			name:      "reader hello",
			role:      RoleReader,
			plaintext: []string{"hello"},
			wantCT:    []string{testReaderHelloCTHex},
		},
		{
			name:      "reader empty",
			role:      RoleReader,
			plaintext: []string{""},
			wantCT:    []string{testReaderEmptyCTHex},
		},
		{
			name:      "reader hello then world",
			role:      RoleReader,
			plaintext: []string{"hello", "world"},
			wantCT:    []string{testReaderHelloCTHex, testReaderWorld2CTHex},
		},
		{
			name:      "endpoint hello",
			role:      RoleEndpoint,
			plaintext: []string{"hello"},
			wantCT:    []string{testEndpointHelloCTHex},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, tt.role)
			for i, p := range tt.plaintext {
				wire, err := s.Seal([]byte(p))
				if err != nil {
					t.Fatalf("Seal(%q) error = %v", p, err)
				}

				ct := mustHex(t, tt.wantCT[i])
				want := testDataKeyPrefixHex + hex.EncodeToString([]byte{0x40 | byte(len(ct))}) + tt.wantCT[i]
				if got := hex.EncodeToString(wire); got != want {
					t.Errorf("Seal(%q) = %s, want %s", p, got, want)
				}
			}
		})
	}
}

func TestSecureSession_RoundTrip(t *testing.T) {
	plaintexts := [][]byte{
		{},
		[]byte("hello"),
		bytes.Repeat([]byte{0xAB}, 23),
		bytes.Repeat([]byte{0x01}, 24),
		bytes.Repeat([]byte{0x02}, 255),
		bytes.Repeat([]byte{0x03}, 256),
		bytes.Repeat([]byte{0x04}, 70000),
	}

	for _, keyLength := range []int{16, 24, 32} {
		secret := mustHex(t, testSharedSecretHex)
		salt := mustHex(t, testSaltHex)
		reader, err := New(secret, salt, Config{KeyLength: keyLength, Role: RoleReader})
		if err != nil {
			t.Fatalf("New(reader) error = %v", err)
		}
		endpoint, err := New(secret, salt, Config{KeyLength: keyLength, Role: RoleEndpoint})
		if err != nil {
			t.Fatalf("New(endpoint) error = %v", err)
		}

		for i, p := range plaintexts {
			// Reader to endpoint.
			wire, err := reader.Seal(p)
			if err != nil {
				t.Fatalf("L=%d: reader.Seal() error = %v", keyLength, err)
			}
			got, err := endpoint.Open(wire)
			if err != nil {
				t.Fatalf("L=%d: endpoint.Open() error = %v", keyLength, err)
			}
			if !bytes.Equal(got, p) {
				t.Errorf("L=%d: endpoint.Open() = %x, want %x", keyLength, got, p)
			}

			// Endpoint to reader.
			wire, err = endpoint.Seal(p)
			if err != nil {
				t.Fatalf("L=%d: endpoint.Seal() error = %v", keyLength, err)
			}
			got, err = reader.Open(wire)
			if err != nil {
				t.Fatalf("L=%d: reader.Open() error = %v", keyLength, err)
			}
			if !bytes.Equal(got, p) {
				t.Errorf("L=%d: reader.Open() = %x, want %x", keyLength, got, p)
			}

			n := uint32(i + 2)
			if reader.OutboundCounter() != n || endpoint.InboundCounter() != n ||
				endpoint.OutboundCounter() != n || reader.InboundCounter() != n {
				t.Errorf("L=%d: counters after %d exchanges = %d/%d/%d/%d, want %d",
					keyLength, i+1, reader.OutboundCounter(), endpoint.InboundCounter(),
					endpoint.OutboundCounter(), reader.InboundCounter(), n)
			}
		}
	}
}

func TestSecureSession_EmptyPayload(t *testing.T) {
	reader, endpoint := newTestPair(t)

	wire, err := reader.Seal(nil)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	sd, err := envelope.Decode(wire)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(sd.Data) != crypto.AESGCMTagSize {
		t.Errorf("data length = %d, want %d", len(sd.Data), crypto.AESGCMTagSize)
	}

	got, err := endpoint.Open(wire)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Open() = %#v, want empty non-nil slice", got)
	}
}

func TestSecureSession_EnvelopeLength(t *testing.T) {
	s := newTestSession(t, RoleReader)

	for _, n := range []int{0, 1, 5, 7, 8, 239, 240, 65519, 65520} {
		wire, err := s.Seal(make([]byte, n))
		if err != nil {
			t.Fatalf("Seal(%d bytes) error = %v", n, err)
		}
		sd, err := envelope.Decode(wire)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if len(sd.Data) != n+crypto.AESGCMTagSize {
			t.Errorf("plaintext %d: data length = %d, want %d", n, len(sd.Data), n+crypto.AESGCMTagSize)
		}
		if sd.Status != nil {
			t.Errorf("plaintext %d: Seal emitted a status", n)
		}
	}
}

func TestSecureSession_CounterMonotonic(t *testing.T) {
	reader, endpoint := newTestPair(t)

	const n = 50
	for i := 0; i < n; i++ {
		wire, err := reader.Seal([]byte{byte(i)})
		if err != nil {
			t.Fatalf("Seal #%d error = %v", i, err)
		}
		if _, err := endpoint.Open(wire); err != nil {
			t.Fatalf("Open #%d error = %v", i, err)
		}
	}

	if got := reader.OutboundCounter(); got != 1+n {
		t.Errorf("reader counter = %d, want %d", got, 1+n)
	}
	if got := endpoint.InboundCounter(); got != 1+n {
		t.Errorf("endpoint inbound counter = %d, want %d", got, 1+n)
	}
	if got := reader.InboundCounter(); got != 1 {
		t.Errorf("reader inbound counter = %d, want 1", got)
	}
}

func TestSecureSession_NoIVReuse(t *testing.T) {
	s := newTestSession(t, RoleReader)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		iv := hex.EncodeToString(s.OutboundIV())
		if seen[iv] {
			t.Fatalf("IV %s used twice", iv)
		}
		seen[iv] = true
		if _, err := s.Seal([]byte("x")); err != nil {
			t.Fatalf("Seal() error = %v", err)
		}
	}
}

func TestSecureSession_DirectionSeparation(t *testing.T) {
	reader := newTestSession(t, RoleReader)
	other := newTestSession(t, RoleReader)

	wire, err := reader.Seal([]byte("hello"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	// The same session's inbound channel uses SKDevice and the endpoint mode.
	if _, err := reader.Open(wire); !errors.Is(err, ErrAuthentication) {
		t.Errorf("reader.Open(own message) error = %v, want ErrAuthentication", err)
	}
	// Two readers cannot talk to each other.
	if _, err := other.Open(wire); !errors.Is(err, ErrAuthentication) {
		t.Errorf("other reader Open() error = %v, want ErrAuthentication", err)
	}
	if reader.InboundCounter() != 1 || other.InboundCounter() != 1 {
		t.Error("failed Open advanced the inbound counter")
	}
}

func TestSecureSession_ReplayRejected(t *testing.T) {
	reader, endpoint := newTestPair(t)

	m1, err := reader.Seal([]byte("first"))
	if err != nil {
		t.Fatalf("Seal(m1) error = %v", err)
	}
	m2, err := reader.Seal([]byte("second"))
	if err != nil {
		t.Fatalf("Seal(m2) error = %v", err)
	}

	if _, err := endpoint.Open(m1); err != nil {
		t.Fatalf("Open(m1) error = %v", err)
	}
	if _, err := endpoint.Open(m1); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("Open(m1 replay) error = %v, want ErrAuthentication", err)
	}
	if got := endpoint.InboundCounter(); got != 2 {
		t.Errorf("inbound counter after replay = %d, want 2", got)
	}

	// The session stays usable after a rejected message.
	got, err := endpoint.Open(m2)
	if err != nil {
		t.Fatalf("Open(m2) error = %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Open(m2) = %q, want %q", got, "second")
	}
	if got := endpoint.InboundCounter(); got != 3 {
		t.Errorf("inbound counter = %d, want 3", got)
	}
}

func TestSecureSession_ReorderRejected(t *testing.T) {
	reader, endpoint := newTestPair(t)

	m1, _ := reader.Seal([]byte("first"))
	m2, _ := reader.Seal([]byte("second"))

	if _, err := endpoint.Open(m2); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("Open(m2 first) error = %v, want ErrAuthentication", err)
	}
	if got := endpoint.InboundCounter(); got != 1 {
		t.Errorf("inbound counter = %d, want 1", got)
	}

	// In-order delivery still works.
	if _, err := endpoint.Open(m1); err != nil {
		t.Errorf("Open(m1) error = %v", err)
	}
	if _, err := endpoint.Open(m2); err != nil {
		t.Errorf("Open(m2) error = %v", err)
	}
}

func TestSecureSession_TamperRejected(t *testing.T) {
	reader := newTestSession(t, RoleReader)
	wire, err := reader.Seal([]byte("hello"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	// Last bit of the tag.
	t.Run("tag LSB", func(t *testing.T) {
		endpoint := newTestSession(t, RoleEndpoint)
		tampered := append([]byte(nil), wire...)
		tampered[len(tampered)-1] ^= 0x01

		got, err := endpoint.Open(tampered)
		if !errors.Is(err, ErrAuthentication) {
			t.Fatalf("Open() error = %v, want ErrAuthentication", err)
		}
		if got != nil {
			t.Error("Open() exposed plaintext on failure")
		}
		if endpoint.InboundCounter() != 1 {
			t.Errorf("inbound counter = %d, want 1", endpoint.InboundCounter())
		}
	})

	// Every bit of the wire message. Flips in the CBOR framing surface as
	// malformed input; flips in the ciphertext or tag fail authentication.
	t.Run("every bit", func(t *testing.T) {
		endpoint := newTestSession(t, RoleEndpoint)
		headerLen := len(wire) - len(mustHex(t, testReaderHelloCTHex))

		for i := range wire {
			for bit := 0; bit < 8; bit++ {
				tampered := append([]byte(nil), wire...)
				tampered[i] ^= 1 << bit

				got, err := endpoint.Open(tampered)
				if err == nil {
					t.Fatalf("byte %d bit %d: Open() succeeded", i, bit)
				}
				if got != nil {
					t.Fatalf("byte %d bit %d: Open() exposed plaintext", i, bit)
				}
				if i >= headerLen && !errors.Is(err, ErrAuthentication) {
					t.Errorf("byte %d bit %d: error = %v, want ErrAuthentication", i, bit, err)
				}
				if !errors.Is(err, ErrAuthentication) && !errors.Is(err, ErrMalformedCiphertext) {
					t.Errorf("byte %d bit %d: unexpected error kind %v", i, bit, err)
				}
			}
		}
		if endpoint.InboundCounter() != 1 {
			t.Errorf("inbound counter = %d, want 1", endpoint.InboundCounter())
		}

		// The untouched message still opens.
		if _, err := endpoint.Open(wire); err != nil {
			t.Errorf("Open(original) error = %v", err)
		}
	})
}

func TestSecureSession_Malformed(t *testing.T) {
	tests := []struct {
		name string
		wire string
	}{
		{"empty", ""},
		{"not CBOR", "ff"},
		{"array", "8140"},
		{"bare bstr", "45" + "0102030405"},
		{"empty map", "a0"},
		{"data is text", "a1" + "6464617461" + "6568656c6c6f"},
		{"data is uint", "a1" + "6464617461" + "05"},
		{"data shorter than tag", "a1" + "6464617461" + "4f" + strings.Repeat("00", 15)},
		{"empty data", "a1" + "6464617461" + "40"},
		{"truncated bstr", "a1" + "6464617461" + "55" + "18fd39"},
		{"trailing bytes", "a1" + "6464617461" + "50" + testReaderEmptyCTHex + "00"},
		{"duplicate data key", "a2" + "6464617461" + "50" + testReaderEmptyCTHex + "6464617461" + "50" + testReaderEmptyCTHex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint := newTestSession(t, RoleEndpoint)
			got, err := endpoint.Open(mustHex(t, tt.wire))
			if !errors.Is(err, ErrMalformedCiphertext) {
				t.Errorf("Open() error = %v, want ErrMalformedCiphertext", err)
			}
			if got != nil {
				t.Error("Open() returned plaintext")
			}
			if endpoint.InboundCounter() != 1 {
				t.Errorf("inbound counter = %d, want 1", endpoint.InboundCounter())
			}
		})
	}
}

func TestSecureSession_UnknownKeysTolerated(t *testing.T) {
	endpoint := newTestSession(t, RoleEndpoint)

	// { "data": h'..', "x": 1 }
	wire := mustHex(t, "a2"+"6464617461"+"55"+testReaderHelloCTHex+"6178"+"01")
	got, err := endpoint.Open(wire)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Open() = %q, want %q", got, "hello")
	}
}

func TestSecureSession_StatusMessage(t *testing.T) {
	reader, endpoint := newTestPair(t)

	msg, err := reader.Terminate()
	if err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if got := hex.EncodeToString(msg); got != "a1"+"66737461747573"+"14" {
		t.Errorf("Terminate() = %s", got)
	}
	if !reader.Closed() {
		t.Error("Terminate() did not close the session")
	}

	_, err = endpoint.Open(msg)
	if !errors.Is(err, ErrMalformedCiphertext) {
		t.Fatalf("Open(status) error = %v, want ErrMalformedCiphertext", err)
	}
	var statusErr *envelope.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Open(status) error = %v, want *envelope.StatusError", err)
	}
	if statusErr.Status != envelope.StatusSessionTermination {
		t.Errorf("status = %d, want %d", statusErr.Status, envelope.StatusSessionTermination)
	}
	if endpoint.InboundCounter() != 1 {
		t.Errorf("inbound counter = %d, want 1", endpoint.InboundCounter())
	}
}

func TestSecureSession_DataWithStatus(t *testing.T) {
	endpoint := newTestSession(t, RoleEndpoint)

	// { "data": h'..', "status": 20 }: the last message before termination.
	wire := mustHex(t, "a2"+"6464617461"+"55"+testReaderHelloCTHex+"66737461747573"+"14")
	got, err := endpoint.Open(wire)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Open() = %q, want %q", got, "hello")
	}
}

func TestSecureSession_Exhaustion(t *testing.T) {
	reader, endpoint := newTestPair(t)

	reader.outbound.counter = math.MaxUint32 - 1
	endpoint.inbound.counter = math.MaxUint32 - 1

	// The last two counter values are usable.
	for i := 0; i < 2; i++ {
		wire, err := reader.Seal([]byte("near the end"))
		if err != nil {
			t.Fatalf("Seal #%d error = %v", i, err)
		}
		if _, err := endpoint.Open(wire); err != nil {
			t.Fatalf("Open #%d error = %v", i, err)
		}
	}

	if !reader.OutboundExhausted() || !endpoint.InboundExhausted() {
		t.Fatal("channels not exhausted after counter MaxUint32")
	}
	if reader.OutboundCounter() != math.MaxUint32 {
		t.Errorf("counter wrapped: %d", reader.OutboundCounter())
	}

	if _, err := reader.Seal([]byte("too far")); !errors.Is(err, ErrSessionExhausted) {
		t.Errorf("Seal() error = %v, want ErrSessionExhausted", err)
	}
	if _, err := endpoint.Open(mustHex(t, "a1"+"6464617461"+"50"+testReaderEmptyCTHex)); !errors.Is(err, ErrSessionExhausted) {
		t.Errorf("Open() error = %v, want ErrSessionExhausted", err)
	}

	// The other direction is unaffected.
	wire, err := endpoint.Seal([]byte("reply"))
	if err != nil {
		t.Fatalf("endpoint.Seal() error = %v", err)
	}
	if _, err := reader.Open(wire); err != nil {
		t.Errorf("reader.Open() error = %v", err)
	}
}

func TestSecureSession_Close(t *testing.T) {
	reader, endpoint := newTestPair(t)
	outKey := reader.outbound.key
	inKey := reader.inbound.key

	reader.Close()
	reader.Close()

	zero := make([]byte, DefaultKeyLength)
	if !bytes.Equal(outKey, zero) || !bytes.Equal(inKey, zero) {
		t.Error("Close() did not zeroize keys")
	}
	if reader.outbound.aead != nil || reader.inbound.aead != nil {
		t.Error("Close() kept the AEAD references")
	}
	if !reader.Closed() {
		t.Error("Closed() = false after Close()")
	}

	if _, err := reader.Seal([]byte("x")); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Seal() error = %v, want ErrSessionClosed", err)
	}
	if _, err := reader.Open([]byte{0xa0}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Open() error = %v, want ErrSessionClosed", err)
	}
	if _, err := reader.Terminate(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Terminate() error = %v, want ErrSessionClosed", err)
	}

	// Closing one side leaves the peer untouched.
	wire, err := endpoint.Seal([]byte("x"))
	if err != nil || len(wire) == 0 {
		t.Errorf("endpoint.Seal() after peer close error = %v", err)
	}
}

func TestSecureSession_LogsNoSecrets(t *testing.T) {
	var buf bytes.Buffer
	factory := logging.NewDefaultLoggerFactory()
	factory.Writer = &buf
	factory.DefaultLogLevel = logging.LogLevelTrace

	secret := mustHex(t, testSharedSecretHex)
	salt := mustHex(t, testSaltHex)
	reader, err := New(secret, salt, Config{KeyLength: DefaultKeyLength, Role: RoleReader, LoggerFactory: factory})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	endpoint, err := New(secret, salt, Config{KeyLength: DefaultKeyLength, Role: RoleEndpoint, LoggerFactory: factory})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	plaintext := []byte("top secret payload")
	wire, err := reader.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if _, err := endpoint.Open(wire); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := endpoint.Open(wire); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("replay Open() error = %v", err)
	}
	reader.Close()

	out := strings.ToLower(buf.String())
	if out == "" {
		t.Fatal("expected trace output")
	}

	forbidden := map[string]string{
		"shared secret": testSharedSecretHex,
		"salt":          testSaltHex,
		"SKReader":      testSKReaderHex,
		"SKDevice":      testSKDeviceHex,
		"plaintext":     hex.EncodeToString(plaintext),
		"payload":       strings.ToLower(string(plaintext)),
		"wire":          hex.EncodeToString(wire),
		"reader IV":     "000000000000000000000001",
		"endpoint IV":   "000000000000000100000001",
	}
	for name, needle := range forbidden {
		if strings.Contains(out, needle) {
			t.Errorf("log output contains %s", name)
		}
	}
}
