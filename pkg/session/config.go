package session

import (
	"github.com/backkem/mdocsession/pkg/crypto"
	"github.com/pion/logging"
)

// DefaultKeyLength is the default session key length (AES-128).
const DefaultKeyLength = 16

// loggerScope is the pion logging scope used by this package.
const loggerScope = "mdoc-session"

// Config configures a SecureSession.
type Config struct {
	// KeyLength is the length in bytes of SKReader and SKDevice.
	// Must be 16, 24 or 32. A zero length is rejected; use DefaultConfig
	// for AES-128.
	KeyLength int

	// Role selects which key seals and which key opens.
	// Default: RoleReader
	Role Role

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled. Key material, IVs and payloads are never logged.
	LoggerFactory logging.LoggerFactory
}

// DefaultConfig returns the configuration for a reader with AES-128 keys.
func DefaultConfig() Config {
	return Config{
		KeyLength: DefaultKeyLength,
		Role:      RoleReader,
	}
}

// WithDefaults returns a copy of the config with an unset role replaced by
// RoleReader. KeyLength is left as given.
func (c Config) WithDefaults() Config {
	result := c
	if result.Role == RoleUnknown {
		result.Role = RoleReader
	}
	return result
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !crypto.ValidAESKeySize(c.KeyLength) {
		return ErrInvalidKeyLength
	}
	if !c.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}
