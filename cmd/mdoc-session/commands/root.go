package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pion/logging"
	"github.com/spf13/cobra"

	"github.com/backkem/mdocsession/pkg/session"
)

// options holds the flags shared by all subcommands.
type options struct {
	secretHex string
	saltHex   string
	keyLength int
	role      string
	verbose   bool
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "mdoc-session",
		Short:        "ISO/IEC 18013-5 secure session tool",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.secretHex, "secret", "", "ECDH shared secret (hex)")
	root.PersistentFlags().StringVar(&opts.saltHex, "salt", "", "session transcript salt (hex)")
	root.PersistentFlags().IntVarP(&opts.keyLength, "length", "l", session.DefaultKeyLength, "session key length in bytes (16, 24 or 32)")
	root.PersistentFlags().StringVarP(&opts.role, "role", "r", "reader", "local role: reader or endpoint")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log session events to stderr")

	root.AddCommand(
		deriveCmd(opts),
		sealCmd(opts),
		openCmd(opts),
		serveCmd(opts),
		connectCmd(opts),
	)
	return root
}

// inputs decodes the shared secret and salt flags.
func (o *options) inputs() (secret, salt []byte, err error) {
	if o.secretHex == "" || o.saltHex == "" {
		return nil, nil, errors.New("--secret and --salt are required")
	}
	secret, err = decodeHex("secret", o.secretHex)
	if err != nil {
		return nil, nil, err
	}
	salt, err = decodeHex("salt", o.saltHex)
	if err != nil {
		return nil, nil, err
	}
	return secret, salt, nil
}

// parseRole maps the --role flag to a session role.
func parseRole(s string) (session.Role, error) {
	switch strings.ToLower(s) {
	case "reader", "":
		return session.RoleReader, nil
	case "endpoint", "holder", "mdoc":
		return session.RoleEndpoint, nil
	default:
		return session.RoleUnknown, fmt.Errorf("unknown role %q (want reader or endpoint)", s)
	}
}

// newSession builds a session for role from the shared flags.
func (o *options) newSession(role session.Role) (*session.SecureSession, error) {
	secret, salt, err := o.inputs()
	if err != nil {
		return nil, err
	}
	return session.New(secret, salt, session.Config{
		KeyLength:     o.keyLength,
		Role:          role,
		LoggerFactory: o.loggerFactory(),
	})
}

// newFlagSession builds a session for the --role flag.
func (o *options) newFlagSession() (*session.SecureSession, error) {
	role, err := parseRole(o.role)
	if err != nil {
		return nil, err
	}
	return o.newSession(role)
}

// loggerFactory returns a stderr logger factory when --verbose is set.
func (o *options) loggerFactory() logging.LoggerFactory {
	if !o.verbose {
		return nil
	}
	factory := logging.NewDefaultLoggerFactory()
	factory.Writer = os.Stderr
	factory.DefaultLogLevel = logging.LogLevelDebug
	return factory
}

func decodeHex(name, s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.ReplaceAll(s, " ", ""), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s hex: %w", name, err)
	}
	return b, nil
}
