package types

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend selects the transport used to dispatch chunks to remote workers.
type Backend int

const (
	// BackendRemoteCall dispatches chunks as request/reply calls to a fixed
	// set of configured worker addresses.
	BackendRemoteCall Backend = iota

	// BackendMessagePassing dispatches chunks over rank-addressed mailboxes
	// shared by a fixed-size group of participants, with the coordinator
	// occupying rank 0.
	BackendMessagePassing
)

var backendNames = map[Backend]string{
	BackendRemoteCall:     "REMOTE_CALL",
	BackendMessagePassing: "MESSAGE_PASSING",
}

// String returns the canonical configuration token for the backend.
func (b Backend) String() string {
	if name, ok := backendNames[b]; ok {
		return name
	}

	return fmt.Sprintf("Backend(%d)", int(b))
}

// IsValid reports whether the backend is one of the defined variants.
func (b Backend) IsValid() bool {
	_, ok := backendNames[b]
	return ok
}

// ParseBackend parses a configuration token into a Backend.
// Matching is case-insensitive.
func ParseBackend(s string) (Backend, error) {
	token := strings.ToUpper(strings.TrimSpace(s))
	for backend, name := range backendNames {
		if name == token {
			return backend, nil
		}
	}

	return BackendRemoteCall, fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// MarshalText implements encoding.TextMarshaler.
func (b Backend) MarshalText() ([]byte, error) {
	if !b.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBackend, int(b))
	}

	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Backend) UnmarshalText(text []byte) error {
	parsed, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = parsed

	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Backend) UnmarshalYAML(value *yaml.Node) error {
	var token string
	if err := value.Decode(&token); err != nil {
		return err
	}

	return b.UnmarshalText([]byte(token))
}
