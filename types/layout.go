package types

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// QueueLayout selects how many work queues a session uses and how workers
// map onto them.
//
// Fewer queues mean less stealing but more contention on the shared queue
// lock; more queues mean cheaper claims but more steal traffic once a queue
// drains.
type QueueLayout int

const (
	// LayoutCentralized uses a single queue shared by all workers.
	LayoutCentralized QueueLayout = iota

	// LayoutPerGroup uses one queue per NUMA group; workers claim from the
	// queue of their own group.
	LayoutPerGroup

	// LayoutPerCPU uses one queue per worker.
	LayoutPerCPU
)

var queueLayoutNames = map[QueueLayout]string{
	LayoutCentralized: "CENTRALIZED",
	LayoutPerGroup:    "PERGROUP",
	LayoutPerCPU:      "PERCPU",
}

// String returns the canonical configuration token for the layout.
func (l QueueLayout) String() string {
	if name, ok := queueLayoutNames[l]; ok {
		return name
	}

	return fmt.Sprintf("QueueLayout(%d)", int(l))
}

// IsValid reports whether the layout is one of the defined variants.
func (l QueueLayout) IsValid() bool {
	_, ok := queueLayoutNames[l]
	return ok
}

// ParseQueueLayout parses a configuration token into a QueueLayout.
// Matching is case-insensitive.
func ParseQueueLayout(s string) (QueueLayout, error) {
	token := strings.ToUpper(strings.TrimSpace(s))
	for layout, name := range queueLayoutNames {
		if name == token {
			return layout, nil
		}
	}

	return LayoutCentralized, fmt.Errorf("%w: %q", ErrUnknownQueueLayout, s)
}

// MarshalText implements encoding.TextMarshaler.
func (l QueueLayout) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownQueueLayout, int(l))
	}

	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *QueueLayout) UnmarshalText(text []byte) error {
	parsed, err := ParseQueueLayout(string(text))
	if err != nil {
		return err
	}
	*l = parsed

	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *QueueLayout) UnmarshalYAML(value *yaml.Node) error {
	var token string
	if err := value.Decode(&token); err != nil {
		return err
	}

	return l.UnmarshalText([]byte(token))
}

// VictimSelection selects the order in which an idle worker probes other
// queues for stealable chunks.
//
// NUMA-aware variants prefer victims within the thief's own memory group
// before crossing group boundaries, trading steal latency for locality.
type VictimSelection int

const (
	// VictimSequential probes queues in ring order starting after the
	// thief's own queue.
	VictimSequential VictimSelection = iota

	// VictimSequentialNUMA probes same-group queues in ring order first,
	// then the remaining queues.
	VictimSequentialNUMA

	// VictimRandom probes uniformly random queues.
	VictimRandom

	// VictimRandomNUMA probes random same-group queues first, then random
	// remote queues.
	VictimRandomNUMA
)

var victimSelectionNames = map[VictimSelection]string{
	VictimSequential:     "SEQUENTIAL",
	VictimSequentialNUMA: "SEQUENTIAL_NUMA",
	VictimRandom:         "RANDOM",
	VictimRandomNUMA:     "RANDOM_NUMA",
}

// String returns the canonical configuration token for the policy.
func (v VictimSelection) String() string {
	if name, ok := victimSelectionNames[v]; ok {
		return name
	}

	return fmt.Sprintf("VictimSelection(%d)", int(v))
}

// IsValid reports whether the policy is one of the defined variants.
func (v VictimSelection) IsValid() bool {
	_, ok := victimSelectionNames[v]
	return ok
}

// ParseVictimSelection parses a configuration token into a VictimSelection.
// Matching is case-insensitive.
func ParseVictimSelection(s string) (VictimSelection, error) {
	token := strings.ToUpper(strings.TrimSpace(s))
	for policy, name := range victimSelectionNames {
		if name == token {
			return policy, nil
		}
	}

	return VictimSequential, fmt.Errorf("%w: %q", ErrUnknownVictimSelection, s)
}

// MarshalText implements encoding.TextMarshaler.
func (v VictimSelection) MarshalText() ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVictimSelection, int(v))
	}

	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *VictimSelection) UnmarshalText(text []byte) error {
	parsed, err := ParseVictimSelection(string(text))
	if err != nil {
		return err
	}
	*v = parsed

	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *VictimSelection) UnmarshalYAML(value *yaml.Node) error {
	var token string
	if err := value.Decode(&token); err != nil {
		return err
	}

	return v.UnmarshalText([]byte(token))
}
