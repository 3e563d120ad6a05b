package morsel

import (
	"fmt"
	"time"

	"github.com/arloliu/morsel/types"
)

// DistributedConfig controls remote task dispatch over NATS.
type DistributedConfig struct {
	// Backend selects the transport style: REMOTE_CALL issues request/reply
	// calls against configured worker addresses; MESSAGE_PASSING uses
	// rank-addressed mailboxes shared by a fixed participant group.
	Backend types.Backend `yaml:"backend"`

	// Participants is the total size of a message-passing session: one
	// coordinator (rank 0) plus at least one worker (ranks 1..N-1).
	// Ignored by the remote-call backend.
	Participants int `yaml:"participants"`

	// WorkerAddresses lists the service subjects remote-call workers listen
	// on. Ignored by the message-passing backend.
	WorkerAddresses []string `yaml:"workerAddresses"`

	// SubjectPrefix namespaces every session subject on the broker, letting
	// multiple deployments share one NATS cluster.
	SubjectPrefix string `yaml:"subjectPrefix"`

	// DispatchTimeout bounds one task round trip to a remote worker. An
	// expired dispatch is fatal to the session; there is no retry path.
	DispatchTimeout time.Duration `yaml:"dispatchTimeout"`

	// OperationTimeout bounds control-plane operations such as the
	// termination fan-out and connection flushes.
	OperationTimeout time.Duration `yaml:"operationTimeout"`
}

// Config is the configuration for the Partitioner.
//
// The zero value of every enum field is its documented default, so an empty
// Config is usable after SetDefaults. All duration fields accept standard
// Go duration strings like "30s", "5m", "1h" when decoded from YAML.
type Config struct {
	// Scheme selects the self-scheduling scheme that sizes chunks.
	Scheme types.Scheme `yaml:"scheme"`

	// QueueLayout selects the queue topology chunks are dealt onto:
	// one shared queue, one queue per NUMA group, or one per worker.
	QueueLayout types.QueueLayout `yaml:"queueLayout"`

	// VictimSelection selects the order in which an idle worker probes
	// other queues for work to steal.
	VictimSelection types.VictimSelection `yaml:"victimSelection"`

	// NumberOfThreads is the local worker count. Zero sizes the pool to the
	// machine's physical core count, including hyperthread siblings only
	// when HyperthreadingEnabled is set.
	NumberOfThreads int `yaml:"numberOfThreads"`

	// MinimumTaskSize is the scheme's floor chunk size in rows. Every chunk
	// is at least this large except the final remainder of a session.
	MinimumTaskSize uint64 `yaml:"minimumTaskSize"`

	// PinWorkers pins each worker goroutine to a dedicated CPU for the
	// session (Linux sched_setaffinity; no-op elsewhere).
	PinWorkers bool `yaml:"pinWorkers"`

	// HyperthreadingEnabled includes SMT siblings when auto-sizing the pool
	// and planning CPU affinity.
	HyperthreadingEnabled bool `yaml:"hyperthreadingEnabled"`

	// PrePartitionRows splits the work item across queues up front and runs
	// the scheme independently per queue, instead of dealing chunks from
	// one scheme round-robin. Meaningful only with multiple queues.
	PrePartitionRows bool `yaml:"prePartitionRows"`

	// DebugTrace records every scheduling event (enqueue, claim, steal,
	// exhaust) to the configured trace sink.
	DebugTrace bool `yaml:"debugTrace"`

	// DisableRefCounting turns off buffer reference counting; buffers then
	// persist until their allocator closes. Intended for debugging and
	// performance isolation.
	DisableRefCounting bool `yaml:"disableRefCounting"`

	// Seed makes the randomized schemes and victim selectors reproducible:
	// sessions with equal seeds and equal configurations make identical
	// stochastic choices. Zero lets each component pick its documented
	// fallback (time-derived for probabilistic chunk sizing).
	Seed uint64 `yaml:"seed"`

	// Distributed controls remote dispatch.
	Distributed DistributedConfig `yaml:"distributed"`
}

// DefaultConfig returns a Config with production defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		Scheme:          types.SchemeStatic,
		QueueLayout:     types.LayoutCentralized,
		VictimSelection: types.VictimSequential,
		NumberOfThreads: 0, // auto: physical core count
		MinimumTaskSize: 1,
		Distributed: DistributedConfig{
			Backend:          types.BackendRemoteCall,
			SubjectPrefix:    "morsel",
			DispatchTimeout:  30 * time.Second,
			OperationTimeout: 10 * time.Second,
		},
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.MinimumTaskSize == 0 {
		cfg.MinimumTaskSize = defaults.MinimumTaskSize
	}
	if cfg.Distributed.SubjectPrefix == "" {
		cfg.Distributed.SubjectPrefix = defaults.Distributed.SubjectPrefix
	}
	if cfg.Distributed.DispatchTimeout == 0 {
		cfg.Distributed.DispatchTimeout = defaults.Distributed.DispatchTimeout
	}
	if cfg.Distributed.OperationTimeout == 0 {
		cfg.Distributed.OperationTimeout = defaults.Distributed.OperationTimeout
	}
	// NumberOfThreads 0 means auto-size from the CPU topology; the enum
	// zero values are already the documented defaults.
}

// Validate checks configuration constraints and returns an error for
// invalid values.
//
// Hard Validation Rules:
//   - Scheme, QueueLayout, VictimSelection, Backend are defined variants
//   - NumberOfThreads >= 0 (0 = auto)
//   - MinimumTaskSize >= 1
//
// Distributed-session constraints (participant count, worker addresses)
// are enforced by DistributedConfig.Validate at coordinator startup, so a
// purely local configuration never pays for them.
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if !cfg.Scheme.IsValid() {
		return fmt.Errorf("%w: %d", types.ErrUnknownScheme, int(cfg.Scheme))
	}
	if !cfg.QueueLayout.IsValid() {
		return fmt.Errorf("%w: %d", types.ErrUnknownQueueLayout, int(cfg.QueueLayout))
	}
	if !cfg.VictimSelection.IsValid() {
		return fmt.Errorf("%w: %d", types.ErrUnknownVictimSelection, int(cfg.VictimSelection))
	}
	if !cfg.Distributed.Backend.IsValid() {
		return fmt.Errorf("%w: %d", types.ErrUnknownBackend, int(cfg.Distributed.Backend))
	}
	if cfg.NumberOfThreads < 0 {
		return fmt.Errorf("%w: NumberOfThreads must be >= 0, got %d", types.ErrInvalidConfig, cfg.NumberOfThreads)
	}
	if cfg.MinimumTaskSize < 1 {
		return fmt.Errorf("%w: MinimumTaskSize must be >= 1, got %d", types.ErrInvalidConfig, cfg.MinimumTaskSize)
	}

	return nil
}

// Validate checks distributed-session constraints for the configured
// backend. Called at coordinator startup, before any dispatch.
//
// Hard Validation Rules:
//   - MESSAGE_PASSING: Participants >= 2 (one coordinator plus one worker)
//   - REMOTE_CALL: at least one worker address
//   - DispatchTimeout > 0, OperationTimeout > 0
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (dc *DistributedConfig) Validate() error {
	if !dc.Backend.IsValid() {
		return fmt.Errorf("%w: %d", types.ErrUnknownBackend, int(dc.Backend))
	}

	switch dc.Backend {
	case types.BackendMessagePassing:
		if dc.Participants < 2 {
			return fmt.Errorf("%w: got %d", types.ErrParticipants, dc.Participants)
		}
	case types.BackendRemoteCall:
		if len(dc.WorkerAddresses) == 0 {
			return types.ErrNoWorkerAddresses
		}
	}

	if dc.DispatchTimeout <= 0 {
		return fmt.Errorf("%w: DispatchTimeout must be > 0, got %v", types.ErrInvalidConfig, dc.DispatchTimeout)
	}
	if dc.OperationTimeout <= 0 {
		return fmt.Errorf("%w: OperationTimeout must be > 0, got %v", types.ErrInvalidConfig, dc.OperationTimeout)
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for
// non-recommended values.
//
// This is called after Validate() in NewPartitioner() to provide operator
// guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	// Unit-size self-scheduling maximizes balance at maximal per-chunk
	// overhead; operators usually want a larger floor.
	if cfg.Scheme == types.SchemeSelf && cfg.MinimumTaskSize == 1 {
		logger.Warn(
			"self-scheduling with unit minimum task size has the highest per-chunk overhead",
			"scheme", cfg.Scheme.String(),
			"minimumTaskSize", cfg.MinimumTaskSize,
		)
	}

	// Pre-partitioning a single shared queue degenerates to the plain path.
	if cfg.PrePartitionRows && cfg.QueueLayout == types.LayoutCentralized {
		logger.Warn(
			"prePartitionRows has no effect with a centralized queue layout",
			"queueLayout", cfg.QueueLayout.String(),
		)
	}

	if cfg.DebugTrace {
		logger.Warn(
			"debug tracing records every scheduling event and slows sessions",
			"debugTrace", true,
		)
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Worker count and timeouts are fixed and short so tests run quickly and
// deterministically. Use DefaultConfig() for production deployments.
//
// Returns:
//   - Config: Configuration with fast timings for tests
//
// Example:
//
//	cfg := morsel.TestConfig()
//	cfg.Scheme = morsel.SchemeGuided
//	lp, err := morsel.NewPartitioner(&cfg)
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.NumberOfThreads = 2
	cfg.Seed = 1
	cfg.Distributed.SubjectPrefix = "morsel-test"
	cfg.Distributed.DispatchTimeout = 2 * time.Second
	cfg.Distributed.OperationTimeout = 1 * time.Second

	return cfg
}
