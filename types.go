package morsel

import "github.com/arloliu/morsel/types"

// Re-export types from the internal types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. It uses type aliases to re-export definitions from the
// `types` subpackage, which contains the actual implementations.
//
// This pattern solves the "import cycle" problem by allowing internal
// packages to depend on `types` without depending on the root `morsel`
// package, while still providing a convenient `morsel.Scheme`,
// `morsel.Logger`, etc. for users.
type (
	Range        = types.Range
	WorkItem     = types.WorkItem
	Chunk        = types.Chunk
	Scheme       = types.Scheme
	QueueLayout  = types.QueueLayout
	VictimSel    = types.VictimSelection
	Backend      = types.Backend
	State        = types.State
	Status       = types.Status
	SessionStats = types.SessionStats
	TraceKind    = types.TraceKind
	TraceEvent   = types.TraceEvent
)

// Re-export interfaces from the internal types package for convenience.
type (
	Logger           = types.Logger
	MetricsCollector = types.MetricsCollector
	TraceSink        = types.TraceSink
	Hooks            = types.Hooks
)

// Re-export Scheme constants from the internal types package.
const (
	SchemeStatic             = types.SchemeStatic
	SchemeSelf               = types.SchemeSelf
	SchemeGuided             = types.SchemeGuided
	SchemeTrapezoid          = types.SchemeTrapezoid
	SchemeFactoring          = types.SchemeFactoring
	SchemeTrapezoidFactoring = types.SchemeTrapezoidFactoring
	SchemeFixedIncrease      = types.SchemeFixedIncrease
	SchemeVariableIncrease   = types.SchemeVariableIncrease
	SchemePerformanceLoop    = types.SchemePerformanceLoop
	SchemeModifiedStatic     = types.SchemeModifiedStatic
	SchemeModifiedFixedSize  = types.SchemeModifiedFixedSize
	SchemeProbabilistic      = types.SchemeProbabilistic
)

// Re-export queue layout constants from the internal types package.
const (
	LayoutCentralized = types.LayoutCentralized
	LayoutPerGroup    = types.LayoutPerGroup
	LayoutPerCPU      = types.LayoutPerCPU
)

// Re-export victim selection constants from the internal types package.
const (
	VictimSequential     = types.VictimSequential
	VictimSequentialNUMA = types.VictimSequentialNUMA
	VictimRandom         = types.VictimRandom
	VictimRandomNUMA     = types.VictimRandomNUMA
)

// Re-export backend constants from the internal types package.
const (
	BackendRemoteCall     = types.BackendRemoteCall
	BackendMessagePassing = types.BackendMessagePassing
)

// Re-export State constants from the internal types package.
const (
	StateIdle    = types.StateIdle
	StateRunning = types.StateRunning
	StateClosed  = types.StateClosed
)

// Re-export exit status constants from the internal types package.
const (
	StatusSuccess        = types.StatusSuccess
	StatusParserError    = types.StatusParserError
	StatusPassError      = types.StatusPassError
	StatusExecutionError = types.StatusExecutionError
)
