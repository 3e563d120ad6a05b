// Package cputopo discovers the CPU topology of the machine and plans the
// placement of scheduler workers onto logical CPUs.
//
// The partitioner sizes its worker pool from the physical core count by
// default, optionally spilling onto hyperthread siblings, and optionally
// pinning each worker to its planned CPU. NUMA node identifiers from the
// topology drive the per-group queue layout and NUMA-aware victim
// selection.
//
// Topology information comes from sysfs on Linux. On other platforms, and
// on Linux systems without a readable sysfs, a flat single-node topology
// derived from runtime.NumCPU is used instead: every logical CPU counts as
// a physical core on node 0 and pinning becomes a no-op.
package cputopo

import (
	"runtime"
	"sort"
)

// CPU describes one logical CPU.
type CPU struct {
	// ID is the logical CPU number as seen by the OS scheduler.
	ID int

	// Core identifies the physical core, unique within the machine.
	Core int

	// Node is the NUMA node the CPU belongs to.
	Node int

	// SMT marks hyperthread siblings: every logical CPU of a core except
	// the first carries SMT = true.
	SMT bool
}

// Topology is the set of online logical CPUs.
type Topology struct {
	CPUs []CPU
}

// Slot is one planned worker placement.
type Slot struct {
	// CPU is the logical CPU the worker should run on, or -1 when the
	// machine has fewer distinct CPUs than workers.
	CPU int

	// Node is the NUMA node of the CPU (0 for unplanned slots).
	Node int
}

// Discover returns the machine topology.
func Discover() Topology {
	if t, ok := discover(); ok && len(t.CPUs) > 0 {
		return t
	}

	return flatTopology(runtime.NumCPU())
}

// flatTopology builds a degenerate topology of n independent cores on one
// NUMA node.
func flatTopology(n int) Topology {
	if n < 1 {
		n = 1
	}
	cpus := make([]CPU, n)
	for i := range n {
		cpus[i] = CPU{ID: i, Core: i, Node: 0}
	}

	return Topology{CPUs: cpus}
}

// LogicalCPUs returns the number of online logical CPUs.
func (t Topology) LogicalCPUs() int {
	return len(t.CPUs)
}

// PhysicalCores returns the number of distinct physical cores.
func (t Topology) PhysicalCores() int {
	cores := 0
	for _, c := range t.CPUs {
		if !c.SMT {
			cores++
		}
	}
	if cores == 0 {
		cores = len(t.CPUs)
	}

	return cores
}

// Nodes returns the number of NUMA nodes.
func (t Topology) Nodes() int {
	maxNode := 0
	for _, c := range t.CPUs {
		if c.Node > maxNode {
			maxNode = c.Node
		}
	}

	return maxNode + 1
}

// DefaultWorkers returns the default worker count for the topology: the
// physical core count, or the logical CPU count when hyperthreading is
// enabled.
func (t Topology) DefaultWorkers(hyperthreading bool) int {
	if hyperthreading {
		return t.LogicalCPUs()
	}

	return t.PhysicalCores()
}

// Plan assigns workers to logical CPUs.
//
// Candidates are the primary CPU of each physical core, extended by the
// hyperthread siblings when hyperthreading is enabled. Candidates are
// ordered by (node, cpu) so consecutive workers fill a node before moving
// to the next, keeping per-group queues aligned with memory locality.
// When more workers than candidates are requested the assignment wraps
// around, so co-located workers still report the correct node.
//
// Parameters:
//   - workers: Number of workers to place (>= 1)
//   - hyperthreading: Include hyperthread siblings as placement targets
//
// Returns:
//   - []Slot: One planned placement per worker
func (t Topology) Plan(workers int, hyperthreading bool) []Slot {
	if workers < 1 {
		workers = 1
	}

	candidates := make([]CPU, 0, len(t.CPUs))
	for _, c := range t.CPUs {
		if c.SMT && !hyperthreading {
			continue
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		candidates = t.CPUs
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Node != b.Node {
			return a.Node < b.Node
		}
		// Primaries ahead of siblings so low worker counts land on whole
		// cores even with hyperthreading enabled.
		if a.SMT != b.SMT {
			return !a.SMT
		}

		return a.ID < b.ID
	})

	slots := make([]Slot, workers)
	for w := range workers {
		c := candidates[w%len(candidates)]
		slots[w] = Slot{CPU: c.ID, Node: c.Node}
	}

	return slots
}
