//go:build linux

package cputopo

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const sysCPURoot = "/sys/devices/system/cpu"

// discover reads the online CPU topology from sysfs.
func discover() (Topology, bool) {
	return discoverAt(sysCPURoot)
}

// discoverAt exists so tests can point discovery at a fake sysfs tree.
func discoverAt(root string) (Topology, bool) {
	online, err := readCPUList(root + "/online")
	if err != nil || len(online) == 0 {
		return Topology{}, false
	}

	type coreKey struct{ pkg, core int }
	seen := make(map[coreKey]bool, len(online))

	cpus := make([]CPU, 0, len(online))
	for coreSeq, id := range online {
		dir := fmt.Sprintf("%s/cpu%d/topology", root, id)
		pkg := readInt(dir+"/physical_package_id", 0)
		core := readInt(dir+"/core_id", coreSeq)

		key := coreKey{pkg: pkg, core: core}
		cpus = append(cpus, CPU{
			ID:   id,
			Core: pkg<<16 | core,
			Node: nodeOf(root, id),
			SMT:  seen[key],
		})
		seen[key] = true
	}

	return Topology{CPUs: cpus}, true
}

// nodeOf finds the NUMA node of a CPU from its node<N> symlink. CPUs
// without node information land on node 0.
func nodeOf(root string, cpu int) int {
	entries, err := os.ReadDir(fmt.Sprintf("%s/cpu%d", root, cpu))
	if err != nil {
		return 0
	}
	for _, e := range entries {
		name := e.Name()
		if rest, ok := strings.CutPrefix(name, "node"); ok {
			if n, err := strconv.Atoi(rest); err == nil {
				return n
			}
		}
	}

	return 0
}

// readCPUList parses a sysfs CPU list such as "0-3,8,10-11".
func readCPUList(path string) ([]int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parseCPUList(strings.TrimSpace(string(raw)))
}

func parseCPUList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}

	var cpus []int
	for _, part := range strings.Split(s, ",") {
		lo, hi, ok := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid cpu list entry %q: %w", part, err)
		}
		last := first
		if ok {
			last, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("invalid cpu list range %q: %w", part, err)
			}
		}
		for id := first; id <= last; id++ {
			cpus = append(cpus, id)
		}
	}

	return cpus, nil
}

// readInt reads a decimal sysfs attribute, returning fallback when the file
// is missing or malformed.
func readInt(path string, fallback int) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return fallback
	}

	return n
}

// Pin binds the calling OS thread to one logical CPU. Callers must hold the
// thread with runtime.LockOSThread for the binding to stay meaningful.
func Pin(cpu int) error {
	if cpu < 0 {
		return nil
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)

	// Thread id 0 targets the calling thread.
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity(cpu %d): %w", cpu, err)
	}

	return nil
}
