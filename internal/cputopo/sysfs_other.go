//go:build !linux

package cputopo

// discover has no sysfs to read outside Linux; Discover falls back to the
// flat topology.
func discover() (Topology, bool) {
	return Topology{}, false
}

// Pin is a no-op outside Linux: workers still run, just unpinned.
func Pin(_ int) error {
	return nil
}
