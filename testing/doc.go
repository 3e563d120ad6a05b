// Package testing provides test utilities for the morsel library.
//
// This package offers helpers for setting up test environments, particularly
// embedded NATS servers for exercising the distributed transports. It follows
// Go's convention of providing testing utilities in a dedicated package
// (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single in-process core NATS server
//   - ConnectEmbeddedNATS: Extra client connections to the same server
//   - NewTestLogger: types.Logger writing through testing.T
//
// Example usage:
//
//	import (
//	    "testing"
//	    morseltest "github.com/arloliu/morsel/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := morseltest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
