package testing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartEmbeddedNATS(t *testing.T) {
	ns, nc := StartEmbeddedNATS(t)

	require.NotNil(t, ns)
	require.NotNil(t, nc)
	require.True(t, nc.IsConnected())

	// Verify server is running
	require.True(t, ns.ReadyForConnections(1*time.Second))

	// Verify core pub/sub round-trips
	sub, err := nc.SubscribeSync("morsel.test.ping")
	require.NoError(t, err)

	require.NoError(t, nc.Publish("morsel.test.ping", []byte("pong")))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte("pong"), msg.Data)
}

func TestConnectEmbeddedNATS(t *testing.T) {
	ns, nc := StartEmbeddedNATS(t)

	// A second connection delivers messages published on the first.
	nc2 := ConnectEmbeddedNATS(t, ns)
	require.True(t, nc2.IsConnected())

	sub, err := nc2.SubscribeSync("morsel.test.cross")
	require.NoError(t, err)
	require.NoError(t, nc2.Flush())

	require.NoError(t, nc.Publish("morsel.test.cross", []byte("hello")))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), msg.Data)
}

// TestStartEmbeddedNATS_ParallelTests verifies parallel test execution.
func TestStartEmbeddedNATS_ParallelTests(t *testing.T) {
	t.Parallel()

	// Run multiple tests in parallel to verify no port conflicts
	for range 5 {
		t.Run("parallel", func(t *testing.T) {
			t.Parallel()

			_, nc := StartEmbeddedNATS(t)
			require.NotNil(t, nc)
			require.True(t, nc.IsConnected())
		})
	}
}
