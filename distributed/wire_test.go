package distributed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/morsel/types"
)

func TestTaskCodec(t *testing.T) {
	task := &Task{
		TaskID:  "task-42",
		Seq:     7,
		Begin:   1024,
		End:     2048,
		Payload: []byte("pipeline fragment"),
	}

	data, err := EncodeTask(task)
	require.NoError(t, err)

	decoded, err := DecodeTask(data)
	require.NoError(t, err)
	require.Equal(t, task, decoded)
	require.Equal(t, types.Range{Begin: 1024, End: 2048}, decoded.Range())
}

func TestTaskCodec_EmptyPayload(t *testing.T) {
	task := &Task{TaskID: "task-0", Seq: 0, Begin: 0, End: 64}

	data, err := EncodeTask(task)
	require.NoError(t, err)

	decoded, err := DecodeTask(data)
	require.NoError(t, err)
	require.Empty(t, decoded.Payload)
	require.EqualValues(t, 64, decoded.Range().Len())
}

func TestResultCodec(t *testing.T) {
	t.Run("success carries output", func(t *testing.T) {
		res := &Result{TaskID: "task-1", Seq: 3, Output: []byte{0xde, 0xad}}

		data, err := EncodeResult(res)
		require.NoError(t, err)

		decoded, err := DecodeResult(data)
		require.NoError(t, err)
		require.Equal(t, res, decoded)
		require.Empty(t, decoded.Error)
	})

	t.Run("failure carries error text", func(t *testing.T) {
		res := &Result{TaskID: "task-2", Seq: 9, Error: "kernel exploded"}

		data, err := EncodeResult(res)
		require.NoError(t, err)

		decoded, err := DecodeResult(data)
		require.NoError(t, err)
		require.Equal(t, "kernel exploded", decoded.Error)
		require.Empty(t, decoded.Output)
	})
}

func TestDecodeTask_Malformed(t *testing.T) {
	_, err := DecodeTask([]byte{0xc1, 0xff, 0x00})
	require.Error(t, err)
}

func TestIsTerminate(t *testing.T) {
	require.True(t, IsTerminate([]byte{TerminateOpcode}))

	// Anything longer, shorter or different is not a termination frame.
	require.False(t, IsTerminate(nil))
	require.False(t, IsTerminate([]byte{}))
	require.False(t, IsTerminate([]byte{0x01}))
	require.False(t, IsTerminate([]byte{TerminateOpcode, TerminateOpcode}))
}

func TestSubjects(t *testing.T) {
	require.Equal(t, "morsel.rank.3.task", rankTaskSubject("morsel", 3))
	require.Equal(t, "morsel.rank.3.ctl", rankControlSubject("morsel", 3))
	require.Equal(t, "morsel.rank.0.result", resultSubject("morsel"))
	require.Equal(t, "rank-3", rankLabel(3))
	require.Equal(t, "svc.worker-a.ctl", addressControlSubject("svc.worker-a"))
}
