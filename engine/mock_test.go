package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockMemoryBounds(t *testing.T) {
	m := &MockMemory{data: make([]byte, 64)}
	require.True(t, m.WriteAt(0, []byte{1, 2, 3}))
	data, ok := m.ReadAt(0, 3)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, data)

	require.False(t, m.WriteAt(63, []byte{1, 2}))
	_, ok = m.ReadAt(64, 1)
	require.False(t, ok)

	// offsets near the top must not wrap
	_, ok = m.ReadAt(^uint32(0), 2)
	require.False(t, ok)
}

func TestMockHaltUnwindsAsErrHalted(t *testing.T) {
	eng := &Mock{
		Program: func(m *MockInstance, entry string, arg int32) int32 {
			m.Call("stop")
			t.Fatal("unreachable")
			return 0
		},
	}
	inst, err := eng.Instantiate([]byte("code"), ImportTable{
		"stop": {NumArgs: 0, Fn: func(args []int64) int64 {
			Halt()
			return 0
		}},
	})
	require.NoError(t, err)
	_, err = inst.Invoke("hook", 0)
	require.ErrorIs(t, err, ErrHalted)
}

func TestMockImportDispatch(t *testing.T) {
	var got []int64
	eng := &Mock{
		Program: func(m *MockInstance, entry string, arg int32) int32 {
			return int32(m.Call("add", 2, 3))
		},
		Instructions: 11,
	}
	inst, err := eng.Instantiate([]byte("code"), ImportTable{
		"add": {NumArgs: 2, Fn: func(args []int64) int64 {
			got = append(got, args...)
			return args[0] + args[1]
		}},
	})
	require.NoError(t, err)
	ret, err := inst.Invoke("hook", 0)
	require.NoError(t, err)
	require.Equal(t, int32(5), ret)
	require.Equal(t, []int64{2, 3}, got)
	require.Equal(t, uint64(11), inst.InstructionCount())
}
