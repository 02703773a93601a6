package hook

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pantyukhov/xrpld-hooks/sto"
)

func TestSlotAllocationRangeAndLIFOReuse(t *testing.T) {
	st := NewSlotTable()

	s1, rc := st.Set([]byte{1}, []byte{}, 0)
	require.Equal(t, SUCCESS, rc)
	require.Equal(t, 1, s1)
	s2, _ := st.Set([]byte{2}, []byte{}, 0)
	require.Equal(t, 2, s2)
	s3, _ := st.Set([]byte{3}, []byte{}, 0)
	require.Equal(t, 3, s3)

	// freeing and reallocating yields the freed numbers, newest first
	require.Equal(t, SUCCESS, st.Clear(1))
	require.Equal(t, SUCCESS, st.Clear(3))
	sa, _ := st.Set([]byte{4}, []byte{}, 0)
	require.Equal(t, 3, sa)
	sb, _ := st.Set([]byte{5}, []byte{}, 0)
	require.Equal(t, 1, sb)
	sc, _ := st.Set([]byte{6}, []byte{}, 0)
	require.Equal(t, 4, sc)
}

func TestSlotExhaustion(t *testing.T) {
	st := NewSlotTable()
	for i := 0; i < MaxSlots; i++ {
		slot, rc := st.Set(nil, nil, 0)
		require.Equal(t, SUCCESS, rc)
		require.GreaterOrEqual(t, slot, 1)
		require.LessOrEqual(t, slot, MaxSlots)
	}
	_, rc := st.Set(nil, nil, 0)
	require.Equal(t, NO_FREE_SLOTS, rc)
}

func TestSlotExplicitOverwrite(t *testing.T) {
	st := NewSlotTable()
	slot, rc := st.Set([]byte{1}, []byte{0xAA}, 7)
	require.Equal(t, SUCCESS, rc)
	require.Equal(t, 7, slot)

	slot, rc = st.Set([]byte{2}, []byte{0xBB}, 7)
	require.Equal(t, SUCCESS, rc)
	require.Equal(t, 7, slot)
	e, ok := st.Get(7)
	require.True(t, ok)
	require.Equal(t, []byte{0xBB}, e.View())

	_, rc = st.Set(nil, nil, 256)
	require.Equal(t, INVALID_ARGUMENT, rc)
}

func TestSlotSubfieldSharesStorage(t *testing.T) {
	st := NewSlotTable()
	seq := sto.EncodeField(sto.SfSequence, []byte{0, 0, 0, 9})
	obj := append(append([]byte{}, seq...), sto.EncodeField(sto.SfSigningPubKey, []byte{1, 2})...)

	parent, rc := st.Set([]byte("id"), obj, 0)
	require.Equal(t, SUCCESS, rc)
	child, rc := st.Subfield(parent, sto.SfSequence, 0)
	require.Equal(t, SUCCESS, rc)

	// clearing the parent does not invalidate the child
	require.Equal(t, SUCCESS, st.Clear(parent))
	e, ok := st.Get(child)
	require.True(t, ok)
	require.Equal(t, []byte{0, 0, 0, 9}, e.View())

	_, rc = st.Subfield(child, sto.SfFee, 0)
	require.Equal(t, NOT_AN_OBJECT, rc)
}

func TestSlotSubarrayAndCount(t *testing.T) {
	st := NewSlotTable()
	e0 := sto.EncodeField(sto.SfEmitDetails, sto.EncodeField(sto.SfEmitGeneration, []byte{0, 0, 0, 1}))
	e1 := sto.EncodeField(sto.SfEmitDetails, sto.EncodeField(sto.SfEmitGeneration, []byte{0, 0, 0, 2}))
	arr := append(append([]byte{}, e0...), e1...)

	parent, _ := st.Set(nil, arr, 0)
	require.Equal(t, int64(2), st.Count(parent))

	child, rc := st.Subarray(parent, 1, 0)
	require.Equal(t, SUCCESS, rc)
	g, ok := st.Get(child)
	require.True(t, ok)
	off, l, err := sto.Subfield(g.View(), sto.SfEmitGeneration)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 2}, g.View()[off:off+l])

	_, rc = st.Subarray(parent, 5, 0)
	require.Equal(t, DOESNT_EXIST, rc)

	scalar, _ := st.Set(nil, sto.EncodeField(sto.SfSequence, []byte{0, 0, 0, 1}), 0)
	require.Equal(t, NOT_AN_ARRAY, st.Count(scalar))
}

func TestGuardMeter(t *testing.T) {
	g := NewGuardMeter()
	// _g(id, n) permits exactly n iterations and fails the n+1-th
	for i := 0; i < 3; i++ {
		require.True(t, g.Check(1, 3), "iteration %d", i)
	}
	require.False(t, g.Check(1, 3))

	// independent guard ids meter independently
	require.True(t, g.Check(2, 1))
	require.False(t, g.Check(2, 1))
}
