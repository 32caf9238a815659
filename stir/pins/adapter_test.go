package pins_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sws-lab/stir"
	"github.com/sws-lab/stir/pins"
)

func e2Model() *stir.Model {
	return &stir.Model{
		Slots: []stir.Slot{
			{SlotID: 0, Type: stir.SlotNode, InitValue: 0},
			{SlotID: 1, Type: stir.SlotBool, InitValue: 0},
		},
		Transitions: []stir.Transition{{
			TransitionID: 0, ComponentSlotID: 0, SrcNode: 0, DstNode: 1,
			Guards:       []stir.Guard{{Kind: stir.GuardBool, SlotID: 1, Value: 1}},
			Instructions: []stir.Instruction{{Kind: stir.InstrSetBool, SlotID: 1, Value: 0}},
		}},
	}
}

func TestBuildStateSignature(t *testing.T) {
	sig := pins.BuildStateSignature(e2Model())
	assert.Equal(t, 2, sig.Length)
	assert.Equal(t, []string{"slot0", "slot1"}, sig.Names)
	assert.Equal(t, []pins.TypeDomain{pins.TypeNode, pins.TypeBool}, sig.Types)
}

func TestNewAdapter_EmitsInitialStateOnce(t *testing.T) {
	// Before any successor is computed, the initial state is itself
	// appended to the dump exactly once.
	var buf bytes.Buffer
	m := e2Model()
	dw := pins.NewDumpWriter(&buf, m.NumSlots())

	_, err := pins.NewAdapter(m, dw)
	require.NoError(t, err)
	assert.Equal(t, 1, dw.Count())
}

func TestAdapter_NextState_DisabledReturnsZero(t *testing.T) {
	var buf bytes.Buffer
	m := e2Model()
	dw := pins.NewDumpWriter(&buf, m.NumSlots())
	a, err := pins.NewAdapter(m, dw)
	require.NoError(t, err)

	var emitted [][]int
	rc, err := a.NextState(0, []int{0, 0}, func(dst []int) { emitted = append(emitted, dst) })
	require.NoError(t, err)
	assert.Equal(t, 0, rc)
	assert.Empty(t, emitted)
	assert.Equal(t, 1, dw.Count(), "a disabled transition must not append to the dump")
}

func TestAdapter_NextState_EnabledEmitsAndDumps(t *testing.T) {
	var buf bytes.Buffer
	m := e2Model()
	dw := pins.NewDumpWriter(&buf, m.NumSlots())
	a, err := pins.NewAdapter(m, dw)
	require.NoError(t, err)

	var emitted [][]int
	rc, err := a.NextState(0, []int{0, 1}, func(dst []int) { emitted = append(emitted, dst) })
	require.NoError(t, err)
	assert.Equal(t, 1, rc)
	require.Len(t, emitted, 1)
	assert.Equal(t, []int{1, 0}, emitted[0])
	assert.Equal(t, 2, dw.Count())
}

func TestAdapter_DependencyMatrixWired(t *testing.T) {
	m := e2Model()
	var buf bytes.Buffer
	a, err := pins.NewAdapter(m, pins.NewDumpWriter(&buf, m.NumSlots()))
	require.NoError(t, err)

	assert.True(t, a.DependencyMatrix.Get(0, 0))
	assert.True(t, a.DependencyMatrix.Get(0, 1))
}
