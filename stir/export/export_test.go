package export_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sws-lab/stir"
	"github.com/sws-lab/stir/export"
	"github.com/sws-lab/stir/pins"
)

// threeNodeModel has three NODE slots (ids 0,1,2), no transitions needed
// for the projection itself; MaxNodeValue is driven by dst_node 2.
func threeNodeModel() *stir.Model {
	return &stir.Model{
		Slots: []stir.Slot{
			{SlotID: 0, Type: stir.SlotNode, InitValue: 0},
			{SlotID: 1, Type: stir.SlotNode, InitValue: 0},
			{SlotID: 2, Type: stir.SlotNode, InitValue: 0},
		},
		Transitions: []stir.Transition{
			{TransitionID: 0, ComponentSlotID: 0, SrcNode: 0, DstNode: 2},
		},
	}
}

func TestProject_E5_ExclusiveBoundDropsLargestNodeValue(t *testing.T) {
	// Dump containing the single state [0,1,2] over three NODE slots,
	// max node value 2 (bound 0..2 exclusive of the top value), so only
	// values 0 and 1 ever appear as either side of a pair.
	m := threeNodeModel()
	require.Equal(t, 3, m.MaxNodeValue())

	pairs := export.Project(m, [][]int{{0, 1, 2}})
	for _, p := range pairs {
		assert.Less(t, p.Value1, 2)
		assert.Less(t, p.Value2, 2)
	}
	// Every pair touching node slot 2's observed value (2) is dropped by
	// the exclusive bound; only the (slot0=0, slot1=1) co-occurrence, whose
	// values are both below the max, survives.
	assertHasPair(t, pairs, export.Pair{Slot1: 0, Value1: 0, Slot2: 1, Value2: 1})
	assertHasPair(t, pairs, export.Pair{Slot1: 1, Value1: 1, Slot2: 0, Value2: 0})
	assert.Len(t, pairs, 2)
}

func TestProject_SkipsSameSlotPairs(t *testing.T) {
	m := threeNodeModel()
	pairs := export.Project(m, [][]int{{0, 0, 0}})
	for _, p := range pairs {
		assert.NotEqual(t, p.Slot1, p.Slot2)
	}
}

func TestProject_ObservesCoOccurringValues(t *testing.T) {
	m := threeNodeModel()
	pairs := export.Project(m, [][]int{{0, 1, 0}})
	assertHasPair(t, pairs, export.Pair{Slot1: 0, Value1: 0, Slot2: 1, Value2: 1})
	assertHasPair(t, pairs, export.Pair{Slot1: 1, Value1: 1, Slot2: 0, Value2: 0})
}

func assertHasPair(t *testing.T, pairs []export.Pair, want export.Pair) {
	t.Helper()
	for _, p := range pairs {
		if p == want {
			return
		}
	}
	t.Fatalf("expected pair %+v not found in %+v", want, pairs)
}

func TestWriteCSV_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	err := export.WriteCSV(&buf, []export.Pair{{Slot1: 0, Value1: 1, Slot2: 2, Value2: 3}})
	require.NoError(t, err)
	assert.Equal(t, "slot1,value1,slot2,value2\n0,1,2,3\n", buf.String())
}

func TestRun_Idempotent(t *testing.T) {
	// Running the exporter twice on the same dump must yield identical
	// CSV output.
	m := threeNodeModel()

	var dumpBuf bytes.Buffer
	dw := pins.NewDumpWriter(&dumpBuf, m.NumSlots())
	require.NoError(t, dw.Emit([]int{0, 1, 0}))
	require.NoError(t, dw.Emit([]int{1, 0, 1}))

	var out1, out2 bytes.Buffer
	require.NoError(t, export.Run(m, bytes.NewReader(dumpBuf.Bytes()), &out1))
	require.NoError(t, export.Run(m, bytes.NewReader(dumpBuf.Bytes()), &out2))
	assert.Equal(t, out1.String(), out2.String())
}

func TestReadStates_RejectsTruncatedDump(t *testing.T) {
	_, err := export.ReadStates(bytes.NewReader([]byte{1, 2, 3}), 3)
	assert.Error(t, err)
}
