// Package export reads the binary state dump produced by package pins and
// projects it onto the co-occurrence relation: for every pair of distinct
// NODE slots, the set of (value1, value2) pairs that co-occurred in at
// least one reachable global state.
package export

import (
	"encoding/binary"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sws-lab/stir"
)

// intSize is the width in bytes of one int in the dump; a record is
// NumSlots() of them (see package pins's intSize).
const intSize = 8

// ReadStates reads every fixed-width state-vector record from r, each
// numSlots native-endian ints wide, with no header and no framing. Record
// order carries no meaning: the dump is a multiset of reachable states.
func ReadStates(r io.Reader, numSlots int) ([][]int, error) {
	recordSize := numSlots * intSize
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "export: read state dump")
	}
	if len(buf)%recordSize != 0 {
		return nil, errors.Errorf("export: dump length %d is not a multiple of record size %d", len(buf), recordSize)
	}

	numStates := len(buf) / recordSize
	states := make([][]int, numStates)
	for i := 0; i < numStates; i++ {
		rec := buf[i*recordSize : (i+1)*recordSize]
		state := make([]int, numSlots)
		for s := 0; s < numSlots; s++ {
			state[s] = int(int64(binary.NativeEndian.Uint64(rec[s*intSize:])))
		}
		states[i] = state
	}
	return states, nil
}

// cube is the boolean K×V×K×V co-occurrence table, flattened the same
// row-major way package eval's DependencyMatrix is, since both are small,
// densely-populated boolean matrices.
type cube struct {
	k, v int
	bits []bool
}

func newCube(k, v int) *cube {
	return &cube{k: k, v: v, bits: make([]bool, k*v*k*v)}
}

func (c *cube) index(i, vi, j, vj int) int {
	return ((i*c.v+vi)*c.k+j)*c.v + vj
}

func (c *cube) set(i, vi, j, vj int) {
	c.bits[c.index(i, vi, j, vj)] = true
}

func (c *cube) get(i, vi, j, vj int) bool {
	return c.bits[c.index(i, vi, j, vj)]
}

// Pair is one row of the co-occurrence projection: slot1 held value1 and
// slot2 held value2 in some reachable global state, simultaneously.
type Pair struct {
	Slot1, Value1 int
	Slot2, Value2 int
}

// Project computes the co-occurrence projection of states over model's NODE
// slots. The known source irregularity in the emission bound (exclusive
// `< max_node_value`, dropping the largest node value) is preserved here;
// see DESIGN.md for why this bug is kept rather than silently corrected.
func Project(model *stir.Model, states [][]int) []Pair {
	nodeSlots := model.NodeSlots()
	k := len(nodeSlots)
	v := model.MaxNodeValue()

	c := newCube(k, v)
	for _, s := range states {
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				if i == j {
					continue
				}
				vi := s[nodeSlots[i].SlotID]
				vj := s[nodeSlots[j].SlotID]
				c.set(i, vi, j, vj)
			}
		}
	}

	var pairs []Pair
	for i := 0; i < k; i++ {
		for vi := 0; vi < v-1; vi++ { // exclusive bound: drops the largest node value, preserved from the original
			for j := 0; j < k; j++ {
				for vj := 0; vj < v-1; vj++ {
					if c.get(i, vi, j, vj) {
						pairs = append(pairs, Pair{
							Slot1: nodeSlots[i].SlotID, Value1: vi,
							Slot2: nodeSlots[j].SlotID, Value2: vj,
						})
					}
				}
			}
		}
	}
	return pairs
}

// WriteCSV emits pairs as CSV with header "slot1,value1,slot2,value2", LF
// line terminators, integers printed without padding.
func WriteCSV(w io.Writer, pairs []Pair) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"slot1", "value1", "slot2", "value2"}); err != nil {
		return errors.Wrap(err, "export: write csv header")
	}
	for _, p := range pairs {
		row := []string{
			strconv.Itoa(p.Slot1), strconv.Itoa(p.Value1),
			strconv.Itoa(p.Slot2), strconv.Itoa(p.Value2),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return cw.Error()
}

// Run reads the state dump from dump for model and writes the CSV
// projection to w, tying ReadStates, Project and WriteCSV together for the
// exporter CLI.
func Run(model *stir.Model, dump io.Reader, w io.Writer) error {
	states, err := ReadStates(dump, model.NumSlots())
	if err != nil {
		return err
	}
	pairs := Project(model, states)
	return WriteCSV(w, pairs)
}
