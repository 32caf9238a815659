package eval

import "github.com/sws-lab/stir"

// DependencyMatrix is a transition × slot boolean matrix: Get(t, s) reports
// whether transition t's firing semantics touch slot s, read or write. It
// is stored as one flat, row-major []bool addressed by a computed t*cols+s
// index, rather than a slice-of-slices, since M and N are both small enough
// that a dense matrix (one bool per entry) is appropriate.
type DependencyMatrix struct {
	rows, cols int
	bits       []bool
}

// NewDependencyMatrix allocates a zeroed numTransitions × numSlots matrix.
func NewDependencyMatrix(numTransitions, numSlots int) *DependencyMatrix {
	return &DependencyMatrix{
		rows: numTransitions,
		cols: numSlots,
		bits: make([]bool, numTransitions*numSlots),
	}
}

func (d *DependencyMatrix) index(t, s int) int {
	return t*d.cols + s
}

// Set marks transition t as touching slot s.
func (d *DependencyMatrix) Set(t, s int) {
	d.bits[d.index(t, s)] = true
}

// Get reports whether transition t touches slot s.
func (d *DependencyMatrix) Get(t, s int) bool {
	return d.bits[d.index(t, s)]
}

// Rows returns the number of transitions (matrix rows).
func (d *DependencyMatrix) Rows() int { return d.rows }

// Cols returns the number of slots (matrix columns).
func (d *DependencyMatrix) Cols() int { return d.cols }

// Row reports, for transition t, which slots it touches, in slot-id order.
func (d *DependencyMatrix) Row(t int) []int {
	var out []int
	for s := 0; s < d.cols; s++ {
		if d.Get(t, s) {
			out = append(out, s)
		}
	}
	return out
}

// BuildDependencyMatrix computes the dependency matrix for model:
//   - D[t, component_slot_id] = 1 (read as src-node test, written on fire)
//   - D[t, slot_id] = 1 for every guard slot
//   - D[t, slot_id] = 1 for every SET_BOOL instruction's slot
//   - DO instructions contribute nothing
func BuildDependencyMatrix(model *stir.Model) *DependencyMatrix {
	d := NewDependencyMatrix(model.NumTransitions(), model.NumSlots())
	for _, t := range model.Transitions {
		d.Set(t.TransitionID, t.ComponentSlotID)
		for _, g := range t.Guards {
			d.Set(t.TransitionID, g.SlotID)
		}
		for _, instr := range t.Instructions {
			if instr.Kind == stir.InstrSetBool {
				d.Set(t.TransitionID, instr.SlotID)
			}
		}
	}
	return d
}
