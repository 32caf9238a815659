// Package eval implements the transition evaluator and the dependency-matrix
// builder over a parsed *stir.Model.
//
// Next is a pure function of its inputs: it allocates its own destination
// vector and never mutates the source vector it is given, so it may be
// called concurrently by multiple callers sharing the same Model. There are
// no locks in the evaluator.
package eval

import "github.com/sws-lab/stir"

// Enabled reports whether transition t of model is enabled at state src:
// the component slot must already hold t's SrcNode, and every guard must
// hold under t's InvertGuard polarity (guards conjoin; InvertGuard flips
// all of them uniformly).
func Enabled(model *stir.Model, src []int, transitionIndex int) bool {
	t := &model.Transitions[transitionIndex]
	if src[t.ComponentSlotID] != t.SrcNode {
		return false
	}
	for _, g := range t.Guards {
		match := src[g.SlotID] == g.Value
		if !t.InvertGuard && !match {
			return false
		}
		if t.InvertGuard && match {
			return false
		}
	}
	return true
}

// Next evaluates transition t of model against src. If t is disabled, it
// returns (nil, false). If enabled, it returns a freshly allocated
// successor vector and true; src is never modified.
//
// Firing order: the component slot is written first, then each instruction
// runs in declaration order, so an instruction targeting the same slot as
// the component write wins (last writer wins, overall).
func Next(model *stir.Model, src []int, transitionIndex int) ([]int, bool) {
	return NextInto(model, src, transitionIndex, nil)
}

// NextInto is Next, but writes the successor state into dst when dst is
// non-nil and large enough, avoiding an allocation on the hot path. This is
// the shape a worker pool should use: allocate dst once per worker and
// reuse it across calls as thread-local scratch.
func NextInto(model *stir.Model, src []int, transitionIndex int, dst []int) ([]int, bool) {
	if !Enabled(model, src, transitionIndex) {
		return nil, false
	}

	if dst == nil || len(dst) < len(src) {
		dst = make([]int, len(src))
	}
	copy(dst, src)

	t := &model.Transitions[transitionIndex]
	dst[t.ComponentSlotID] = t.DstNode
	for _, instr := range t.Instructions {
		switch instr.Kind {
		case stir.InstrSetBool:
			dst[instr.SlotID] = instr.Value
		case stir.InstrDo:
			// Opaque placeholder; contributes no state change.
		}
	}
	return dst, true
}
