package pins

import (
	"github.com/sws-lab/stir"
	"github.com/sws-lab/stir/eval"
)

// TypeDomain names the two state-vector type domains the adapter declares.
type TypeDomain string

const (
	TypeNode TypeDomain = "node"
	TypeBool TypeDomain = "bool"
)

// StateSignature is the per-position metadata the external engine needs to
// make sense of a raw state vector: its length, each position's name, and
// which of the two type domains it belongs to.
type StateSignature struct {
	Length int
	Names  []string
	Types  []TypeDomain
}

// BuildStateSignature derives a StateSignature from model: state vector
// length = N, names "slot<slot_id>", and per-position type assigned from
// each slot's declared type (SlotInt has no adapter-facing domain in this
// surface; the grammar never produces one).
func BuildStateSignature(model *stir.Model) StateSignature {
	sig := StateSignature{
		Length: model.NumSlots(),
		Names:  make([]string, model.NumSlots()),
		Types:  make([]TypeDomain, model.NumSlots()),
	}
	for _, s := range model.Slots {
		sig.Names[s.SlotID] = stir.SlotName(s.SlotID)
		switch s.Type {
		case stir.SlotNode:
			sig.Types[s.SlotID] = TypeNode
		case stir.SlotBool:
			sig.Types[s.SlotID] = TypeBool
		}
	}
	return sig
}

// EmitFunc receives one successor global state, as NextStateFunc calls it.
type EmitFunc func(dst []int)

// Adapter binds a parsed *stir.Model, its dependency matrix, and a
// DumpWriter together into the shape the engine-facing registration hooks
// need: state signature, initial state, dependency matrix, a per-group
// successor function, and a teardown callback.
//
// Adapter holds no mutable exploration state of its own beyond the dump
// writer. Model and DependencyMatrix are both read-only once built, so an
// Adapter is safe to share across the worker goroutines the engine drives
// NextState from.
type Adapter struct {
	Model            *stir.Model
	Signature        StateSignature
	DependencyMatrix *eval.DependencyMatrix
	Dump             *DumpWriter
}

// NewAdapter builds an Adapter for model, writing every emitted state
// (including the initial state, emitted here) to dump.
func NewAdapter(model *stir.Model, dump *DumpWriter) (*Adapter, error) {
	a := &Adapter{
		Model:            model,
		Signature:        BuildStateSignature(model),
		DependencyMatrix: eval.BuildDependencyMatrix(model),
		Dump:             dump,
	}
	if err := a.Dump.Emit(model.InitialState()); err != nil {
		return nil, err
	}
	return a, nil
}

// NextState is the per-group successor function: it invokes the evaluator
// for transition group against src, and on enabled, calls emit exactly
// once, appends the successor to the dump, and returns 1; otherwise it
// returns 0. The return convention matches the original PINS next_state
// callback (0 = no successor, 1 = one successor emitted) rather than Go's
// usual boolean, since this is the literal engine-facing contract, the
// single concrete coupling to the external exploration collaborator.
func (a *Adapter) NextState(group int, src []int, emit EmitFunc) (int, error) {
	dst, ok := eval.Next(a.Model, src, group)
	if !ok {
		return 0, nil
	}
	emit(dst)
	if err := a.Dump.Emit(dst); err != nil {
		return 0, err
	}
	return 1, nil
}

// Teardown flushes and releases the dump; the model is owned by whoever
// parsed it and is not released here.
func (a *Adapter) Teardown() error {
	return a.Dump.Close()
}
