package stir

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrParse wraps every fatal parse failure: a malformed directive, an
// unknown instruction prefix, or an integer conversion failure.
var ErrParse = errors.New("stir: parse error")

// lineReader turns the STIR text buffer into a sequence of lines, tracking
// a 1-based line number for diagnostics. It plays the role the original
// loader's `const char **content` cursor played: a single forward-only
// position into the buffer.
type lineReader struct {
	r    *bufio.Reader
	line int
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// next returns the next line with its trailing newline stripped. io.EOF is
// returned verbatim so callers can distinguish "no more input" from a
// genuine parse error.
func (lr *lineReader) next() (string, error) {
	s, err := lr.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if s == "" && err == io.EOF {
		return "", io.EOF
	}
	lr.line++
	return strings.TrimRight(s, "\n"), nil
}

func (lr *lineReader) fail(format string, args ...any) error {
	return errors.Wrapf(ErrParse, "line %d: "+format, append([]any{lr.line}, args...)...)
}

// Parse converts a STIR text buffer into a fully-populated Model, per the
// STIR grammar. It reads the state block and the declared number of
// transitions (stopping at the first parse failure); any input after the
// last transition is ignored. It never partially releases a Model: on
// error, the returned Model is nil.
func Parse(r io.Reader) (*Model, error) {
	lr := newLineReader(r)

	slots, err := parseState(lr)
	if err != nil {
		return nil, err
	}

	transitions, err := parseTransitions(lr)
	if err != nil {
		return nil, err
	}

	m := &Model{Slots: slots, Transitions: transitions}
	if err := validateIntegrity(m); err != nil {
		return nil, err
	}
	return m, nil
}

// MustParse parses r and terminates the process on any failure, matching
// the original loader's "errors are fatal" discipline for callers (the
// adapter, the exporter CLI) that have no recovery path of their own.
func MustParse(r io.Reader) *Model {
	m, err := Parse(r)
	if err != nil {
		Fatal(err, "failed to parse stir model")
	}
	return m
}

func parseState(lr *lineReader) ([]Slot, error) {
	header, err := lr.next()
	if err != nil {
		return nil, lr.fail("failed to parse stir model state: %v", err)
	}
	n, ok := scanHeader(header, "state", 1)
	if !ok {
		return nil, lr.fail("failed to parse stir model state")
	}
	numSlots, err := strconv.Atoi(n[0])
	if err != nil {
		return nil, lr.fail("failed to parse stir model state: %v", err)
	}

	slots := make([]Slot, numSlots)
	for i := 0; i < numSlots; i++ {
		slot, err := parseSlot(lr)
		if err != nil {
			return nil, err
		}
		slots[i] = slot
	}
	return slots, nil
}

func parseSlot(lr *lineReader) (Slot, error) {
	line, err := lr.next()
	if err != nil {
		return Slot{}, lr.fail("failed to parse stir model slot: %v", err)
	}
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "slot" {
		return Slot{}, lr.fail("failed to parse stir model slot")
	}
	slotID, err := strconv.Atoi(fields[1])
	if err != nil {
		return Slot{}, lr.fail("failed to parse stir model slot id: %v", err)
	}

	// The parser attempts `bool %d` first, then `node %d`; if neither
	// matches, the slot is rejected.
	switch fields[2] {
	case "bool":
		if len(fields) < 4 {
			return Slot{}, lr.fail("failed to parse stir model slot")
		}
		v, err := strconv.Atoi(fields[3])
		if err != nil {
			return Slot{}, lr.fail("failed to parse stir model slot: %v", err)
		}
		return Slot{SlotID: slotID, Type: SlotBool, InitValue: v}, nil
	case "node":
		if len(fields) < 4 {
			return Slot{}, lr.fail("failed to parse stir model slot")
		}
		v, err := strconv.Atoi(fields[3])
		if err != nil {
			return Slot{}, lr.fail("failed to parse stir model slot: %v", err)
		}
		return Slot{SlotID: slotID, Type: SlotNode, InitValue: v}, nil
	default:
		return Slot{}, lr.fail("failed to parse stir model slot")
	}
}

func parseTransitions(lr *lineReader) ([]Transition, error) {
	header, err := lr.next()
	if err != nil {
		return nil, lr.fail("failed to parse stir model transitions: %v", err)
	}
	n, ok := scanHeader(header, "transitions", 1)
	if !ok {
		return nil, lr.fail("failed to parse stir model transitions")
	}
	numTransitions, err := strconv.Atoi(n[0])
	if err != nil {
		return nil, lr.fail("failed to parse stir model transitions: %v", err)
	}

	transitions := make([]Transition, numTransitions)
	for i := 0; i < numTransitions; i++ {
		t, err := parseTransition(lr)
		if err != nil {
			return nil, err
		}
		transitions[i] = t
	}
	return transitions, nil
}

// transitionHeaderFields is the ordered field count expected after the
// "transition" keyword: transition_id, component, src, dst, guards,
// invert_guard, instructions.
const transitionHeaderFields = 7

func parseTransition(lr *lineReader) (Transition, error) {
	line, err := lr.next()
	if err != nil {
		return Transition{}, lr.fail("failed to parse stir model transition: %v", err)
	}
	fields := strings.Fields(line)
	vals, err := scanTransitionHeader(fields)
	if err != nil {
		return Transition{}, lr.fail("failed to parse stir model transition: %v", err)
	}

	t := Transition{
		TransitionID:    vals[0],
		ComponentSlotID: vals[1],
		SrcNode:         vals[2],
		DstNode:         vals[3],
		InvertGuard:     vals[5] != 0,
	}
	numGuards := vals[4]
	numInstr := vals[6]

	t.Guards = make([]Guard, numGuards)
	for j := 0; j < numGuards; j++ {
		g, err := parseGuard(lr)
		if err != nil {
			return Transition{}, err
		}
		t.Guards[j] = g
	}

	t.Instructions = make([]Instruction, numInstr)
	for j := 0; j < numInstr; j++ {
		instr, err := parseInstruction(lr)
		if err != nil {
			return Transition{}, err
		}
		t.Instructions[j] = instr
	}

	return t, nil
}

func parseGuard(lr *lineReader) (Guard, error) {
	line, err := lr.next()
	if err != nil {
		return Guard{}, lr.fail("failed to parse stir model transition guard: %v", err)
	}
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != "bool_guard" {
		return Guard{}, lr.fail("failed to parse stir model transition guard")
	}
	slotID, err1 := strconv.Atoi(fields[1])
	value, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil {
		return Guard{}, lr.fail("failed to parse stir model transition guard")
	}
	// Only bool_guard is recognized by the grammar, so every guard
	// parsed receives Kind = GuardBool.
	return Guard{Kind: GuardBool, SlotID: slotID, Value: value}, nil
}

const doInstrPrefix = "do_instr"

func parseInstruction(lr *lineReader) (Instruction, error) {
	line, err := lr.next()
	if err != nil {
		return Instruction{}, lr.fail("failed to parse stir transition instruction: %v", err)
	}
	if strings.HasPrefix(line, doInstrPrefix) {
		return Instruction{Kind: InstrDo, DoText: line}, nil
	}

	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != "set_bool_instr" {
		return Instruction{}, lr.fail("failed to parse stir transition instruction")
	}
	slotID, err1 := strconv.Atoi(fields[1])
	value, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil {
		return Instruction{}, lr.fail("failed to parse stir transition instruction")
	}
	return Instruction{Kind: InstrSetBool, SlotID: slotID, Value: value}, nil
}

// scanHeader checks that line begins with keyword followed by exactly
// numArgs whitespace-delimited fields, returning those fields.
func scanHeader(line, keyword string, numArgs int) ([]string, bool) {
	fields := strings.Fields(line)
	if len(fields) != numArgs+1 || fields[0] != keyword {
		return nil, false
	}
	return fields[1:], true
}

// scanTransitionHeader parses the "transition %d component %d src %d dst %d
// guards %d %d instructions %d" line into its seven integer fields.
func scanTransitionHeader(fields []string) ([transitionHeaderFields]int, error) {
	var out [transitionHeaderFields]int
	if len(fields) != 13 {
		return out, errors.New("wrong field count")
	}
	expectedKeywords := map[int]string{0: "transition", 2: "component", 4: "src", 6: "dst", 8: "guards", 11: "instructions"}
	for idx, kw := range expectedKeywords {
		if fields[idx] != kw {
			return out, errors.Errorf("expected %q at field %d", kw, idx)
		}
	}
	valueIdx := []int{1, 3, 5, 7, 9, 10, 12}
	for i, idx := range valueIdx {
		v, err := strconv.Atoi(fields[idx])
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

// validateIntegrity rejects models where a transition's component slot,
// guard slot, or SET_BOOL instruction slot lies outside the declared
// state. The declared type of the referenced slot is not checked. The
// original loader accepts out-of-range ids silently; this implementation
// detects and rejects them.
func validateIntegrity(m *Model) error {
	maxSlot := len(m.Slots)
	inRange := func(id int) bool { return id >= 0 && id < maxSlot }

	for _, t := range m.Transitions {
		if !inRange(t.ComponentSlotID) {
			return errors.Wrapf(ErrIntegrity, "transition %d: component slot %d", t.TransitionID, t.ComponentSlotID)
		}
		for _, g := range t.Guards {
			if !inRange(g.SlotID) {
				return errors.Wrapf(ErrIntegrity, "transition %d: guard slot %d", t.TransitionID, g.SlotID)
			}
		}
		for _, in := range t.Instructions {
			if in.Kind == InstrSetBool && !inRange(in.SlotID) {
				return errors.Wrapf(ErrIntegrity, "transition %d: instruction slot %d", t.TransitionID, in.SlotID)
			}
		}
	}
	return nil
}
