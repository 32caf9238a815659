// Package pins exposes a parsed *stir.Model to an external partitioned
// state-space exploration engine. The naming mirrors the PINS ("Partitioned
// Interface for the next-State function") interface the original loader
// plugged into; this package is the Go-side stand-in for that coupling,
// since the engine itself is an out-of-scope external collaborator.
package pins

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// DumpWriter appends visited global states to a binary dump, one fixed-
// width record per state: exactly N machine-word signed integers in native
// byte order, no header and no framing.
//
// Writes are serialized with a mutex so records from concurrent callers are
// never interleaved: the dump is a shared sink across workers, and writes
// must be serialized so records are not interleaved. Record order across
// workers is not preserved, and none is promised, since the exporter
// treats the dump as a multiset.
type DumpWriter struct {
	mu     sync.Mutex
	w      io.Writer
	n      int // slots per state, i.e. the record width
	closer io.Closer
	count  int
}

// NewDumpWriter wraps w (width n ints per record) with the serialization
// DumpWriter provides. w is not closed by DumpWriter.Close unless it also
// implements io.Closer.
func NewDumpWriter(w io.Writer, n int) *DumpWriter {
	dw := &DumpWriter{w: w, n: n}
	if c, ok := w.(io.Closer); ok {
		dw.closer = c
	}
	return dw
}

// Emit appends state (len(state) must equal the configured record width) to
// the dump as native machine-word ints, native byte order.
func (d *DumpWriter) Emit(state []int) error {
	if len(state) != d.n {
		return errors.Errorf("pins: expected state of length %d, got %d", d.n, len(state))
	}

	buf := make([]byte, d.n*intSize)
	for i, v := range state {
		putInt(buf[i*intSize:], v)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.w.Write(buf); err != nil {
		return errors.Wrap(err, "pins: write state dump record")
	}
	d.count++
	return nil
}

// Count returns the number of records emitted so far.
func (d *DumpWriter) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Close flushes and releases the underlying sink. This is the action tied
// to the external engine's teardown callback.
func (d *DumpWriter) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if f, ok := d.w.(interface{ Sync() error }); ok {
		_ = f.Sync()
	}
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}

// intSize is the native machine-word int width this dump format is written
// in; on every platform this toolchain targets that is 8 bytes, matching a
// native C `int` widened to pointer width as the original exporter
// computed it via sizeof(int) on the build's own ABI. Record width in bytes
// is therefore NumSlots() * intSize.
const intSize = 8

func putInt(b []byte, v int) {
	binary.NativeEndian.PutUint64(b, uint64(int64(v)))
}
