package stir

import (
	"bytes"
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// MappedFile is a read-only memory-mapped view of a file, the delivery
// mechanism for STIR text: memory-mapped read-only or streamed. Grounded
// the same way kho/fslm's MappedFile maps a model file with
// syscall.Mmap/Munmap.
type MappedFile struct {
	file *os.File
	data []byte
}

// OpenMappedFile mmaps path read-only. The caller must Close the result
// when done; the underlying bytes must not be retained past that call.
func OpenMappedFile(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if stat.Size() == 0 {
		f.Close()
		return nil, errors.Errorf("%s: empty file", path)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(stat.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "mmap %s", path)
	}

	return &MappedFile{file: f, data: data}, nil
}

// Bytes returns the mapped content. Valid only until Close.
func (m *MappedFile) Bytes() []byte {
	return m.data
}

// Close unmaps the file and closes the underlying descriptor.
func (m *MappedFile) Close() error {
	err1 := syscall.Munmap(m.data)
	err2 := m.file.Close()
	if err1 != nil {
		return errors.Wrap(err1, "munmap")
	}
	if err2 != nil {
		return errors.Wrap(err2, "close")
	}
	return nil
}

// OpenModelFile mmaps and parses the STIR text file at path, matching the
// original loader's open_stir_model_text + load_stir_model pairing. The
// mapping is closed before returning since Parse copies every scalar out
// of the buffer and retains no reference to it.
func OpenModelFile(path string) (*Model, error) {
	mf, err := OpenMappedFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open stir model %s", path)
	}
	defer mf.Close()

	m, err := Parse(bytes.NewReader(mf.Bytes()))
	if err != nil {
		return nil, errors.Wrapf(err, "parse stir model %s", path)
	}
	return m, nil
}

// MustOpenModelFile is OpenModelFile, but fatal on any failure, the
// discipline required of resource and parse errors in the core.
func MustOpenModelFile(path string) *Model {
	m, err := OpenModelFile(path)
	if err != nil {
		Fatal(err, "failed to open stir model")
	}
	return m
}
