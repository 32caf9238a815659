package pins_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sws-lab/stir/pins"
)

func TestDumpWriter_Shape(t *testing.T) {
	// After K distinct emissions, the dump file length must equal
	// K * N * sizeof(int).
	var buf bytes.Buffer
	dw := pins.NewDumpWriter(&buf, 3)

	for i := 0; i < 4; i++ {
		require.NoError(t, dw.Emit([]int{i, i + 1, i + 2}))
	}

	assert.Equal(t, 4, dw.Count())
	assert.Equal(t, 4*3*8, buf.Len())
}

func TestDumpWriter_RejectsWrongWidth(t *testing.T) {
	var buf bytes.Buffer
	dw := pins.NewDumpWriter(&buf, 2)
	err := dw.Emit([]int{1, 2, 3})
	assert.Error(t, err)
}

func TestDumpWriter_ConcurrentEmitDoesNotInterleave(t *testing.T) {
	// Spec.md §5: "implementations must serialize writes... such that
	// records are not interleaved."
	var buf bytes.Buffer
	dw := pins.NewDumpWriter(&buf, 2)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = dw.Emit([]int{v, i})
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 400, dw.Count())
	assert.Equal(t, 400*2*8, buf.Len())
}
