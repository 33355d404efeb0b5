package compressor

import (
	"fmt"

	"github.com/arloliu/gradwire/format"
	"github.com/arloliu/gradwire/reducer"
)

// Compressor packs gradient tensors into smaller wire representations
// and reconstructs them. Implementations keep strategy-internal
// bookkeeping (such as the aggregator's replay index set) but are
// otherwise pure with respect to external state.
type Compressor interface {
	// Init sizes the instance's scratch buffer to hold at least
	// alignedSize bytes. Repeated calls with an already-satisfied size
	// are no-ops; growth reallocates. Init is not safe to call
	// concurrently with Compress or Decompress on the same instance.
	//
	// Only device 0 (host memory) is supported; other devices are a
	// construction-time error because accelerator buffers and streams
	// are managed by the outer engine.
	Init(alignedSize, device int) error

	// Compress reads grad interpreted per dtype and writes the encoded
	// representation into compressed. The output view may alias the
	// instance's scratch buffer; its size is strategy-defined and
	// generally smaller than the input.
	Compress(grad ByteBuf, dtype format.DataType, compressed *ByteBuf) error

	// Decompress is the inverse of Compress. The output view must hold
	// the full tensor; decompressed.Data may alias compressed.Data
	// (in-place decoding), in which case the payload is staged through
	// the scratch buffer before the output is overwritten.
	Decompress(compressed ByteBuf, dtype format.DataType, decompressed *ByteBuf) error
}

// GradientUpdater is implemented by decorators that bracket Compress
// with residual bookkeeping, in the call sequence
// UpdateGradient -> Compress -> (transport) -> UpdateError.
type GradientUpdater interface {
	// UpdateGradient blends the accumulated residual into a fresh
	// gradient in place; the result is what gets compressed.
	UpdateGradient(grad ByteBuf, dtype format.DataType) error

	// UpdateError refreshes the residual after compression: corrected
	// is the tensor that was compressed, compressed its encoding.
	UpdateError(corrected ByteBuf, dtype format.DataType, compressed ByteBuf) error
}

// FastUpdater is implemented by strategies that preserve selected
// coordinates exactly, allowing the residual refresh to skip the full
// decompression. Quantizing strategies must not implement it.
type FastUpdater interface {
	// FastUpdateError writes the new residual into errBuf: corrected
	// copied wholesale, then zeroed at every coordinate present in
	// compressed.
	FastUpdateError(errBuf, corrected, compressed ByteBuf, dtype format.DataType)
}

// base carries the state every strategy owns: the scratch buffer and
// the CPU reduction helper. Strategies embed it and inherit Init.
type base struct {
	buf     []byte
	size    int
	device  int
	reducer reducer.Reducer
}

func newBase() base {
	r, err := reducer.NewCPU()
	if err != nil {
		// NewCPU without options cannot fail.
		panic(err)
	}

	return base{reducer: r}
}

// Init allocates or grows the scratch buffer. See Compressor.Init.
func (b *base) Init(alignedSize, device int) error {
	if alignedSize <= 0 {
		return fmt.Errorf("init: aligned size must be positive, got %d", alignedSize)
	}
	if device != 0 {
		return fmt.Errorf("init: device %d not supported, only host memory (device 0)", device)
	}

	b.device = device
	b.size = alignedSize
	if cap(b.buf) < alignedSize {
		b.buf = make([]byte, alignedSize)
	} else {
		b.buf = b.buf[:alignedSize]
	}

	return nil
}

// scratch returns the scratch buffer, panicking if Init was skipped;
// an uninitialized instance on the hot path is an engine bug.
func (b *base) scratch() []byte {
	if b.size == 0 {
		panic("compressor used before Init")
	}

	return b.buf
}
