// Package gradwire provides a pluggable gradient-compression engine for
// distributed tensor synchronization.
//
// Before a gradient tensor crosses the network (worker to aggregator or
// aggregator to worker), a Compressor losslessly or lossily packs it
// into a smaller wire representation; the receiving side reconstructs
// it. Strategies are selected by name from a string configuration bag,
// so a cluster launcher can ship the choice to every process:
//
//	kwargs := compressor.Kwargs{
//	    compressor.KeyCompressorType: "randomk",
//	    compressor.KeyCompressorK:    "0.01",
//	    compressor.KeySeed:           "42",
//	}
//	c, err := gradwire.NewCompressor(kwargs, tensorBytes, format.Float32)
//	if err != nil {
//	    return err
//	}
//	if err := c.Init(tensorBytes, 0); err != nil {
//	    return err
//	}
//
//	var compressed compressor.ByteBuf
//	err = c.Compress(compressor.ByteBuf{Data: grad}, format.Float32, &compressed)
//
// # Core features
//
//   - Random-k sparsification with worker-side sampling and
//     aggregator-side index replay
//   - Error-feedback decorator that folds the compression residual into
//     later iterations
//   - Optional lossless wire codecs (Zstd, S2, LZ4) over the encoded
//     payload
//   - Name-based strategy registry with a text configuration format
//     that round-trips across process boundaries
//   - Per-tensor slot table keyed by hashed tensor names (engine
//     package)
//
// # Package structure
//
// This package provides convenience wrappers over the compressor
// package; use compressor, engine, and compress directly for
// fine-grained control.
package gradwire

import (
	"github.com/arloliu/gradwire/compressor"
	"github.com/arloliu/gradwire/format"
	"github.com/arloliu/gradwire/internal/hash"
)

// TensorID computes the stable 64-bit identifier transport payloads are
// tagged with for the given tensor name.
func TensorID(name string) uint64 {
	return hash.ID(name)
}

// NewCompressor builds a compressor from a configuration bag for a
// tensor of the given byte size and element type. The instance still
// needs Init before use.
func NewCompressor(kwargs compressor.Kwargs, size int, dtype format.DataType) (compressor.Compressor, error) {
	return compressor.Create(kwargs, size, dtype)
}

// NewCompressorFromSpec builds a compressor from the serialized
// configuration form ("<n> key1 val1 ..."), as received from a cluster
// launcher or peer process.
func NewCompressorFromSpec(spec string, size int, dtype format.DataType) (compressor.Compressor, error) {
	kwargs, err := compressor.Deserialize(spec)
	if err != nil {
		return nil, err
	}

	return compressor.Create(kwargs, size, dtype)
}
