// Package compressor implements the pluggable gradient-compression
// engine used by the distributed tensor-synchronization pipeline.
//
// A Compressor packs a gradient tensor into a smaller wire
// representation before it crosses the network and reconstructs it on
// the receiving side. Strategies register themselves by name at init
// time and are built from a string key/value configuration bag, so the
// outer engine can ship a compressor choice across process boundaries:
//
//	kwargs := compressor.Kwargs{
//	    compressor.KeyCompressorType: "randomk",
//	    compressor.KeyCompressorK:    "0.01",
//	    compressor.KeySeed:           "42",
//	}
//	c, err := compressor.Create(kwargs, tensorBytes, format.Float32)
//
// The package ships one lossy strategy, random-k sparsification
// (RandomkCompressor), an error-feedback decorator that folds the
// compression residual back into later iterations, and a lossless
// wire-codec decorator selected by the wire_codec key.
//
// # Ownership and concurrency
//
// One Compressor instance serves one tensor slot. Instances are not
// safe for concurrent calls; the owning engine issues at most one
// operation at a time per instance. Distinct instances share no state
// and run fully in parallel.
//
// # Failure policy
//
// Configuration problems (unknown names, missing or invalid
// hyperparameters) are construction-time errors. Precondition
// violations on the hot path, such as k exceeding half the element
// count or an undersized buffer, are caller bugs and panic with a
// descriptive message.
package compressor
