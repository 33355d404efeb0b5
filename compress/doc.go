// Package compress provides lossless wire codecs for encoded gradient
// payloads.
//
// A gradient strategy (such as random-k sparsification) already shrinks
// the tensor to a sequence of fixed-width (index, value) pairs; the
// codecs here optionally recompress that pair stream before it crosses
// the network. They are byte-level and lossless, so they never change
// the decoded tensor; they only trade CPU for bandwidth:
//
//   - None: passthrough, for latency-bound links
//   - Zstd: best ratio, pure-Go by default, cgo via the gozstd build tag
//   - S2: fastest, moderate ratio
//   - LZ4: fast block compression, low memory
//
// Pair streams over index-heavy payloads compress well because sampled
// indices of a large tensor share high bytes; expect 1.2:1 to 3:1
// depending on tensor size and k.
package compress
