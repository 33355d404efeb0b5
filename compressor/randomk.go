package compressor

import (
	"fmt"
	"math/rand/v2"

	"github.com/arloliu/gradwire/format"
	"github.com/arloliu/gradwire/internal/view"
)

func init() {
	Register("randomk", newRandomkFromKwargs)
}

type (
	indexType interface {
		uint32 | uint64
	}

	scalarType interface {
		float32 | float64
	}
)

// pair is the sparse wire record: a coordinate and its value, laid out
// back to back. The index width matches the scalar width, so both
// supported instantiations are free of padding and the encoded payload
// is the native slice of pairs.
type pair[I indexType, S scalarType] struct {
	idx I
	val S
}

// RandomkCompressor sparsifies a gradient to k (index, value) pairs.
//
// In worker role Compress samples k coordinates independently and
// uniformly with replacement; duplicates are possible and accepted. In
// server role Compress replays the coordinates recorded by the previous
// Decompress, so the aggregate is forwarded under the exact pattern the
// producers transmitted.
type RandomkCompressor struct {
	base
	k       int
	rng     *rand.Rand
	isScale bool
	role    format.Role

	// nonZeroIdx is the server-side replay set: populated exactly once
	// per Decompress, drained by the following Compress.
	nonZeroIdx map[uint64]struct{}
}

var _ Compressor = (*RandomkCompressor)(nil)
var _ FastUpdater = (*RandomkCompressor)(nil)

// NewRandomk creates a random-k compressor. A zero seed picks a random
// one; pass a fixed non-zero seed for reproducible sampling. isScale
// enables the len/k unbiasing scale and must be off when an outer
// error-feedback decorator corrects bias instead.
func NewRandomk(k int, seed uint64, isScale bool, role format.Role) *RandomkCompressor {
	if seed == 0 {
		seed = rand.Uint64() | 1
	}

	c := &RandomkCompressor{
		base:    newBase(),
		k:       k,
		rng:     rand.New(rand.NewPCG(seed, 0)),
		isScale: isScale,
		role:    role,
	}
	if role == format.RoleServer {
		c.nonZeroIdx = make(map[uint64]struct{}, k)
	}

	return c
}

func newRandomkFromKwargs(kwargs Kwargs, size int, dtype format.DataType) (Compressor, error) {
	factor, _, err := findFloat(kwargs, KeyCompressorK, true, func(x float64) bool { return x > 0 })
	if err != nil {
		return nil, fmt.Errorf("randomk: %w", err)
	}

	var k int
	if factor < 1 {
		k = int(factor * float64(size/dtype.Size()))
		if k == 0 {
			k = 1
		}
	} else {
		k = int(factor)
	}

	seed, _, err := findUint(kwargs, KeySeed, false, func(x uint64) bool { return x != 0 })
	if err != nil {
		return nil, fmt.Errorf("randomk: %w", err)
	}

	role := format.RoleWorker
	if raw, ok := kwargs[KeyRole]; ok {
		role, err = format.ParseRole(raw)
		if err != nil {
			return nil, fmt.Errorf("randomk: %w", err)
		}
	}

	// An outer error-feedback wrapper corrects bias; scale only when
	// none is configured.
	_, hasEF := kwargs[KeyEFType]

	return NewRandomk(k, seed, !hasEF, role), nil
}

// Compress encodes grad into k (index, value) pairs in the scratch
// buffer. Panics unless k <= len/2; sparsifying more than half the
// tensor is a misconfiguration, not a runtime condition.
func (c *RandomkCompressor) Compress(grad ByteBuf, dtype format.DataType, compressed *ByteBuf) error {
	buf := c.scratch()

	var n int
	switch dtype {
	case format.Float32:
		n = randomkCompress(c, view.Of[pair[uint32, float32]](buf), view.Of[float32](grad.Data))
	case format.Float64:
		n = randomkCompress(c, view.Of[pair[uint64, float64]](buf), view.Of[float64](grad.Data))
	default:
		return fmt.Errorf("randomk: unsupported data type: %s", dtype)
	}

	compressed.Data = buf[:n*dtype.PairSize()]

	return nil
}

func randomkCompress[I indexType, S scalarType](c *RandomkCompressor, dst []pair[I, S], src []S) int {
	if c.role == format.RoleServer {
		i := 0
		for idx := range c.nonZeroIdx {
			dst[i] = pair[I, S]{idx: I(idx), val: src[idx]}
			i++
		}
		clear(c.nonZeroIdx)

		return i
	}

	n := len(src)
	if c.k > n/2 {
		panic(fmt.Sprintf("randomk: k=%d exceeds half the element count (len=%d)", c.k, n))
	}

	if c.isScale {
		scale := S(float64(n) / float64(c.k))
		for i := 0; i < c.k; i++ {
			idx := c.rng.IntN(n)
			dst[i] = pair[I, S]{idx: I(idx), val: src[idx] * scale}
		}
	} else {
		for i := 0; i < c.k; i++ {
			idx := c.rng.IntN(n)
			dst[i] = pair[I, S]{idx: I(idx), val: src[idx]}
		}
	}

	return c.k
}

// Decompress zeroes the full-length output and scatters each pair's
// value to its coordinate. When the output aliases the payload, the
// payload is first staged through the scratch buffer so nothing is
// overwritten before it is read. In server role every scattered index
// is recorded for the next Compress.
func (c *RandomkCompressor) Decompress(compressed ByteBuf, dtype format.DataType, decompressed *ByteBuf) error {
	buf := c.scratch()

	payload := compressed.Data
	if view.SameBase(decompressed.Data, payload) {
		if len(payload) > len(buf) {
			panic(fmt.Sprintf("randomk: payload %d bytes exceeds scratch %d bytes", len(payload), len(buf)))
		}
		copy(buf, payload)
		payload = buf[:len(payload)]
	}

	if len(decompressed.Data) < c.size {
		panic(fmt.Sprintf("randomk: output buffer too small: expected %d bytes, got %d", c.size, len(decompressed.Data)))
	}
	out := decompressed.Data[:c.size]

	switch dtype {
	case format.Float32:
		randomkDecompress(c, view.Of[float32](out), view.Of[pair[uint32, float32]](payload))
	case format.Float64:
		randomkDecompress(c, view.Of[float64](out), view.Of[pair[uint64, float64]](payload))
	default:
		return fmt.Errorf("randomk: unsupported data type: %s", dtype)
	}

	decompressed.Data = out

	return nil
}

func randomkDecompress[I indexType, S scalarType](c *RandomkCompressor, dst []S, pairs []pair[I, S]) {
	clear(dst)

	record := c.role == format.RoleServer
	for _, p := range pairs {
		dst[p.idx] = p.val
		if record {
			c.nonZeroIdx[uint64(p.idx)] = struct{}{}
		}
	}
}

// FastUpdateError refreshes the residual without a full Decompress:
// corrected is copied wholesale, then zeroed at exactly the transmitted
// coordinates. Valid because sparsification preserves selected
// coordinates exactly.
func (c *RandomkCompressor) FastUpdateError(errBuf, corrected, compressed ByteBuf, dtype format.DataType) {
	c.reducer.Copy(errBuf.Data[:c.size], corrected.Data[:c.size])

	switch dtype {
	case format.Float32:
		zeroTransmitted(view.Of[float32](errBuf.Data[:c.size]), view.Of[pair[uint32, float32]](compressed.Data))
	case format.Float64:
		zeroTransmitted(view.Of[float64](errBuf.Data[:c.size]), view.Of[pair[uint64, float64]](compressed.Data))
	default:
		panic(fmt.Sprintf("randomk: unsupported data type: %s", dtype))
	}
}

func zeroTransmitted[I indexType, S scalarType](errs []S, pairs []pair[I, S]) {
	for _, p := range pairs {
		errs[p.idx] = 0
	}
}
