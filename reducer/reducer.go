// Package reducer implements the CPU reduction helper owned by gradient
// compressors: elementwise weighted sums and bulk copies over raw tensor
// buffers.
//
// A single call may fan work out across goroutines, but it always blocks
// until the whole buffer is processed; callers never observe a partially
// reduced tensor.
package reducer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/arloliu/gradwire/format"
	"github.com/arloliu/gradwire/internal/options"
	"github.com/arloliu/gradwire/internal/view"
)

// defaultParallelThreshold is the buffer size, in bytes, below which a
// call runs inline; goroutine fan-out costs more than it saves on small
// tensors.
const defaultParallelThreshold = 64 * 1024

// Reducer performs synchronous elementwise operations on raw tensor
// buffers.
type Reducer interface {
	// Sum computes dst[i] = a[i] + alpha*b[i] over len(dst)/dtype.Size()
	// elements. dst may alias a, b, or both; the operation is
	// elementwise, so aliasing of equally-based views is safe.
	Sum(dst, a, b []byte, dtype format.DataType, alpha float64) error

	// Copy copies src into dst, splitting large buffers across
	// goroutines. dst and src must not partially overlap.
	Copy(dst, src []byte)
}

// CPUReducer is the host-memory Reducer implementation.
type CPUReducer struct {
	threads   int
	threshold int
}

var _ Reducer = (*CPUReducer)(nil)

// Option configures a CPUReducer.
type Option = options.Option[*CPUReducer]

// WithThreads sets the maximum number of goroutines a single call may
// use. Values below 1 are rejected.
func WithThreads(n int) Option {
	return options.New(func(r *CPUReducer) error {
		if n < 1 {
			return fmt.Errorf("reducer threads must be positive, got %d", n)
		}
		r.threads = n

		return nil
	})
}

// WithParallelThreshold sets the buffer size in bytes above which calls
// fan out across goroutines.
func WithParallelThreshold(bytes int) Option {
	return options.New(func(r *CPUReducer) error {
		if bytes < 0 {
			return fmt.Errorf("parallel threshold must be non-negative, got %d", bytes)
		}
		r.threshold = bytes

		return nil
	})
}

// NewCPU creates a CPUReducer. By default it uses up to GOMAXPROCS
// goroutines for buffers larger than 64KiB.
func NewCPU(opts ...Option) (*CPUReducer, error) {
	r := &CPUReducer{
		threads:   runtime.GOMAXPROCS(0),
		threshold: defaultParallelThreshold,
	}
	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}

	return r, nil
}

// Sum computes dst[i] = a[i] + alpha*b[i] interpreted per dtype.
func (r *CPUReducer) Sum(dst, a, b []byte, dtype format.DataType, alpha float64) error {
	if len(a) < len(dst) || len(b) < len(dst) {
		return fmt.Errorf("sum operands too small: dst=%d a=%d b=%d", len(dst), len(a), len(b))
	}

	switch dtype {
	case format.Float32:
		sumSlices(r, view.Of[float32](dst), view.Of[float32](a), view.Of[float32](b), float32(alpha), len(dst))
	case format.Float64:
		sumSlices(r, view.Of[float64](dst), view.Of[float64](a), view.Of[float64](b), alpha, len(dst))
	default:
		return fmt.Errorf("sum: unsupported data type: %s", dtype)
	}

	return nil
}

// Copy copies src into dst. Panics if dst is smaller than src, matching
// the fail-fast policy for caller bugs on the hot path.
func (r *CPUReducer) Copy(dst, src []byte) {
	if len(dst) < len(src) {
		panic(fmt.Sprintf("reducer copy: destination too small: dst=%d src=%d", len(dst), len(src)))
	}

	r.parallelFor(len(src), len(src), func(lo, hi int) {
		copy(dst[lo:hi], src[lo:hi])
	})
}

func sumSlices[S float32 | float64](r *CPUReducer, dst, a, b []S, alpha S, byteLen int) {
	r.parallelFor(len(dst), byteLen, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = a[i] + alpha*b[i]
		}
	})
}

// parallelFor splits [0, n) into contiguous chunks and runs fn on each.
// byteLen is the total byte size of the work, used against the parallel
// threshold; small buffers run inline on the calling goroutine.
func (r *CPUReducer) parallelFor(n, byteLen int, fn func(lo, hi int)) {
	if n == 0 {
		return
	}
	if r.threads == 1 || byteLen < r.threshold {
		fn(0, n)
		return
	}

	chunk := (n + r.threads - 1) / r.threads
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
