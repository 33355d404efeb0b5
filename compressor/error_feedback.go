package compressor

import (
	"fmt"

	"github.com/arloliu/gradwire/format"
)

func init() {
	Register("vanilla", newVanillaFromKwargs)
}

// VanillaErrorFeedback wraps any base strategy and accumulates the
// residual lossy compression leaves behind, folding it into the next
// iteration's gradient to bound long-run bias.
//
// It knows nothing about the inner strategy's algorithm, only that
// Compress and Decompress are inverses and that the engine brackets
// them: UpdateGradient -> Compress -> (transport) -> UpdateError.
type VanillaErrorFeedback struct {
	base
	inner Compressor
	role  format.Role

	// norm is 1/local_size on workers and 1/num_worker on servers,
	// injected at construction from the engine's cluster discovery.
	norm float64

	// residual holds what was intended to be sent minus what
	// compression preserved, one full tensor wide. Only this decorator
	// ever reads or writes it.
	residual []byte
}

var _ Compressor = (*VanillaErrorFeedback)(nil)
var _ GradientUpdater = (*VanillaErrorFeedback)(nil)

// NewVanillaErrorFeedback wraps inner. count is the normalization
// divisor for UpdateGradient: the local replica count on workers, the
// total worker count on servers.
func NewVanillaErrorFeedback(inner Compressor, role format.Role, count int) (*VanillaErrorFeedback, error) {
	if inner == nil {
		return nil, fmt.Errorf("error feedback: inner compressor is nil")
	}
	if count <= 0 {
		return nil, fmt.Errorf("error feedback: normalization count must be positive, got %d", count)
	}

	return &VanillaErrorFeedback{
		base:  newBase(),
		inner: inner,
		role:  role,
		norm:  1 / float64(count),
	}, nil
}

func newVanillaFromKwargs(kwargs Kwargs, size int, dtype format.DataType) (Compressor, error) {
	stripped := kwargs.Clone()
	delete(stripped, KeyErrorFeedbackType)
	inner, err := createStrategy(stripped, size, dtype)
	if err != nil {
		return nil, fmt.Errorf("error feedback: building inner compressor: %w", err)
	}

	role := format.RoleWorker
	if raw, ok := kwargs[KeyRole]; ok {
		role, err = format.ParseRole(raw)
		if err != nil {
			return nil, fmt.Errorf("error feedback: %w", err)
		}
	}

	countKey := KeyLocalSize
	if role == format.RoleServer {
		countKey = KeyNumWorker
	}
	count, _, err := findUint(kwargs, countKey, true, func(x uint64) bool { return x > 0 })
	if err != nil {
		return nil, fmt.Errorf("error feedback: %w", err)
	}

	return NewVanillaErrorFeedback(inner, role, int(count))
}

// Init sizes the residual buffer alongside the scratch buffer and
// initializes the wrapped compressor. The residual starts at zero.
func (c *VanillaErrorFeedback) Init(alignedSize, device int) error {
	if err := c.base.Init(alignedSize, device); err != nil {
		return err
	}
	if cap(c.residual) < alignedSize {
		c.residual = make([]byte, alignedSize)
	} else {
		c.residual = c.residual[:alignedSize]
	}

	return c.inner.Init(alignedSize, device)
}

// Compress delegates to the wrapped strategy.
func (c *VanillaErrorFeedback) Compress(grad ByteBuf, dtype format.DataType, compressed *ByteBuf) error {
	return c.inner.Compress(grad, dtype, compressed)
}

// Decompress delegates to the wrapped strategy.
func (c *VanillaErrorFeedback) Decompress(compressed ByteBuf, dtype format.DataType, decompressed *ByteBuf) error {
	return c.inner.Decompress(compressed, dtype, decompressed)
}

// UpdateGradient blends the previous iteration's residual into the
// fresh gradient in place: grad = residual + grad*norm. The result is
// what the engine subsequently compresses.
func (c *VanillaErrorFeedback) UpdateGradient(grad ByteBuf, dtype format.DataType) error {
	c.scratch() // assert Init ran

	return c.reducer.Sum(grad.Data, c.residual[:len(grad.Data)], grad.Data, dtype, c.norm)
}

// UpdateError refreshes the residual after compression: corrected is
// the tensor that was compressed, compressed its encoding. The residual
// becomes corrected minus what the receiver will reconstruct, so it is
// zero at every transmitted coordinate and equals corrected elsewhere.
//
// Strategies that preserve selected coordinates exactly take the fast
// path through FastUpdater; otherwise the payload is decoded into the
// residual buffer and subtracted generically.
func (c *VanillaErrorFeedback) UpdateError(corrected ByteBuf, dtype format.DataType, compressed ByteBuf) error {
	c.scratch()

	if fast, ok := c.inner.(FastUpdater); ok {
		fast.FastUpdateError(ByteBuf{Data: c.residual}, corrected, compressed, dtype)
		return nil
	}

	return c.updateErrorGeneric(corrected, dtype, compressed)
}

// updateErrorGeneric is the strategy-agnostic residual refresh: decode
// the payload into the residual buffer, then residual = corrected -
// decompressed. The in-place subtraction is safe because the reduction
// is elementwise.
func (c *VanillaErrorFeedback) updateErrorGeneric(corrected ByteBuf, dtype format.DataType, compressed ByteBuf) error {
	decompressed := ByteBuf{Data: c.residual}
	if err := c.inner.Decompress(compressed, dtype, &decompressed); err != nil {
		return fmt.Errorf("error feedback: decoding payload: %w", err)
	}

	return c.reducer.Sum(c.residual[:corrected.Size()], corrected.Data, decompressed.Data, dtype, -1.0)
}

// Residual exposes a read-only view of the accumulated residual for
// diagnostics and tests.
func (c *VanillaErrorFeedback) Residual() ByteBuf {
	return ByteBuf{Data: c.residual}
}
