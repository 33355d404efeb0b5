package compressor

import (
	"fmt"

	"github.com/arloliu/gradwire/compress"
	"github.com/arloliu/gradwire/format"
)

// codecCompressor is the outermost decorator: it losslessly recompresses
// the strategy's encoded payload for transport and transparently decodes
// it on the way back. Because the codec stage is byte-level and
// lossless, the decoded tensor is identical with or without it.
type codecCompressor struct {
	inner Compressor
	codec compress.Codec
}

var _ Compressor = (*codecCompressor)(nil)

func newCodecCompressor(inner Compressor, codec compress.Codec) *codecCompressor {
	return &codecCompressor{inner: inner, codec: codec}
}

func (c *codecCompressor) Init(alignedSize, device int) error {
	return c.inner.Init(alignedSize, device)
}

// Compress runs the inner strategy, then recompresses its payload. The
// output no longer aliases the inner scratch buffer; the codec allocates
// fresh memory for the wire bytes.
func (c *codecCompressor) Compress(grad ByteBuf, dtype format.DataType, compressed *ByteBuf) error {
	var raw ByteBuf
	if err := c.inner.Compress(grad, dtype, &raw); err != nil {
		return err
	}

	encoded, err := c.codec.Compress(raw.Data)
	if err != nil {
		return fmt.Errorf("wire codec: %w", err)
	}
	compressed.Data = encoded

	return nil
}

// Decompress decodes the wire bytes back into the strategy payload and
// delegates. The codec output is freshly allocated, so the inner
// in-place contract is unaffected.
func (c *codecCompressor) Decompress(compressed ByteBuf, dtype format.DataType, decompressed *ByteBuf) error {
	raw, err := c.codec.Decompress(compressed.Data)
	if err != nil {
		return fmt.Errorf("wire codec: %w", err)
	}

	return c.inner.Decompress(ByteBuf{Data: raw}, dtype, decompressed)
}

// UpdateGradient forwards to the inner compressor when it participates
// in error feedback.
func (c *codecCompressor) UpdateGradient(grad ByteBuf, dtype format.DataType) error {
	updater, ok := c.inner.(GradientUpdater)
	if !ok {
		return fmt.Errorf("wire codec: inner compressor does not support gradient updates")
	}

	return updater.UpdateGradient(grad, dtype)
}

// UpdateError decodes the wire payload first; the inner residual update
// works on raw strategy pairs, not codec bytes.
func (c *codecCompressor) UpdateError(corrected ByteBuf, dtype format.DataType, compressed ByteBuf) error {
	updater, ok := c.inner.(GradientUpdater)
	if !ok {
		return fmt.Errorf("wire codec: inner compressor does not support gradient updates")
	}

	raw, err := c.codec.Decompress(compressed.Data)
	if err != nil {
		return fmt.Errorf("wire codec: %w", err)
	}

	return updater.UpdateError(corrected, dtype, ByteBuf{Data: raw})
}
