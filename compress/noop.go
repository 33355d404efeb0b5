package compress

// NoOpCodec bypasses wire compression and hands payloads through as-is.
//
// Useful when the link is latency-bound rather than bandwidth-bound, and
// as the baseline in codec benchmarks.
type NoOpCodec struct{}

var _ Codec = (*NoOpCodec)(nil)

// NewNoOpCodec creates a passthrough codec.
func NewNoOpCodec() NoOpCodec {
	return NoOpCodec{}
}

// Compress returns the input slice unchanged, without copying. The
// caller must not mutate the payload while the returned view is live.
func (NoOpCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input slice unchanged, without copying.
func (NoOpCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
