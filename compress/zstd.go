package compress

// ZstdCodec compresses pair streams with Zstandard.
//
// Zstd gives the best ratio of the supported codecs and is the default
// choice for bandwidth-bound aggregator links. The implementation is the
// pure-Go klauspost encoder unless the module is built with the gozstd
// tag, which switches to the cgo libzstd bindings.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a new Zstd codec with default settings.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
