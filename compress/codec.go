package compress

import (
	"fmt"

	"github.com/arloliu/gradwire/format"
)

// Compressor compresses an encoded gradient payload for transport.
type Compressor interface {
	// Compress compresses the input payload and returns the result.
	//
	// The returned slice is newly allocated and owned by the caller;
	// the input is never modified. Internal codec state may be pooled
	// and reused across calls.
	Compress(data []byte) ([]byte, error)
}

// Decompressor recovers an encoded gradient payload.
type Decompressor interface {
	// Decompress reverses Compress, returning an error if the payload
	// is corrupted or was produced by an incompatible codec.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions of a wire codec.
//
// Implementations must be safe for concurrent use: one codec instance
// serves many per-tensor compressor slots.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec returns the Codec for the given compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Zstd, S2, or LZ4)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: Invalid compression type error
//
// Unknown types fail here, at construction time, not on the first
// payload.
func CreateCodec(compressionType format.CompressionType) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCodec(), nil
	case format.CompressionZstd:
		return NewZstdCodec(), nil
	case format.CompressionS2:
		return NewS2Codec(), nil
	case format.CompressionLZ4:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("unsupported wire compression: %s", compressionType)
	}
}
