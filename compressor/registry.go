package compressor

import (
	"fmt"
	"sync"

	"github.com/arloliu/gradwire/compress"
	"github.com/arloliu/gradwire/format"
)

// Ctor builds a compressor from a configuration bag. size is the
// tensor's byte length and dtype its element type; strategies need both
// to resolve fractional hyperparameters and pair widths.
type Ctor func(kwargs Kwargs, size int, dtype format.DataType) (Compressor, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Ctor)
)

// Register installs a factory under a unique name. Strategies and
// decorators call it from init, so a name collision is a programming
// error caught at process start; it panics.
//
// Decorator and strategy names share one flat namespace: Create routes
// the error_feedback_type value and the compressor_type value through
// the same table.
func Register(name string, ctor Ctor) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("compressor %q registered twice", name))
	}
	registry[name] = ctor
}

// Find returns the factory registered under name.
func Find(name string) (Ctor, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown compressor %q", name)
	}

	return ctor, nil
}

// Create builds a compressor from the configuration bag.
//
// Resolution order: if error_feedback_type names a decorator, its
// factory runs first and recursively creates the inner strategy from
// the bag minus that key; otherwise compressor_type names the strategy
// directly. If wire_codec names a non-none codec, the result is wrapped
// in the wire-codec decorator as the outermost stage.
//
// The returned compressor is owned by the caller and still needs Init
// before use.
func Create(kwargs Kwargs, size int, dtype format.DataType) (Compressor, error) {
	c, err := createStrategy(kwargs, size, dtype)
	if err != nil {
		return nil, err
	}

	name, ok := kwargs[KeyWireCodec]
	if !ok {
		return c, nil
	}
	compression, err := format.ParseCompression(name)
	if err != nil {
		return nil, err
	}
	if compression == format.CompressionNone {
		return c, nil
	}
	codec, err := compress.CreateCodec(compression)
	if err != nil {
		return nil, err
	}

	return newCodecCompressor(c, codec), nil
}

// createStrategy resolves the strategy or error-feedback chain without
// the wire-codec stage. Decorator factories recurse through it so the
// codec wraps the whole chain exactly once.
func createStrategy(kwargs Kwargs, size int, dtype format.DataType) (Compressor, error) {
	if size <= 0 {
		return nil, fmt.Errorf("create: tensor size must be positive, got %d", size)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("create: unsupported data type: %s", dtype)
	}

	name, ok := kwargs[KeyErrorFeedbackType]
	if !ok {
		name, ok = kwargs[KeyCompressorType]
		if !ok {
			return nil, fmt.Errorf("create: configuration names no compressor (%q or %q)",
				KeyCompressorType, KeyErrorFeedbackType)
		}
	}

	ctor, err := Find(name)
	if err != nil {
		return nil, err
	}

	return ctor(kwargs, size, dtype)
}
