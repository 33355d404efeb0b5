package compressor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Configuration keys recognized by the built-in strategies and
// decorators. The bag travels alongside tensor metadata, so all keys
// and values are plain text.
const (
	// KeyCompressorType names the base strategy ("randomk").
	KeyCompressorType = "compressor_type"

	// KeyErrorFeedbackType names an error-feedback decorator
	// ("vanilla"). The decorator factory strips this key before
	// constructing its inner compressor.
	KeyErrorFeedbackType = "error_feedback_type"

	// KeyEFType marks that an error-feedback wrapper corrects bias.
	// Its mere presence disables a strategy's internal unbiasing
	// scale; unlike KeyErrorFeedbackType it is left in the bag so the
	// inner strategy can see it.
	KeyEFType = "ef_type"

	// KeyCompressorK is the random-k target count: an absolute count,
	// or a fraction of the element count when below 1.
	KeyCompressorK = "compressor_k"

	// KeySeed seeds the strategy's pseudo-random generator; must be
	// non-zero when present.
	KeySeed = "seed"

	// KeyRole selects "worker" (sample indices) or "server" (replay
	// observed indices). Defaults to worker.
	KeyRole = "role"

	// KeyWireCodec names a lossless codec for the encoded payload:
	// "none", "zstd", "s2" or "lz4".
	KeyWireCodec = "wire_codec"

	// KeyLocalSize is the local replica count a worker-side
	// error-feedback update normalizes by.
	KeyLocalSize = "local_size"

	// KeyNumWorker is the total worker count a server-side
	// error-feedback update normalizes by.
	KeyNumWorker = "num_worker"
)

// Kwargs is a configuration bag: unique text keys mapped to text
// values, order-insensitive. Keys and values must not contain
// whitespace; the transport format cannot represent it.
type Kwargs map[string]string

// Clone returns a shallow copy of the bag. Decorator factories clone
// before stripping their selector key.
func (k Kwargs) Clone() Kwargs {
	clone := make(Kwargs, len(k))
	for key, val := range k {
		clone[key] = val
	}

	return clone
}

// Serialize flattens the bag into the transport form
// "<n> k1 v1 k2 v2 ...". Keys are emitted in sorted order so the output
// is deterministic; Deserialize does not rely on any order.
func Serialize(kwargs Kwargs) string {
	keys := make([]string, 0, len(kwargs))
	for key := range kwargs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(strconv.Itoa(len(keys)))
	for _, key := range keys {
		sb.WriteByte(' ')
		sb.WriteString(key)
		sb.WriteByte(' ')
		sb.WriteString(kwargs[key])
	}

	return sb.String()
}

// Deserialize parses the transport form produced by Serialize. It fails
// on a malformed count, a truncated pair list, or a duplicate key.
func Deserialize(content string) (Kwargs, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return nil, fmt.Errorf("deserialize: empty configuration")
	}

	count, err := strconv.Atoi(fields[0])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("deserialize: invalid entry count %q", fields[0])
	}
	if len(fields) != 1+2*count {
		return nil, fmt.Errorf("deserialize: expected %d tokens for %d entries, got %d",
			1+2*count, count, len(fields))
	}

	kwargs := make(Kwargs, count)
	for i := 0; i < count; i++ {
		key, val := fields[1+2*i], fields[2+2*i]
		if _, ok := kwargs[key]; ok {
			return nil, fmt.Errorf("deserialize: duplicate key %q", key)
		}
		kwargs[key] = val
	}

	return kwargs, nil
}

// findFloat looks up a float hyperparameter. Missing required keys,
// unparsable values, and validator rejections are construction-time
// errors naming the offending key and value.
func findFloat(kwargs Kwargs, key string, required bool, valid func(float64) bool) (float64, bool, error) {
	raw, ok := kwargs[key]
	if !ok {
		if required {
			return 0, false, fmt.Errorf("missing required hyperparameter %q", key)
		}

		return 0, false, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("hyperparameter %q: invalid value %q: %w", key, raw, err)
	}
	if valid != nil && !valid(val) {
		return 0, false, fmt.Errorf("hyperparameter %q: value %q out of range", key, raw)
	}

	return val, true, nil
}

// findUint looks up an unsigned integer hyperparameter.
func findUint(kwargs Kwargs, key string, required bool, valid func(uint64) bool) (uint64, bool, error) {
	raw, ok := kwargs[key]
	if !ok {
		if required {
			return 0, false, fmt.Errorf("missing required hyperparameter %q", key)
		}

		return 0, false, nil
	}

	val, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("hyperparameter %q: invalid value %q: %w", key, raw, err)
	}
	if valid != nil && !valid(val) {
		return 0, false, fmt.Errorf("hyperparameter %q: value %q out of range", key, raw)
	}

	return val, true, nil
}
