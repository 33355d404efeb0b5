package compressor

import (
	"testing"

	"github.com/arloliu/gradwire/format"
	"github.com/stretchr/testify/require"
)

func TestFindUnknown(t *testing.T) {
	_, err := Find("topk")
	require.ErrorContains(t, err, "unknown compressor")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	ctor := func(Kwargs, int, format.DataType) (Compressor, error) { return nil, nil }

	Register("registry_test_dup", ctor)
	require.Panics(t, func() {
		Register("registry_test_dup", ctor)
	})
}

func TestCreateRandomk(t *testing.T) {
	kwargs := Kwargs{
		KeyCompressorType: "randomk",
		KeyCompressorK:    "2",
		KeySeed:           "42",
	}

	c, err := Create(kwargs, 8*4, format.Float32)
	require.NoError(t, err)
	require.IsType(t, &RandomkCompressor{}, c)
}

func TestCreateFractionalK(t *testing.T) {
	kwargs := Kwargs{
		KeyCompressorType: "randomk",
		KeyCompressorK:    "0.25",
		KeySeed:           "42",
	}

	// 16 float32 elements, 0.25 -> k=4.
	c, err := Create(kwargs, 16*4, format.Float32)
	require.NoError(t, err)
	require.Equal(t, 4, c.(*RandomkCompressor).k)

	// Tiny tensors floor to k=1.
	kwargs[KeyCompressorK] = "0.01"
	c, err = Create(kwargs, 16*4, format.Float32)
	require.NoError(t, err)
	require.Equal(t, 1, c.(*RandomkCompressor).k)
}

func TestCreateErrorFeedbackChain(t *testing.T) {
	kwargs := Kwargs{
		KeyCompressorType:    "randomk",
		KeyErrorFeedbackType: "vanilla",
		KeyEFType:            "vanilla",
		KeyCompressorK:       "2",
		KeySeed:              "42",
		KeyLocalSize:         "4",
	}

	c, err := Create(kwargs, 8*4, format.Float32)
	require.NoError(t, err)

	ef, ok := c.(*VanillaErrorFeedback)
	require.True(t, ok)

	// The marker key must disable the inner unbiasing scale.
	inner, ok := ef.inner.(*RandomkCompressor)
	require.True(t, ok)
	require.False(t, inner.isScale)
}

func TestCreateConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		kwargs Kwargs
		size   int
		dtype  format.DataType
	}{
		{"no selector", Kwargs{KeySeed: "1"}, 32, format.Float32},
		{"unknown strategy", Kwargs{KeyCompressorType: "topk"}, 32, format.Float32},
		{"missing k", Kwargs{KeyCompressorType: "randomk"}, 32, format.Float32},
		{"zero seed", Kwargs{KeyCompressorType: "randomk", KeyCompressorK: "2", KeySeed: "0"}, 32, format.Float32},
		{"bad role", Kwargs{KeyCompressorType: "randomk", KeyCompressorK: "2", KeyRole: "peer"}, 32, format.Float32},
		{"bad dtype", Kwargs{KeyCompressorType: "randomk", KeyCompressorK: "2"}, 32, format.DataType(0xff)},
		{"bad size", Kwargs{KeyCompressorType: "randomk", KeyCompressorK: "2"}, 0, format.Float32},
		{"ef missing local_size", Kwargs{
			KeyCompressorType:    "randomk",
			KeyErrorFeedbackType: "vanilla",
			KeyCompressorK:       "2",
		}, 32, format.Float32},
		{"bad wire codec", Kwargs{
			KeyCompressorType: "randomk",
			KeyCompressorK:    "2",
			KeyWireCodec:      "gzip",
		}, 32, format.Float32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(tt.kwargs, tt.size, tt.dtype)
			require.Error(t, err)
		})
	}
}

func TestCreateWithWireCodec(t *testing.T) {
	kwargs := Kwargs{
		KeyCompressorType: "randomk",
		KeyCompressorK:    "2",
		KeySeed:           "42",
		KeyWireCodec:      "zstd",
	}

	c, err := Create(kwargs, 8*4, format.Float32)
	require.NoError(t, err)
	require.IsType(t, &codecCompressor{}, c)

	// wire_codec=none is a no-op, not a wrapper.
	kwargs[KeyWireCodec] = "none"
	c, err = Create(kwargs, 8*4, format.Float32)
	require.NoError(t, err)
	require.IsType(t, &RandomkCompressor{}, c)
}
