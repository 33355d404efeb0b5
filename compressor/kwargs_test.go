package compressor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		kwargs Kwargs
	}{
		{"empty", Kwargs{}},
		{"single", Kwargs{KeySeed: "42"}},
		{"typical", Kwargs{
			KeyCompressorType: "randomk",
			KeyCompressorK:    "0.01",
			KeySeed:           "42",
			KeyRole:           "worker",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Deserialize(Serialize(tt.kwargs))
			require.NoError(t, err)
			require.Equal(t, tt.kwargs, got)
		})
	}
}

func TestSerializeDeterministic(t *testing.T) {
	kwargs := Kwargs{"b": "2", "a": "1", "c": "3"}
	require.Equal(t, "3 a 1 b 2 c 3", Serialize(kwargs))
}

func TestDeserializeMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"bad count", "x a 1"},
		{"negative count", "-1"},
		{"truncated", "2 a 1 b"},
		{"excess tokens", "1 a 1 b 2"},
		{"duplicate key", "2 a 1 a 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize(tt.content)
			require.Error(t, err)
		})
	}
}

func TestClone(t *testing.T) {
	orig := Kwargs{KeyCompressorType: "randomk", KeyEFType: "vanilla"}
	clone := orig.Clone()
	delete(clone, KeyEFType)

	require.Contains(t, orig, KeyEFType)
	require.NotContains(t, clone, KeyEFType)
}

func TestFindFloat(t *testing.T) {
	kwargs := Kwargs{KeyCompressorK: "0.25", "bad": "abc"}

	val, ok, err := findFloat(kwargs, KeyCompressorK, true, func(x float64) bool { return x > 0 })
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0.25, val)

	_, ok, err = findFloat(kwargs, "absent", false, nil)
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = findFloat(kwargs, "absent", true, nil)
	require.Error(t, err)

	_, _, err = findFloat(kwargs, "bad", true, nil)
	require.Error(t, err)

	_, _, err = findFloat(kwargs, KeyCompressorK, true, func(x float64) bool { return x > 1 })
	require.Error(t, err)
}

func TestFindUint(t *testing.T) {
	kwargs := Kwargs{KeySeed: "42", "negative": "-1"}

	val, ok, err := findUint(kwargs, KeySeed, true, func(x uint64) bool { return x != 0 })
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), val)

	_, _, err = findUint(kwargs, "negative", true, nil)
	require.Error(t, err)
}
