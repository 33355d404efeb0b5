package format

import "fmt"

type (
	// DataType identifies the scalar element type of a gradient tensor.
	DataType uint8

	// Role identifies which side of the synchronization pipeline a
	// compressor instance runs on.
	Role uint8

	// CompressionType identifies the lossless wire codec applied to an
	// encoded payload before transport.
	CompressionType uint8
)

const (
	Float32 DataType = 0x1 // Float32 represents IEEE-754 single precision.
	Float64 DataType = 0x2 // Float64 represents IEEE-754 double precision.

	RoleWorker Role = 0x1 // RoleWorker produces gradients and samples indices.
	RoleServer Role = 0x2 // RoleServer aggregates and replays observed indices.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no wire compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 block compression.
)

// Size returns the scalar width in bytes, or 0 for an unknown type.
func (d DataType) Size() int {
	switch d {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// IndexSize returns the width of a sparse pair index for this type.
//
// The index width matches the scalar width so that an (index, value)
// pair stays aligned to the scalar's storage granularity.
func (d DataType) IndexSize() int {
	return d.Size()
}

// PairSize returns the wire size of one (index, value) pair.
func (d DataType) PairSize() int {
	return d.Size() + d.IndexSize()
}

// Valid reports whether d is a supported data type.
func (d DataType) Valid() bool {
	return d == Float32 || d == Float64
}

func (d DataType) String() string {
	switch d {
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	default:
		return "Unknown"
	}
}

func (r Role) String() string {
	switch r {
	case RoleWorker:
		return "Worker"
	case RoleServer:
		return "Server"
	default:
		return "Unknown"
	}
}

// ParseRole converts a configuration value into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "worker":
		return RoleWorker, nil
	case "server":
		return RoleServer, nil
	default:
		return 0, fmt.Errorf("invalid role: %q", s)
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression converts a configuration value into a CompressionType.
func ParseCompression(s string) (CompressionType, error) {
	switch s {
	case "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("invalid wire compression: %q", s)
	}
}
