package compressor

// ByteBuf is a non-owning view over a contiguous byte region, the unit
// passed between compression stages. The caller guarantees the memory
// stays valid for the duration of the call; no stage retains the view
// past its return.
//
// Both raw gradient regions and encoded payloads travel as ByteBufs; a
// compressed output view may alias the producing instance's scratch
// buffer and is only valid until that instance's next operation.
type ByteBuf struct {
	Data []byte
}

// Size returns the length of the viewed region in bytes.
func (b ByteBuf) Size() int {
	return len(b.Data)
}
