package hook

import (
	"github.com/pantyukhov/xrpld-hooks/engine"
)

// GuestMemory is the bounds-checked view over guest linear memory every
// pointer/length host api goes through. A zero length with any offset is a
// valid no-op. Failed reads and writes never touch guest memory.
type GuestMemory struct {
	mem engine.Memory
}

func NewGuestMemory(mem engine.Memory) GuestMemory {
	return GuestMemory{mem: mem}
}

func (g GuestMemory) Size() uint32 {
	if g.mem == nil {
		return 0
	}
	return g.mem.Size()
}

// Read copies length bytes at off out of guest memory.
func (g GuestMemory) Read(off, length uint32) ([]byte, int64) {
	if length == 0 {
		return nil, SUCCESS
	}
	if g.mem == nil {
		return nil, OUT_OF_BOUNDS
	}
	data, ok := g.mem.ReadAt(off, length)
	if !ok {
		return nil, OUT_OF_BOUNDS
	}
	return data, SUCCESS
}

// Write copies data into guest memory at off, after checking the full range.
func (g GuestMemory) Write(off uint32, data []byte) int64 {
	if len(data) == 0 {
		return SUCCESS
	}
	if g.mem == nil {
		return OUT_OF_BOUNDS
	}
	if !g.mem.WriteAt(off, data) {
		return OUT_OF_BOUNDS
	}
	return SUCCESS
}

// WriteCapped writes data whole into a guest buffer of the declared capacity,
// returning the byte count written; it never truncates. Buffers too small for the payload fail
// with TOO_SMALL and leave memory untouched.
func (g GuestMemory) WriteCapped(off, capacity uint32, data []byte) int64 {
	if uint32(len(data)) > capacity {
		return TOO_SMALL
	}
	if rc := g.Write(off, data); rc != SUCCESS {
		return rc
	}
	return int64(len(data))
}
