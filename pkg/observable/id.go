package observable

import "sync/atomic"

// globalIDCounter is the source of unique IDs for atoms, reactions and
// default cell names. IDs are process-wide and never reused.
var globalIDCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
