package binding

import (
	"fmt"
	"strings"
)

// VarHandle identifies one slot of a Binding. Handles are allocated by a
// VariableRegistry and are dense, starting at zero.
type VarHandle int

// Binding is a fixed-length slot array holding the current value of every
// variable known to one query. It is created once per query invocation and
// shared by every iterator of the operator tree; iterators mutate it in place.
//
// Slots default to NULL. Indexing never grows the array: writes to an
// out-of-range handle are ignored and reads return NULL.
type Binding struct {
	slots []Value
}

// New creates a binding with size NULL slots.
func New(size int) *Binding {
	if size < 0 {
		size = 0
	}
	return &Binding{slots: make([]Value, size)}
}

// Len returns the number of slots.
func (b *Binding) Len() int { return len(b.slots) }

// Add overwrites slot h with v.
func (b *Binding) Add(h VarHandle, v Value) {
	if h < 0 || int(h) >= len(b.slots) {
		return
	}
	b.slots[h] = v
}

// Get returns the value in slot h.
func (b *Binding) Get(h VarHandle) Value {
	if h < 0 || int(h) >= len(b.slots) {
		return Null
	}
	return b.slots[h]
}

// Clear resets every slot to NULL.
func (b *Binding) Clear() {
	for i := range b.slots {
		b.slots[i] = Null
	}
}

// CopyFrom copies the listed slots from src into b.
func (b *Binding) CopyFrom(src *Binding, handles []VarHandle) {
	for _, h := range handles {
		b.Add(h, src.Get(h))
	}
}

// Snapshot returns a copy of all slots.
func (b *Binding) Snapshot() []Value {
	out := make([]Value, len(b.slots))
	copy(out, b.slots)
	return out
}

func (b *Binding) String() string {
	parts := make([]string, len(b.slots))
	for i, v := range b.slots {
		parts[i] = fmt.Sprintf("%d=%s", i, v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
