// Package exec defines the pull-based iterator protocol of the execution core.
//
// Every operator of a query plan implements Iterator. The caller owns one
// *binding.Binding per query invocation and passes it to every call; an
// iterator writes its result row into its own slots of that binding and never
// keeps the pointer beyond the call.
//
// State machine:
//
//	unstarted --Begin--> active(cursor=0)
//	active --Next=true--> active(cursor+1)
//	active --Next=false--> exhausted
//	active|exhausted --Reset--> active(cursor=0)
//
// After Next returns false the iterator's own slots are undefined and must not
// be read by the caller.
package exec

import (
	"github.com/orneryd/graphexec/pkg/binding"
)

// Iterator is the pull contract shared by every operator.
type Iterator interface {
	// Begin attaches the iterator to b and resets its cursor. Calling Begin
	// again before exhaustion restarts from the first row.
	Begin(b *binding.Binding) error

	// Next produces one row into b. It returns false once no rows remain.
	Next(b *binding.Binding) (bool, error)

	// Reset rewinds to the state right after Begin.
	Reset(b *binding.Binding) error

	// AssignNulls writes NULL into every slot this iterator would bind.
	AssignNulls(b *binding.Binding)

	// Variables lists the slots this iterator binds.
	Variables() []binding.VarHandle
}

// Empty is an iterator that never produces a row.
type Empty struct {
	Vars []binding.VarHandle
}

func (e *Empty) Begin(*binding.Binding) error { return nil }
func (e *Empty) Next(*binding.Binding) (bool, error) { return false, nil }
func (e *Empty) Reset(*binding.Binding) error { return nil }
func (e *Empty) Variables() []binding.VarHandle { return e.Vars }
func (e *Empty) AssignNulls(b *binding.Binding) { AssignNull(b, e.Vars) }

// Once produces exactly one row and binds nothing. It is the identity element
// for plans that start from a CALL or a RETURN without a MATCH.
type Once struct {
	done bool
}

func (o *Once) Begin(*binding.Binding) error {
	o.done = false
	return nil
}

func (o *Once) Next(*binding.Binding) (bool, error) {
	if o.done {
		return false, nil
	}
	o.done = true
	return true, nil
}

func (o *Once) Reset(b *binding.Binding) error { return o.Begin(b) }
func (o *Once) AssignNulls(*binding.Binding) {}
func (o *Once) Variables() []binding.VarHandle { return nil }

// AssignNull writes NULL into each handle of vars.
func AssignNull(b *binding.Binding, vars []binding.VarHandle) {
	for _, h := range vars {
		b.Add(h, binding.Null)
	}
}
