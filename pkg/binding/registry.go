package binding

// VariableRegistry resolves variable names to handles and back. The registry
// belongs to the query compiler; the execution core only reads it.
type VariableRegistry interface {
	Lookup(name string) (VarHandle, bool)
	Name(h VarHandle) string
	Len() int
}

// Registry is a simple in-order VariableRegistry.
type Registry struct {
	names   []string
	handles map[string]VarHandle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]VarHandle)}
}

// Declare returns the handle for name, allocating a new slot on first use.
func (r *Registry) Declare(name string) VarHandle {
	if h, ok := r.handles[name]; ok {
		return h
	}
	h := VarHandle(len(r.names))
	r.names = append(r.names, name)
	r.handles[name] = h
	return h
}

// Anonymous allocates a slot that cannot be looked up by name.
func (r *Registry) Anonymous() VarHandle {
	h := VarHandle(len(r.names))
	r.names = append(r.names, "")
	return h
}

func (r *Registry) Lookup(name string) (VarHandle, bool) {
	h, ok := r.handles[name]
	return h, ok
}

func (r *Registry) Name(h VarHandle) string {
	if h < 0 || int(h) >= len(r.names) {
		return ""
	}
	return r.names[h]
}

func (r *Registry) Len() int { return len(r.names) }
