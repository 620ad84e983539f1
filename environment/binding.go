package environment

// Op is the write mode of a directive.
type Op int

const (
	// OpSet always overrides the value accumulated by earlier layers.
	OpSet Op = iota
	// OpDefault only takes effect when the key is still undefined.
	OpDefault
	// OpAppend accumulates onto a sequence-valued key.
	OpAppend
)

func (op Op) String() string {
	switch op {
	case OpSet:
		return "set"
	case OpDefault:
		return "default"
	case OpAppend:
		return "append"
	default:
		return "unknown"
	}
}

// ComputeFunc produces a value from the fully composed environment it is read from.
type ComputeFunc func(s Scope) (any, error)

// Binding is either a literal value or a deferred computation.
type Binding struct {
	value   any
	compute ComputeFunc
}

// Value binds a literal value.
func Value(v any) Binding {
	return Binding{value: v}
}

// Deferred binds a computation that runs on first read. The computation may
// run once per composed environment, so it must only depend on the scope.
func Deferred(fn ComputeFunc) Binding {
	return Binding{compute: fn}
}

func (b Binding) resolve(s Scope) (any, error) {
	if b.compute != nil {
		return b.compute(s)
	}
	return b.value, nil
}

// Directive is a single keyed write.
type Directive struct {
	Op      Op
	Key     string
	Binding Binding
}

// Builder collects directives for a new layer.
type Builder struct {
	directives []Directive
}

// Set records an overriding write.
func (b *Builder) Set(key string, binding Binding) *Builder {
	return b.Add(Directive{Op: OpSet, Key: key, Binding: binding})
}

// Default records a write that only applies when the key is undefined.
func (b *Builder) Default(key string, binding Binding) *Builder {
	return b.Add(Directive{Op: OpDefault, Key: key, Binding: binding})
}

// Append records a write that accumulates onto a sequence.
func (b *Builder) Append(key string, binding Binding) *Builder {
	return b.Add(Directive{Op: OpAppend, Key: key, Binding: binding})
}

// Add records directives in order.
func (b *Builder) Add(directives ...Directive) *Builder {
	b.directives = append(b.directives, directives...)
	return b
}
