package expr

// Scope is an immutable scope chain: named bindings, innermost first,
// ending in a model object. Identifiers resolve against the named bindings
// and then against the model.
type Scope struct {
	model  any
	parent *Scope
	name   string
	value  any
	named  bool
}

// NewScope creates a scope whose model is model and which has no named
// bindings.
func NewScope(model any) *Scope {
	return &Scope{model: model}
}

// With returns a child scope binding name to v. The model is unchanged.
func (s *Scope) With(name string, v any) *Scope {
	return &Scope{model: s.model, parent: s, name: name, value: v, named: true}
}

// WithNames returns a child scope with several named bindings.
func (s *Scope) WithNames(bindings map[string]any) *Scope {
	child := s
	for name, v := range bindings {
		child = child.With(name, v)
	}
	return child
}

// Reset returns a scope whose model is model and which drops every named
// binding. Unnamed bind and repeat use this.
func (s *Scope) Reset(model any) *Scope {
	return NewScope(model)
}

// Model returns the model object identifiers fall back to.
func (s *Scope) Model() any {
	if s == nil {
		return nil
	}
	return s.model
}

// Lookup finds a named binding, innermost first.
func (s *Scope) Lookup(name string) (any, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.named && sc.name == name {
			return sc.value, true
		}
	}
	return nil, false
}

// Names lists the named bindings visible from this scope, innermost first,
// without duplicates.
func (s *Scope) Names() []string {
	var names []string
	seen := make(map[string]bool)
	for sc := s; sc != nil; sc = sc.parent {
		if sc.named && !seen[sc.name] {
			seen[sc.name] = true
			names = append(names, sc.name)
		}
	}
	return names
}
