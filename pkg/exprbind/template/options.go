package template

// MissingAction specifies how undefined and null binding values render.
type MissingAction int

const (
	// MissingEmpty renders an empty string. This is the default.
	MissingEmpty MissingAction = iota

	// MissingKeep keeps the binding source as-is, delimiters included.
	MissingKeep

	// MissingError returns an UndefinedValueError.
	MissingError
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithMissingAction sets how missing values are handled.
//
// Default: MissingEmpty
//
// Example:
//
//	r := NewRenderer(WithMissingAction(MissingError))
//	_, err := r.Execute(MustParseText("{{ missing }}"), expr.New(), scope)
//	// err: "undefined value: missing"
func WithMissingAction(action MissingAction) Option {
	return func(r *Renderer) {
		r.missingAction = action
	}
}
