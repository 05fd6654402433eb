/*
Package template hosts binding expressions inside plain text.

# Text Bindings

ParseText splits a string into literal text and bindings:

	t, _ := template.ParseText("Hello {{ user.name }}, [[ greeting ]]")

{{ expr }} is a live binding: a host observes it and re-renders when it
changes. [[ expr ]] is one-time: it is evaluated once and never observed.
An opening delimiter with no matching close stays literal text.

Render the values of the bindings, in order, with a Renderer:

	out, _ := template.Render(t, []any{"Sally", "hi"})
	// out: "Hello Sally, hi"

# Missing Values

By default undefined and null render as empty strings:

	out, _ := template.Execute("Hello {{ missing }}", nil)
	// out: "Hello "

Configure behavior with options:

	r := template.NewRenderer(template.WithMissingAction(template.MissingKeep))
	out, _ = r.Execute(template.MustParseText("Hello {{ missing }}"), expr.New(), scope)
	// out: "Hello {{ missing }}"

	r = template.NewRenderer(template.WithMissingAction(template.MissingError))
	_, err := r.Execute(template.MustParseText("Hello {{ missing }}"), expr.New(), scope)
	// err: "undefined value: missing"

# Bind and Repeat

Nested blocks evaluate in derived scopes. BindScope implements
bind="{{ foo.bar as baz }}" (a child scope naming baz) and
bind="{{ foo.bar }}" (foo.bar becomes the model and outer names are
dropped). RepeatScopes implements repeat="{{ user in users }}" and
repeat="{{ user, i in users }}", one scope per element.

	scopes, _ := template.Repeat(ev, expr.MustParse("user in users"), root)
	for _, s := range scopes {
	    out, _ := r.Execute(row, ev, s) // row is "{{ id }}:{{ user.name }}"
	}

# Thread Safety

Text and Renderer are safe for concurrent use after construction.
*/
package template
