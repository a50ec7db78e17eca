// Package template holds the command template registry used to build the
// shell commands handed to the cluster scheduler. Templates are structured
// as an ordered list of (flag, value) arguments rather than a format string,
// so a missing or misnamed parameter is caught before anything is submitted.
package template

import (
	"strings"

	"github.com/kiti15237/American-Gut/internal/types"
)

// Arg is a single argument slot in a command template. Exactly one of
// Value or Placeholder is set: Value is emitted verbatim, Placeholder is
// substituted from the binding set at resolve time. Flag is optional; a
// flagless Arg is emitted as a positional argument.
type Arg struct {
	// Flag is the option flag preceding the value, e.g. "-i". Empty for
	// positional arguments or bare flags.
	Flag string

	// Value is a literal value emitted as-is.
	Value string

	// Placeholder names a binding to substitute at resolve time.
	Placeholder string
}

// Literal creates an Arg with a fixed value.
func Literal(flag, value string) Arg {
	return Arg{Flag: flag, Value: value}
}

// Bind creates an Arg whose value is looked up in the bindings at
// resolve time under the given placeholder name.
func Bind(flag, placeholder string) Arg {
	return Arg{Flag: flag, Placeholder: placeholder}
}

// Switch creates a bare flag Arg with no value, e.g. "-n".
func Switch(flag string) Arg {
	return Arg{Flag: flag}
}

// Template is a named, parameterized command. Immutable once registered.
type Template struct {
	// Name identifies the template in the registry.
	Name string

	// Program is the executable invoked by the command.
	Program string

	// Args is the ordered argument list.
	Args []Arg
}

// Placeholders returns the placeholder names the template requires,
// in argument order.
func (t Template) Placeholders() []string {
	var names []string
	for _, arg := range t.Args {
		if arg.Placeholder != "" {
			names = append(names, arg.Placeholder)
		}
	}
	return names
}

// Resolve substitutes bindings into the template and returns the full
// command string. It fails with TEMPLATE_MISSING_PLACEHOLDER if any
// placeholder has no binding. Pure; no side effects.
func (t Template) Resolve(bindings map[string]string) (string, error) {
	parts := []string{t.Program}

	for _, arg := range t.Args {
		if arg.Flag != "" {
			parts = append(parts, arg.Flag)
		}

		switch {
		case arg.Placeholder != "":
			value, ok := bindings[arg.Placeholder]
			if !ok {
				return "", types.NewErrorf(types.TEMPLATE_MISSING_PLACEHOLDER,
					"template %q: no binding for placeholder %q", t.Name, arg.Placeholder)
			}
			parts = append(parts, quote(value))
		case arg.Value != "":
			parts = append(parts, quote(arg.Value))
		}
	}

	return strings.Join(parts, " "), nil
}

// quote wraps a value in single quotes if it contains shell metacharacters.
func quote(s string) string {
	if strings.ContainsAny(s, " \t'\"$&|;<>()*?") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

// Registry maps operation names to command templates.
type Registry struct {
	templates map[string]Template
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry. Registration fails with
// TEMPLATE_DUPLICATE if a template with the same name already exists;
// templates are immutable once registered.
func (r *Registry) Register(t Template) error {
	if t.Name == "" {
		return types.NewError(types.TEMPLATE_DUPLICATE, "template must have a name")
	}
	if t.Program == "" {
		return types.NewErrorf(types.TEMPLATE_DUPLICATE, "template %q must have a program", t.Name)
	}
	if _, exists := r.templates[t.Name]; exists {
		return types.NewErrorf(types.TEMPLATE_DUPLICATE, "template %q already registered", t.Name)
	}
	r.templates[t.Name] = t
	return nil
}

// MustRegister is like Register but panics on error. Intended for
// static template sets built at startup.
func (r *Registry) MustRegister(t Template) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the template registered under name.
func (r *Registry) Lookup(name string) (Template, error) {
	t, ok := r.templates[name]
	if !ok {
		return Template{}, types.NewErrorf(types.TEMPLATE_UNKNOWN, "no template named %q", name)
	}
	return t, nil
}

// Resolve looks up the named template and resolves it against bindings.
// Fails with TEMPLATE_UNKNOWN for an unregistered name and
// TEMPLATE_MISSING_PLACEHOLDER for an incomplete binding set.
func (r *Registry) Resolve(name string, bindings map[string]string) (string, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return "", err
	}
	return t.Resolve(bindings)
}
