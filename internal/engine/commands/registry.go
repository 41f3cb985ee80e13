package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dshills/scribe/internal/engine/model"
)

// Factory creates a command from a single string argument.
type Factory func(arg string) (Command, error)

// Registry manages command factories by name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry creates a registry holding the built-in commands.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NameInsertText, func(arg string) (Command, error) {
		return InsertText(arg), nil
	})
	r.Register(NameDeleteSelection, func(string) (Command, error) {
		return DeleteSelection(), nil
	})
	r.Register(NameToggleMark, func(arg string) (Command, error) {
		m, err := ParseMark(arg)
		if err != nil {
			return nil, err
		}
		return ToggleMark(m), nil
	})
	r.Register(NameSetHeading, func(arg string) (Command, error) {
		level, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: heading level %q", ErrInvalidArgument, arg)
		}
		return SetHeadingLevel(level), nil
	})
	r.Register(NameSetLink, func(arg string) (Command, error) {
		return SetLink(arg), nil
	})
	r.Register(NameUnsetLink, func(string) (Command, error) {
		return UnsetLink(), nil
	})
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Unregister removes the factory for name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
}

// Lookup returns the factory for name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the command registered under name.
func (r *Registry) Build(name, arg string) (Command, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return f(arg)
}

// Execute builds the command registered under name and runs it against d.
func (r *Registry) Execute(d Dispatcher, name, arg string) error {
	cmd, err := r.Build(name, arg)
	if err != nil {
		return err
	}
	return Run(d, cmd)
}

// ParseInvocation splits "name=arg" into its parts. The argument is
// optional.
func ParseInvocation(s string) (name, arg string) {
	name, arg, _ = strings.Cut(s, "=")
	return strings.TrimSpace(name), arg
}

// ParseMark parses "type" or "type:value", e.g. "bold" or
// "highlight:#ffcc00".
func ParseMark(s string) (model.Mark, error) {
	name, value, _ := strings.Cut(s, ":")
	t, ok := model.ParseMarkType(name)
	if !ok || t == model.MarkSelectionTag {
		return model.Mark{}, fmt.Errorf("%w: mark %q", ErrInvalidArgument, name)
	}
	return model.NewMark(t, value), nil
}
