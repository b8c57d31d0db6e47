package plugin

import "fmt"

// Factory constructs one plugin instance from its configuration. Concrete
// plugin packages register a Factory from an init func, the same shape
// teacher's pkg/plugins.Register uses for its formatter/parser pairs.
type Factory func(cfg Config) (Plugin, error)

var factories = map[string]Factory{}

// RegisterFactory makes a concrete plugin constructable by configured name.
// Panics on a duplicate name: that can only happen from a programming
// mistake at init time, never from user input.
func RegisterFactory(name string, f Factory) {
	if _, ok := factories[name]; ok {
		panic(fmt.Sprintf("plugin factory %q already registered", name))
	}
	factories[name] = f
}

// New builds a plugin instance by its configured plugin name.
func New(cfg Config) (Plugin, error) {
	f, ok := factories[cfg.PlugName]
	if !ok {
		return nil, fmt.Errorf("plugin %q is not registered", cfg.PlugName)
	}
	return f(cfg)
}
