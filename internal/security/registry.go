package security

import (
	"fmt"
	"sort"
)

// Registry dispatches on the algorithm identifier stored with a credential.
type Registry struct {
	strategies map[string]Strategy
	def        Strategy
}

func NewRegistry(defaultName string, strategies ...Strategy) (*Registry, error) {
	r := &Registry{strategies: make(map[string]Strategy, len(strategies))}

	for _, s := range strategies {
		r.strategies[s.Name()] = s
	}

	def, ok := r.strategies[defaultName]
	if !ok {
		return nil, fmt.Errorf("%w: default %q is not registered", ErrUnknownAlgorithm, defaultName)
	}
	r.def = def

	return r, nil
}

// NewDefaultRegistry registers argon2id and bcrypt with production costs.
func NewDefaultRegistry(defaultName string) (*Registry, error) {
	return NewRegistry(defaultName,
		NewArgon2id(DefaultArgon2Params),
		NewBcrypt(0),
	)
}

func (r *Registry) Default() Strategy {
	return r.def
}

// Lookup never falls back to another strategy: an unknown name is an error.
func (r *Registry) Lookup(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return s, nil
}

func (r *Registry) NeedsRehash(algorithm string) bool {
	return algorithm != r.def.Name()
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
