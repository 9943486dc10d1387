package cti

import (
	"fmt"
	"slices"
	"sort"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// Registry holds the registered models. Relations between models are
// resolved once, when the registry is built.
type Registry struct {
	models          map[string]*Model
	order           []*Model
	byDiscriminator map[string]*Model
}

// NewRegistry validates descs and builds their models. Descriptors may
// refer to each other in any order. Every malformed descriptor yields an
// error wrapping types.ErrConfiguration.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	reg := &Registry{
		models:          make(map[string]*Model, len(descs)),
		byDiscriminator: make(map[string]*Model),
	}

	for _, d := range descs {
		m, err := newModel(reg, d)
		if err != nil {
			return nil, err
		}
		if _, dup := reg.models[m.name]; dup {
			return nil, configError(m.name, "duplicate type name")
		}
		if m.concrete {
			if other, dup := reg.byDiscriminator[m.discriminator]; dup {
				return nil, configError(m.name, "discriminator %q already used by %s", m.discriminator, other.name)
			}
			reg.byDiscriminator[m.discriminator] = m
		}
		reg.models[m.name] = m
		reg.order = append(reg.order, m)
	}

	for _, m := range reg.order {
		if err := reg.buildRelations(m); err != nil {
			return nil, err
		}
	}
	for _, m := range reg.order {
		if err := m.checkAncestry(); err != nil {
			return nil, err
		}
		linkInverse(m)
	}
	for _, m := range reg.order {
		if err := m.buildAttributes(); err != nil {
			return nil, err
		}
	}
	for _, m := range reg.order {
		if err := m.checkDelegates(); err != nil {
			return nil, err
		}
		m.buildCapabilities()
	}
	return reg, nil
}

// Model returns the model registered as name.
func (reg *Registry) Model(name string) (*Model, error) {
	m, ok := reg.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownType, name)
	}
	return m, nil
}

// ModelByDiscriminator returns the concrete model recording value.
func (reg *Registry) ModelByDiscriminator(value string) (*Model, bool) {
	m, ok := reg.byDiscriminator[value]
	return m, ok
}

// Models returns the models in registration order.
func (reg *Registry) Models() []*Model {
	return slices.Clone(reg.order)
}

// New returns a new, unsaved record of the named type.
func (reg *Registry) New(name string) (*Record, error) {
	m, err := reg.Model(name)
	if err != nil {
		return nil, err
	}
	return m.New(), nil
}

func configError(typeName, format string, args ...any) error {
	return fmt.Errorf("%w: type %q: %s", types.ErrConfiguration, typeName, fmt.Sprintf(format, args...))
}

func (reg *Registry) buildRelations(m *Model) error {
	d := m.desc
	if d.Parent != nil {
		if d.Parent.Relation == "" {
			return configError(m.name, "parent relation name is empty")
		}
		target, ok := reg.models[d.Parent.Type]
		if !ok {
			return configError(m.name, "unknown parent type %q", d.Parent.Type)
		}
		rel := &Relation{
			Name:       d.Parent.Relation,
			Kind:       BelongsTo,
			Owner:      m,
			Target:     target,
			ForeignKey: "id",
		}
		m.parent = rel
		m.relations[rel.Name] = rel
	}

	for _, name := range sortedKeys(d.Children) {
		c := d.Children[name]
		if _, dup := m.relations[name]; dup {
			return configError(m.name, "duplicate relation %q", name)
		}
		target, ok := reg.models[c.Type]
		if !ok {
			return configError(m.name, "relation %q: unknown child type %q", name, c.Type)
		}
		rel := &Relation{
			Name:       name,
			Kind:       HasOne,
			Owner:      m,
			Target:     target,
			ForeignKey: c.ForeignKey,
		}
		if rel.ForeignKey == "" {
			rel.ForeignKey = "id"
		}
		if c.Through != "" {
			through, ok := reg.models[c.Through]
			if !ok {
				return configError(m.name, "relation %q: unknown through type %q", name, c.Through)
			}
			if target.desc.Parent == nil || target.desc.Parent.Type != through.name {
				return configError(m.name, "relation %q: %s is not the parent of %s", name, through.name, target.name)
			}
			rel.Kind = HasOneThrough
			rel.Through = through
		}
		m.relations[name] = rel
	}
	return nil
}

// linkInverse pairs m's belongs-to relation with the parent's has-one
// relation back to m.
func linkInverse(m *Model) {
	up := m.parent
	if up == nil {
		return
	}
	for _, down := range up.Target.relations {
		if down.Kind == HasOne && down.Target == m && down.ForeignKey == "id" {
			up.inverse = down
			down.inverse = up
			return
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
