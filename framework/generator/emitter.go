package generator

import (
	"github.com/pkg/errors"

	"github.com/km-arc/go-autocrud/framework/container"
)

// Registrar receives the registrations of a Plan. *container.Container
// implements it.
type Registrar interface {
	Scoped(abstract string, factory container.Factory) error
	Instance(abstract string, instance any) error
	Tag(abstracts []string, tag string)
}

var _ Registrar = (*container.Container)(nil)

// ScopedRegistration registers one synthesized type against one contract
// with request lifetime.
type ScopedRegistration struct {
	Key       string
	Contract  Contract
	Signature string
	Via       string

	factory container.Factory
}

// InstanceRegistration registers a pre-built singleton.
type InstanceRegistration struct {
	Key      string
	Contract Contract
	Value    any
}

// TagGroup tags keys with one tag.
type TagGroup struct {
	Tag  string
	Keys []string
}

// Plan is everything one builder registers, in registration order. It is a
// plain value until Apply hands it to a Registrar.
type Plan struct {
	Entity    string
	Scoped    []ScopedRegistration
	Instances []InstanceRegistration
	Tags      []TagGroup

	// Every contract satisfied by the synthesized types of this plan.
	Implemented []Contract
}

// Emit lays out the registrations for the ordered synthesized types of one
// builder, then its instances, then its tags.
func Emit(entity string, synthesized []*Synthesized, instances []InstanceMapping, implemented *ContractSet) *Plan {
	p := &Plan{Entity: entity, Implemented: implemented.Contracts()}
	tagIndex := make(map[string]int)

	for _, s := range synthesized {
		for _, t := range s.Targets {
			p.Scoped = append(p.Scoped, ScopedRegistration{
				Key:       t.Contract.Key(),
				Contract:  t.Contract,
				Signature: s.Signature,
				Via:       t.Via,
				factory:   s.Factory(t),
			})
		}
		if len(s.Targets) == 0 {
			continue
		}
		primary := s.Targets[0].Contract.Key()
		for _, tag := range s.Base.Tags {
			i, ok := tagIndex[tag]
			if !ok {
				i = len(p.Tags)
				tagIndex[tag] = i
				p.Tags = append(p.Tags, TagGroup{Tag: tag})
			}
			p.Tags[i].Keys = append(p.Tags[i].Keys, primary)
		}
	}

	for _, im := range instances {
		p.Instances = append(p.Instances, InstanceRegistration{
			Key:      im.Contract.Key(),
			Contract: im.Contract,
			Value:    im.Value,
		})
	}
	return p
}

// Apply performs the registrations in order and stops at the first failure.
// Registrations made before a failure stay in place.
func (p *Plan) Apply(r Registrar) error {
	for _, reg := range p.Scoped {
		if err := r.Scoped(reg.Key, reg.factory); err != nil {
			return errors.Wrapf(err, "registering %s", reg.Key)
		}
	}
	for _, reg := range p.Instances {
		if err := r.Instance(reg.Key, reg.Value); err != nil {
			return errors.Wrapf(err, "registering %s", reg.Key)
		}
	}
	for _, g := range p.Tags {
		r.Tag(g.Keys, g.Tag)
	}
	return nil
}

// Keys lists every key the plan registers, scoped first.
func (p *Plan) Keys() []string {
	keys := make([]string, 0, len(p.Scoped)+len(p.Instances))
	for _, reg := range p.Scoped {
		keys = append(keys, reg.Key)
	}
	for _, reg := range p.Instances {
		keys = append(keys, reg.Key)
	}
	return keys
}

// Lines renders the plan one registration per line, for debug dumps.
func (p *Plan) Lines() []string {
	lines := make([]string, 0, len(p.Scoped)+len(p.Instances)+len(p.Tags))
	for _, reg := range p.Scoped {
		lines = append(lines, "scoped    "+reg.Contract.String()+" <- "+reg.Signature+" ("+reg.Via+")")
	}
	for _, reg := range p.Instances {
		lines = append(lines, "singleton "+reg.Contract.String())
	}
	for _, g := range p.Tags {
		for _, k := range g.Keys {
			lines = append(lines, "tag       "+g.Tag+" "+k)
		}
	}
	return lines
}
