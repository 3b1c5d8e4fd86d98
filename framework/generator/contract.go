package generator

import (
	"reflect"
	"strings"

	"github.com/km-arc/go-autocrud/framework/container"
)

// Contract identifies a capability downstream code requests from the
// container. Identity is the type plus an optional qualifier; the qualifier
// gives a synthesized interface an identity of its own while sharing the
// method set of Type.
type Contract struct {
	Type reflect.Type
	Name string
}

// ContractOf returns the unqualified contract for T.
//
//	generator.ContractOf[entity.CreateService[int64, *Person]]()
func ContractOf[T any]() Contract {
	return Contract{Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// Named returns a copy of c qualified by name.
func (c Contract) Named(name string) Contract {
	return Contract{Type: c.Type, Name: name}
}

// IsZero reports whether c has no type.
func (c Contract) IsZero() bool { return c.Type == nil }

// IsInterface reports whether the contract type is an interface.
func (c Contract) IsInterface() bool {
	return c.Type != nil && c.Type.Kind() == reflect.Interface
}

// Key is the container abstract the contract is registered under.
func (c Contract) Key() string {
	key := container.KeyOf(c.Type)
	if c.Name != "" {
		key += "#" + c.Name
	}
	return key
}

func (c Contract) String() string {
	if c.Type == nil {
		return "<nil>"
	}
	if c.Name != "" {
		return c.Type.String() + "#" + c.Name
	}
	return c.Type.String()
}

// ContractSet is an insertion-ordered set of contracts.
type ContractSet struct {
	order []Contract
	seen  map[Contract]struct{}
}

// Add inserts contracts not already present and reports how many were new.
func (s *ContractSet) Add(cs ...Contract) int {
	if s.seen == nil {
		s.seen = make(map[Contract]struct{})
	}
	added := 0
	for _, c := range cs {
		if _, ok := s.seen[c]; ok {
			continue
		}
		s.seen[c] = struct{}{}
		s.order = append(s.order, c)
		added++
	}
	return added
}

// Has reports membership.
func (s *ContractSet) Has(c Contract) bool {
	_, ok := s.seen[c]
	return ok
}

// Len returns the number of contracts.
func (s *ContractSet) Len() int { return len(s.order) }

// Contracts returns the members in insertion order.
func (s *ContractSet) Contracts() []Contract {
	return append([]Contract(nil), s.order...)
}

// typeName is the bare name of t: no package, pointer or generic arguments.
func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		name = t.Kind().String()
	}
	return name
}
