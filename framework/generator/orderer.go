package generator

import "slices"

// Order sorts table so that every mapping comes after the mappings whose
// contracts its constructor takes.
//
// Each pass walks the unresolved mappings in table order and moves out every
// mapping none of whose parameters match a contract still unresolved,
// including its own. A mapping moved out is immediately visible as resolved
// to the mappings after it in the same pass. Parameters matching no contract
// in the table are resolved by the container and never gate ordering.
//
// The number of passes is bounded by the table size. A pass that resolves
// nothing, or running out of passes, fails with *CircularDependencyError;
// a partial order is never returned.
func Order(entity string, table []Mapping) ([]Mapping, error) {
	remaining := slices.Clone(table)
	ordered := make([]Mapping, 0, len(table))
	passesLeft := len(remaining)

	for len(remaining) > 0 {
		progressed := false
		for i := 0; i < len(remaining); {
			if blocked(remaining[i], remaining) {
				i++
				continue
			}
			ordered = append(ordered, remaining[i])
			remaining = slices.Delete(remaining, i, i+1)
			progressed = true
		}

		passesLeft--
		if len(remaining) > 0 && (!progressed || passesLeft < 0) {
			return nil, newCircularDependencyError(entity, remaining)
		}
	}
	return ordered, nil
}

func blocked(m Mapping, remaining []Mapping) bool {
	for _, other := range remaining {
		if m.DependsOn(other.Contract) {
			return true
		}
	}
	return false
}

func newCircularDependencyError(entity string, remaining []Mapping) *CircularDependencyError {
	err := &CircularDependencyError{
		Entity:    entity,
		WaitingOn: make(map[Contract][]Contract, len(remaining)),
	}
	for _, m := range remaining {
		err.Unresolved = append(err.Unresolved, m.Contract)
		for _, other := range remaining {
			if m.DependsOn(other.Contract) {
				err.WaitingOn[m.Contract] = append(err.WaitingOn[m.Contract], other.Contract)
			}
		}
	}
	return err
}
