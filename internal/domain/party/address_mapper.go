package party

import "strings"

// AddressDescriptor carries the address content of an incoming document in
// both shapes upstream platforms use: preformatted display lines and
// discrete fields. Which shape wins is the address mapper's decision.
type AddressDescriptor struct {
	SystemCode string
	Role       AddressRole
	Name       string
	// Preformatted display lines (simple layout)
	Lines []string
	// Discrete fields (structured layout)
	Street1    string
	Street2    string
	City       string
	State      string
	PostalCode string
	Country    string
}

// IsEmpty reports whether the descriptor carries no address content at all
func (d AddressDescriptor) IsEmpty() bool {
	if d.Name != "" || d.Street1 != "" || d.City != "" || d.Country != "" {
		return false
	}
	for _, line := range d.Lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}

// AddressMapper applies the address content of a descriptor to a persisted
// address. Customers differ in which layout their documents carry, so the
// mapper is injected per pipeline rather than branched on inside the engine.
type AddressMapper interface {
	// Apply overwrites addr's fields from the descriptor, reporting
	// whether anything changed.
	Apply(addr *Address, d AddressDescriptor) bool
}

// SimpleAddressMapper fills the address from preformatted display lines:
// line 1..3 are taken as-is and discrete fields are left untouched.
type SimpleAddressMapper struct{}

// Apply implements AddressMapper
func (SimpleAddressMapper) Apply(addr *Address, d AddressDescriptor) bool {
	changed := false
	lines := make([]string, 3)
	for i := 0; i < len(d.Lines) && i < 3; i++ {
		lines[i] = strings.TrimSpace(d.Lines[i])
	}
	changed = setField(&addr.Name, d.Name) || changed
	changed = setField(&addr.Line1, lines[0]) || changed
	changed = setField(&addr.Line2, lines[1]) || changed
	changed = setField(&addr.Line3, lines[2]) || changed
	if changed {
		addr.touch()
	}
	return changed
}

// StructuredAddressMapper fills the address from discrete street, city,
// state, postal code and country fields.
type StructuredAddressMapper struct{}

// Apply implements AddressMapper
func (StructuredAddressMapper) Apply(addr *Address, d AddressDescriptor) bool {
	changed := false
	changed = setField(&addr.Name, d.Name) || changed
	changed = setField(&addr.Line1, d.Street1) || changed
	changed = setField(&addr.Line2, d.Street2) || changed
	changed = setField(&addr.City, d.City) || changed
	changed = setField(&addr.State, d.State) || changed
	changed = setField(&addr.PostalCode, d.PostalCode) || changed
	changed = setField(&addr.Country, strings.ToUpper(strings.TrimSpace(d.Country))) || changed
	if changed {
		addr.touch()
	}
	return changed
}

func setField(dst *string, value string) bool {
	value = strings.TrimSpace(value)
	if *dst == value {
		return false
	}
	*dst = value
	return true
}
