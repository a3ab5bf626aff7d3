// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import "reflect"

// FilterFunc selects parameters. See Expose and Inferer.Options.
type FilterFunc func(*Parameter) bool

// FilterName filters parameters by name. Names are matched the same way
// as named arguments.
func FilterName(names ...string) FilterFunc {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[normalizeName(n)] = struct{}{}
	}

	return func(p *Parameter) bool {
		_, ok := set[normalizeName(p.Name)]
		return ok
	}
}

// FilterType filters parameters based on matching the given type. If the
// type is an interface value then any types that implement the interface
// will also pass.
func FilterType(t reflect.Type) FilterFunc {
	return func(p *Parameter) bool {
		// Direct match is always true
		if p.Type == t {
			return true
		}

		// If our type is an interface and the value type implements it, true
		return t.Kind() == reflect.Interface && p.Type.Implements(t)
	}
}

// FilterNot returns a FilterFunc that inverts f.
func FilterNot(f FilterFunc) FilterFunc {
	return func(p *Parameter) bool {
		return !f(p)
	}
}

// FilterOr returns a FilterFunc that returns true if any of the given
// filter functions return true.
func FilterOr(fs ...FilterFunc) FilterFunc {
	return func(p *Parameter) bool {
		for _, f := range fs {
			if f(p) {
				return true
			}
		}

		return false
	}
}

// FilterAnd returns a FilterFunc that returns true if all of the given
// filter functions return true.
func FilterAnd(fs ...FilterFunc) FilterFunc {
	return func(p *Parameter) bool {
		for _, f := range fs {
			if !f(p) {
				return false
			}
		}

		return true
	}
}
