// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"fmt"
	"reflect"
	"strings"
)

// Enum is implemented by types with a fixed set of members. A parameter
// whose default is an Enum becomes an option restricted to the names of
// the members:
//
//	type Lang int
//
//	const (
//		EnUS Lang = iota
//		HiIN
//	)
//
//	func (l Lang) EnumName() string { return [...]string{"en_US", "hi_IN"}[l] }
//	func (l Lang) EnumMembers() []flagmapper.Enum {
//		return []flagmapper.Enum{EnUS, HiIN}
//	}
//
// Every member must have the same dynamic type as the default.
type Enum interface {
	// EnumName returns the name of the member. It is used as the
	// command-line text for the member.
	EnumName() string

	// EnumMembers returns every member of the enumeration in order.
	EnumMembers() []Enum
}

var enumType = reflect.TypeOf((*Enum)(nil)).Elem()

// enumKeys returns the command-line text of every member of e. Members
// are keyed by EnumName, or by their string form when completion is
// enabled since the completion shell matches on what it displays.
func enumKeys(e Enum, completion bool) ([]string, map[string]Enum, error) {
	members := e.EnumMembers()
	if len(members) == 0 {
		return nil, nil, fmt.Errorf("enum %T has no members", e)
	}

	want := reflect.TypeOf(e)
	keys := make([]string, 0, len(members))
	byKey := make(map[string]Enum, len(members))
	for _, m := range members {
		if t := reflect.TypeOf(m); t != want {
			return nil, nil, fmt.Errorf("enum %s has a member of type %s", want, t)
		}

		key := m.EnumName()
		if completion {
			key = fmt.Sprint(m)
		}

		if _, ok := byKey[key]; ok {
			return nil, nil, fmt.Errorf("enum %s has duplicate member %q", want, key)
		}

		keys = append(keys, key)
		byKey[key] = m
	}

	return keys, byKey, nil
}

func buildEnum(completion bool) func(reflect.Value, *Option) error {
	return func(v reflect.Value, opt *Option) error {
		e := v.Interface().(Enum)
		keys, byKey, err := enumKeys(e, completion)
		if err != nil {
			return err
		}

		opt.Kind = KindEnum
		opt.Type = v.Type()
		opt.Choices = keys
		opt.Metavar = "{" + strings.Join(keys, ",") + "}"
		opt.Parse = func(s string) (interface{}, error) {
			m, ok := byKey[s]
			if !ok {
				return nil, &ValueError{
					Value:  s,
					Reason: fmt.Sprintf("choose from %s", strings.Join(keys, ", ")),
				}
			}

			return m, nil
		}
		opt.Format = func(v interface{}) string {
			if completion {
				return fmt.Sprint(v)
			}
			if m, ok := v.(Enum); ok {
				return m.EnumName()
			}

			return fmt.Sprint(v)
		}

		return nil
	}
}
