// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"fmt"
	"reflect"
	"strings"
)

// FieldArg turns a single struct field into zero or more Args.
type FieldArg func(reflect.StructField, reflect.Value) []Arg

// NamedFields returns a FieldArg that sets a named argument for every
// exported field. The name follows the same rules as function parameters:
// the `flagmapper` tag name if set, otherwise the field name in kebab-case.
func NamedFields() FieldArg {
	return func(f reflect.StructField, v reflect.Value) []Arg {
		if f.PkgPath != "" || isStructField(f) {
			return nil
		}

		name := kebabCase(f.Name)
		if tag, ok := f.Tag.Lookup("flagmapper"); ok {
			tagName := strings.Split(tag, ",")[0]
			if tagName == "-" {
				return nil
			}
			if tagName != "" {
				name = tagName
			}
		}

		return []Arg{
			Named(name, v.Interface()),
		}
	}
}

// PrefixedFields wraps a FieldArg so that every named argument it produces
// is prefixed with "prefix.". This is used to set the parameters of a
// nested command from a struct.
func PrefixedFields(prefix string, opt FieldArg) FieldArg {
	return func(f reflect.StructField, v reflect.Value) []Arg {
		args := opt(f, v)
		for i, arg := range args {
			arg := arg
			args[i] = func(a *argBuilder) error {
				start := len(a.named)
				if err := arg(a); err != nil {
					return err
				}

				for j := start; j < len(a.named); j++ {
					a.named[j].Name = prefix + "." + a.named[j].Name
				}

				return nil
			}
		}

		return args
	}
}

// FromStruct returns the Args for every field of the struct v. If no
// FieldArg is given, NamedFields is used. FromStruct panics if v is not a
// struct or pointer to a struct.
func FromStruct(v interface{}, opts ...FieldArg) []Arg {
	rv := reflect.ValueOf(v)
	sv := structValueOf(rv)
	if sv.Kind() == reflect.Invalid {
		panic(fmt.Sprintf("only struct or pointer to struct types are supported in FromStruct, got %T", v))
	}
	st := sv.Type()

	if len(opts) == 0 {
		opts = []FieldArg{NamedFields()}
	}

	var args []Arg
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		fv := sv.Field(i)
		for _, opt := range opts {
			args = append(args, opt(f, fv)...)
		}
	}

	return args
}

func structValueOf(rv reflect.Value) reflect.Value {
	if k := rv.Kind(); k != reflect.Struct && k != reflect.Ptr {
		return reflect.Value{}
	}

	sv := rv
	if sv.Kind() == reflect.Ptr {
		// unwrap ptr
		sv = sv.Elem()
		if sv.Kind() != reflect.Struct {
			return reflect.Value{}
		}
	}

	return sv
}
