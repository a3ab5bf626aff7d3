// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// Parameter is a single named input of a Func. Parameters are derived from
// the fields of the struct the function accepts.
type Parameter struct {
	// Name is the name of the parameter. This is also the name of the
	// command-line flag. It defaults to the field name in kebab-case and
	// can be set with the first element of the `flagmapper` tag.
	Name string

	// Field is the Go name of the struct field.
	Field string

	// Type is the type of the struct field.
	Type reflect.Type

	// Required is true if the parameter has no default. Required
	// parameters become positional arguments.
	Required bool

	// Extra is true for the parameter that receives any named values
	// that match no other parameter. It must be a map with string keys.
	Extra bool

	// Short is the optional single-character flag alias.
	Short string

	// Help is the help text, from the `help` tag.
	Help string

	index int
}

func (p *Parameter) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Type.String())
}

// valueSet is the set of parameters accepted by a function.
//
// Internally, every function is treated as `func(Struct) ...`. Functions
// that take no arguments have an empty value set.
type valueSet struct {
	// structType is the struct that contains all the settable values. This
	// is nil if the function takes no arguments.
	structType reflect.Type

	// isPtr is true if the function takes a pointer to structType.
	isPtr bool

	// params are the parameters in field order.
	params []*Parameter

	// named indexes params by their normalized name.
	named map[string]*Parameter

	// extra is the catch-all parameter, if any.
	extra *Parameter
}

func newValueSet(count int, get func(int) reflect.Type) (*valueSet, error) {
	switch count {
	case 0:
		return &valueSet{named: map[string]*Parameter{}}, nil

	case 1:
		t := get(0)
		isPtr := false
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
			isPtr = true
		}

		if t.Kind() != reflect.Struct {
			return nil, fmt.Errorf("function argument must be a struct, got %s", t.Kind())
		}

		result, err := newValueSetFromStruct(t)
		if err != nil {
			return nil, err
		}

		result.isPtr = isPtr
		return result, nil

	default:
		return nil, fmt.Errorf(
			"function must take zero or one struct argument, got %d arguments", count)
	}
}

func newValueSetFromStruct(typ reflect.Type) (*valueSet, error) {
	// Verify our value is a struct
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("struct expected, got %s", typ.Kind())
	}

	// We will accumulate our results here
	result := &valueSet{
		structType: typ,
		named:      make(map[string]*Parameter),
	}

	// Go through the fields and record them all
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)

		// Ignore unexported fields and our struct marker
		if sf.PkgPath != "" || isStructField(sf) {
			continue
		}

		// name is the name of the parameter.
		name := kebabCase(sf.Name)

		// Parse out the tag if there is one
		options := map[string]string{}
		if tag, ok := sf.Tag.Lookup("flagmapper"); ok {
			parts := strings.Split(tag, ",")

			// A name of "-" means the field is not a parameter at all.
			if parts[0] == "-" {
				continue
			}

			// If we have a name set, then override the name
			if parts[0] != "" {
				name = parts[0]
			}

			// If we have fields set after the comma, then we want to
			// parse those as values.
			for _, v := range parts[1:] {
				idx := strings.Index(v, "=")
				if idx == -1 {
					options[v] = ""
				} else {
					options[v[:idx]] = v[idx+1:]
				}
			}
		}

		param := &Parameter{
			Name:  name,
			Field: sf.Name,
			Type:  sf.Type,
			Short: options["short"],
			Help:  sf.Tag.Get("help"),
			index: i,
		}
		_, param.Required = options["required"]
		_, param.Extra = options["extra"]

		if param.Extra {
			if sf.Type.Kind() != reflect.Map || sf.Type.Key().Kind() != reflect.String {
				return nil, fmt.Errorf(
					"extra field %s must be a map with string keys, got %s", sf.Name, sf.Type)
			}
			if result.extra != nil {
				return nil, fmt.Errorf(
					"only one extra field is allowed, found %s and %s",
					result.extra.Field, sf.Name)
			}
			if param.Required {
				return nil, fmt.Errorf("extra field %s can't be required", sf.Name)
			}

			result.extra = param
		}

		if len(param.Short) > 1 {
			return nil, fmt.Errorf(
				"short flag for %s must be a single character, got %q", sf.Name, param.Short)
		}

		key := normalizeName(name)
		if prev, ok := result.named[key]; ok {
			return nil, fmt.Errorf(
				"fields %s and %s have the same name %q", prev.Field, sf.Name, name)
		}

		result.named[key] = param
		result.params = append(result.params, param)
	}

	return result, nil
}

// empty returns true if the function takes no input.
func (t *valueSet) empty() bool {
	return t.structType == nil
}

// lookup returns the parameter with the given name, or nil.
func (t *valueSet) lookup(name string) *Parameter {
	return t.named[normalizeName(name)]
}

// New returns a new structValue that can be used for value population.
func (t *valueSet) New() *structValue {
	result := &structValue{typ: t}
	if t.structType != nil {
		result.value = reflect.New(t.structType).Elem()
	}

	return result
}

type structValue struct {
	typ   *valueSet
	value reflect.Value
}

func (v *structValue) Field(idx int) reflect.Value {
	return v.value.Field(idx)
}

// CallIn returns the argument list to call the function with.
func (v *structValue) CallIn() []reflect.Value {
	// If typ is nil then there is no inputs
	if v.typ.structType == nil {
		return nil
	}

	if v.typ.isPtr {
		return []reflect.Value{v.value.Addr()}
	}

	return []reflect.Value{v.value}
}

// normalizeName returns the name used for matching parameters. Matching
// is case-insensitive and treats "_" the same as "-" so that names like
// "exclamation_number" find the "exclamation-number" parameter.
func normalizeName(n string) string {
	return strings.ReplaceAll(strings.ToLower(n), "_", "-")
}

// kebabCase turns a Go field name into a flag name: "ExclamationNumber"
// becomes "exclamation-number" and "URLPath" becomes "url-path".
func kebabCase(s string) string {
	runes := []rune(s)

	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
					(unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('-')
				}
			}

			r = unicode.ToLower(r)
		}

		b.WriteRune(r)
	}

	return b.String()
}
