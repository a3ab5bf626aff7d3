// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Partial returns a new Func with the given named arguments bound. The
// result has the same parameters as f, with the bound values as their
// new defaults. Bound values take precedence over the defaults of f.
//
// Dotted names are applied recursively to nested commands:
//
//	f.Partial(Named("exclamation.number", 3))
//
// is equivalent to
//
//	f.Partial(Named("exclamation", exclamation.Partial(Named("number", 3))))
//
// where exclamation is the *Func currently held by the "exclamation"
// parameter. Named values that match no parameter are bound to the extra
// parameter if the function has one, and are an error otherwise.
func (f *Func) Partial(opts ...Arg) (*Func, error) {
	args, err := newArgBuilder(opts...)
	if err != nil {
		return nil, err
	}

	result := &Func{
		fn:     f.fn,
		input:  f.input,
		name:   f.name,
		desc:   f.desc,
		logger: f.logger,
		parent: f,
		bound:  map[string]reflect.Value{},
		extra:  map[string]reflect.Value{},
	}
	if args.funcName != "" {
		result.name = args.funcName
	}
	if args.desc != "" {
		result.desc = args.desc
	}

	if args.defaults.IsValid() {
		defaults, err := f.defaultArgs(args.defaults)
		if err != nil {
			return nil, err
		}

		args.named = append(defaults, args.named...)
	}

	if err := result.bind(args.named); err != nil {
		return nil, err
	}

	return result, nil
}

// MustPartial is like Partial but panics on error.
func (f *Func) MustPartial(opts ...Arg) *Func {
	result, err := f.Partial(opts...)
	if err != nil {
		panic(err)
	}

	return result
}

// bind sets the given named values on f. Dotted names are grouped by their
// head so each nested command is only wrapped once.
func (f *Func) bind(named []namedValue) error {
	var heads []string
	tails := map[string][]namedValue{}

	var err error
	for _, nv := range named {
		head, tail, dotted := strings.Cut(nv.Name, ".")

		// A dotted name that matches no parameter can still be an extra
		// value, such as an unknown flag "--foo.bar".
		if dotted && f.input.lookup(head) == nil && f.input.extra != nil {
			dotted = false
		}

		if !dotted {
			if e := f.bindOne(nv.Name, nv.Value); e != nil {
				err = multierror.Append(err, e)
			}

			continue
		}

		p := f.input.lookup(head)
		if p == nil {
			err = multierror.Append(err, fmt.Errorf(
				"argument %q does not match any parameter of %s", nv.Name, f.Name()))
			continue
		}

		if _, ok := tails[p.Name]; !ok {
			heads = append(heads, p.Name)
		}
		tails[p.Name] = append(tails[p.Name], namedValue{Name: tail, Value: nv.Value})
	}
	if err != nil {
		return err
	}

	for _, head := range heads {
		// Nested values apply to the nested command bound in this same
		// call first, or to the current default otherwise.
		current, ok := f.bound[head]
		if !ok {
			current = f.values()[head]
		}

		nested, ok := nestedFunc(current)
		if !ok {
			err = multierror.Append(err, fmt.Errorf(
				"argument %q is not a nested command, can't set %s.%s",
				head, head, tails[head][0].Name))
			continue
		}

		f.logger.Trace("binding nested arguments", "func", f.Name(), "param", head)

		child := &Func{
			fn:     nested.fn,
			input:  nested.input,
			name:   nested.name,
			desc:   nested.desc,
			logger: nested.logger,
			parent: nested,
			bound:  map[string]reflect.Value{},
			extra:  map[string]reflect.Value{},
		}
		if e := child.bind(tails[head]); e != nil {
			err = multierror.Append(err, fmt.Errorf("%s: %w", head, e))
			continue
		}

		f.bound[head] = reflect.ValueOf(child)
	}

	return err
}

// bindOne binds a single, non-dotted named value.
func (f *Func) bindOne(name string, v reflect.Value) error {
	p := f.input.lookup(name)
	if p != nil && !p.Extra {
		// Opts are bound as-is, they're resolved when the function is
		// called.
		if isOpts(v) {
			f.bound[p.Name] = v
			return nil
		}

		value, err := assignable(v, p.Type)
		if err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}

		f.bound[p.Name] = value
		return nil
	}

	if f.input.extra == nil {
		return fmt.Errorf("argument %q does not match any parameter of %s", name, f.Name())
	}

	value, err := assignable(v, f.input.extra.Type.Elem())
	if err != nil {
		return fmt.Errorf("argument %q: %w", name, err)
	}

	f.extra[name] = value
	return nil
}

// assignable returns v as a value that can be set on a field of type t.
// Numeric values are converted between numeric types, and values of
// named string and bool types are converted to their underlying kind.
func assignable(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(t), nil
	}

	if v.Type().AssignableTo(t) {
		return v, nil
	}

	switch {
	case isNumeric(v.Kind()) && isNumeric(t.Kind()),
		v.Kind() == reflect.String && t.Kind() == reflect.String,
		v.Kind() == reflect.Bool && t.Kind() == reflect.Bool:
		return v.Convert(t), nil
	}

	return reflect.Value{}, fmt.Errorf("value of type %s is not assignable to %s", v.Type(), t)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}

	return false
}
