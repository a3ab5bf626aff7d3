// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-multierror"
)

// Call calls the function. The given named arguments are bound on top of
// any defaults and partial bindings, as with Partial. Every required
// parameter must have a value or an *ErrArgumentUnsatisfied error is
// returned in the Result.
func (f *Func) Call(opts ...Arg) Result {
	target := f
	if len(opts) > 0 {
		var err error
		target, err = f.Partial(opts...)
		if err != nil {
			return resultError(err)
		}
	}

	return target.callDirect()
}

// callDirect calls the function with the values currently bound.
func (f *Func) callDirect() Result {
	log := f.logger.Named("call")

	values := f.values()
	structVal := f.input.New()

	var missing []*Parameter
	var buildErr error
	for _, p := range f.input.params {
		if p.Extra {
			extra, err := f.extraMap(p)
			if err != nil {
				buildErr = multierror.Append(buildErr, err)
				continue
			}

			structVal.Field(p.index).Set(extra)
			continue
		}

		v, ok := values[p.Name]
		if !ok {
			missing = append(missing, p)
			continue
		}

		v, err := resolveValue(v, p.Type)
		if err != nil {
			buildErr = multierror.Append(buildErr, fmt.Errorf("argument %q: %w", p.Name, err))
			continue
		}

		structVal.Field(p.index).Set(v)
	}

	if len(missing) > 0 {
		buildErr = multierror.Append(buildErr, &ErrArgumentUnsatisfied{
			Func: f,
			Args: missing,
		})
	}

	// If there was an error setting up the struct, then report that.
	if buildErr != nil {
		return resultError(buildErr)
	}

	// Call our function
	in := structVal.CallIn()
	for _, p := range f.input.params {
		log.Trace("argument", "name", p.Name, "value", structVal.Field(p.index).Interface())
	}

	out := f.fn.Call(in)
	return Result{out: out}
}

// extraMap builds the value of the extra parameter p.
func (f *Func) extraMap(p *Parameter) (reflect.Value, error) {
	result := reflect.MakeMap(p.Type)
	for k, v := range f.extraValues() {
		v, err := assignable(v, p.Type.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("argument %q: %w", k, err)
		}

		result.SetMapIndex(reflect.ValueOf(k).Convert(p.Type.Key()), v)
	}

	return result, nil
}

// resolveValue returns the value to set on a field of type t. Opts are
// replaced with their default.
func resolveValue(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if isOpts(v) {
		v = reflect.ValueOf(optsOf(v).Default)
	}

	return assignable(v, t)
}
