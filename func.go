// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/hashicorp/go-hclog"
)

// Func wraps a target function whose parameters can be set by name,
// inspected for their defaults, and exposed as command-line options.
//
// The function must take either no arguments or a single struct (or
// pointer to struct). Each exported field of the struct is a parameter.
// Fields can be configured with the `flagmapper` tag:
//
//	flagmapper:"name,required,short=n"
//
//   * name - overrides the parameter name. The default is the field name
//     in kebab-case ("ExclamationNumber" becomes "exclamation-number").
//     A name of "-" ignores the field.
//
//   * required - the parameter has no default. Required parameters become
//     positional command-line arguments.
//
//   * extra - the field receives named values that match no other
//     parameter. It must be a map with string keys. On the command-line
//     this absorbs unknown flags.
//
//   * short=n - a single-character flag alias.
//
// A `help` tag sets the help text of the parameter.
//
// Every parameter that is not required has a default: the zero value of its
// type unless set with Defaults or Named. A default that is itself a *Func
// makes the parameter a nested command.
//
// Partial Application
//
// Partial binds named arguments and returns a new Func. The bound values
// become the new defaults, overriding the defaults of the wrapped Func.
// Partial never modifies the Func it is called on.
//
// Results
//
// A final return type of "error" is treated as the error result of a
// call, and is returned by Result.Err.
type Func struct {
	fn     reflect.Value
	input  *valueSet
	name   string
	desc   string
	logger hclog.Logger

	// parent is the Func this one was created from with Partial. It is
	// nil for a Func created with NewFunc.
	parent *Func

	// bound are the values bound to parameters, keyed by parameter name.
	bound map[string]reflect.Value

	// extra are the values bound to the extra parameter, keyed by the
	// name they were given with.
	extra map[string]reflect.Value
}

// NewFunc creates a new Func from the given input function f.
//
// For more details on the format of the function f, see the docs for Func.
//
// Named arguments given here are the defaults of the function. Use Defaults
// to set defaults from a struct value.
func NewFunc(f interface{}, opts ...Arg) (*Func, error) {
	args, err := newArgBuilder(opts...)
	if err != nil {
		return nil, err
	}

	fv := reflect.ValueOf(f)
	if !fv.IsValid() {
		return nil, fmt.Errorf("fn should be a function, got nil")
	}

	ft := fv.Type()
	if k := ft.Kind(); k != reflect.Func {
		return nil, fmt.Errorf("fn should be a function, got %s", k)
	}

	inTyp, err := newValueSet(ft.NumIn(), ft.In)
	if err != nil {
		return nil, err
	}
	if !inTyp.empty() && !isStruct(inTyp.structType) {
		args.logger.Trace("input struct doesn't embed flagmapper.Struct, using all exported fields",
			"type", inTyp.structType.String())
	}

	result := &Func{
		fn:     fv,
		input:  inTyp,
		name:   args.funcName,
		desc:   args.desc,
		logger: args.logger,
		bound:  map[string]reflect.Value{},
		extra:  map[string]reflect.Value{},
	}

	if args.defaults.IsValid() {
		defaults, err := result.defaultArgs(args.defaults)
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

// MustFunc can be called around NewFunc in order to force success and
// panic if there is any error.
func MustFunc(f *Func, err error) *Func {
	if err != nil {
		panic(err)
	}

	return f
}

// defaultArgs returns the named values for the fields of the struct v.
func (f *Func) defaultArgs(v reflect.Value) ([]namedValue, error) {
	// If this is our own input struct, we use the parameter list directly
	// so renamed fields line up.
	if f.input.structType == v.Type() {
		var result []namedValue
		for _, p := range f.input.params {
			if p.Required || p.Extra {
				continue
			}

			result = append(result, namedValue{
				Name:  p.Name,
				Value: v.Field(p.index),
			})
		}

		return result, nil
	}

	builder, err := newArgBuilder(FromStruct(v.Interface())...)
	if err != nil {
		return nil, err
	}

	var result []namedValue
	for _, nv := range builder.named {
		if p := f.input.lookup(nv.Name); p != nil && p.Required {
			continue
		}

		result = append(result, nv)
	}

	return result, nil
}

// Parameters returns the parameters of the function in field order.
func (f *Func) Parameters() []*Parameter {
	result := make([]*Parameter, len(f.input.params))
	copy(result, f.input.params)
	return result
}

// Parameter returns the parameter with the given name, or nil.
func (f *Func) Parameter(name string) *Parameter {
	return f.input.lookup(name)
}

// Required returns the parameters that have no default and no bound value.
func (f *Func) Required() []*Parameter {
	values := f.values()

	var result []*Parameter
	for _, p := range f.input.params {
		if !p.Required {
			continue
		}

		if _, ok := values[p.Name]; !ok {
			result = append(result, p)
		}
	}

	return result
}

// Defaults returns the default of every parameter that has one, keyed by
// parameter name. Values bound with Partial are merged over the defaults
// of the wrapped function, so the outermost binding wins. Required
// parameters without a bound value are not included.
//
// A default given as an Opts is returned as-is.
func (f *Func) Defaults() map[string]interface{} {
	result := map[string]interface{}{}
	for k, v := range f.values() {
		if !v.IsValid() {
			result[k] = nil
			continue
		}

		result[k] = v.Interface()
	}

	return result
}

// values returns the merged values of every parameter with a default.
func (f *Func) values() map[string]reflect.Value {
	result := map[string]reflect.Value{}
	for _, p := range f.input.params {
		if p.Required || p.Extra {
			continue
		}

		result[p.Name] = reflect.Zero(p.Type)
	}

	// Apply the chain from the innermost function outwards so that the
	// outer bindings win.
	chain := f.chain()
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].bound {
			result[k] = v
		}
	}

	return result
}

// extraValues returns the merged values for the extra parameter.
func (f *Func) extraValues() map[string]reflect.Value {
	result := map[string]reflect.Value{}
	chain := f.chain()
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].extra {
			result[k] = v
		}
	}

	return result
}

// chain returns f followed by every Func it wraps.
func (f *Func) chain() []*Func {
	var result []*Func
	for current := f; current != nil; current = current.parent {
		result = append(result, current)
	}

	return result
}

// Unwrapped returns the Func originally created with NewFunc, unwrapping
// every Partial.
func (f *Func) Unwrapped() *Func {
	current := f
	for current.parent != nil {
		current = current.parent
	}

	return current
}

// Func returns the function pointer that this Func is built around.
func (f *Func) Func() interface{} {
	return f.fn.Interface()
}

// Description returns the description set with the Description Arg.
func (f *Func) Description() string {
	return f.desc
}

// Name returns the name of the function.
//
// This will return the configured name if one was given on NewFunc. If not,
// this will attempt to look up the function name using the pointer. If
// no friendly name can be found, then this will default to the function
// type signature.
func (f *Func) Name() string {
	// Use our set name first, if we have one
	name := f.name

	// Fall back to inspecting the program counter
	if name == "" {
		if rfunc := runtime.FuncForPC(f.fn.Pointer()); rfunc != nil {
			name = rfunc.Name()
		}

		// Final fallback is our type signature
		if name == "" {
			name = f.fn.String()
		}
	}

	return name
}

// String returns the name for this function. See Name.
func (f *Func) String() string {
	return f.Name()
}

// nestedFunc returns the *Func held by v, if any. Opts wrapping a *Func
// are unwrapped.
func nestedFunc(v reflect.Value) (*Func, bool) {
	if !v.IsValid() {
		return nil, false
	}

	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}

	switch raw := v.Interface().(type) {
	case *Func:
		return raw, raw != nil

	case Opts:
		return nestedFunc(reflect.ValueOf(raw.Default))

	case *Opts:
		if raw == nil {
			return nil, false
		}
		return nestedFunc(reflect.ValueOf(raw.Default))
	}

	return nil, false
}

// errType is used for comparison in Result
var errType = reflect.TypeOf((*error)(nil)).Elem()
