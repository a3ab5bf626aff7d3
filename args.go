// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Arg is an option to NewFunc, Func.Partial and Func.Call. It can set a
// named argument or configure the Func itself.
type Arg func(*argBuilder) error

type argBuilder struct {
	logger   hclog.Logger
	funcName string
	desc     string

	// named holds the named values in the order they were given. Keys may
	// be dotted to reach into nested commands.
	named []namedValue

	// defaults is a struct value whose fields are used as defaults.
	defaults reflect.Value
}

type namedValue struct {
	Name  string
	Value reflect.Value
}

func newArgBuilder(opts ...Arg) (*argBuilder, error) {
	builder := &argBuilder{
		logger: hclog.L(),
	}

	var buildErr error
	for _, opt := range opts {
		if err := opt(builder); err != nil {
			buildErr = multierror.Append(buildErr, err)
		}
	}

	return builder, buildErr
}

// Named specifies a named argument with the given value. Names are matched
// case-insensitively against parameter names, and "_" matches "-".
//
// A dotted name such as "exclamation.number" sets the "number" parameter
// of the nested command held by the "exclamation" parameter.
//
// The value may be an Opts to describe the command-line option for the
// parameter explicitly.
func Named(n string, v interface{}) Arg {
	return func(a *argBuilder) error {
		if n == "" {
			return fmt.Errorf("argument name can't be empty")
		}

		a.named = append(a.named, namedValue{Name: n, Value: reflect.ValueOf(v)})
		return nil
	}
}

// Defaults sets the defaults of a Func from the fields of a struct. If v is
// a value of the function's own input struct type, fields are matched
// exactly, including renamed fields. Otherwise fields are matched by name
// as with FromStruct.
//
// Fields of required parameters are ignored: use Named to bind those.
func Defaults(v interface{}) Arg {
	return func(a *argBuilder) error {
		sv := structValueOf(reflect.ValueOf(v))
		if !sv.IsValid() {
			return fmt.Errorf("defaults must be a struct or pointer to a struct, got %T", v)
		}

		a.defaults = sv
		return nil
	}
}

// FuncName sets the name of the function. This is used as the command
// name and in error messages.
func FuncName(n string) Arg {
	return func(a *argBuilder) error {
		a.funcName = n
		return nil
	}
}

// Description sets the description of the function. This is used as the
// help text of the command.
func Description(d string) Arg {
	return func(a *argBuilder) error {
		a.desc = d
		return nil
	}
}

// Logger specifies a logger to be used during operations with these
// arguments.
func Logger(l hclog.Logger) Arg {
	return func(a *argBuilder) error {
		a.logger = l
		return nil
	}
}
