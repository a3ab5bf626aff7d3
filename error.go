// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrHelp is returned by Command.Parse when the invocation was handled by
// the parser itself, such as a request for help, version or completions.
// The function should not be called.
var ErrHelp = errors.New("flagmapper: invocation handled by the parser")

// ErrArgumentUnsatisfied is the value returned when there is a required
// parameter of a function that has no value.
type ErrArgumentUnsatisfied struct {
	// Func is the target function call that was attempted.
	Func *Func

	// Args are the parameters that have no value.
	Args []*Parameter
}

func (e *ErrArgumentUnsatisfied) Error() string {
	// Build our list of parameters the function expects
	fullArg := new(bytes.Buffer)
	for _, p := range e.Func.Parameters() {
		suffix := ""
		if p.Required {
			suffix = " [required]"
		}
		fmt.Fprintf(fullArg, "    - %s%s\n", p.String(), suffix)
	}

	// Build our list of missing arguments
	missing := new(bytes.Buffer)
	for _, p := range e.Args {
		fmt.Fprintf(missing, "    - %s\n", p.String())
	}

	// Build our list of the values we did have
	defaults := e.Func.Defaults()
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	inputs := new(bytes.Buffer)
	if len(keys) == 0 {
		fmt.Fprintf(inputs, "    No values!\n")
	}
	for _, k := range keys {
		fmt.Fprintf(inputs, "    - %s = %v\n", k, defaults[k])
	}

	return fmt.Sprintf(`
Argument to function %q could not be satisfied!

This means that one (or more) of the required parameters of a function
has no value. A complete error description is below for debugging.

==> Unsatisfied parameters
    This is a list of the required parameters that have no value.

%s

==> Full list of function parameters

%s

==> Full list of values
    This is a list of the defaults and bound values that were available.

%s
`,
		e.Func.Name(),
		strings.TrimSuffix(missing.String(), "\n"),
		strings.TrimSuffix(fullArg.String(), "\n"),
		strings.TrimSuffix(inputs.String(), "\n"),
	)
}

// ValueError is returned when a command-line value can't be converted to
// the value of an option.
type ValueError struct {
	// Value is the text that failed to convert.
	Value string

	// Reason describes what was expected.
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid value %q: %s", e.Value, e.Reason)
}

var (
	_ error = (*ErrArgumentUnsatisfied)(nil)
	_ error = (*ValueError)(nil)
)
