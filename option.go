// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind is the kind of command-line option inferred for a parameter.
type Kind uint

const (
	KindScalar Kind = iota // same type as the default
	KindEnum               // one of a set of choices
	KindList               // structured list
	KindDict               // structured map merged over the default
	KindBool               // "true" or "false"
	KindNested             // nested command, flattened under a prefix
	KindExtra              // unknown flag absorbed by the extra parameter
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindEnum:
		return "enum"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindBool:
		return "bool"
	case KindNested:
		return "nested"
	case KindExtra:
		return "extra"
	default:
		return fmt.Sprintf("Kind(%d)", uint(k))
	}
}

// Option describes a single command-line argument, derived
// from a parameter of a Func.
type Option struct {
	// Name is the name of the option. Options of nested commands are
	// prefixed with the name of the parameter holding the nested command
	// and a dot, such as "exclamation.number".
	Name string

	// Short is the single-character flag alias, if any.
	Short string

	// Positional is true for a positional argument. Only required
	// parameters of the top-level function are positional.
	Positional bool

	// Required is true if the option must be given.
	Required bool

	// Kind is the kind of option that was inferred.
	Kind Kind

	// Type is the type of the values returned by Parse.
	Type reflect.Type

	// Default is the default value, nil if there is none.
	Default interface{}

	// Parse converts command-line text to a value.
	Parse func(string) (interface{}, error)

	// Format converts a value to text for display. If nil, fmt.Sprint
	// is used.
	Format func(interface{}) string

	// Choices is the set of allowed values, if restricted.
	Choices []string

	// Metavar is the placeholder for the value in help output.
	Metavar string

	// Help is the help text.
	Help string

	// Param is the parameter this option was derived from. This is nil
	// for options of kind KindExtra.
	Param *Parameter
}

// Flags returns the option strings for this option: the bare name for a
// positional argument, otherwise "--name" and "-s" if there is a short
// alias.
func (o *Option) Flags() []string {
	if o.Positional {
		return []string{o.Name}
	}

	result := []string{"--" + o.Name}
	if o.Short != "" {
		result = append(result, "-"+o.Short)
	}

	return result
}

// FormatValue returns v as command-line text.
func (o *Option) FormatValue(v interface{}) string {
	if v == nil {
		return ""
	}

	if o.Format != nil {
		return o.Format(v)
	}

	return fmt.Sprint(v)
}

func (o *Option) String() string {
	return fmt.Sprintf("%s (%s %s)", strings.Join(o.Flags(), ", "), o.Kind, o.Metavar)
}

// Opts describes the command-line option of a parameter explicitly. It is
// given in place of a default value:
//
//	flagmapper.Named("exclamation", flagmapper.Opts{
//		Default: true,
//		Help:    "whether to use an exclamation sign",
//	})
//
// When the function is called, the parameter receives Default. Any field
// that is set replaces what would otherwise be inferred from Default.
type Opts struct {
	// Default is the default value of the parameter.
	Default interface{}

	// Parse converts command-line text to a value assignable to the
	// parameter.
	Parse func(string) (interface{}, error)

	// Format converts a value to text for display.
	Format func(interface{}) string

	// Choices restricts the accepted command-line text. If Parse is not
	// set, text outside of Choices is rejected.
	Choices []string

	// Metavar is the placeholder for the value in help output.
	Metavar string

	// Help is the help text.
	Help string

	// Short is a single-character flag alias.
	Short string
}

// apply sets every field of o that is set on the option.
func (o *Opts) apply(opt *Option) {
	if o.Parse != nil {
		opt.Parse = o.Parse
		if o.Default != nil {
			opt.Type = reflect.TypeOf(o.Default)
		}
	}
	if o.Format != nil {
		opt.Format = o.Format
	}
	if len(o.Choices) > 0 {
		opt.Choices = o.Choices
		if o.Parse == nil {
			opt.Parse = choiceParser(o.Choices, opt.Parse)
		}
	}
	if o.Metavar != "" {
		opt.Metavar = o.Metavar
	}
	if o.Help != "" {
		opt.Help = o.Help
	}
	if o.Short != "" {
		opt.Short = o.Short
	}
}

// choiceParser returns a parser that only passes text in choices to next.
func choiceParser(choices []string, next func(string) (interface{}, error)) func(string) (interface{}, error) {
	return func(s string) (interface{}, error) {
		for _, c := range choices {
			if c == s {
				return next(s)
			}
		}

		return nil, &ValueError{
			Value:  s,
			Reason: fmt.Sprintf("choose from %s", strings.Join(choices, ", ")),
		}
	}
}

var optsType = reflect.TypeOf(Opts{})

func isOpts(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}

	if v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}

	t := v.Type()
	return t == optsType || (t.Kind() == reflect.Ptr && t.Elem() == optsType && !v.IsNil())
}

// optsOf returns the Opts held by v. v must satisfy isOpts.
func optsOf(v reflect.Value) *Opts {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}

	if v.Kind() == reflect.Ptr {
		return v.Interface().(*Opts)
	}

	o := v.Interface().(Opts)
	return &o
}
