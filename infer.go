// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Rule infers the command-line option for a parameter from its default
// value. Rules are tried in order and the first rule that matches builds
// the option.
type Rule struct {
	// Name identifies the rule in logs.
	Name string

	// Match returns true if the rule applies to the default value.
	Match func(reflect.Value) bool

	// Build sets the Kind, Type, Parse and presentation fields of the
	// option. Name, Default, Help and the required markers are already
	// set when Build is called.
	Build func(reflect.Value, *Option) error
}

// DefaultRules returns the built-in rules in priority order: nested
// commands, enums, maps, slices and arrays, bools and finally any type
// supported by Convert. If completion is true, enum members are keyed by
// their string form instead of their EnumName.
func DefaultRules(completion bool) []Rule {
	return []Rule{
		{
			Name: "nested",
			Match: func(v reflect.Value) bool {
				_, ok := nestedFunc(v)
				return ok
			},
			Build: buildNested,
		},

		{
			Name:  "enum",
			Match: func(v reflect.Value) bool { return v.Type().Implements(enumType) },
			Build: buildEnum(completion),
		},

		{
			Name:  "dict",
			Match: func(v reflect.Value) bool { return v.Kind() == reflect.Map },
			Build: buildDict,
		},

		{
			Name: "list",
			Match: func(v reflect.Value) bool {
				return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
			},
			Build: buildList,
		},

		{
			Name:  "bool",
			Match: func(v reflect.Value) bool { return v.Kind() == reflect.Bool },
			Build: buildBool,
		},

		{
			Name:  "scalar",
			Match: func(v reflect.Value) bool { return convertible(v.Type()) },
			Build: buildScalar,
		},
	}
}

func buildNested(v reflect.Value, opt *Option) error {
	opt.Kind = KindNested
	opt.Type = funcType
	opt.Metavar = "command"
	return nil
}

func buildScalar(v reflect.Value, opt *Option) error {
	t := v.Type()

	opt.Kind = KindScalar
	opt.Type = t
	opt.Metavar = metavarFor(t)
	opt.Parse = func(s string) (interface{}, error) {
		return Convert(s, t)
	}

	return nil
}

func metavarFor(t reflect.Type) string {
	switch {
	case t == durationType:
		return "duration"
	case t.Kind() == reflect.Interface:
		return "string"
	case reflect.PtrTo(t).Implements(textUnmarshalerType):
		if t.Name() != "" {
			return strings.ToLower(t.Name())
		}
		return "value"
	}

	return t.Kind().String()
}

var funcType = reflect.TypeOf((*Func)(nil))

// Inferer derives the command-line options of a Func.
type Inferer struct {
	rules  []Rule
	logger hclog.Logger
}

// NewInferer returns an Inferer using the given rules ahead of
// DefaultRules(completion).
func NewInferer(completion bool, rules ...Rule) *Inferer {
	all := make([]Rule, 0, len(rules)+6)
	all = append(all, rules...)
	all = append(all, DefaultRules(completion)...)

	return &Inferer{
		rules:  all,
		logger: hclog.L(),
	}
}

// Options returns the options for every parameter of f in field order.
//
// Required parameters without a bound value become positional options.
// Parameters holding a nested command are replaced by the options of the
// nested command with the parameter name and a dot as a prefix; required
// parameters of nested commands become required flags. Values bound to
// the extra parameter become options of kind KindExtra, sorted by name.
//
// If filters are given, only the parameters of f that match every filter
// are exposed. The others keep their value. A required parameter without a
// value can't be filtered out.
func (i *Inferer) Options(f *Func, filters ...FilterFunc) ([]*Option, error) {
	return i.options(f, "", true, FilterAnd(filters...))
}

func (i *Inferer) options(f *Func, prefix string, top bool, filter FilterFunc) ([]*Option, error) {
	log := i.logger.Named("infer")
	values := f.values()

	var result []*Option
	var err error
	for _, p := range f.input.params {
		if p.Extra {
			continue
		}

		v, hasValue := values[p.Name]
		if top && !filter(p) {
			if !hasValue {
				err = multierror.Append(err, fmt.Errorf(
					"required parameter %q has no value and can't be hidden", p.Name))
			}

			continue
		}

		opt, e := i.option(p, v, hasValue, prefix, top)
		if e != nil {
			err = multierror.Append(err, fmt.Errorf("parameter %q: %w", prefix+p.Name, e))
			continue
		}

		if opt.Kind != KindNested {
			log.Trace("inferred option", "name", opt.Name, "kind", opt.Kind, "type", opt.Type)
			result = append(result, opt)
			continue
		}

		nested, _ := nestedFunc(v)
		log.Trace("flattening nested command", "name", opt.Name, "func", nested.Name())
		children, e := i.options(nested, opt.Name+".", false, nil)
		if e != nil {
			err = multierror.Append(err, e)
			continue
		}

		result = append(result, children...)
	}

	// Named values given for the extra parameter are options too, so that
	// they show in the help and can be set again.
	if extra := f.input.extra; extra != nil && (!top || filter(extra)) {
		extraValues := f.extraValues()
		keys := make([]string, 0, len(extraValues))
		for k := range extraValues {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			result = append(result, extraOption(prefix+k, extra.Type.Elem(), extraValues[k].Interface()))
		}
	}

	return result, err
}

// option builds the option for a single parameter.
func (i *Inferer) option(p *Parameter, v reflect.Value, hasValue bool, prefix string, top bool) (*Option, error) {
	opt := &Option{
		Name:  prefix + p.Name,
		Short: p.Short,
		Help:  p.Help,
		Param: p,
	}
	if !top {
		opt.Short = ""
	}

	if !hasValue {
		opt.Required = true
		opt.Positional = top
		v = reflect.Zero(p.Type)
	}

	var opts *Opts
	if isOpts(v) {
		opts = optsOf(v)
		v = reflect.ValueOf(opts.Default)
		if !v.IsValid() {
			v = reflect.Zero(p.Type)
		}
	}

	if hasValue {
		opt.Default = v.Interface()
	}

	// Interfaces are matched on the value they hold.
	if v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}

	if opts == nil || opts.Parse == nil {
		matched := false
		for _, r := range i.rules {
			if !r.Match(v) {
				continue
			}

			if err := r.Build(v, opt); err != nil {
				return nil, err
			}

			matched = true
			break
		}

		if !matched {
			return nil, fmt.Errorf("no rule to infer an option for type %s", v.Type())
		}
	} else {
		opt.Kind = KindScalar
		opt.Type = p.Type
		opt.Metavar = metavarFor(p.Type)
	}

	if opts != nil {
		opts.apply(opt)
	}

	return opt, nil
}

// extraOption returns the option for a value of the extra parameter.
func extraOption(name string, elem reflect.Type, def interface{}) *Option {
	return &Option{
		Name:    name,
		Kind:    KindExtra,
		Type:    elem,
		Default: def,
		Metavar: "string",
		Parse: func(s string) (interface{}, error) {
			return Convert(s, elem)
		},
	}
}
