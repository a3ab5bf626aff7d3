// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"reflect"

	"github.com/spf13/pflag"
	"go.yaml.in/yaml/v3"
)

// optionValue is the pflag.Value of a single option.
type optionValue struct {
	opt   *Option
	value interface{}

	// set is true once the value was given on the command-line.
	set bool

	// seeded is true if value came from the config file or environment.
	// seed holds that value.
	seeded bool
	seed   interface{}
}

func newOptionValue(opt *Option) *optionValue {
	return &optionValue{opt: opt, value: opt.Default}
}

func (v *optionValue) String() string {
	if v == nil || v.opt == nil {
		return ""
	}

	return v.opt.FormatValue(v.value)
}

func (v *optionValue) Set(s string) error {
	parsed, err := v.parse(s)
	if err != nil {
		return err
	}

	v.value = parsed
	v.set = true
	return nil
}

// parse parses s. A dict given on the command-line is merged over the
// seeded value instead of the default.
func (v *optionValue) parse(s string) (interface{}, error) {
	if !v.seeded {
		return v.opt.Parse(s)
	}

	return parseOver(v.opt, s, v.seed)
}

// parseOver parses s as a value of opt. Dicts are merged over base when
// it is a map of the option's type.
func parseOver(opt *Option, s string, base interface{}) (interface{}, error) {
	if opt.Kind != KindDict || base == nil {
		return opt.Parse(s)
	}

	b := reflect.ValueOf(base)
	if b.Kind() != reflect.Map || b.Type() != opt.Type {
		return opt.Parse(s)
	}

	return mergeDict(b, func(out interface{}) error {
		return yaml.Unmarshal([]byte(s), out)
	}, s)
}

func (v *optionValue) Type() string {
	return v.opt.Metavar
}

var _ pflag.Value = (*optionValue)(nil)
