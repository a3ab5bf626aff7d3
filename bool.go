// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import "reflect"

// parseBool accepts exactly "true" or "false". Other spellings accepted by
// strconv.ParseBool, such as "1" or "T", are rejected.
func parseBool(s string) (interface{}, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	return nil, &ValueError{
		Value:  s,
		Reason: `expected either "true" or "false"`,
	}
}

func buildBool(v reflect.Value, opt *Option) error {
	t := v.Type()

	opt.Kind = KindBool
	opt.Type = t
	opt.Choices = []string{"true", "false"}
	opt.Metavar = "{true,false}"
	opt.Parse = func(s string) (interface{}, error) {
		b, err := parseBool(s)
		if err != nil {
			return nil, err
		}

		// Named bool types get a value of their own type.
		return reflect.ValueOf(b).Convert(t).Interface(), nil
	}

	return nil
}
