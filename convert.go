// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Convert converts command-line text to a value of the target type. This
// is the parser used for any parameter whose default has no more specific
// rule: the text is read as the same type as the default.
//
// Supported targets are strings, integers, floats, bools, time.Duration,
// types implementing encoding.TextUnmarshaler, and interface types that a
// string can be assigned to (which receive the text itself).
func Convert(s string, target reflect.Type) (interface{}, error) {
	if target == nil {
		return s, nil
	}

	if target == durationType {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, &ValueError{Value: s, Reason: "expected a duration such as 10s"}
		}

		return d, nil
	}

	if reflect.PtrTo(target).Implements(textUnmarshalerType) {
		v := reflect.New(target)
		if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return nil, &ValueError{Value: s, Reason: err.Error()}
		}

		return v.Elem().Interface(), nil
	}

	switch target.Kind() {
	case reflect.String:
		return reflect.ValueOf(s).Convert(target).Interface(), nil

	case reflect.Bool:
		b, err := parseBool(s)
		if err != nil {
			return nil, err
		}

		return reflect.ValueOf(b).Convert(target).Interface(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, target.Bits())
		if err != nil {
			return nil, &ValueError{Value: s, Reason: numError(err, "an integer")}
		}

		return reflect.ValueOf(n).Convert(target).Interface(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, target.Bits())
		if err != nil {
			return nil, &ValueError{Value: s, Reason: numError(err, "a non-negative integer")}
		}

		return reflect.ValueOf(n).Convert(target).Interface(), nil

	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, target.Bits())
		if err != nil {
			return nil, &ValueError{Value: s, Reason: numError(err, "a number")}
		}

		return reflect.ValueOf(n).Convert(target).Interface(), nil

	case reflect.Interface:
		if reflect.TypeOf(s).AssignableTo(target) {
			return s, nil
		}
	}

	return nil, fmt.Errorf("can't convert command-line text to %s", target)
}

// convertible returns true if Convert supports the target type.
func convertible(target reflect.Type) bool {
	if target == durationType || reflect.PtrTo(target).Implements(textUnmarshalerType) {
		return true
	}

	switch target.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true

	case reflect.Interface:
		return reflect.TypeOf("").AssignableTo(target)
	}

	return false
}

func numError(err error, want string) string {
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return "value out of range"
	}

	return "expected " + want
}
