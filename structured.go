// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"fmt"
	"reflect"
	"strings"

	"go.yaml.in/yaml/v3"
)

// buildDict configures a map option. The text is a YAML mapping (JSON
// objects are valid YAML) that is merged over a copy of the default, so
// keys of the default that the text doesn't name are kept.
func buildDict(v reflect.Value, opt *Option) error {
	t := v.Type()
	if t.Key().Kind() != reflect.String {
		return fmt.Errorf("map default must have string keys, got %s", t)
	}

	opt.Kind = KindDict
	opt.Type = t
	opt.Metavar = "dict"
	opt.Format = flowString
	opt.Parse = func(s string) (interface{}, error) {
		return mergeDict(v, func(out interface{}) error {
			return yaml.Unmarshal([]byte(s), out)
		}, s)
	}

	return nil
}

// mergeDict copies the map base and decodes into the copy with decode.
func mergeDict(base reflect.Value, decode func(interface{}) error, text string) (interface{}, error) {
	t := base.Type()
	result := reflect.New(t)
	result.Elem().Set(reflect.MakeMap(t))
	if !base.IsNil() {
		iter := base.MapRange()
		for iter.Next() {
			result.Elem().SetMapIndex(iter.Key(), iter.Value())
		}
	}

	if err := decode(result.Interface()); err != nil {
		return nil, &ValueError{Value: text, Reason: yamlReason(err, "a mapping")}
	}
	if result.Elem().IsNil() {
		return nil, &ValueError{Value: text, Reason: "expected a mapping"}
	}

	return result.Elem().Interface(), nil
}

// buildList configures a slice or array option. The text is a YAML
// sequence such as "[1, 2, 3]" that replaces the default.
func buildList(v reflect.Value, opt *Option) error {
	t := v.Type()

	opt.Kind = KindList
	opt.Type = t
	opt.Metavar = "list"
	opt.Format = flowString
	opt.Parse = func(s string) (interface{}, error) {
		result := reflect.New(t)
		if err := yaml.Unmarshal([]byte(s), result.Interface()); err != nil {
			return nil, &ValueError{Value: s, Reason: yamlReason(err, "a list")}
		}

		return result.Elem().Interface(), nil
	}

	return nil
}

// decodeInto converts a value decoded from a config file, such as a
// map[string]interface{} or int64, to type t by encoding it as YAML and
// decoding it again. If base is a valid map, the result is merged over it.
func decodeInto(v interface{}, t reflect.Type, base reflect.Value) (interface{}, error) {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}

	decode := func(out interface{}) error {
		return yaml.Unmarshal(raw, out)
	}

	text := strings.TrimSpace(string(raw))
	if t.Kind() == reflect.Map && base.IsValid() && base.Type() == t {
		return mergeDict(base, decode, text)
	}

	result := reflect.New(t)
	if err := decode(result.Interface()); err != nil {
		return nil, &ValueError{Value: text, Reason: yamlReason(err, "a "+t.String())}
	}

	return result.Elem().Interface(), nil
}

// flowString formats v as single-line YAML, such as "{a: 1, b: 2}".
func flowString(v interface{}) string {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	setFlowStyle(&node)

	out, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Sprint(v)
	}

	return strings.TrimSpace(string(out))
}

func setFlowStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = yaml.FlowStyle
	}

	for _, c := range n.Content {
		setFlowStyle(c)
	}
}

func yamlReason(err error, want string) string {
	if te, ok := err.(*yaml.TypeError); ok && len(te.Errors) > 0 {
		return fmt.Sprintf("expected %s: %s", want, te.Errors[0])
	}

	return fmt.Sprintf("expected %s: %s", want, err)
}
