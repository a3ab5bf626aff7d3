// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import "reflect"

// Struct should be embedded into any struct used as the input of a Func.
// It marks the struct as a set of named parameters and is itself skipped
// when the parameters are collected.
//
// Go reflection doesn't expose the names of function parameters, so a
// struct is used to name them instead:
//
//	func(in struct {
//		flagmapper.Struct
//
//		Input string `flagmapper:",required" help:"file to read"`
//		Count int    `flagmapper:"n"`
//	}) error
//
// Embedding Struct is optional; any struct input is accepted.
type Struct struct {
	structInterface
}

type structInterface interface {
	flagmapperStruct()
}

var structType = reflect.TypeOf(Struct{})

// isStruct returns true if the given type is a struct that embeds our
// struct marker.
func isStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < t.NumField(); i++ {
		if isStructField(t.Field(i)) {
			return true
		}
	}

	return false
}

// isStructField returns true if the given struct field is our embedded
// struct marker.
func isStructField(f reflect.StructField) bool {
	return f.Anonymous && f.Type == structType
}
