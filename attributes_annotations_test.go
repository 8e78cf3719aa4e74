// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

import (
	"reflect"
	"testing"
)

func TestDecodeElementValuePrimitive(t *testing.T) {
	r := NewReader([]byte{'I', 0, 5})
	v, err := decodeElementValue(r)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != ElementInt || v.ConstValueIndex != 5 {
		t.Fatalf("got %+v", v)
	}
}

func TestDecodeElementValueEnum(t *testing.T) {
	r := NewReader([]byte{'e', 0, 1, 0, 2})
	v, err := decodeElementValue(r)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != ElementEnum || v.EnumTypeNameIndex != 1 || v.EnumConstNameIndex != 2 {
		t.Fatalf("got %+v", v)
	}
}

func TestDecodeElementValueArray(t *testing.T) {
	r := NewReader([]byte{'[', 0, 2, 'I', 0, 1, 'I', 0, 2})
	v, err := decodeElementValue(r)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != ElementArray || len(v.Values) != 2 {
		t.Fatalf("got %+v", v)
	}
	if v.Values[0].ConstValueIndex != 1 || v.Values[1].ConstValueIndex != 2 {
		t.Fatalf("array values = %+v", v.Values)
	}
}

func TestDecodeElementValueNestedAnnotation(t *testing.T) {
	// @ typeIndex=1, 1 pair: name=2 -> int const at 3
	r := NewReader([]byte{'@', 0, 1, 0, 1, 0, 2, 'I', 0, 3})
	v, err := decodeElementValue(r)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind != ElementAnnotation || v.NestedAnnotation == nil {
		t.Fatalf("got %+v", v)
	}
	if v.NestedAnnotation.TypeIndex != 1 || len(v.NestedAnnotation.ElementValuePairs) != 1 {
		t.Fatalf("nested annotation = %+v", v.NestedAnnotation)
	}
}

func TestDecodeElementValueUnknownTag(t *testing.T) {
	r := NewReader([]byte{'x'})
	if _, err := decodeElementValue(r); err != ErrInvalidData {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
}

func TestDecodeRuntimeVisibleAnnotationsAttribute(t *testing.T) {
	// one annotation: typeIndex=1, one pair name=2 -> boolean const at 3
	r := NewReader([]byte{0, 1, 0, 1, 0, 1, 0, 2, 'Z', 0, 3})
	attr, err := decodeRuntimeVisibleAnnotationsAttribute(r, nil, testCtx())
	if err != nil {
		t.Fatal(err)
	}
	rva := attr.(RuntimeVisibleAnnotationsAttribute)
	if len(rva.Annotations) != 1 || rva.Annotations[0].TypeIndex != 1 {
		t.Fatalf("got %+v", rva)
	}
}

func TestDecodeTargetInfoTypeParameterBound(t *testing.T) {
	r := NewReader([]byte{2, 1}) // param index 2, bound index 1
	ti, err := decodeTargetInfo(r, targetClassTypeParameterBound)
	if err != nil {
		t.Fatal(err)
	}
	if ti.TypeParameterIndex != 2 || ti.BoundIndex != 1 {
		t.Fatalf("got %+v", ti)
	}
}

func TestDecodeTargetInfoLocalVar(t *testing.T) {
	r := NewReader([]byte{
		0, 1, // table count
		0, 10, 0, 20, 0, 3, // start, length, index
	})
	ti, err := decodeTargetInfo(r, targetLocalVar)
	if err != nil {
		t.Fatal(err)
	}
	if len(ti.LocalVarTable) != 1 {
		t.Fatalf("got %+v", ti)
	}
	entry := ti.LocalVarTable[0]
	if entry.StartPC != 10 || entry.Length != 20 || entry.Index != 3 {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestDecodeTargetInfoEmptyTarget(t *testing.T) {
	r := NewReader(nil)
	ti, err := decodeTargetInfo(r, targetField)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ti, TargetInfo{}) {
		t.Fatalf("expected zero TargetInfo, got %+v", ti)
	}
}

func TestDecodeTypeAnnotation(t *testing.T) {
	data := []byte{
		0x13,       // target_type = field (empty target_info)
		0,          // type_path count = 0
		0, 1,       // annotation type_index
		0, 0, // element_value_pairs count = 0
	}
	r := NewReader(data)
	ta, err := decodeTypeAnnotation(r)
	if err != nil {
		t.Fatal(err)
	}
	if ta.TargetType != 0x13 || ta.TypeIndex != 1 {
		t.Fatalf("got %+v", ta)
	}
}
