// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

import (
	"errors"
	"testing"
)

func newTestPool(t *testing.T, entries map[uint16]PoolEntry) *ConstantPool {
	t.Helper()
	p := NewConstantPool()
	for idx, e := range entries {
		if err := p.Insert(idx, e); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

func TestAttributeRegistryRegisterAndLookup(t *testing.T) {
	reg := NewAttributeRegistry()
	called := false
	reg.Register("Custom", func(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
		called = true
		return namedAttribute{"Custom"}, nil
	})

	fn, ok := reg.Lookup("Custom")
	if !ok {
		t.Fatal("expected Custom to be registered")
	}
	if _, err := fn(NewReader(nil), nil, nil); err != nil || !called {
		t.Fatalf("decoder not invoked correctly: called=%v err=%v", called, err)
	}
}

func TestStandardAttributeRegistryCoversKnownNames(t *testing.T) {
	reg := NewStandardAttributeRegistry()
	names := []string{
		"ConstantValue", "Code", "StackMapTable", "Exceptions", "InnerClasses",
		"EnclosingMethod", "Synthetic", "Deprecated", "Signature", "SourceFile",
		"SourceDebugExtension", "LineNumberTable", "LocalVariableTable",
		"LocalVariableTypeTable", "RuntimeVisibleAnnotations",
		"RuntimeInvisibleAnnotations", "RuntimeVisibleParameterAnnotations",
		"RuntimeInvisibleParameterAnnotations", "RuntimeVisibleTypeAnnotations",
		"RuntimeInvisibleTypeAnnotations", "AnnotationDefault", "BootstrapMethods",
		"MethodParameters", "Module", "ModulePackages", "ModuleMainClass",
		"NestHost", "NestMembers", "Record", "PermittedSubtypes",
	}
	for _, name := range names {
		if _, ok := reg.Lookup(name); !ok {
			t.Errorf("standard registry missing decoder for %q", name)
		}
	}
}

func TestDecodeOneAttributeUnsupportedName(t *testing.T) {
	pool := newTestPool(t, map[uint16]PoolEntry{1: Utf8Info{Value: "TotallyMadeUp"}})
	ctx := &decodeContext{registry: NewStandardAttributeRegistry(), maxDepth: 4}

	// name_index=1, length=0
	r := NewReader([]byte{0, 1, 0, 0, 0, 0})
	_, err := decodeOneAttribute(r, pool, ctx)
	if !errors.Is(err, ErrUnsupportedAttributeName) {
		t.Fatalf("expected ErrUnsupportedAttributeName, got %v", err)
	}
}

func TestDecodeOneAttributeDispatchesDeprecated(t *testing.T) {
	pool := newTestPool(t, map[uint16]PoolEntry{1: Utf8Info{Value: "Deprecated"}})
	ctx := &decodeContext{registry: NewStandardAttributeRegistry(), maxDepth: 4}

	r := NewReader([]byte{0, 1, 0, 0, 0, 0})
	attr, err := decodeOneAttribute(r, pool, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if attr.AttributeName() != "Deprecated" {
		t.Fatalf("got %T %+v", attr, attr)
	}
}

func TestDecodeAttributesRespectsRecursionLimit(t *testing.T) {
	pool := newTestPool(t, map[uint16]PoolEntry{1: Utf8Info{Value: "Record"}})
	ctx := &decodeContext{registry: NewStandardAttributeRegistry(), maxDepth: 0}

	// A Record attribute always tries to recurse one level to decode its
	// components' nested attributes, so maxDepth=0 must reject it outright.
	r := NewReader([]byte{0, 1, 0, 0, 0, 2, 0, 0})
	_, err := decodeOneAttribute(r, pool, ctx)
	if !errors.Is(err, ErrInvalidClassFile) {
		t.Fatalf("expected ErrInvalidClassFile from recursion limit, got %v", err)
	}
}
