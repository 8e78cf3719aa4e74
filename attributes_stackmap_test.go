// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

import (
	"errors"
	"testing"
)

func TestDecodeStackMapFrameSame(t *testing.T) {
	r := NewReader([]byte{10})
	f, err := decodeStackMapFrame(r)
	if err != nil {
		t.Fatal(err)
	}
	if f.FrameType != 10 || f.OffsetDelta != 10 {
		t.Fatalf("got %+v", f)
	}
}

func TestDecodeStackMapFrameSameLocals1StackItem(t *testing.T) {
	r := NewReader([]byte{70, byte(VerificationInteger)})
	f, err := decodeStackMapFrame(r)
	if err != nil {
		t.Fatal(err)
	}
	if f.OffsetDelta != 6 || len(f.Stack) != 1 || f.Stack[0].Tag != VerificationInteger {
		t.Fatalf("got %+v", f)
	}
}

func TestDecodeStackMapFrameSameLocals1StackItemExtended(t *testing.T) {
	r := NewReader([]byte{247, 0, 20, byte(VerificationObject), 0, 5})
	f, err := decodeStackMapFrame(r)
	if err != nil {
		t.Fatal(err)
	}
	if f.OffsetDelta != 20 || len(f.Stack) != 1 || f.Stack[0].Tag != VerificationObject || f.Stack[0].CPoolIndex != 5 {
		t.Fatalf("got %+v", f)
	}
}

func TestDecodeStackMapFrameChop(t *testing.T) {
	r := NewReader([]byte{249, 0, 3}) // chop 2 locals
	f, err := decodeStackMapFrame(r)
	if err != nil {
		t.Fatal(err)
	}
	if f.FrameType != 249 || f.OffsetDelta != 3 || f.Locals != nil {
		t.Fatalf("got %+v", f)
	}
}

func TestDecodeStackMapFrameSameFrameExtended(t *testing.T) {
	r := NewReader([]byte{251, 0, 42})
	f, err := decodeStackMapFrame(r)
	if err != nil {
		t.Fatal(err)
	}
	if f.OffsetDelta != 42 {
		t.Fatalf("got %+v", f)
	}
}

func TestDecodeStackMapFrameAppend(t *testing.T) {
	r := NewReader([]byte{253, 0, 7, byte(VerificationInteger), byte(VerificationFloat)})
	f, err := decodeStackMapFrame(r)
	if err != nil {
		t.Fatal(err)
	}
	if f.OffsetDelta != 7 || len(f.Locals) != 2 {
		t.Fatalf("got %+v", f)
	}
	if f.Locals[0].Tag != VerificationInteger || f.Locals[1].Tag != VerificationFloat {
		t.Fatalf("locals = %+v", f.Locals)
	}
}

func TestDecodeStackMapFrameFull(t *testing.T) {
	r := NewReader([]byte{
		255,
		0, 15, // offset_delta
		0, 1, byte(VerificationInteger), // 1 local
		0, 1, byte(VerificationUninitialized), 0, 9, // 1 stack item
	})
	f, err := decodeStackMapFrame(r)
	if err != nil {
		t.Fatal(err)
	}
	if f.OffsetDelta != 15 || len(f.Locals) != 1 || len(f.Stack) != 1 {
		t.Fatalf("got %+v", f)
	}
	if f.Stack[0].Tag != VerificationUninitialized || f.Stack[0].Offset != 9 {
		t.Fatalf("stack = %+v", f.Stack)
	}
}

func TestDecodeStackMapFrameReservedRange(t *testing.T) {
	r := NewReader([]byte{200})
	if _, err := decodeStackMapFrame(r); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData for reserved frame type, got %v", err)
	}
}

func TestDecodeVerificationTypeInfoUnsupportedTag(t *testing.T) {
	r := NewReader([]byte{99})
	_, err := decodeVerificationTypeInfo(r)
	if !errors.Is(err, ErrUnsupportedVerificationType) {
		t.Fatalf("expected ErrUnsupportedVerificationType, got %v", err)
	}
}

func TestDecodeStackMapTableAttribute(t *testing.T) {
	r := NewReader([]byte{
		0, 2, // entry count
		5,                                  // same_frame
		247, 0, 1, byte(VerificationTop), // same_locals_1_stack_item_frame_extended
	})
	attr, err := decodeStackMapTableAttribute(r, nil, testCtx())
	if err != nil {
		t.Fatal(err)
	}
	smt := attr.(StackMapTableAttribute)
	if len(smt.Entries) != 2 {
		t.Fatalf("Entries = %+v", smt.Entries)
	}
	if smt.Entries[0].FrameType != 5 || smt.Entries[1].FrameType != 247 {
		t.Fatalf("Entries = %+v", smt.Entries)
	}
}
