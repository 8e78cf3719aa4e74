// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

import (
	"errors"
	"fmt"
)

// Errors returned by the decoder. Every decode failure is one of these
// sentinels, returned either bare or wrapped in a *DecodeError that adds
// position/context detail, so callers can always test with errors.Is.
var (
	// ErrEndOfData is returned when a reader primitive needs more bytes than
	// remain in the underlying slice.
	ErrEndOfData = errors.New("rjvm: unexpected end of data")

	// ErrInvalidData is returned when a decoded byte pattern is syntactically
	// impossible: a bad element-value tag, a reserved stack map frame type,
	// trailing bytes after the class file, and similar.
	ErrInvalidData = errors.New("rjvm: invalid data")

	// ErrInvalidClassFile is returned when a structural invariant fails: bad
	// magic, an access-flag mask rejects the value, a pool referent is
	// missing or of the wrong kind, or a pool reference chain cycles.
	ErrInvalidClassFile = errors.New("rjvm: invalid class file")

	// ErrInvalidDescriptor is returned when the descriptor grammar fails.
	ErrInvalidDescriptor = errors.New("rjvm: invalid descriptor")

	// ErrConstantPoolEntryAlreadyExists is returned when Insert collides on
	// an index already occupied in the pool.
	ErrConstantPoolEntryAlreadyExists = errors.New("rjvm: constant pool entry already exists")

	// ErrConstantPoolEntryNotFound is returned when a required pool lookup
	// misses, including lookups that land on a Long/Double placeholder slot.
	ErrConstantPoolEntryNotFound = errors.New("rjvm: constant pool entry not found")

	// ErrUnsupportedAttributeName is returned when an attribute name is not
	// present in the registry used for the decode.
	ErrUnsupportedAttributeName = errors.New("rjvm: unsupported attribute name")

	// ErrUnsupportedInstruction is returned when an opcode is not present in
	// the instruction table.
	ErrUnsupportedInstruction = errors.New("rjvm: unsupported instruction")

	// ErrUnsupportedVerificationType is returned when a StackMapTable
	// verification-type tag byte is not recognized.
	ErrUnsupportedVerificationType = errors.New("rjvm: unsupported verification type")
)

// DecodeError wraps one of the sentinel Err* values above with the byte
// position in the input at which the failure was detected, and an optional
// name describing what was being decoded (an attribute name, an opcode
// mnemonic, a field name) when that adds useful context.
type DecodeError struct {
	Err      error
	Position uint32
	Context  string
}

func (e *DecodeError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (at offset %d)", e.Err, e.Context, e.Position)
	}
	return fmt.Sprintf("%s (at offset %d)", e.Err, e.Position)
}

// Unwrap returns the wrapped sentinel so that errors.Is(err, ErrEndOfData)
// and friends work regardless of how much context DecodeError carries.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// decodeErr builds a *DecodeError from a reader's current position. It is
// the one place that stitches a raw sentinel to the position where it was
// observed.
func decodeErr(pos uint32, err error, context string) *DecodeError {
	return &DecodeError{Err: err, Position: pos, Context: context}
}
