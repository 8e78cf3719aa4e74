// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

import (
	"math"
)

// Reader is a bounded, big-endian, position-tracked cursor over an
// immutable byte slice. It never copies the underlying slice; ReadBytes
// borrows a window into it.
//
// Every successful read advances the cursor by exactly the width of the
// value decoded. A failed read never advances the cursor, so a caller that
// recovers from ErrEndOfData (there is nothing to recover to here, since
// the format offers no resynchronization point) always sees a consistent
// position.
type Reader struct {
	data   []byte
	cursor uint32
}

// NewReader wraps data for sequential, big-endian decoding. data is borrowed,
// not copied; the caller must not mutate it while the Reader is in use.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current cursor offset.
func (r *Reader) Position() uint32 {
	return r.cursor
}

// Size returns the total length of the underlying slice.
func (r *Reader) Size() uint32 {
	return uint32(len(r.data))
}

// HasRemaining reports whether any bytes remain to be read. This uses the
// conventional sense (true iff position < size); the lineage's own reader
// disagreed on this and was fixed here, see SPEC_FULL.md §4.1.
func (r *Reader) HasRemaining() bool {
	return uint64(r.cursor) < uint64(len(r.data))
}

func (r *Reader) remaining() uint32 {
	return uint32(len(r.data)) - r.cursor
}

// ReadBytes borrows the next n bytes and advances the cursor by n.
func (r *Reader) ReadBytes(n uint32) ([]byte, error) {
	if n > r.remaining() {
		return nil, ErrEndOfData
	}
	b := r.data[r.cursor : r.cursor+n]
	r.cursor += n
	return b, nil
}

// PeekBytes borrows the next n bytes without advancing the cursor.
func (r *Reader) PeekBytes(n uint32) ([]byte, error) {
	if n > r.remaining() {
		return nil, ErrEndOfData
	}
	return r.data[r.cursor : r.cursor+n], nil
}

// ReadU8 reads a single unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, ErrEndOfData
	}
	v := r.data[r.cursor]
	r.cursor++
	return v, nil
}

// PeekU8 reads a single unsigned byte without advancing the cursor.
func (r *Reader) PeekU8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, ErrEndOfData
	}
	return r.data[r.cursor], nil
}

// ReadI8 reads a single signed byte.
func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

// ReadU16 reads a big-endian 2-byte unsigned integer.
func (r *Reader) ReadU16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, ErrEndOfData
	}
	v := uint16(r.data[r.cursor])<<8 | uint16(r.data[r.cursor+1])
	r.cursor += 2
	return v, nil
}

// PeekU16 reads a big-endian 2-byte unsigned integer without advancing.
func (r *Reader) PeekU16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, ErrEndOfData
	}
	return uint16(r.data[r.cursor])<<8 | uint16(r.data[r.cursor+1]), nil
}

// ReadI16 reads a big-endian 2-byte signed integer.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadU32 reads a big-endian 4-byte unsigned integer.
func (r *Reader) ReadU32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, ErrEndOfData
	}
	v := uint32(r.data[r.cursor])<<24 | uint32(r.data[r.cursor+1])<<16 |
		uint32(r.data[r.cursor+2])<<8 | uint32(r.data[r.cursor+3])
	r.cursor += 4
	return v, nil
}

// PeekU32 reads a big-endian 4-byte unsigned integer without advancing.
func (r *Reader) PeekU32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, ErrEndOfData
	}
	return uint32(r.data[r.cursor])<<24 | uint32(r.data[r.cursor+1])<<16 |
		uint32(r.data[r.cursor+2])<<8 | uint32(r.data[r.cursor+3]), nil
}

// ReadI32 reads a big-endian 4-byte signed integer.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadU64 reads a big-endian 8-byte unsigned integer.
func (r *Reader) ReadU64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, ErrEndOfData
	}
	hi, _ := r.ReadU32()
	lo, _ := r.ReadU32()
	return uint64(hi)<<32 | uint64(lo), nil
}

// ReadI64 reads a big-endian 8-byte signed integer.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// ReadF32 reads a big-endian IEEE-754 single-precision float.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadF64 reads a big-endian IEEE-754 double-precision float.
func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Skip advances the cursor by n bytes without returning them. It fails
// (without advancing) if fewer than n bytes remain.
func (r *Reader) Skip(n uint32) error {
	if n > r.remaining() {
		return ErrEndOfData
	}
	r.cursor += n
	return nil
}

// AlignTo4 advances the cursor to the next multiple of 4, measured from the
// start of the slice this Reader was constructed over. tableswitch and
// lookupswitch pad relative to the start of the *code array*, so callers
// decoding those must construct a sub-Reader over the code bytes alone (see
// instructions.go) rather than call this on a Reader over the whole file.
func (r *Reader) AlignTo4() error {
	pad := (4 - (r.cursor % 4)) % 4
	return r.Skip(pad)
}
