// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

// VerificationTypeTag discriminates a VerificationTypeInfo's shape.
type VerificationTypeTag byte

// Verification type tags, per the class file format's StackMapTable
// grammar.
const (
	VerificationTop               VerificationTypeTag = 0
	VerificationInteger           VerificationTypeTag = 1
	VerificationFloat             VerificationTypeTag = 2
	VerificationDouble            VerificationTypeTag = 3
	VerificationLong              VerificationTypeTag = 4
	VerificationNull              VerificationTypeTag = 5
	VerificationUninitializedThis VerificationTypeTag = 6
	VerificationObject            VerificationTypeTag = 7
	VerificationUninitialized     VerificationTypeTag = 8
)

// VerificationTypeInfo describes the type of one local variable or operand
// stack slot at a stack map frame.
type VerificationTypeInfo struct {
	Tag VerificationTypeTag
	// CPoolIndex is valid for VerificationObject: a Class entry naming the
	// slot's type.
	CPoolIndex uint16
	// Offset is valid for VerificationUninitialized: the code offset of the
	// `new` instruction that created the not-yet-initialized object.
	Offset uint16
}

func decodeVerificationTypeInfo(r *Reader) (VerificationTypeInfo, error) {
	tag, err := r.ReadU8()
	if err != nil {
		return VerificationTypeInfo{}, err
	}
	switch VerificationTypeTag(tag) {
	case VerificationTop, VerificationInteger, VerificationFloat, VerificationDouble,
		VerificationLong, VerificationNull, VerificationUninitializedThis:
		return VerificationTypeInfo{Tag: VerificationTypeTag(tag)}, nil
	case VerificationObject:
		idx, err := r.ReadU16()
		if err != nil {
			return VerificationTypeInfo{}, err
		}
		return VerificationTypeInfo{Tag: VerificationObject, CPoolIndex: idx}, nil
	case VerificationUninitialized:
		off, err := r.ReadU16()
		if err != nil {
			return VerificationTypeInfo{}, err
		}
		return VerificationTypeInfo{Tag: VerificationUninitialized, Offset: off}, nil
	default:
		return VerificationTypeInfo{}, &DecodeError{Err: ErrUnsupportedVerificationType, Position: r.Position()}
	}
}

// StackMapFrame is one entry of a StackMapTable attribute. FrameType both
// selects the variant below and, for chop/append frames, is itself the
// datum (offset from 251) that says how many locals change.
type StackMapFrame struct {
	FrameType   byte
	OffsetDelta uint16
	// Locals is valid for append and full frames.
	Locals []VerificationTypeInfo
	// Stack is valid for same-locals-1-stack-item (length 1) and full
	// frames.
	Stack []VerificationTypeInfo
}

// StackMapTableAttribute is a Code attribute's verifier type-state table:
// the type of every local variable and stack slot at selected branch
// targets, encoded as deltas from the previous frame's offset.
type StackMapTableAttribute struct {
	namedAttribute
	Entries []StackMapFrame
}

func decodeStackMapTableAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	frames := make([]StackMapFrame, count)
	for i := range frames {
		frame, err := decodeStackMapFrame(r)
		if err != nil {
			return nil, err
		}
		frames[i] = frame
	}
	return StackMapTableAttribute{namedAttribute{"StackMapTable"}, frames}, nil
}

func decodeStackMapFrame(r *Reader) (StackMapFrame, error) {
	frameType, err := r.ReadU8()
	if err != nil {
		return StackMapFrame{}, err
	}

	switch {
	case frameType <= 63:
		// same_frame: offset_delta is the frame type itself.
		return StackMapFrame{FrameType: frameType, OffsetDelta: uint16(frameType)}, nil

	case frameType <= 127:
		// same_locals_1_stack_item_frame: offset_delta is frameType-64.
		stack, err := decodeVerificationTypeInfo(r)
		if err != nil {
			return StackMapFrame{}, err
		}
		return StackMapFrame{
			FrameType: frameType, OffsetDelta: uint16(frameType - 64),
			Stack: []VerificationTypeInfo{stack},
		}, nil

	case frameType <= 246:
		// 128-246 reserved for future use; the format defines no frame here.
		return StackMapFrame{}, ErrInvalidData

	case frameType == 247:
		// same_locals_1_stack_item_frame_extended
		offset, err := r.ReadU16()
		if err != nil {
			return StackMapFrame{}, err
		}
		stack, err := decodeVerificationTypeInfo(r)
		if err != nil {
			return StackMapFrame{}, err
		}
		return StackMapFrame{FrameType: frameType, OffsetDelta: offset, Stack: []VerificationTypeInfo{stack}}, nil

	case frameType <= 250:
		// chop_frame: 251 - frameType locals are removed from the previous frame.
		offset, err := r.ReadU16()
		if err != nil {
			return StackMapFrame{}, err
		}
		return StackMapFrame{FrameType: frameType, OffsetDelta: offset}, nil

	case frameType == 251:
		// same_frame_extended
		offset, err := r.ReadU16()
		if err != nil {
			return StackMapFrame{}, err
		}
		return StackMapFrame{FrameType: frameType, OffsetDelta: offset}, nil

	case frameType <= 254:
		// append_frame: frameType-251 locals are appended to the previous frame.
		offset, err := r.ReadU16()
		if err != nil {
			return StackMapFrame{}, err
		}
		n := int(frameType - 251)
		locals := make([]VerificationTypeInfo, n)
		for i := range locals {
			v, err := decodeVerificationTypeInfo(r)
			if err != nil {
				return StackMapFrame{}, err
			}
			locals[i] = v
		}
		return StackMapFrame{FrameType: frameType, OffsetDelta: offset, Locals: locals}, nil

	default: // frameType == 255
		// full_frame
		offset, err := r.ReadU16()
		if err != nil {
			return StackMapFrame{}, err
		}
		localCount, err := r.ReadU16()
		if err != nil {
			return StackMapFrame{}, err
		}
		locals := make([]VerificationTypeInfo, localCount)
		for i := range locals {
			v, err := decodeVerificationTypeInfo(r)
			if err != nil {
				return StackMapFrame{}, err
			}
			locals[i] = v
		}
		stackCount, err := r.ReadU16()
		if err != nil {
			return StackMapFrame{}, err
		}
		stack := make([]VerificationTypeInfo, stackCount)
		for i := range stack {
			v, err := decodeVerificationTypeInfo(r)
			if err != nil {
				return StackMapFrame{}, err
			}
			stack[i] = v
		}
		return StackMapFrame{FrameType: frameType, OffsetDelta: offset, Locals: locals, Stack: stack}, nil
	}
}
