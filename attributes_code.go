// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

// LineNumberEntry maps a code-array offset to a source line number.
type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

// LineNumberTableAttribute maps code offsets back to source lines, for
// debuggers and stack traces.
type LineNumberTableAttribute struct {
	namedAttribute
	Entries []LineNumberEntry
}

func decodeLineNumberTableAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	entries := make([]LineNumberEntry, count)
	for i := range entries {
		pc, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		line, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		entries[i] = LineNumberEntry{pc, line}
	}
	return LineNumberTableAttribute{namedAttribute{"LineNumberTable"}, entries}, nil
}

// LocalVariableEntry describes the scope and slot of one local variable.
type LocalVariableEntry struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

// LocalVariableTableAttribute maps local variable slots to names and
// descriptors, for debuggers.
type LocalVariableTableAttribute struct {
	namedAttribute
	Entries []LocalVariableEntry
}

func decodeLocalVariableTableAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	entries, err := decodeLocalVariableEntries(r)
	if err != nil {
		return nil, err
	}
	return LocalVariableTableAttribute{namedAttribute{"LocalVariableTable"}, entries}, nil
}

func decodeLocalVariableEntries(r *Reader) ([]LocalVariableEntry, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	entries := make([]LocalVariableEntry, count)
	for i := range entries {
		startPC, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		length, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		desc, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		entries[i] = LocalVariableEntry{startPC, length, name, desc, idx}
	}
	return entries, nil
}

// LocalVariableTypeEntry is LocalVariableEntry's generic-signature sibling:
// DescriptorIndex is replaced with a SignatureIndex.
type LocalVariableTypeEntry struct {
	StartPC        uint16
	Length         uint16
	NameIndex      uint16
	SignatureIndex uint16
	Index          uint16
}

// LocalVariableTypeTableAttribute is LocalVariableTableAttribute's
// generic-signature sibling, present only for variables with a generic
// type.
type LocalVariableTypeTableAttribute struct {
	namedAttribute
	Entries []LocalVariableTypeEntry
}

func decodeLocalVariableTypeTableAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	entries := make([]LocalVariableTypeEntry, count)
	for i := range entries {
		startPC, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		length, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		sig, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		entries[i] = LocalVariableTypeEntry{startPC, length, name, sig, idx}
	}
	return LocalVariableTypeTableAttribute{namedAttribute{"LocalVariableTypeTable"}, entries}, nil
}

// ExceptionTableEntry is one protected region of a Code attribute's
// exception table.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	// CatchType is a Class entry index, or 0 to match any exception
	// (used to implement finally blocks).
	CatchType uint16
}

// CodeAttribute holds a method's bytecode and everything needed to
// interpret it: the raw instruction stream (both as bytes and decoded),
// the exception table, and nested attributes (LineNumberTable,
// LocalVariableTable, StackMapTable, and so on).
type CodeAttribute struct {
	namedAttribute
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	Instructions   []Instruction
	ExceptionTable []ExceptionTableEntry
	Attributes     []Attribute
}

func decodeCodeAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	nested, err := ctx.nested()
	if err != nil {
		return nil, err
	}

	maxStack, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	codeLengthPos := r.Position()
	codeLength, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if ctx.maxCodeLength > 0 && codeLength > ctx.maxCodeLength {
		return nil, decodeErr(codeLengthPos, ErrInvalidClassFile, "code_length exceeds configured maximum")
	}
	code, err := r.ReadBytes(codeLength)
	if err != nil {
		return nil, err
	}

	instrs, err := DecodeInstructions(code)
	if err != nil {
		return nil, err
	}

	excCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	excTable := make([]ExceptionTableEntry, excCount)
	for i := range excTable {
		start, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		end, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		handler, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		catch, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		excTable[i] = ExceptionTableEntry{start, end, handler, catch}
	}

	attrs, err := decodeAttributes(r, pool, nested)
	if err != nil {
		return nil, err
	}

	return CodeAttribute{
		namedAttribute{"Code"}, maxStack, maxLocals, code, instrs, excTable, attrs,
	}, nil
}
