// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

// operandKind classifies the operand layout that follows an opcode byte.
// Opcodes sharing a layout share a decode path; this is the lookup-table
// design the distilled spec calls for in place of one decoder per opcode.
type operandKind int

const (
	kindNone operandKind = iota
	kindLocalU8
	kindPoolU8
	kindPoolU16
	kindBranchI16
	kindBranchI32
	kindByteI8
	kindByteU8
	kindShortI16
	kindIinc
	kindInvokeInterface
	kindInvokeDynamic
	kindMultiANewArray
	kindTableSwitch
	kindLookupSwitch
	kindWidePrefix
)

type opcodeInfo struct {
	mnemonic string
	kind     operandKind
}

// opcodeTable is indexed by opcode byte. An empty mnemonic marks an opcode
// this decoder does not recognize.
var opcodeTable = [256]opcodeInfo{
	0x00: {"nop", kindNone},
	0x01: {"aconst_null", kindNone},
	0x02: {"iconst_m1", kindNone},
	0x03: {"iconst_0", kindNone},
	0x04: {"iconst_1", kindNone},
	0x05: {"iconst_2", kindNone},
	0x06: {"iconst_3", kindNone},
	0x07: {"iconst_4", kindNone},
	0x08: {"iconst_5", kindNone},
	0x09: {"lconst_0", kindNone},
	0x0a: {"lconst_1", kindNone},
	0x0b: {"fconst_0", kindNone},
	0x0c: {"fconst_1", kindNone},
	0x0d: {"fconst_2", kindNone},
	0x0e: {"dconst_0", kindNone},
	0x0f: {"dconst_1", kindNone},
	0x10: {"bipush", kindByteI8},
	0x11: {"sipush", kindShortI16},
	0x12: {"ldc", kindPoolU8},
	0x13: {"ldc_w", kindPoolU16},
	0x14: {"ldc2_w", kindPoolU16},
	0x15: {"iload", kindLocalU8},
	0x16: {"lload", kindLocalU8},
	0x17: {"fload", kindLocalU8},
	0x18: {"dload", kindLocalU8},
	0x19: {"aload", kindLocalU8},
	0x1a: {"iload_0", kindNone},
	0x1b: {"iload_1", kindNone},
	0x1c: {"iload_2", kindNone},
	0x1d: {"iload_3", kindNone},
	0x1e: {"lload_0", kindNone},
	0x1f: {"lload_1", kindNone},
	0x20: {"lload_2", kindNone},
	0x21: {"lload_3", kindNone},
	0x22: {"fload_0", kindNone},
	0x23: {"fload_1", kindNone},
	0x24: {"fload_2", kindNone},
	0x25: {"fload_3", kindNone},
	0x26: {"dload_0", kindNone},
	0x27: {"dload_1", kindNone},
	0x28: {"dload_2", kindNone},
	0x29: {"dload_3", kindNone},
	0x2a: {"aload_0", kindNone},
	0x2b: {"aload_1", kindNone},
	0x2c: {"aload_2", kindNone},
	0x2d: {"aload_3", kindNone},
	0x2e: {"iaload", kindNone},
	0x2f: {"laload", kindNone},
	0x30: {"faload", kindNone},
	0x31: {"daload", kindNone},
	0x32: {"aaload", kindNone},
	0x33: {"baload", kindNone},
	0x34: {"caload", kindNone},
	0x35: {"saload", kindNone},
	0x36: {"istore", kindLocalU8},
	0x37: {"lstore", kindLocalU8},
	0x38: {"fstore", kindLocalU8},
	0x39: {"dstore", kindLocalU8},
	0x3a: {"astore", kindLocalU8},
	0x3b: {"istore_0", kindNone},
	0x3c: {"istore_1", kindNone},
	0x3d: {"istore_2", kindNone},
	0x3e: {"istore_3", kindNone},
	0x3f: {"lstore_0", kindNone},
	0x40: {"lstore_1", kindNone},
	0x41: {"lstore_2", kindNone},
	0x42: {"lstore_3", kindNone},
	0x43: {"fstore_0", kindNone},
	0x44: {"fstore_1", kindNone},
	0x45: {"fstore_2", kindNone},
	0x46: {"fstore_3", kindNone},
	0x47: {"dstore_0", kindNone},
	0x48: {"dstore_1", kindNone},
	0x49: {"dstore_2", kindNone},
	0x4a: {"dstore_3", kindNone},
	0x4b: {"astore_0", kindNone},
	0x4c: {"astore_1", kindNone},
	0x4d: {"astore_2", kindNone},
	0x4e: {"astore_3", kindNone},
	0x4f: {"iastore", kindNone},
	0x50: {"lastore", kindNone},
	0x51: {"fastore", kindNone},
	0x52: {"dastore", kindNone},
	0x53: {"aastore", kindNone},
	0x54: {"bastore", kindNone},
	0x55: {"castore", kindNone},
	0x56: {"sastore", kindNone},
	0x57: {"pop", kindNone},
	0x58: {"pop2", kindNone},
	0x59: {"dup", kindNone},
	0x5a: {"dup_x1", kindNone},
	0x5b: {"dup_x2", kindNone},
	0x5c: {"dup2", kindNone},
	0x5d: {"dup2_x1", kindNone},
	0x5e: {"dup2_x2", kindNone},
	0x5f: {"swap", kindNone},
	0x60: {"iadd", kindNone},
	0x61: {"ladd", kindNone},
	0x62: {"fadd", kindNone},
	0x63: {"dadd", kindNone},
	0x64: {"isub", kindNone},
	0x65: {"lsub", kindNone},
	0x66: {"fsub", kindNone},
	0x67: {"dsub", kindNone},
	0x68: {"imul", kindNone},
	0x69: {"lmul", kindNone},
	0x6a: {"fmul", kindNone},
	0x6b: {"dmul", kindNone},
	0x6c: {"idiv", kindNone},
	0x6d: {"ldiv", kindNone},
	0x6e: {"fdiv", kindNone},
	0x6f: {"ddiv", kindNone},
	0x70: {"irem", kindNone},
	0x71: {"lrem", kindNone},
	0x72: {"frem", kindNone},
	0x73: {"drem", kindNone},
	0x74: {"ineg", kindNone},
	0x75: {"lneg", kindNone},
	0x76: {"fneg", kindNone},
	0x77: {"dneg", kindNone},
	0x78: {"ishl", kindNone},
	0x79: {"lshl", kindNone},
	0x7a: {"ishr", kindNone},
	0x7b: {"lshr", kindNone},
	0x7c: {"iushr", kindNone},
	0x7d: {"lushr", kindNone},
	0x7e: {"iand", kindNone},
	0x7f: {"land", kindNone},
	0x80: {"ior", kindNone},
	0x81: {"lor", kindNone},
	0x82: {"ixor", kindNone},
	0x83: {"lxor", kindNone},
	0x84: {"iinc", kindIinc},
	0x85: {"i2l", kindNone},
	0x86: {"i2f", kindNone},
	0x87: {"i2d", kindNone},
	0x88: {"l2i", kindNone},
	0x89: {"l2f", kindNone},
	0x8a: {"l2d", kindNone},
	0x8b: {"f2i", kindNone},
	0x8c: {"f2l", kindNone},
	0x8d: {"f2d", kindNone},
	0x8e: {"d2i", kindNone},
	0x8f: {"d2l", kindNone},
	0x90: {"d2f", kindNone},
	0x91: {"i2b", kindNone},
	0x92: {"i2c", kindNone},
	0x93: {"i2s", kindNone},
	0x94: {"lcmp", kindNone},
	0x95: {"fcmpl", kindNone},
	0x96: {"fcmpg", kindNone},
	0x97: {"dcmpl", kindNone},
	0x98: {"dcmpg", kindNone},
	0x99: {"ifeq", kindBranchI16},
	0x9a: {"ifne", kindBranchI16},
	0x9b: {"iflt", kindBranchI16},
	0x9c: {"ifge", kindBranchI16},
	0x9d: {"ifgt", kindBranchI16},
	0x9e: {"ifle", kindBranchI16},
	0x9f: {"if_icmpeq", kindBranchI16},
	0xa0: {"if_icmpne", kindBranchI16},
	0xa1: {"if_icmplt", kindBranchI16},
	0xa2: {"if_icmpge", kindBranchI16},
	0xa3: {"if_icmpgt", kindBranchI16},
	0xa4: {"if_icmple", kindBranchI16},
	0xa5: {"if_acmpeq", kindBranchI16},
	0xa6: {"if_acmpne", kindBranchI16},
	0xa7: {"goto", kindBranchI16},
	0xa8: {"jsr", kindBranchI16},
	0xa9: {"ret", kindLocalU8},
	0xaa: {"tableswitch", kindTableSwitch},
	0xab: {"lookupswitch", kindLookupSwitch},
	0xac: {"ireturn", kindNone},
	0xad: {"lreturn", kindNone},
	0xae: {"freturn", kindNone},
	0xaf: {"dreturn", kindNone},
	0xb0: {"areturn", kindNone},
	0xb1: {"return", kindNone},
	0xb2: {"getstatic", kindPoolU16},
	0xb3: {"putstatic", kindPoolU16},
	0xb4: {"getfield", kindPoolU16},
	0xb5: {"putfield", kindPoolU16},
	0xb6: {"invokevirtual", kindPoolU16},
	0xb7: {"invokespecial", kindPoolU16},
	0xb8: {"invokestatic", kindPoolU16},
	0xb9: {"invokeinterface", kindInvokeInterface},
	0xba: {"invokedynamic", kindInvokeDynamic},
	0xbb: {"new", kindPoolU16},
	0xbc: {"newarray", kindByteU8},
	0xbd: {"anewarray", kindPoolU16},
	0xbe: {"arraylength", kindNone},
	0xbf: {"athrow", kindNone},
	0xc0: {"checkcast", kindPoolU16},
	0xc1: {"instanceof", kindPoolU16},
	0xc2: {"monitorenter", kindNone},
	0xc3: {"monitorexit", kindNone},
	0xc4: {"wide", kindWidePrefix},
	0xc5: {"multianewarray", kindMultiANewArray},
	0xc6: {"ifnull", kindBranchI16},
	0xc7: {"ifnonnull", kindBranchI16},
	0xc8: {"goto_w", kindBranchI32},
	0xc9: {"jsr_w", kindBranchI32},
}

// opcodesWidenableByWide are the opcodes whose local-variable index widens
// from u8 to u16 under a wide prefix. iinc is handled separately since its
// second operand also widens, from i8 to i16.
var opcodesWidenableByWide = map[byte]bool{
	0x15: true, 0x16: true, 0x17: true, 0x18: true, 0x19: true, // iload,lload,fload,dload,aload
	0x36: true, 0x37: true, 0x38: true, 0x39: true, 0x3a: true, // istore,lstore,fstore,dstore,astore
	0xa9: true, // ret
}

// TableSwitchOperand is tableswitch's variable-length operand.
type TableSwitchOperand struct {
	Default int32
	Low     int32
	High    int32
	Offsets []int32
}

// LookupPair is one (match, offset) entry of a lookupswitch operand.
type LookupPair struct {
	Match  int32
	Offset int32
}

// LookupSwitchOperand is lookupswitch's variable-length operand.
type LookupSwitchOperand struct {
	Default int32
	Pairs   []LookupPair
}

// Instruction is one decoded bytecode instruction.
type Instruction struct {
	// Offset is this instruction's byte offset within the code array.
	Offset int
	Opcode byte
	// Mnemonic is the textual opcode name, e.g. "invokespecial".
	Mnemonic string
	// Wide reports whether this instruction was widened by a preceding
	// wide prefix.
	Wide bool
	// Operands holds the instruction's fixed-shape immediates, in schema
	// order (see operandKind). Empty for no-operand instructions and for
	// tableswitch/lookupswitch, which use the dedicated fields below.
	Operands []int32

	TableSwitch  *TableSwitchOperand
	LookupSwitch *LookupSwitchOperand
}

// DecodeInstructions decodes an entire method body's code array into an
// ordered instruction sequence. code is the raw bytes of the Code
// attribute's code[] field; offsets inside code (branch targets, switch
// alignment) are always measured from the start of code, never from the
// start of the class file.
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := NewReader(code)
	var instrs []Instruction
	wide := false

	for r.HasRemaining() {
		offset := int(r.Position())
		opcode, err := r.ReadU8()
		if err != nil {
			return nil, err
		}

		if opcode == 0xc4 {
			nextOpcode, err := r.PeekU8()
			if err != nil {
				return nil, err
			}
			instr, err := decodeWideInstruction(r, offset, nextOpcode)
			if err != nil {
				return nil, err
			}
			instrs = append(instrs, instr)
			wide = false
			continue
		}

		info := opcodeTable[opcode]
		if info.mnemonic == "" {
			return nil, &DecodeError{Err: ErrUnsupportedInstruction, Position: uint32(offset),
				Context: hexByte(opcode)}
		}

		instr := Instruction{Offset: offset, Opcode: opcode, Mnemonic: info.mnemonic, Wide: wide}
		wide = false

		switch info.kind {
		case kindNone:
			// no operands

		case kindLocalU8:
			v, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			instr.Operands = []int32{int32(v)}

		case kindPoolU8:
			v, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			instr.Operands = []int32{int32(v)}

		case kindPoolU16:
			v, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			instr.Operands = []int32{int32(v)}

		case kindBranchI16:
			v, err := r.ReadI16()
			if err != nil {
				return nil, err
			}
			instr.Operands = []int32{int32(v)}

		case kindBranchI32:
			v, err := r.ReadI32()
			if err != nil {
				return nil, err
			}
			instr.Operands = []int32{v}

		case kindByteI8:
			v, err := r.ReadI8()
			if err != nil {
				return nil, err
			}
			instr.Operands = []int32{int32(v)}

		case kindByteU8:
			v, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			instr.Operands = []int32{int32(v)}

		case kindShortI16:
			v, err := r.ReadI16()
			if err != nil {
				return nil, err
			}
			instr.Operands = []int32{int32(v)}

		case kindIinc:
			idx, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			delta, err := r.ReadI8()
			if err != nil {
				return nil, err
			}
			instr.Operands = []int32{int32(idx), int32(delta)}

		case kindInvokeInterface:
			poolIdx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			count, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			if _, err := r.ReadU8(); err != nil { // reserved, must be zero on the wire
				return nil, err
			}
			instr.Operands = []int32{int32(poolIdx), int32(count)}

		case kindInvokeDynamic:
			poolIdx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			if err := r.Skip(2); err != nil { // two reserved zero bytes
				return nil, err
			}
			instr.Operands = []int32{int32(poolIdx)}

		case kindMultiANewArray:
			poolIdx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			dims, err := r.ReadU8()
			if err != nil {
				return nil, err
			}
			instr.Operands = []int32{int32(poolIdx), int32(dims)}

		case kindTableSwitch:
			ts, err := decodeTableSwitch(r)
			if err != nil {
				return nil, err
			}
			instr.TableSwitch = ts

		case kindLookupSwitch:
			ls, err := decodeLookupSwitch(r)
			if err != nil {
				return nil, err
			}
			instr.LookupSwitch = ls
		}

		instrs = append(instrs, instr)
	}

	return instrs, nil
}

func decodeWideInstruction(r *Reader, offset int, nextOpcode byte) (Instruction, error) {
	target := nextOpcode
	if _, err := r.ReadU8(); err != nil { // consume the peeked target opcode
		return Instruction{}, err
	}
	info := opcodeTable[target]

	if target == 0x84 { // wide iinc: u16 index, i16 delta
		idx, err := r.ReadU16()
		if err != nil {
			return Instruction{}, err
		}
		delta, err := r.ReadI16()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{
			Offset: offset, Opcode: target, Mnemonic: info.mnemonic, Wide: true,
			Operands: []int32{int32(idx), int32(delta)},
		}, nil
	}

	if !opcodesWidenableByWide[target] {
		return Instruction{}, &DecodeError{Err: ErrInvalidData, Position: uint32(offset),
			Context: "wide prefix applied to non-widenable opcode"}
	}

	idx, err := r.ReadU16()
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{
		Offset: offset, Opcode: target, Mnemonic: info.mnemonic, Wide: true,
		Operands: []int32{int32(idx)},
	}, nil
}

func decodeTableSwitch(r *Reader) (*TableSwitchOperand, error) {
	if err := r.AlignTo4(); err != nil {
		return nil, err
	}
	def, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	low, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	high, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	if high < low {
		return nil, ErrInvalidData
	}
	count := int64(high) - int64(low) + 1
	offsets := make([]int32, 0, count)
	for i := int64(0); i < count; i++ {
		off, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		offsets = append(offsets, off)
	}
	return &TableSwitchOperand{Default: def, Low: low, High: high, Offsets: offsets}, nil
}

func decodeLookupSwitch(r *Reader) (*LookupSwitchOperand, error) {
	if err := r.AlignTo4(); err != nil {
		return nil, err
	}
	def, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	npairs, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	if npairs < 0 {
		return nil, ErrInvalidData
	}
	pairs := make([]LookupPair, 0, npairs)
	for i := int32(0); i < npairs; i++ {
		match, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		off, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, LookupPair{Match: match, Offset: off})
	}
	return &LookupSwitchOperand{Default: def, Pairs: pairs}, nil
}

func hexByte(b byte) string {
	const hexDigits = "0123456789abcdef"
	return "0x" + string(hexDigits[b>>4]) + string(hexDigits[b&0xf])
}
