// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

// decodeConstantPoolEntry reads one constant pool entry, including its
// leading tag byte. It does not resolve cross-references; those stay as raw
// indices and are resolved lazily, since forward references are legal.
func decodeConstantPoolEntry(r *Reader) (PoolEntry, error) {
	tag, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	switch PoolTag(tag) {
	case TagUtf8:
		length, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		raw, err := r.ReadBytes(uint32(length))
		if err != nil {
			return nil, err
		}
		s, err := decodeModifiedUTF8(raw)
		if err != nil {
			return nil, err
		}
		return Utf8Info{Value: s}, nil

	case TagInteger:
		v, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		return IntegerInfo{Value: v}, nil

	case TagFloat:
		v, err := r.ReadF32()
		if err != nil {
			return nil, err
		}
		return FloatInfo{Value: v}, nil

	case TagLong:
		v, err := r.ReadI64()
		if err != nil {
			return nil, err
		}
		return LongInfo{Value: v}, nil

	case TagDouble:
		v, err := r.ReadF64()
		if err != nil {
			return nil, err
		}
		return DoubleInfo{Value: v}, nil

	case TagString:
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return StringInfo{StringIndex: idx}, nil

	case TagClass:
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return ClassInfo{NameIndex: idx}, nil

	case TagNameAndType:
		name, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		desc, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return NameAndTypeInfo{NameIndex: name, DescriptorIndex: desc}, nil

	case TagFieldref:
		class, nat, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return FieldrefInfo{ClassIndex: class, NameAndTypeIndex: nat}, nil

	case TagMethodref:
		class, nat, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return MethodrefInfo{ClassIndex: class, NameAndTypeIndex: nat}, nil

	case TagInterfaceMethodref:
		class, nat, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return InterfaceMethodrefInfo{ClassIndex: class, NameAndTypeIndex: nat}, nil

	case TagMethodHandle:
		kind, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return MethodHandleInfo{ReferenceKind: MethodHandleKind(kind), ReferenceIndex: idx}, nil

	case TagMethodType:
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return MethodTypeInfo{DescriptorIndex: idx}, nil

	case TagDynamic:
		bootstrap, nat, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return DynamicInfo{BootstrapMethodAttrIndex: bootstrap, NameAndTypeIndex: nat}, nil

	case TagInvokeDynamic:
		bootstrap, nat, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return InvokeDynamicInfo{BootstrapMethodAttrIndex: bootstrap, NameAndTypeIndex: nat}, nil

	case TagModule:
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return ModuleInfo{NameIndex: idx}, nil

	case TagPackage:
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return PackageInfo{NameIndex: idx}, nil

	default:
		return nil, ErrInvalidClassFile
	}
}

func readRefPair(r *Reader) (uint16, uint16, error) {
	a, err := r.ReadU16()
	if err != nil {
		return 0, 0, err
	}
	b, err := r.ReadU16()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// entrySlotWidth returns how many logical pool slots entry occupies: 2 for
// Long/Double, 1 for everything else.
func entrySlotWidth(entry PoolEntry) int {
	switch entry.Tag() {
	case TagLong, TagDouble:
		return 2
	default:
		return 1
	}
}
