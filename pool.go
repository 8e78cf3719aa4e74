// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

import "fmt"

// PoolTag identifies the variant of a constant pool entry.
type PoolTag uint8

// Constant pool tags, per the class file format.
const (
	TagUtf8               PoolTag = 1
	TagInteger            PoolTag = 3
	TagFloat              PoolTag = 4
	TagLong               PoolTag = 5
	TagDouble             PoolTag = 6
	TagClass              PoolTag = 7
	TagString             PoolTag = 8
	TagFieldref           PoolTag = 9
	TagMethodref          PoolTag = 10
	TagInterfaceMethodref PoolTag = 11
	TagNameAndType        PoolTag = 12
	TagMethodHandle       PoolTag = 15
	TagMethodType         PoolTag = 16
	TagDynamic            PoolTag = 17
	TagInvokeDynamic      PoolTag = 18
	TagModule             PoolTag = 19
	TagPackage            PoolTag = 20

	// tagPlaceholder marks the unusable slot following a Long or Double
	// entry. It is never present on the wire; the walker inserts it.
	tagPlaceholder PoolTag = 0
)

// PoolEntry is implemented by every constant pool variant.
type PoolEntry interface {
	Tag() PoolTag
}

// Utf8Info holds a UTF-8 (modified, per the class file format) string.
type Utf8Info struct{ Value string }

func (Utf8Info) Tag() PoolTag { return TagUtf8 }

// IntegerInfo holds a 32-bit signed integer constant.
type IntegerInfo struct{ Value int32 }

func (IntegerInfo) Tag() PoolTag { return TagInteger }

// FloatInfo holds a 32-bit IEEE-754 float constant.
type FloatInfo struct{ Value float32 }

func (FloatInfo) Tag() PoolTag { return TagFloat }

// LongInfo holds a 64-bit signed integer constant, occupying two pool slots.
type LongInfo struct{ Value int64 }

func (LongInfo) Tag() PoolTag { return TagLong }

// DoubleInfo holds a 64-bit IEEE-754 double constant, occupying two pool slots.
type DoubleInfo struct{ Value float64 }

func (DoubleInfo) Tag() PoolTag { return TagDouble }

// StringInfo references a Utf8Info holding the string's contents.
type StringInfo struct{ StringIndex uint16 }

func (StringInfo) Tag() PoolTag { return TagString }

// ClassInfo references a Utf8Info holding the class's internal name.
type ClassInfo struct{ NameIndex uint16 }

func (ClassInfo) Tag() PoolTag { return TagClass }

// NameAndTypeInfo pairs a name with a descriptor, both Utf8Info references.
type NameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (NameAndTypeInfo) Tag() PoolTag { return TagNameAndType }

// FieldrefInfo references an owning class and a NameAndTypeInfo.
type FieldrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (FieldrefInfo) Tag() PoolTag { return TagFieldref }

// MethodrefInfo references an owning class and a NameAndTypeInfo.
type MethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (MethodrefInfo) Tag() PoolTag { return TagMethodref }

// InterfaceMethodrefInfo references an owning interface and a NameAndTypeInfo.
type InterfaceMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (InterfaceMethodrefInfo) Tag() PoolTag { return TagInterfaceMethodref }

// MethodHandleKind identifies the reference kind a MethodHandleInfo carries.
type MethodHandleKind uint8

// Method handle reference kinds, per the class file format.
const (
	RefGetField         MethodHandleKind = 1
	RefGetStatic        MethodHandleKind = 2
	RefPutField         MethodHandleKind = 3
	RefPutStatic        MethodHandleKind = 4
	RefInvokeVirtual    MethodHandleKind = 5
	RefInvokeStatic     MethodHandleKind = 6
	RefInvokeSpecial    MethodHandleKind = 7
	RefNewInvokeSpecial MethodHandleKind = 8
	RefInvokeInterface  MethodHandleKind = 9
)

// MethodHandleInfo references a field, method, or constructor through a
// particular dispatch kind.
type MethodHandleInfo struct {
	ReferenceKind  MethodHandleKind
	ReferenceIndex uint16
}

func (MethodHandleInfo) Tag() PoolTag { return TagMethodHandle }

// MethodTypeInfo references a Utf8Info holding a method descriptor.
type MethodTypeInfo struct{ DescriptorIndex uint16 }

func (MethodTypeInfo) Tag() PoolTag { return TagMethodType }

// DynamicInfo describes a dynamically computed constant.
type DynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (DynamicInfo) Tag() PoolTag { return TagDynamic }

// InvokeDynamicInfo describes an invokedynamic call site.
type InvokeDynamicInfo struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (InvokeDynamicInfo) Tag() PoolTag { return TagInvokeDynamic }

// ModuleInfo references a Utf8Info holding a module name.
type ModuleInfo struct{ NameIndex uint16 }

func (ModuleInfo) Tag() PoolTag { return TagModule }

// PackageInfo references a Utf8Info holding a package name.
type PackageInfo struct{ NameIndex uint16 }

func (PackageInfo) Tag() PoolTag { return TagPackage }

// placeholderInfo occupies the slot after a Long or Double entry. Any lookup
// that lands on it fails with ErrConstantPoolEntryNotFound, same as an
// out-of-range index.
type placeholderInfo struct{}

func (placeholderInfo) Tag() PoolTag { return tagPlaceholder }

// ConstantPool is the class file's 1-indexed, heterogeneous symbol table.
// Index 0 is reserved and never valid, matching the wire format.
type ConstantPool struct {
	entries map[uint16]PoolEntry
}

// NewConstantPool returns an empty pool ready for Insert calls.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{entries: make(map[uint16]PoolEntry)}
}

// Insert stores entry at index, which must be >= 1. It fails with
// ErrConstantPoolEntryAlreadyExists if index is already occupied.
func (p *ConstantPool) Insert(index uint16, entry PoolEntry) error {
	if index == 0 {
		return ErrInvalidClassFile
	}
	if _, exists := p.entries[index]; exists {
		return ErrConstantPoolEntryAlreadyExists
	}
	p.entries[index] = entry
	return nil
}

// Get returns the entry stored at index, or ErrConstantPoolEntryNotFound if
// index is unoccupied, out of range, or a Long/Double placeholder slot.
func (p *ConstantPool) Get(index uint16) (PoolEntry, error) {
	entry, ok := p.entries[index]
	if !ok {
		return nil, ErrConstantPoolEntryNotFound
	}
	if entry.Tag() == tagPlaceholder {
		return nil, ErrConstantPoolEntryNotFound
	}
	return entry, nil
}

// Size returns the number of occupied slots, including placeholder slots.
func (p *ConstantPool) Size() int {
	return len(p.entries)
}

// IsEmpty reports whether the pool holds no entries at all.
func (p *ConstantPool) IsEmpty() bool {
	return len(p.entries) == 0
}

// GetUtf8 resolves index to a Utf8Info or fails with ErrInvalidClassFile if
// the referent is of a different kind.
func (p *ConstantPool) GetUtf8(index uint16) (string, error) {
	entry, err := p.Get(index)
	if err != nil {
		return "", err
	}
	utf8, ok := entry.(Utf8Info)
	if !ok {
		return "", ErrInvalidClassFile
	}
	return utf8.Value, nil
}

// GetClassName resolves a ClassInfo at index to its internal name string.
func (p *ConstantPool) GetClassName(index uint16) (string, error) {
	entry, err := p.Get(index)
	if err != nil {
		return "", err
	}
	class, ok := entry.(ClassInfo)
	if !ok {
		return "", ErrInvalidClassFile
	}
	return p.GetUtf8(class.NameIndex)
}

// TextOf returns the textual projection of the entry at index, as defined
// by the decoder's cross-reference resolution rules: Utf8 projects to
// itself, reference entries project through their referents, and numeric
// entries project to their decimal form. Reference chains are guarded
// against cycles (which the wire format forbids but malformed input can
// still produce) with the set of indices on the current resolution chain, so
// an entry reached along two branches is not mistaken for a cycle.
func (p *ConstantPool) TextOf(index uint16) (string, error) {
	return p.textOf(index, make(map[uint16]bool))
}

func (p *ConstantPool) textOf(index uint16, visited map[uint16]bool) (string, error) {
	if visited[index] {
		return "", ErrInvalidClassFile
	}
	visited[index] = true
	defer delete(visited, index)

	entry, err := p.Get(index)
	if err != nil {
		return "", err
	}

	switch e := entry.(type) {
	case Utf8Info:
		return e.Value, nil
	case IntegerInfo:
		return fmt.Sprintf("%d", e.Value), nil
	case FloatInfo:
		return fmt.Sprintf("%g", e.Value), nil
	case LongInfo:
		return fmt.Sprintf("%d", e.Value), nil
	case DoubleInfo:
		return fmt.Sprintf("%g", e.Value), nil
	case StringInfo:
		return p.textOf(e.StringIndex, visited)
	case ClassInfo:
		return p.textOf(e.NameIndex, visited)
	case ModuleInfo:
		return p.textOf(e.NameIndex, visited)
	case PackageInfo:
		return p.textOf(e.NameIndex, visited)
	case NameAndTypeInfo:
		name, err := p.textOf(e.NameIndex, visited)
		if err != nil {
			return "", err
		}
		desc, err := p.textOf(e.DescriptorIndex, visited)
		if err != nil {
			return "", err
		}
		return name + ": " + desc, nil
	case FieldrefInfo:
		return p.refText(e.ClassIndex, e.NameAndTypeIndex, visited)
	case MethodrefInfo:
		return p.refText(e.ClassIndex, e.NameAndTypeIndex, visited)
	case InterfaceMethodrefInfo:
		return p.refText(e.ClassIndex, e.NameAndTypeIndex, visited)
	case MethodTypeInfo:
		return p.textOf(e.DescriptorIndex, visited)
	case MethodHandleInfo:
		return p.textOf(e.ReferenceIndex, visited)
	case DynamicInfo:
		return p.textOf(e.NameAndTypeIndex, visited)
	case InvokeDynamicInfo:
		return p.textOf(e.NameAndTypeIndex, visited)
	default:
		return "", ErrInvalidClassFile
	}
}

func (p *ConstantPool) refText(classIndex, natIndex uint16, visited map[uint16]bool) (string, error) {
	owner, err := p.textOf(classIndex, visited)
	if err != nil {
		return "", err
	}
	nat, err := p.textOf(natIndex, visited)
	if err != nil {
		return "", err
	}
	return owner + "." + nat, nil
}
