// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// classFileBuilder assembles a minimal class file byte-by-byte, the way a
// real compiler's output looks on the wire, for use as decoder test input.
type classFileBuilder struct {
	poolBuf   bytes.Buffer
	poolCount uint16
}

func newClassFileBuilder() *classFileBuilder {
	return &classFileBuilder{poolCount: 1}
}

func (b *classFileBuilder) u8(v uint8)   { b.poolBuf.WriteByte(v) }
func (b *classFileBuilder) u16(v uint16) { binary.Write(&b.poolBuf, binary.BigEndian, v) }

func (b *classFileBuilder) addUtf8(s string) uint16 {
	idx := b.poolCount
	b.u8(1)
	b.u16(uint16(len(s)))
	b.poolBuf.WriteString(s)
	b.poolCount++
	return idx
}

func (b *classFileBuilder) addClass(nameIdx uint16) uint16 {
	idx := b.poolCount
	b.u8(7)
	b.u16(nameIdx)
	b.poolCount++
	return idx
}

// build assembles the full class file: magic, version, the constant pool
// collected so far, then the fixed tail (access flags through zero
// attributes) the caller supplies.
func (b *classFileBuilder) build(thisClass, superClass uint16, accessFlags uint16) []byte {
	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(classFileMagic))
	binary.Write(&out, binary.BigEndian, uint16(0))  // minor
	binary.Write(&out, binary.BigEndian, uint16(52)) // major
	binary.Write(&out, binary.BigEndian, b.poolCount)
	out.Write(b.poolBuf.Bytes())
	binary.Write(&out, binary.BigEndian, accessFlags)
	binary.Write(&out, binary.BigEndian, thisClass)
	binary.Write(&out, binary.BigEndian, superClass)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // fields_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // methods_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // attributes_count
	return out.Bytes()
}

func TestDecodeClassFileMinimal(t *testing.T) {
	b := newClassFileBuilder()
	nameIdx := b.addUtf8("Main")
	thisIdx := b.addClass(nameIdx)
	superNameIdx := b.addUtf8("java/lang/Object")
	superIdx := b.addClass(superNameIdx)

	data := b.build(thisIdx, superIdx, uint16(AccPublic|AccSuper))

	cf, err := Load(data, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cf.MajorVersion != 52 {
		t.Errorf("MajorVersion = %d, want 52", cf.MajorVersion)
	}
	name, err := cf.ThisClassName()
	if err != nil || name != "Main" {
		t.Fatalf("ThisClassName = %q, %v", name, err)
	}
	super, err := cf.SuperClassName()
	if err != nil || super != "java/lang/Object" {
		t.Fatalf("SuperClassName = %q, %v", super, err)
	}
	if len(cf.Fields) != 0 || len(cf.Methods) != 0 || len(cf.Attributes) != 0 {
		t.Fatalf("expected no fields/methods/attributes, got %+v", cf)
	}
}

func TestDecodeClassFileBadMagic(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 52, 0, 1}
	_, err := Load(data, nil)
	if !errors.Is(err, ErrInvalidClassFile) {
		t.Fatalf("expected ErrInvalidClassFile, got %v", err)
	}
}

func TestDecodeClassFileTrailingBytes(t *testing.T) {
	b := newClassFileBuilder()
	nameIdx := b.addUtf8("Main")
	thisIdx := b.addClass(nameIdx)
	superNameIdx := b.addUtf8("java/lang/Object")
	superIdx := b.addClass(superNameIdx)
	data := b.build(thisIdx, superIdx, uint16(AccPublic|AccSuper))
	data = append(data, 0xFF) // trailing garbage

	_, err := Load(data, nil)
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData for trailing bytes, got %v", err)
	}
}

func TestDecodeClassFileRejectsBadClassAccessFlags(t *testing.T) {
	b := newClassFileBuilder()
	nameIdx := b.addUtf8("Main")
	thisIdx := b.addClass(nameIdx)
	superNameIdx := b.addUtf8("java/lang/Object")
	superIdx := b.addClass(superNameIdx)
	// ACC_NATIVE (0x0100) is never legal at class scope.
	data := b.build(thisIdx, superIdx, uint16(AccPublic|AccNative))

	_, err := Load(data, nil)
	if !errors.Is(err, ErrInvalidClassFile) {
		t.Fatalf("expected ErrInvalidClassFile for illegal class access flags, got %v", err)
	}
}

func TestDecodeClassFileConstantPoolExceedsMaximum(t *testing.T) {
	b := newClassFileBuilder()
	nameIdx := b.addUtf8("Main")
	thisIdx := b.addClass(nameIdx)
	superNameIdx := b.addUtf8("java/lang/Object")
	superIdx := b.addClass(superNameIdx)
	data := b.build(thisIdx, superIdx, uint16(AccPublic|AccSuper))

	_, err := Load(data, &Options{MaxConstantPoolEntries: 2})
	if !errors.Is(err, ErrInvalidClassFile) {
		t.Fatalf("expected ErrInvalidClassFile from pool-size ceiling, got %v", err)
	}
}

func TestDecodeClassFileCustomRegistryRejectsAttributeOutsideSubset(t *testing.T) {
	b := newClassFileBuilder()
	nameIdx := b.addUtf8("Main")
	thisIdx := b.addClass(nameIdx)
	superNameIdx := b.addUtf8("java/lang/Object")
	superIdx := b.addClass(superNameIdx)
	deprecatedIdx := b.addUtf8("Deprecated")

	data := b.build(thisIdx, superIdx, uint16(AccPublic|AccSuper))
	// Replace the zero attributes_count tail with one Deprecated attribute.
	data = data[:len(data)-2]
	var tail bytes.Buffer
	binary.Write(&tail, binary.BigEndian, uint16(1)) // attributes_count
	binary.Write(&tail, binary.BigEndian, deprecatedIdx)
	binary.Write(&tail, binary.BigEndian, uint32(0)) // attribute_length
	data = append(data, tail.Bytes()...)

	subset := NewAttributeRegistry()
	subset.Register("SourceFile", func(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		return SourceFileAttribute{namedAttribute{"SourceFile"}, idx}, nil
	})

	_, err := Load(data, &Options{Attributes: subset})
	if !errors.Is(err, ErrUnsupportedAttributeName) {
		t.Fatalf("expected ErrUnsupportedAttributeName, got %v", err)
	}
}
