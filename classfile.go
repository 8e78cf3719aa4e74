// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

// classFileMagic is the fixed sentinel every class file begins with.
const classFileMagic = 0xCAFEBABE

// Field is one field_info entry of a class file.
type Field struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  *FieldType
	Attributes  []Attribute
}

// Method is one method_info entry of a class file.
type Method struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  *MethodDescriptor
	Attributes  []Attribute
}

// Code returns the method's Code attribute, or nil if it has none (true for
// abstract and native methods).
func (m *Method) Code() *CodeAttribute {
	for _, a := range m.Attributes {
		if code, ok := a.(CodeAttribute); ok {
			return &code
		}
	}
	return nil
}

// ClassFile is the fully decoded structural representation of one class
// file: its version, constant pool, access modifiers, supertype, the
// interfaces it implements, and its fields, methods, and attributes.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool *ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Field
	Methods      []Method
	Attributes   []Attribute
}

// ThisClassName resolves ThisClass to its internal name.
func (c *ClassFile) ThisClassName() (string, error) {
	return c.ConstantPool.GetClassName(c.ThisClass)
}

// SuperClassName resolves SuperClass to its internal name. SuperClass is 0
// only for java.lang.Object itself, in which case SuperClassName returns ""
// with no error.
func (c *ClassFile) SuperClassName() (string, error) {
	if c.SuperClass == 0 {
		return "", nil
	}
	return c.ConstantPool.GetClassName(c.SuperClass)
}

// DecodeClassFile drives a Reader over a complete class file, per the
// ordered structural walk: magic, version, constant pool, access flags,
// this/super class, interfaces, fields, methods, class attributes, then a
// check that no trailing bytes remain.
func DecodeClassFile(r *Reader, opts *Options) (*ClassFile, error) {
	opts = opts.withDefaults()
	log := NewHelper(opts.Logger)

	magic, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if magic != classFileMagic {
		return nil, decodeErr(0, ErrInvalidClassFile, "bad magic")
	}

	minor, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	major, err := r.ReadU16()
	if err != nil {
		return nil, err
	}

	pool, err := decodeConstantPoolSection(r, opts, log)
	if err != nil {
		return nil, err
	}

	accessPos := r.Position()
	rawAccess, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	accessFlags := AccessFlags(rawAccess)
	if err := validateAccessFlags(accessFlags, ClassAccessMask); err != nil {
		return nil, decodeErr(accessPos, err, "class access_flags")
	}

	thisClass, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	superClass, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	log.Debugf("resolved this_class index %d, super_class index %d", thisClass, superClass)

	ifaceCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	interfaces := make([]uint16, ifaceCount)
	for i := range interfaces {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		interfaces[i] = idx
	}

	ctx := &decodeContext{
		registry:      opts.attributeRegistry(),
		maxDepth:      opts.maxAttributeRecursionDepth(),
		maxCodeLength: opts.maxCodeLengthValue(),
	}

	fields, err := decodeFields(r, pool, ctx)
	if err != nil {
		return nil, err
	}
	methods, err := decodeMethods(r, pool, ctx)
	if err != nil {
		return nil, err
	}
	classAttrs, err := decodeAttributes(r, pool, ctx)
	if err != nil {
		return nil, err
	}

	if r.HasRemaining() {
		return nil, decodeErr(r.Position(), ErrInvalidData, "trailing bytes after class file")
	}

	if accessFlags.Is(AccSuper) {
		log.Debugf("class carries ACC_SUPER")
	}

	return &ClassFile{
		MinorVersion: minor,
		MajorVersion: major,
		ConstantPool: pool,
		AccessFlags:  accessFlags,
		ThisClass:    thisClass,
		SuperClass:   superClass,
		Interfaces:   interfaces,
		Fields:       fields,
		Methods:      methods,
		Attributes:   classAttrs,
	}, nil
}

func decodeConstantPoolSection(r *Reader, opts *Options, log *Helper) (*ConstantPool, error) {
	countPos := r.Position()
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	if uint32(count) > opts.maxConstantPoolEntriesValue() {
		return nil, decodeErr(countPos, ErrInvalidClassFile, "constant_pool_count exceeds configured maximum")
	}

	pool := NewConstantPool()
	for i := uint16(1); i < count; {
		entry, err := decodeConstantPoolEntry(r)
		if err != nil {
			return nil, err
		}
		if err := pool.Insert(i, entry); err != nil {
			return nil, err
		}

		width := entrySlotWidth(entry)
		if width == 2 {
			log.Debugf("skipping placeholder slot after wide constant at index %d", i+1)
			if err := pool.Insert(i+1, placeholderInfo{}); err != nil {
				return nil, err
			}
		}
		i += uint16(width)
	}
	return pool, nil
}

func decodeFields(r *Reader, pool *ConstantPool, ctx *decodeContext) ([]Field, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	fields := make([]Field, count)
	for i := range fields {
		f, err := decodeField(r, pool, ctx)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return fields, nil
}

func decodeField(r *Reader, pool *ConstantPool, ctx *decodeContext) (Field, error) {
	accessPos := r.Position()
	rawAccess, err := r.ReadU16()
	if err != nil {
		return Field{}, err
	}
	accessFlags := AccessFlags(rawAccess)
	if err := validateAccessFlags(accessFlags, FieldAccessMask); err != nil {
		return Field{}, decodeErr(accessPos, err, "field access_flags")
	}

	nameIdx, err := r.ReadU16()
	if err != nil {
		return Field{}, err
	}
	name, err := pool.GetUtf8(nameIdx)
	if err != nil {
		return Field{}, ErrInvalidClassFile
	}

	descIdx, err := r.ReadU16()
	if err != nil {
		return Field{}, err
	}
	descStr, err := pool.GetUtf8(descIdx)
	if err != nil {
		return Field{}, ErrInvalidClassFile
	}
	desc, err := ParseFieldDescriptor(descStr)
	if err != nil {
		return Field{}, err
	}

	attrs, err := decodeAttributes(r, pool, ctx)
	if err != nil {
		return Field{}, err
	}

	return Field{AccessFlags: accessFlags, Name: name, Descriptor: desc, Attributes: attrs}, nil
}

func decodeMethods(r *Reader, pool *ConstantPool, ctx *decodeContext) ([]Method, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	methods := make([]Method, count)
	for i := range methods {
		m, err := decodeMethod(r, pool, ctx)
		if err != nil {
			return nil, err
		}
		methods[i] = m
	}
	return methods, nil
}

func decodeMethod(r *Reader, pool *ConstantPool, ctx *decodeContext) (Method, error) {
	accessPos := r.Position()
	rawAccess, err := r.ReadU16()
	if err != nil {
		return Method{}, err
	}
	accessFlags := AccessFlags(rawAccess)
	if err := validateAccessFlags(accessFlags, MethodAccessMask); err != nil {
		return Method{}, decodeErr(accessPos, err, "method access_flags")
	}

	nameIdx, err := r.ReadU16()
	if err != nil {
		return Method{}, err
	}
	name, err := pool.GetUtf8(nameIdx)
	if err != nil {
		return Method{}, ErrInvalidClassFile
	}

	descIdx, err := r.ReadU16()
	if err != nil {
		return Method{}, err
	}
	descStr, err := pool.GetUtf8(descIdx)
	if err != nil {
		return Method{}, ErrInvalidClassFile
	}
	desc, err := ParseMethodDescriptor(descStr)
	if err != nil {
		return Method{}, err
	}

	attrs, err := decodeAttributes(r, pool, ctx)
	if err != nil {
		return Method{}, err
	}

	return Method{AccessFlags: accessFlags, Name: name, Descriptor: desc, Attributes: attrs}, nil
}
