// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

// Attribute is implemented by every decoded attribute variant. AttributeName returns
// the attribute name as it appeared in the constant pool, which is how the
// registry dispatched to the decoder that produced this value.
type Attribute interface {
	AttributeName() string
}

// AttributeDecoderFunc decodes one attribute's payload. The header
// (attribute_name_index, attribute_length) has already been consumed by the
// caller; r is positioned at the first payload byte and bounded to exactly
// length bytes so a decoder cannot read past its own attribute.
type AttributeDecoderFunc func(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error)

// decodeContext threads the pieces a nested attribute decode needs: the
// registry to re-dispatch through (Code and Record attributes nest further
// attributes) and a recursion-depth counter enforcing
// Options.MaxAttributeRecursionDepth.
type decodeContext struct {
	registry      *AttributeRegistry
	depth         int
	maxDepth      int
	maxCodeLength uint32
}

func (c *decodeContext) nested() (*decodeContext, error) {
	if c.depth+1 > c.maxDepth {
		return nil, ErrInvalidClassFile
	}
	return &decodeContext{registry: c.registry, depth: c.depth + 1, maxDepth: c.maxDepth, maxCodeLength: c.maxCodeLength}, nil
}

// AttributeRegistry maps attribute names to the decoder that understands
// their payload. It is intentionally open: callers may Register additional
// names before decoding a class file, and a caller-supplied registry can
// replace the standard one via Options.Attributes.
type AttributeRegistry struct {
	decoders map[string]AttributeDecoderFunc
}

// NewAttributeRegistry returns a registry with no decoders registered.
func NewAttributeRegistry() *AttributeRegistry {
	return &AttributeRegistry{decoders: make(map[string]AttributeDecoderFunc)}
}

// Register installs decode as the decoder for attributes named name,
// overwriting any previous registration for that name.
func (reg *AttributeRegistry) Register(name string, decode AttributeDecoderFunc) {
	reg.decoders[name] = decode
}

// Lookup returns the decoder registered for name, if any.
func (reg *AttributeRegistry) Lookup(name string) (AttributeDecoderFunc, bool) {
	fn, ok := reg.decoders[name]
	return fn, ok
}

// NewStandardAttributeRegistry returns a registry with every attribute kind
// named in this decoder's attribute table already registered.
func NewStandardAttributeRegistry() *AttributeRegistry {
	reg := NewAttributeRegistry()
	reg.Register("ConstantValue", decodeConstantValueAttribute)
	reg.Register("Code", decodeCodeAttribute)
	reg.Register("StackMapTable", decodeStackMapTableAttribute)
	reg.Register("Exceptions", decodeExceptionsAttribute)
	reg.Register("InnerClasses", decodeInnerClassesAttribute)
	reg.Register("EnclosingMethod", decodeEnclosingMethodAttribute)
	reg.Register("Synthetic", decodeSyntheticAttribute)
	reg.Register("Deprecated", decodeDeprecatedAttribute)
	reg.Register("Signature", decodeSignatureAttribute)
	reg.Register("SourceFile", decodeSourceFileAttribute)
	reg.Register("SourceDebugExtension", decodeSourceDebugExtensionAttribute)
	reg.Register("LineNumberTable", decodeLineNumberTableAttribute)
	reg.Register("LocalVariableTable", decodeLocalVariableTableAttribute)
	reg.Register("LocalVariableTypeTable", decodeLocalVariableTypeTableAttribute)
	reg.Register("RuntimeVisibleAnnotations", decodeRuntimeVisibleAnnotationsAttribute)
	reg.Register("RuntimeInvisibleAnnotations", decodeRuntimeInvisibleAnnotationsAttribute)
	reg.Register("RuntimeVisibleParameterAnnotations", decodeRuntimeVisibleParameterAnnotationsAttribute)
	reg.Register("RuntimeInvisibleParameterAnnotations", decodeRuntimeInvisibleParameterAnnotationsAttribute)
	reg.Register("RuntimeVisibleTypeAnnotations", decodeRuntimeVisibleTypeAnnotationsAttribute)
	reg.Register("RuntimeInvisibleTypeAnnotations", decodeRuntimeInvisibleTypeAnnotationsAttribute)
	reg.Register("AnnotationDefault", decodeAnnotationDefaultAttribute)
	reg.Register("BootstrapMethods", decodeBootstrapMethodsAttribute)
	reg.Register("MethodParameters", decodeMethodParametersAttribute)
	reg.Register("Module", decodeModuleAttribute)
	reg.Register("ModulePackages", decodeModulePackagesAttribute)
	reg.Register("ModuleMainClass", decodeModuleMainClassAttribute)
	reg.Register("NestHost", decodeNestHostAttribute)
	reg.Register("NestMembers", decodeNestMembersAttribute)
	reg.Register("Record", decodeRecordAttribute)
	reg.Register("PermittedSubtypes", decodePermittedSubtypesAttribute)
	return reg
}

// decodeAttributes reads the common "n attributes follow" schema shared by
// the class file, field_info, method_info, Code, and Record payloads: a u16
// count followed by that many (name_index, length, payload) blocks. Each
// block is dispatched to ctx.registry by the name resolved through pool.
func decodeAttributes(r *Reader, pool *ConstantPool, ctx *decodeContext) ([]Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, 0, count)
	for i := uint16(0); i < count; i++ {
		attr, err := decodeOneAttribute(r, pool, ctx)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func decodeOneAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	pos := r.Position()
	nameIdx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	length, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	payload, err := r.ReadBytes(length)
	if err != nil {
		return nil, err
	}

	name, err := pool.GetUtf8(nameIdx)
	if err != nil {
		return nil, decodeErr(pos, err, "attribute name")
	}

	decode, ok := ctx.registry.Lookup(name)
	if !ok {
		return nil, decodeErr(pos, ErrUnsupportedAttributeName, name)
	}

	sub := NewReader(payload)
	attr, err := decode(sub, pool, ctx)
	if err != nil {
		return nil, decodeErr(pos, err, name)
	}
	return attr, nil
}

// namedAttribute embeds into every standard attribute struct to provide its
// AttributeName method. Name is filled in by the decoder that produces it.
type namedAttribute struct {
	Name string
}

func (a namedAttribute) AttributeName() string { return a.Name }
