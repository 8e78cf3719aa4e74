// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

// ConstantValueAttribute names the constant pool entry holding a field's
// compile-time constant value.
type ConstantValueAttribute struct {
	namedAttribute
	ValueIndex uint16
}

func decodeConstantValueAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	idx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return ConstantValueAttribute{namedAttribute{"ConstantValue"}, idx}, nil
}

// SyntheticAttribute marks a member as compiler-generated. It carries no
// payload.
type SyntheticAttribute struct{ namedAttribute }

func decodeSyntheticAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	return SyntheticAttribute{namedAttribute{"Synthetic"}}, nil
}

// DeprecatedAttribute marks a member as deprecated. It carries no payload.
type DeprecatedAttribute struct{ namedAttribute }

func decodeDeprecatedAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	return DeprecatedAttribute{namedAttribute{"Deprecated"}}, nil
}

// SignatureAttribute names the constant pool entry holding a generic
// signature string.
type SignatureAttribute struct {
	namedAttribute
	SignatureIndex uint16
}

func decodeSignatureAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	idx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return SignatureAttribute{namedAttribute{"Signature"}, idx}, nil
}

// SourceFileAttribute names the constant pool entry holding the source file
// name the class was compiled from.
type SourceFileAttribute struct {
	namedAttribute
	SourceFileIndex uint16
}

func decodeSourceFileAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	idx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return SourceFileAttribute{namedAttribute{"SourceFile"}, idx}, nil
}

// SourceDebugExtensionAttribute carries implementation-defined debug
// information, stored verbatim rather than as a constant pool reference.
type SourceDebugExtensionAttribute struct {
	namedAttribute
	DebugExtension []byte
}

func decodeSourceDebugExtensionAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	rest, err := r.ReadBytes(r.Size() - r.Position())
	if err != nil {
		return nil, err
	}
	return SourceDebugExtensionAttribute{namedAttribute{"SourceDebugExtension"}, rest}, nil
}

// EnclosingMethodAttribute names the innermost enclosing class and, when the
// attribute's class is a local or anonymous class declared inside a method,
// the enclosing method's NameAndType entry.
type EnclosingMethodAttribute struct {
	namedAttribute
	ClassIndex  uint16
	MethodIndex uint16
}

func decodeEnclosingMethodAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	classIdx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	methodIdx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return EnclosingMethodAttribute{namedAttribute{"EnclosingMethod"}, classIdx, methodIdx}, nil
}

// ExceptionsAttribute lists the checked exception types a method's throws
// clause declares, each a Class entry index.
type ExceptionsAttribute struct {
	namedAttribute
	ExceptionIndexTable []uint16
}

func decodeExceptionsAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	table := make([]uint16, count)
	for i := range table {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		table[i] = idx
	}
	return ExceptionsAttribute{namedAttribute{"Exceptions"}, table}, nil
}

// InnerClassEntry is one entry of an InnerClasses attribute.
type InnerClassEntry struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags AccessFlags
}

// InnerClassesAttribute lists the classes and interfaces that are members of
// the class or that it is itself a member of.
type InnerClassesAttribute struct {
	namedAttribute
	Classes []InnerClassEntry
}

func decodeInnerClassesAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	classes := make([]InnerClassEntry, count)
	for i := range classes {
		inner, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		outer, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		flags, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		af := AccessFlags(flags)
		if err := validateAccessFlags(af, InnerClassAccessMask); err != nil {
			return nil, err
		}
		classes[i] = InnerClassEntry{inner, outer, name, af}
	}
	return InnerClassesAttribute{namedAttribute{"InnerClasses"}, classes}, nil
}

// BootstrapMethod is one entry of a BootstrapMethods attribute: a method
// handle and the static arguments passed to it at link time.
type BootstrapMethod struct {
	MethodRefIndex uint16
	Arguments      []uint16
}

// BootstrapMethodsAttribute lists the bootstrap methods invokedynamic and
// dynamic constant entries reference by index.
type BootstrapMethodsAttribute struct {
	namedAttribute
	Methods []BootstrapMethod
}

func decodeBootstrapMethodsAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	methods := make([]BootstrapMethod, count)
	for i := range methods {
		ref, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		argc, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		args := make([]uint16, argc)
		for j := range args {
			a, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			args[j] = a
		}
		methods[i] = BootstrapMethod{ref, args}
	}
	return BootstrapMethodsAttribute{namedAttribute{"BootstrapMethods"}, methods}, nil
}

// MethodParameter is one entry of a MethodParameters attribute.
type MethodParameter struct {
	NameIndex   uint16 // 0 means the parameter has no name
	AccessFlags AccessFlags
}

// MethodParametersAttribute names each formal parameter of a method and its
// access flags (ACC_FINAL, ACC_SYNTHETIC, ACC_MANDATED).
type MethodParametersAttribute struct {
	namedAttribute
	Parameters []MethodParameter
}

func decodeMethodParametersAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	count, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	params := make([]MethodParameter, count)
	for i := range params {
		name, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		flags, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		params[i] = MethodParameter{name, AccessFlags(flags)}
	}
	return MethodParametersAttribute{namedAttribute{"MethodParameters"}, params}, nil
}

// ModuleRequires, ModuleExports, ModuleOpens, ModuleProvides describe one
// entry each of a Module attribute's four declaration tables.
type ModuleRequires struct {
	RequiresIndex   uint16
	RequiresFlags   AccessFlags
	RequiresVersion uint16 // 0 means no version string
}

type ModuleExports struct {
	ExportsIndex uint16
	ExportsFlags AccessFlags
	ExportsTo    []uint16
}

type ModuleOpens struct {
	OpensIndex uint16
	OpensFlags AccessFlags
	OpensTo    []uint16
}

type ModuleProvides struct {
	ProvidesIndex   uint16
	ProvidesWith    []uint16
}

// ModuleAttribute describes a module declaration: its own identity plus the
// requires/exports/opens/uses/provides relationships it declares.
type ModuleAttribute struct {
	namedAttribute
	ModuleNameIndex uint16
	ModuleFlags     AccessFlags
	ModuleVersion   uint16
	Requires        []ModuleRequires
	Exports         []ModuleExports
	Opens           []ModuleOpens
	Uses            []uint16
	Provides        []ModuleProvides
}

func decodeModuleAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	nameIdx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	flags, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	version, err := r.ReadU16()
	if err != nil {
		return nil, err
	}

	reqCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	requires := make([]ModuleRequires, reqCount)
	for i := range requires {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		f, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		v, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		requires[i] = ModuleRequires{idx, AccessFlags(f), v}
	}

	exports, err := decodeModuleExportsOrOpens(r)
	if err != nil {
		return nil, err
	}
	moduleExports := make([]ModuleExports, len(exports))
	for i, e := range exports {
		moduleExports[i] = ModuleExports{e.index, e.flags, e.to}
	}

	opens, err := decodeModuleExportsOrOpens(r)
	if err != nil {
		return nil, err
	}
	moduleOpens := make([]ModuleOpens, len(opens))
	for i, o := range opens {
		moduleOpens[i] = ModuleOpens{o.index, o.flags, o.to}
	}

	usesCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	uses := make([]uint16, usesCount)
	for i := range uses {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		uses[i] = idx
	}

	providesCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	provides := make([]ModuleProvides, providesCount)
	for i := range provides {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		withCount, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		with := make([]uint16, withCount)
		for j := range with {
			w, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			with[j] = w
		}
		provides[i] = ModuleProvides{idx, with}
	}

	return ModuleAttribute{
		namedAttribute{"Module"}, nameIdx, AccessFlags(flags), version,
		requires, moduleExports, moduleOpens, uses, provides,
	}, nil
}

// exportsOrOpensEntry is the shared (index, flags, to[]) shape of an exports
// or opens declaration; ModuleExports and ModuleOpens differ only in field
// naming.
type exportsOrOpensEntry struct {
	index uint16
	flags AccessFlags
	to    []uint16
}

func decodeModuleExportsOrOpens(r *Reader) ([]exportsOrOpensEntry, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	entries := make([]exportsOrOpensEntry, count)
	for i := range entries {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		flags, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		toCount, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		to := make([]uint16, toCount)
		for j := range to {
			t, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			to[j] = t
		}
		entries[i] = exportsOrOpensEntry{idx, AccessFlags(flags), to}
	}
	return entries, nil
}

// ModulePackagesAttribute lists every package the module declares, whether
// or not it is exported or opened.
type ModulePackagesAttribute struct {
	namedAttribute
	PackageIndexes []uint16
}

func decodeModulePackagesAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	pkgs := make([]uint16, count)
	for i := range pkgs {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		pkgs[i] = idx
	}
	return ModulePackagesAttribute{namedAttribute{"ModulePackages"}, pkgs}, nil
}

// ModuleMainClassAttribute names the module's main class, if it has one.
type ModuleMainClassAttribute struct {
	namedAttribute
	MainClassIndex uint16
}

func decodeModuleMainClassAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	idx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return ModuleMainClassAttribute{namedAttribute{"ModuleMainClass"}, idx}, nil
}

// NestHostAttribute names the nest host of the class carrying it.
type NestHostAttribute struct {
	namedAttribute
	HostClassIndex uint16
}

func decodeNestHostAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	idx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	return NestHostAttribute{namedAttribute{"NestHost"}, idx}, nil
}

// NestMembersAttribute lists the classes permitted to claim this class as
// their nest host.
type NestMembersAttribute struct {
	namedAttribute
	Classes []uint16
}

func decodeNestMembersAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	classes := make([]uint16, count)
	for i := range classes {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		classes[i] = idx
	}
	return NestMembersAttribute{namedAttribute{"NestMembers"}, classes}, nil
}

// PermittedSubtypesAttribute lists the classes or interfaces authorized to
// directly extend or implement a sealed class.
type PermittedSubtypesAttribute struct {
	namedAttribute
	Classes []uint16
}

func decodePermittedSubtypesAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	classes := make([]uint16, count)
	for i := range classes {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		classes[i] = idx
	}
	return PermittedSubtypesAttribute{namedAttribute{"PermittedSubtypes"}, classes}, nil
}

// RecordComponent is one component of a Record attribute.
type RecordComponent struct {
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// RecordAttribute lists the components of a record class. Its payload nests
// further attributes per component (typically Signature), so decoding it
// re-enters the attribute dispatch path.
type RecordAttribute struct {
	namedAttribute
	Components []RecordComponent
}

func decodeRecordAttribute(r *Reader, pool *ConstantPool, ctx *decodeContext) (Attribute, error) {
	nested, err := ctx.nested()
	if err != nil {
		return nil, err
	}
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	components := make([]RecordComponent, count)
	for i := range components {
		name, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		desc, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		attrs, err := decodeAttributes(r, pool, nested)
		if err != nil {
			return nil, err
		}
		components[i] = RecordComponent{name, desc, attrs}
	}
	return RecordAttribute{namedAttribute{"Record"}, components}, nil
}
