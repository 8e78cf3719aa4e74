// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// Default ceilings applied when the corresponding Options field is left at
// zero. They are generous relative to any class file a real compiler
// produces; their purpose is to bound the resource a hostile or corrupted
// input can make the decoder commit to, not to reject legitimate input.
const (
	defaultMaxConstantPoolEntries    = 1 << 16
	defaultMaxCodeLength             = 1 << 20
	defaultMaxAttributeRecursionDepth = 16
)

// Options configures a decode pass. A nil *Options (or the zero value) uses
// defaults throughout: the standard attribute registry, a discarding
// logger, and the ceilings above.
type Options struct {
	// MaxConstantPoolEntries bounds constant_pool_count. 0 means the default.
	MaxConstantPoolEntries uint32
	// MaxCodeLength bounds a Code attribute's code_length. 0 means the default.
	MaxCodeLength uint32
	// MaxAttributeRecursionDepth bounds how deeply attributes may nest
	// (Code and Record attributes nest further attributes). 0 means the
	// default.
	MaxAttributeRecursionDepth int

	// Attributes is the registry used to dispatch attribute decoding. nil
	// uses NewStandardAttributeRegistry().
	Attributes *AttributeRegistry

	// Logger receives diagnostics emitted during the decode pass. nil
	// discards them.
	Logger Logger
}

// withDefaults returns opts, or a fresh zero-value Options if opts is nil.
// It never mutates the caller's Options.
func (o *Options) withDefaults() *Options {
	if o == nil {
		return &Options{}
	}
	return o
}

func (o *Options) attributeRegistry() *AttributeRegistry {
	if o.Attributes != nil {
		return o.Attributes
	}
	return NewStandardAttributeRegistry()
}

func (o *Options) maxAttributeRecursionDepth() int {
	if o.MaxAttributeRecursionDepth > 0 {
		return o.MaxAttributeRecursionDepth
	}
	return defaultMaxAttributeRecursionDepth
}

func (o *Options) maxCodeLengthValue() uint32 {
	if o.MaxCodeLength > 0 {
		return o.MaxCodeLength
	}
	return defaultMaxCodeLength
}

func (o *Options) maxConstantPoolEntriesValue() uint32 {
	if o.MaxConstantPoolEntries > 0 {
		return o.MaxConstantPoolEntries
	}
	return defaultMaxConstantPoolEntries
}

// Load decodes a class file already held in memory.
func Load(data []byte, opts *Options) (*ClassFile, error) {
	r := NewReader(data)
	return DecodeClassFile(r, opts)
}

// LoadFile memory-maps path, decodes it as a class file, and unmaps it
// before returning. Reader borrows its slices rather than copying them
// (ReadBytes hands back a window into the original buffer, and a Code
// attribute's code array is one such window), so the mapped bytes are
// copied into an owned buffer before decoding; nothing in the returned
// ClassFile points back into the mapping.
func LoadFile(path string, opts *Options) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	owned := make([]byte, len(m))
	copy(owned, m)
	if err := m.Unmap(); err != nil {
		return nil, err
	}

	return Load(owned, opts)
}
