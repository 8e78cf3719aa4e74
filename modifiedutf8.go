// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package rjvm

import "strings"

// decodeModifiedUTF8 decodes the class file format's modified UTF-8: the
// null byte is encoded as the two-byte sequence 0xC0 0x80 rather than a
// literal 0x00, and characters outside the Basic Multilingual Plane are
// encoded as a pair of three-byte surrogate sequences instead of a single
// four-byte sequence. No ecosystem library decodes this exact variant (it
// is specific to this virtual machine's class file format, not CESU-8 or
// plain UTF-8), so it is decoded by hand here; see DESIGN.md.
func decodeModifiedUTF8(b []byte) (string, error) {
	var sb strings.Builder
	sb.Grow(len(b))

	i := 0
	for i < len(b) {
		c := b[i]
		switch {
		case c&0x80 == 0:
			// 1-byte form: 0xxxxxxx, but 0x00 itself never appears literally.
			if c == 0 {
				return "", ErrInvalidData
			}
			sb.WriteByte(c)
			i++

		case c&0xE0 == 0xC0:
			// 2-byte form: 110xxxxx 10xxxxxx, including the 0xC0 0x80 null encoding.
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", ErrInvalidData
			}
			r := (rune(c&0x1F) << 6) | rune(b[i+1]&0x3F)
			sb.WriteRune(r)
			i += 2

		case c&0xF0 == 0xE0:
			// 3-byte form: 1110xxxx 10xxxxxx 10xxxxxx, or half of a surrogate pair.
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", ErrInvalidData
			}
			hi := (rune(c&0x0F) << 12) | (rune(b[i+1]&0x3F) << 6) | rune(b[i+2]&0x3F)
			i += 3

			if hi >= 0xD800 && hi <= 0xDBFF && i+2 < len(b) &&
				b[i] == 0xED && b[i+1]&0xF0 == 0xB0 {
				lo := (rune(b[i]&0x0F) << 12) | (rune(b[i+1]&0x3F) << 6) | rune(b[i+2]&0x3F)
				if lo >= 0xDC00 && lo <= 0xDFFF {
					r := 0x10000 + (hi-0xD800)<<10 + (lo - 0xDC00)
					sb.WriteRune(r)
					i += 3
					continue
				}
			}
			sb.WriteRune(hi)

		default:
			return "", ErrInvalidData
		}
	}

	return sb.String(), nil
}
