// Package textutil measures and slices Go strings in UTF-16 code units.
//
// Point offsets in the document model count UTF-16 code units so that they
// agree with the offsets produced by every JSON collaborator. Go strings are
// UTF-8, so every slice operation converts unit offsets to byte indexes. An
// offset that falls between the two halves of a surrogate pair snaps back to
// the start of that rune.
package textutil

import "unicode/utf8"

// runeUnits returns the number of UTF-16 code units needed for r.
func runeUnits(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}

// Len returns the length of s in UTF-16 code units.
func Len(s string) int {
	n := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		n += runeUnits(r)
		i += size
	}
	return n
}

// ByteIndex converts a UTF-16 offset into a byte index of s.
// Offsets beyond the end of s clamp to len(s).
func ByteIndex(s string, units int) int {
	if units <= 0 {
		return 0
	}
	n := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		w := runeUnits(r)
		if n+w > units {
			return i
		}
		n += w
		i += size
		if n == units {
			return i
		}
	}
	return len(s)
}

// Slice returns the part of s between the UTF-16 offsets from and to.
func Slice(s string, from, to int) string {
	if to < from {
		return ""
	}
	return s[ByteIndex(s, from):ByteIndex(s, to)]
}

// SliceFrom returns the part of s starting at the UTF-16 offset from.
func SliceFrom(s string, from int) string {
	return s[ByteIndex(s, from):]
}

// SliceTo returns the part of s before the UTF-16 offset to.
func SliceTo(s string, to int) string {
	return s[:ByteIndex(s, to)]
}

// Insert returns s with text inserted at the UTF-16 offset.
func Insert(s string, offset int, text string) string {
	i := ByteIndex(s, offset)
	return s[:i] + text + s[i:]
}

// Remove returns s with length UTF-16 units removed starting at offset.
func Remove(s string, offset, length int) string {
	i := ByteIndex(s, offset)
	j := ByteIndex(s, offset+length)
	return s[:i] + s[j:]
}

// Split splits s at distance units from the start, or from the end when
// reverse is set, and returns the consumed part followed by the remainder.
func Split(s string, distance int, reverse bool) (string, string) {
	if reverse {
		at := Len(s) - distance
		return SliceFrom(s, at), SliceTo(s, at)
	}
	return SliceTo(s, distance), SliceFrom(s, distance)
}
