// Package fingerprint reproduces the browser-side identity digest: a
// MurmurHash3 x86_32 style mixer fed one UTF-16 code unit per round
// (the way JS charCodeAt iteration does it), rendered as lowercase hex
// without zero padding. Server code never verifies client hashes; the
// identity is opaque and trivially forgeable. The same digest is reused
// to derive rate-marker filenames and lets Go clients mint identities
// byte-for-byte compatible with the web front end.
package fingerprint

import (
	"math/bits"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Signal is one named device probe result. Order matters: the digest is
// computed over values in insertion order, which a Go map cannot carry.
type Signal struct {
	Name  string
	Value string
}

const (
	c1 = 0xcc9e2d51
	c2 = 0x1b873593

	delimiter = "|||"
)

// Sum32 mixes the UTF-16 code units of s. Not byte-wise murmur3: each
// code unit is a whole mix round, surrogate halves included.
func Sum32(s string) uint32 {
	units := utf16.Encode([]rune(s))

	var h uint32
	for _, u := range units {
		k := uint32(u)
		k *= c1
		k = bits.RotateLeft32(k, 15)
		k *= c2
		h ^= k
		h = bits.RotateLeft32(h, 13)
		h = h*5 + 0xe6546b64
	}

	h ^= uint32(len(units))
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// HashString renders Sum32 the way JS (h>>>0).toString(16) does:
// lowercase hex, no leading zeros.
func HashString(s string) string {
	return strconv.FormatUint(uint64(Sum32(s)), 16)
}

// Digest derives the identity hash from a signal bundle: values joined
// in insertion order with the fixed delimiter, then hashed.
func Digest(signals []Signal) string {
	values := make([]string, len(signals))
	for i, sig := range signals {
		values[i] = sig.Value
	}
	return HashString(strings.Join(values, delimiter))
}
