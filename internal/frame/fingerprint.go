package frame

import (
	"fmt"
	"hash"
	"hash/crc64"
	"hash/fnv"
	"strings"
)

// DefaultPrefixBytes is how much of a frame's buffer is hashed by default.
const DefaultPrefixBytes = 10000

// Supported fingerprint algorithms.
const (
	AlgorithmFNV64a = "fnv64a"
	AlgorithmCRC64  = "crc64"
	AlgorithmFull   = "full"
)

// Fingerprint is a cheap digest of a frame, only ever compared for equality
// against the previous capture.
type Fingerprint uint64

// Fingerprinter computes a Fingerprint for a frame.
type Fingerprinter func(*Frame) Fingerprint

// IsDuplicate reports whether two fingerprints are equal, meaning the
// surface did not change between the two captures.
func IsDuplicate(a, b Fingerprint) bool {
	return a == b
}

// PrefixFingerprinter hashes the first n bytes of the pixel buffer.
// Changes that only touch bytes past the prefix go unnoticed.
func PrefixFingerprinter(n int, newHash func() hash.Hash64) Fingerprinter {
	return func(f *Frame) Fingerprint {
		data := f.Pix
		if n > 0 && len(data) > n {
			data = data[:n]
		}
		return sum(newHash, data)
	}
}

// FullFingerprinter hashes the whole pixel buffer.
func FullFingerprinter(newHash func() hash.Hash64) Fingerprinter {
	return func(f *Frame) Fingerprint {
		return sum(newHash, f.Pix)
	}
}

// NewFingerprinter builds a fingerprinter from configuration values.
func NewFingerprinter(algorithm string, prefixBytes int) (Fingerprinter, error) {
	if prefixBytes <= 0 {
		prefixBytes = DefaultPrefixBytes
	}

	switch strings.ToLower(algorithm) {
	case "", AlgorithmFNV64a:
		return PrefixFingerprinter(prefixBytes, fnv.New64a), nil
	case AlgorithmCRC64:
		return PrefixFingerprinter(prefixBytes, newCRC64), nil
	case AlgorithmFull:
		return FullFingerprinter(fnv.New64a), nil
	default:
		return nil, fmt.Errorf("unknown fingerprint algorithm %q (use %s, %s or %s)",
			algorithm, AlgorithmFNV64a, AlgorithmCRC64, AlgorithmFull)
	}
}

var crcTable = crc64.MakeTable(crc64.ECMA)

func newCRC64() hash.Hash64 {
	return crc64.New(crcTable)
}

func sum(newHash func() hash.Hash64, data []byte) Fingerprint {
	h := newHash()
	h.Write(data)
	return Fingerprint(h.Sum64())
}
