// Package fingerprint computes the content digests used as deduplication keys.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

const (
	// MD5 renders a 128-bit digest as 32 lowercase hex characters.
	MD5 = "md5"
	// BLAKE3 renders a 256-bit digest as 64 lowercase hex characters.
	BLAKE3 = "blake3"
)

// Func returns the fingerprint of data. The result is deterministic and fixed-length.
type Func func(data []byte) string

// New returns the fingerprint function for the named algorithm.
// The algorithm must stay fixed for the lifetime of a catalog: changing it
// means previously stored content is no longer recognised as duplicate.
func New(algorithm string) (Func, error) {
	switch strings.ToLower(algorithm) {
	case "", MD5:
		return MD5Hex, nil
	case BLAKE3:
		return BLAKE3Hex, nil
	default:
		return nil, fmt.Errorf("unsupported fingerprint algorithm: %s", algorithm)
	}
}

// MD5Hex is the default fingerprint.
func MD5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// BLAKE3Hex fingerprints data with unkeyed BLAKE3-256.
func BLAKE3Hex(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
