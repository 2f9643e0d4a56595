package server

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ClientHasher turns client IPs into stable, non-reversible identifiers so raw
// addresses are never stored.
type ClientHasher struct {
	key []byte
}

// NewClientHasher returns a hasher keyed with key, which may be empty and at
// most 64 bytes.
func NewClientHasher(key []byte) (*ClientHasher, error) {
	if len(key) > blake2b.Size {
		return nil, fmt.Errorf("ip hash key must be at most %d bytes, got %d", blake2b.Size, len(key))
	}
	return &ClientHasher{key: key}, nil
}

// Hash returns a 32-character hex digest of ip, or "" for an empty ip.
func (h *ClientHasher) Hash(ip string) string {
	if ip == "" {
		return ""
	}
	d, err := blake2b.New(16, h.key)
	if err != nil {
		return ""
	}
	d.Write([]byte(ip))
	return hex.EncodeToString(d.Sum(nil))
}
