package webhook

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// GenerateAPIKey returns a new plaintext webhook key and its hash. Either
// may be placed in WEBHOOK_API_KEYS; the plaintext goes to the form system.
func GenerateAPIKey() (plaintext string, hash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", err
	}
	plaintext = "whk_" + hex.EncodeToString(bytes)
	return plaintext, HashKey(plaintext), nil
}

// HashKey hashes a plaintext API key for comparison.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

// KeySet holds the accepted key hashes.
type KeySet struct {
	hashes [][]byte
}

// NewKeySet accepts plaintext keys or their 64-character sha256 hex hashes.
func NewKeySet(keys []string) *KeySet {
	ks := &KeySet{}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if !isHexHash(k) {
			k = HashKey(k)
		}
		ks.hashes = append(ks.hashes, []byte(strings.ToLower(k)))
	}
	return ks
}

// Len returns the number of configured keys.
func (ks *KeySet) Len() int { return len(ks.hashes) }

// Valid compares the presented key's hash against every configured hash.
func (ks *KeySet) Valid(presented string) bool {
	if presented == "" {
		return false
	}
	candidate := []byte(HashKey(presented))
	ok := 0
	for _, h := range ks.hashes {
		ok |= subtle.ConstantTimeCompare(candidate, h)
	}
	return ok == 1
}

func isHexHash(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
