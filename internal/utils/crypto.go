package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex encoded sha256 of data. Visitor ids are stored hashed.
func Hash(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
