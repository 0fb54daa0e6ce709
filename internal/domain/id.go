package domain

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

// Record ids are 24 lowercase hex characters, matching the opaque id
// format the public API has always exposed.
var idPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// NewID generates a fresh 24-hex-character record identifier
func NewID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// ValidID reports whether id matches the opaque id format
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
