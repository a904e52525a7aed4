package util

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns a fresh UUID string. Entity primary keys are UUIDs so they
// align with the uuid columns in Postgres.
func NewID() string {
	return uuid.NewString()
}

// IsUUID reports whether value parses as a UUID.
func IsUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}

// NewOpaqueToken returns a random hex token, optionally prefixed. Used for
// refresh tokens where the value is opaque rather than a row id.
func NewOpaqueToken(prefix string) string {
	bytes := make([]byte, 24)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
