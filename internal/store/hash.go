package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ContentHash computes the content address of a preset payload.
// Identical colour rounds share one entry regardless of their name.
func ContentHash(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", errors.New("empty payload")
	}
	hash := sha256.Sum256(payload)
	return "sha256:" + hex.EncodeToString(hash[:]), nil
}

// ShortHash returns a shortened version of the hash for display purposes.
func ShortHash(fullHash string) string {
	// Remove "sha256:" prefix and take first 12 chars
	if len(fullHash) > 19 {
		return fullHash[7:19]
	}
	return fullHash
}

// hashToFilename converts a full hash to a safe filename.
func hashToFilename(hash string) string {
	return strings.TrimPrefix(hash, "sha256:")
}
