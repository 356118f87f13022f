package db

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"blogify/internal/constants"
)

// Stored IDs carry the entity kind, e.g. "blg_9f86d081884c7d659a2feaa0".
const (
	userIDPrefix         = "usr"
	blogIDPrefix         = "blg"
	refreshTokenIDPrefix = "rft"
)

func newID(prefix string) (string, error) {
	b := make([]byte, constants.IDRandomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes for %s id: %w", prefix, err)
	}
	return prefix + "_" + hex.EncodeToString(b), nil
}
