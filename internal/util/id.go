package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewID returns a random hex identifier, optionally namespaced by prefix
// (e.g. "jr" for journals, "usr" for users).
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

// NewSessionID returns a timestamp-derived opaque token for scoping one chat
// conversation, matching the client's "New Chat" token shape.
func NewSessionID() string {
	bytes := make([]byte, 4)
	_, _ = rand.Read(bytes)
	return fmt.Sprintf("chat_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(bytes))
}
