package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeOutputHash computes a deterministic fingerprint of one node's output sequence using SHA256.
// Formula: SHA256(series_id|node_id|bits), bits = one '0' or '1' per step.
// Returns hex-encoded hash (64 characters).
func ComputeOutputHash(seriesID, nodeID string, outputs []bool) string {
	bits := make([]byte, len(outputs))
	for i, o := range outputs {
		bits[i] = '0'
		if o {
			bits[i] = '1'
		}
	}

	data := fmt.Sprintf("%s|%s|%s", seriesID, nodeID, bits)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
