package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
)

// ComputePointsHash computes a deterministic fingerprint of a point sequence using SHA256.
// Formula: SHA256(line_0\nline_1\n...), line = ts|key=value;key=value with keys sorted.
// Returns hex-encoded hash (64 characters).
func ComputePointsHash(points []domain.Point) string {
	h := sha256.New()
	for _, p := range points {
		fmt.Fprintf(h, "%d|%s\n", p.TimestampMs, canonicalFeatures(p.Features))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func canonicalFeatures(f domain.Features) string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + canonicalScalar(f[k])
	}
	return strings.Join(parts, ";")
}

// canonicalScalar tags values with their kind so "1" and 1 hash differently.
func canonicalScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "n:"
	case bool:
		return "b:" + strconv.FormatBool(t)
	case string:
		return "s:" + strconv.Quote(t)
	}
	if x, ok := domain.ToNumber(v); ok {
		return "f:" + strconv.FormatFloat(x, 'g', -1, 64)
	}
	return fmt.Sprintf("o:%v", v)
}
