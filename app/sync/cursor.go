package sync

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// A cursor marks a position in the (updated_at, id) total order of one
// collection. It is a position marker, not a security token; the encoding
// only needs to round-trip without losing timestamp precision.

// Timestamps below this are smaller than any plausible millisecond value
// (2000-01-01T00:00:00Z in ms) and are treated as seconds.
const millennium = int64(946684800000)

type cursorPayload struct {
	T int64  `json:"t"`
	I string `json:"i"`
}

// EncodeCursor encodes a (updatedAt, id) position as an opaque token.
func EncodeCursor(updatedAt int64, id string) string {
	payload, _ := json.Marshal(cursorPayload{T: updatedAt, I: id})
	return base64.StdEncoding.EncodeToString(payload)
}

// DecodeCursor decodes a cursor token. It never fails: an empty or
// malformed token yields the zero position, which causes a safe full
// re-pull. Legacy formats persisted by older replicas are still accepted:
// a plain "updatedAt:id" pair and a bare integer timestamp.
func DecodeCursor(cursor string) (int64, string) {
	if cursor == "" {
		return 0, ""
	}

	if decoded, err := base64.StdEncoding.DecodeString(cursor); err == nil {
		var payload struct {
			T *int64  `json:"t"`
			I *string `json:"i"`
		}
		if err := json.Unmarshal(decoded, &payload); err == nil && payload.T != nil && payload.I != nil {
			return normalizeMillis(*payload.T), *payload.I
		}
	}

	if idx := strings.Index(cursor, ":"); idx != -1 {
		updatedAt, err := strconv.ParseInt(cursor[:idx], 10, 64)
		if err != nil {
			updatedAt = 0
		}
		id := cursor[idx+1:]
		if unescaped, err := url.PathUnescape(id); err == nil {
			id = unescaped
		}
		return normalizeMillis(updatedAt), id
	}

	if updatedAt, err := strconv.ParseInt(cursor, 10, 64); err == nil {
		return normalizeMillis(updatedAt), ""
	}

	return 0, ""
}

// normalizeMillis widens second-scale timestamps to milliseconds. Some
// collaborators report updated_at in seconds; a value below the year-2000
// millisecond boundary cannot be a real millisecond timestamp here.
func normalizeMillis(t int64) int64 {
	if t > 0 && t < millennium {
		return t * 1000
	}
	return t
}
