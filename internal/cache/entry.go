package cache

import (
	"encoding/json"

	"dashboard-cache/internal/common/errors"
)

// entry is the envelope persisted for every key. Times are Unix milliseconds.
// ExpiresAt is fixed when the value is written; reads only move Timestamp.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	ExpiresAt int64           `json:"expiresAt"`
}

func (e entry) expired(nowMs int64) bool {
	return nowMs > e.ExpiresAt
}

func encodeEntry(e entry) (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", errors.SerializationError("failed to encode cache entry", err)
	}
	return string(b), nil
}

func decodeEntry(raw string) (entry, error) {
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return entry{}, errors.SerializationError("failed to decode cache entry", err)
	}
	if e.Data == nil {
		return entry{}, errors.SerializationError("cache entry has no data", nil)
	}
	return e, nil
}
