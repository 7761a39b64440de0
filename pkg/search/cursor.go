package search

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidCursor is returned when a pagination cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// Cursors are opaque to clients. Internally a cursor carries the sort key
// of the last result on the previous page (score, creation time, entry
// id), so entries inserted between page fetches never duplicate or
// displace results already served. Scores are recomputed per query; an
// entry whose score drifts across the cursor boundary follows its new
// score.
type cursor struct {
	After []string `json:"after"`
}

func encodeCursor(sortKey []string) string {
	if len(sortKey) == 0 {
		return ""
	}
	payload, _ := json.Marshal(cursor{After: sortKey})
	return base64.RawURLEncoding.EncodeToString(payload)
}

func decodeCursor(value string) ([]string, error) {
	if value == "" {
		return nil, nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c cursor
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if len(c.After) == 0 {
		return nil, fmt.Errorf("%w: empty sort key", ErrInvalidCursor)
	}
	return c.After, nil
}
