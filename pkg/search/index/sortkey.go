package index

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2/search"
)

// ErrInvalidSortKey is returned when a Query.After key does not decode.
// Keys only ever come back from a previous Results page, so a bad key
// means the caller handed us a tampered or truncated cursor.
var ErrInvalidSortKey = errors.New("invalid sort key")

// A sort key has one slot per sort criterion: score, creation time,
// entry id.
const sortKeySlots = 3

// portableSortKey converts a hit's position in the result order into a
// key that survives a round trip through a client-held cursor. bleve
// reports the score slot as the placeholder "_score" rather than the
// score itself, and the creation-time slot as a binary prefix-coded
// term that is not valid UTF-8. The portable form carries the numeric
// score, so a resumed search compares against the real value, and a hex
// encoding of the time term, so JSON transport cannot corrupt it.
func portableSortKey(hit *search.DocumentMatch) []string {
	var createdAt string
	if len(hit.Sort) > 1 {
		createdAt = hit.Sort[1]
	}
	return []string{
		strconv.FormatFloat(hit.Score, 'f', -1, 64),
		hex.EncodeToString([]byte(createdAt)),
		hit.ID,
	}
}

// searchAfterKey converts a portable sort key back into the slot values
// bleve compares against document sort values when resuming a search.
func searchAfterKey(key []string) ([]string, error) {
	if len(key) != sortKeySlots {
		return nil, fmt.Errorf("%w: %d slots", ErrInvalidSortKey, len(key))
	}
	if _, err := strconv.ParseFloat(key[0], 64); err != nil {
		return nil, fmt.Errorf("%w: unreadable score", ErrInvalidSortKey)
	}
	createdAt, err := hex.DecodeString(key[1])
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable creation time", ErrInvalidSortKey)
	}
	return []string{key[0], string(createdAt), key[2]}, nil
}
